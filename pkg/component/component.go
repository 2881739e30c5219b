package component

import "context"

// Component is a unit of the daemon with an explicit lifecycle. Start must
// not block; long running work is spawned with Base.Go.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
