package intent

import (
	"fmt"

	"github.com/veesix-networks/unicastdhcp/pkg/app"
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/flow"
)

const (
	MinPriority = 1
	MaxPriority = 65535
)

// FilteredConnectPoint is an attachment point with an optional per-point
// selector. An empty selector matches all traffic at the point.
type FilteredConnectPoint struct {
	ConnectPoint connectpoint.ConnectPoint
	Selector     *flow.TrafficSelector
}

func NewFilteredConnectPoint(cp connectpoint.ConnectPoint) FilteredConnectPoint {
	return FilteredConnectPoint{ConnectPoint: cp, Selector: flow.NewSelector().Build()}
}

// PointToPointIntent asks the forwarding subsystem for a unidirectional path
// from Ingress to Egress carrying traffic that matches Selector.
type PointToPointIntent struct {
	Key      string
	AppID    app.ID
	Ingress  FilteredConnectPoint
	Egress   FilteredConnectPoint
	Priority int
	Selector *flow.TrafficSelector
}

func (i *PointToPointIntent) String() string {
	return fmt.Sprintf("PointToPointIntent{key=%s, app=%s, %s => %s, priority=%d, selector=%s}",
		i.Key, i.AppID, i.Ingress.ConnectPoint, i.Egress.ConnectPoint, i.Priority, i.Selector)
}

// Service accepts intents for asynchronous compilation. Submit does not
// report installation results; ownership of the intent passes to the service.
type Service interface {
	Submit(intent *PointToPointIntent)
}

type Builder struct {
	intent PointToPointIntent
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AppID(id app.ID) *Builder {
	b.intent.AppID = id
	return b
}

func (b *Builder) Key(key string) *Builder {
	b.intent.Key = key
	return b
}

func (b *Builder) FilteredIngressPoint(p FilteredConnectPoint) *Builder {
	b.intent.Ingress = p
	return b
}

func (b *Builder) FilteredEgressPoint(p FilteredConnectPoint) *Builder {
	b.intent.Egress = p
	return b
}

func (b *Builder) Priority(p int) *Builder {
	b.intent.Priority = p
	return b
}

func (b *Builder) Selector(s *flow.TrafficSelector) *Builder {
	b.intent.Selector = s
	return b
}

func (b *Builder) Build() (*PointToPointIntent, error) {
	in := b.intent
	if in.AppID.Name == "" {
		return nil, fmt.Errorf("intent: application id is required")
	}
	if in.Ingress.ConnectPoint.IsZero() {
		return nil, fmt.Errorf("intent: ingress point is required")
	}
	if in.Egress.ConnectPoint.IsZero() {
		return nil, fmt.Errorf("intent: egress point is required")
	}
	if in.Priority < MinPriority || in.Priority > MaxPriority {
		return nil, fmt.Errorf("intent: priority %d out of range [%d, %d]", in.Priority, MinPriority, MaxPriority)
	}
	if in.Selector == nil {
		in.Selector = flow.NewSelector().Build()
	}
	return &in, nil
}
