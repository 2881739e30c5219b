package events

import "time"

// Event is the envelope carried on the bus. ID, Type and Timestamp are
// filled in on publish when left empty.
type Event struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	Data      any
}
