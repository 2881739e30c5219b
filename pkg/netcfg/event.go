package netcfg

type EventType int

const (
	ConfigAdded EventType = iota + 1
	ConfigUpdated
	ConfigRemoved
	ConfigRegistered
	ConfigUnregistered
)

func (t EventType) String() string {
	switch t {
	case ConfigAdded:
		return "CONFIG_ADDED"
	case ConfigUpdated:
		return "CONFIG_UPDATED"
	case ConfigRemoved:
		return "CONFIG_REMOVED"
	case ConfigRegistered:
		return "CONFIG_REGISTERED"
	case ConfigUnregistered:
		return "CONFIG_UNREGISTERED"
	default:
		return "UNKNOWN"
	}
}

// Event describes a change to a (subject class, subject, config key) entry.
// Config is the entry after the change and PrevConfig the one it replaced;
// either may be nil.
type Event struct {
	Type         EventType
	SubjectClass string
	Subject      string
	ConfigKey    string
	Config       Config
	PrevConfig   Config
}

// Listener receives config events. Implementations must be comparable
// (typically pointers) so RemoveListener can find them.
type Listener interface {
	Event(event Event)
}
