package events

// NetworkConfigEvent mirrors a netcfg registry event for bus observers.
type NetworkConfigEvent struct {
	Type         string
	SubjectClass string
	Subject      string
	ConfigKey    string
}

// ServerLocationEvent is published whenever the DHCP server attachment point
// takes effect or is cleared. Location is empty when cleared.
type ServerLocationEvent struct {
	AppName  string
	Location string
}

type IntentSubmittedEvent struct {
	Key      string
	AppName  string
	Ingress  string
	Egress   string
	Priority int
	Selector string
}
