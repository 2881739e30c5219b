package events

const (
	TopicNetworkConfig   = "unicastdhcp:events:netcfg"
	TopicServerLocation  = "unicastdhcp:events:server:location"
	TopicIntentSubmitted = "unicastdhcp:events:intent:submitted"
)
