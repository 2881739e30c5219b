package events

type Handler func(Event)

type Subscription interface {
	Unsubscribe()
}

type TopicStats struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

type Stats struct {
	Topics       []TopicStats `json:"topics"`
	PublishChLen int          `json:"publish-channel-length"`
	PublishChCap int          `json:"publish-channel-capacity"`
	Published    uint64       `json:"published"`
	Dropped      uint64       `json:"dropped"`
}

// Bus delivers events asynchronously. Publish never blocks; when the
// internal queue is full the event is dropped and counted.
type Bus interface {
	Publish(topic string, event Event)
	Subscribe(topic string, handler Handler) Subscription
	SubscribeAll(handler Handler) Subscription
	Stats() Stats
	Close() error
}
