package intent

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
)

// Publisher hands submitted intents to the forwarding subsystem over the
// event bus. It keys intents that arrive without one and keeps no state
// about them afterwards.
type Publisher struct {
	bus       events.Bus
	logger    *slog.Logger
	submitted atomic.Uint64
}

func NewPublisher(bus events.Bus) *Publisher {
	return &Publisher{
		bus:    bus,
		logger: logger.Get(logger.Intent),
	}
}

func (p *Publisher) Submit(in *PointToPointIntent) {
	if in.Key == "" {
		in.Key = uuid.New().String()
	}

	p.bus.Publish(events.TopicIntentSubmitted, events.Event{
		Source: logger.Intent,
		Data: events.IntentSubmittedEvent{
			Key:      in.Key,
			AppName:  in.AppID.Name,
			Ingress:  in.Ingress.ConnectPoint.String(),
			Egress:   in.Egress.ConnectPoint.String(),
			Priority: in.Priority,
			Selector: in.Selector.String(),
		},
	})

	p.submitted.Add(1)
	p.logger.Debug("Intent handed off", "intent", in.String())
}

func (p *Publisher) Submitted() uint64 {
	return p.submitted.Load()
}
