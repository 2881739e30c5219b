package packet

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/veesix-networks/unicastdhcp/pkg/app"
	"github.com/veesix-networks/unicastdhcp/pkg/flow"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
)

// Processor handles packets punted to the controller. Process may be called
// concurrently for different packets.
type Processor interface {
	Process(ctx *Context)
}

const (
	advisorMax  = 100
	directorMax = 100000
)

// Advisor returns a priority for processors that observe packets before any
// director acts on them.
func Advisor(n int) int {
	return n
}

// Director returns a priority for processors that act on packets. Lower
// values run first.
func Director(n int) int {
	return advisorMax + n
}

// Observer returns a priority for processors that run after all directors.
func Observer(n int) int {
	return directorMax + n
}

// Priority is the precedence of a packet request. Reactive requests sit
// below any installed forwarding state.
type Priority int

const (
	PriorityReactive Priority = 5
	PriorityControl  Priority = 40000
)

func (p Priority) String() string {
	switch p {
	case PriorityReactive:
		return "REACTIVE"
	case PriorityControl:
		return "CONTROL"
	default:
		return fmt.Sprintf("%d", int(p))
	}
}

type Request struct {
	Selector *flow.TrafficSelector
	Priority Priority
	AppID    app.ID
}

type registeredProcessor struct {
	processor Processor
	priority  int
	seq       uint64
}

// Service dispatches inbound packets to registered processors. Only packets
// matching at least one requested selector are dispatched.
type Service struct {
	logger *slog.Logger

	mu         sync.RWMutex
	processors []registeredProcessor
	requests   []Request
	seq        uint64

	dispatched atomic.Uint64
	filtered   atomic.Uint64
}

func NewService() *Service {
	return &Service{
		logger: logger.Get(logger.Packet),
	}
}

// AddProcessor registers p at priority. Processors with equal priority run in
// registration order. p must be comparable so RemoveProcessor can find it.
func (s *Service) AddProcessor(p Processor, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.processors = append(s.processors, registeredProcessor{processor: p, priority: priority, seq: s.seq})
	sort.SliceStable(s.processors, func(i, j int) bool {
		if s.processors[i].priority != s.processors[j].priority {
			return s.processors[i].priority < s.processors[j].priority
		}
		return s.processors[i].seq < s.processors[j].seq
	})

	s.logger.Info("Added packet processor", "priority", priority, "count", len(s.processors))
}

func (s *Service) RemoveProcessor(p Processor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rp := range s.processors {
		if rp.processor == p {
			s.processors = append(s.processors[:i:i], s.processors[i+1:]...)
			s.logger.Info("Removed packet processor", "priority", rp.priority, "count", len(s.processors))
			return
		}
	}
}

// RequestPackets asks for frames matching selector to be punted to the
// controller. Duplicate requests are collapsed.
func (s *Service) RequestPackets(selector *flow.TrafficSelector, priority Priority, appID app.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.Priority == priority && r.AppID == appID && r.Selector.Equal(selector) {
			return
		}
	}
	s.requests = append(s.requests, Request{Selector: selector, Priority: priority, AppID: appID})

	s.logger.Info("Requested packets", "selector", selector.String(), "priority", priority.String(), "app", appID.Name)
}

func (s *Service) CancelPackets(selector *flow.TrafficSelector, priority Priority, appID app.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.requests {
		if r.Priority == priority && r.AppID == appID && r.Selector.Equal(selector) {
			s.requests = append(s.requests[:i:i], s.requests[i+1:]...)
			s.logger.Info("Cancelled packet request", "selector", selector.String(), "app", appID.Name)
			return
		}
	}
}

func (s *Service) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Dispatch runs the processor chain for one packet. Unparsable frames still
// reach processors with a nil Parsed(); frames that parse but match no
// request are dropped here.
func (s *Service) Dispatch(in *InboundPacket) *Context {
	ctx := NewContext(in)

	s.mu.RLock()
	processors := make([]Processor, 0, len(s.processors))
	for _, rp := range s.processors {
		processors = append(processors, rp.processor)
	}
	wanted := s.wantedLocked(in)
	s.mu.RUnlock()

	if !wanted {
		s.filtered.Add(1)
		s.logger.Debug("Packet matches no request", "from", in.ReceivedFrom().String())
		return ctx
	}

	s.dispatched.Add(1)
	for _, p := range processors {
		if ctx.IsBlocked() {
			break
		}
		s.process(p, ctx)
	}

	return ctx
}

func (s *Service) wantedLocked(in *InboundPacket) bool {
	eth := in.Parsed()
	if eth == nil {
		return true
	}
	for _, r := range s.requests {
		if r.Selector.Matches(eth) {
			return true
		}
	}
	return false
}

func (s *Service) process(p Processor, ctx *Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Packet processor panicked", "from", ctx.InPacket().ReceivedFrom().String(), "panic", r)
		}
	}()
	p.Process(ctx)
}

type Stats struct {
	Processors int
	Requests   int
	Dispatched uint64
	Filtered   uint64
}

func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Processors: len(s.processors),
		Requests:   len(s.requests),
		Dispatched: s.dispatched.Load(),
		Filtered:   s.filtered.Load(),
	}
}
