package netcfg

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
)

var ErrInvalidConfig = errors.New("config rejected by validation")

type factoryID struct {
	class string
	key   string
}

type configID struct {
	class   string
	subject string
	key     string
}

// ConfigRef names one live config.
type ConfigRef struct {
	SubjectClass string
	Subject      string
	ConfigKey    string
}

type entry struct {
	config Config
	raw    []byte
}

// Registry holds network configuration by (subject class, subject, config
// key). Factories are scoped to a subject class, so the same config key may
// be used by different classes. Configs applied before their factory is
// registered are kept as raw JSON and materialised on registration.
//
// Listener callbacks run on the goroutine that caused the change, one event
// at a time, in the order changes were made. Listeners may read configs but
// must not mutate the registry from the callback.
type Registry struct {
	bus    events.Bus
	logger *slog.Logger

	mu        sync.RWMutex
	factories map[factoryID]*Factory
	configs   map[configID]entry
	pending   map[configID][]byte
	listeners []Listener

	// changeMu serialises mutations so event order matches change order.
	changeMu sync.Mutex
}

func NewRegistry(bus events.Bus) *Registry {
	return &Registry{
		bus:       bus,
		logger:    logger.Get(logger.NetCfg),
		factories: make(map[factoryID]*Factory),
		configs:   make(map[configID]entry),
		pending:   make(map[configID][]byte),
	}
}

func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Registry) RemoveListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.listeners {
		if existing == l {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return
		}
	}
}

func (r *Registry) RegisterConfigFactory(f *Factory) error {
	if f == nil || f.SubjectClassKey == "" || f.ConfigKey == "" || f.Create == nil {
		return fmt.Errorf("register config factory: incomplete factory")
	}
	fid := factoryID{class: f.SubjectClassKey, key: f.ConfigKey}

	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	if _, exists := r.factories[fid]; exists {
		r.mu.Unlock()
		return fmt.Errorf("register config factory: %s/%s already registered", f.SubjectClassKey, f.ConfigKey)
	}
	r.factories[fid] = f

	var ready []configID
	for id := range r.pending {
		if id.class == fid.class && id.key == fid.key {
			ready = append(ready, id)
		}
	}
	r.mu.Unlock()

	r.logger.Info("Registered config factory", "subject_class", f.SubjectClassKey, "key", f.ConfigKey)
	r.dispatch(Event{Type: ConfigRegistered, SubjectClass: f.SubjectClassKey, ConfigKey: f.ConfigKey})

	sort.Slice(ready, func(i, j int) bool { return ready[i].subject < ready[j].subject })
	for _, id := range ready {
		r.mu.Lock()
		raw, ok := r.pending[id]
		delete(r.pending, id)
		r.mu.Unlock()
		if !ok {
			continue
		}
		if _, err := r.apply(id, raw); err != nil {
			r.logger.Warn("Failed to apply pending config", "subject_class", id.class, "subject", id.subject, "key", id.key, "error", err)
		}
	}

	return nil
}

// UnregisterConfigFactory drops the factory. Its live configs revert to
// pending raw JSON so a later registration picks them up again.
func (r *Registry) UnregisterConfigFactory(f *Factory) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	fid := factoryID{class: f.SubjectClassKey, key: f.ConfigKey}

	r.mu.Lock()
	if _, exists := r.factories[fid]; !exists {
		r.mu.Unlock()
		return
	}
	delete(r.factories, fid)

	for id, e := range r.configs {
		if id.class == fid.class && id.key == fid.key {
			r.pending[id] = e.raw
			delete(r.configs, id)
		}
	}
	r.mu.Unlock()

	r.logger.Info("Unregistered config factory", "subject_class", f.SubjectClassKey, "key", f.ConfigKey)
	r.dispatch(Event{Type: ConfigUnregistered, SubjectClass: f.SubjectClassKey, ConfigKey: f.ConfigKey})
}

func (r *Registry) GetConfig(class, subject, key string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.configs[configID{class: class, subject: subject, key: key}]
	if !ok {
		return nil, false
	}
	return e.config, true
}

// ApplyConfig creates or replaces the config for (class, subject, key) from
// raw JSON. Without a registered factory the JSON is held pending and
// (nil, nil) is returned. Re-applying identical JSON is a no-op.
func (r *Registry) ApplyConfig(class, subject, key string, raw []byte) (Config, error) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	return r.apply(configID{class: class, subject: subject, key: key}, raw)
}

func (r *Registry) apply(id configID, raw []byte) (Config, error) {
	r.mu.Lock()
	factory, ok := r.factories[factoryID{class: id.class, key: id.key}]
	if !ok {
		r.pending[id] = append([]byte(nil), raw...)
		r.mu.Unlock()
		r.logger.Debug("Holding config until factory registers", "subject_class", id.class, "subject", id.subject, "key", id.key)
		return nil, nil
	}
	prev, hadPrev := r.configs[id]
	r.mu.Unlock()

	if hadPrev && bytes.Equal(prev.raw, raw) {
		return prev.config, nil
	}

	cfg := factory.Create()
	if err := cfg.Init(id.subject, id.key, raw); err != nil {
		return nil, fmt.Errorf("apply config %s/%s/%s: %w", id.class, id.subject, id.key, err)
	}
	if v, ok := cfg.(Validator); ok && !v.IsValid() {
		return nil, fmt.Errorf("apply config %s/%s/%s: %w", id.class, id.subject, id.key, ErrInvalidConfig)
	}

	r.mu.Lock()
	r.configs[id] = entry{config: cfg, raw: append([]byte(nil), raw...)}
	r.mu.Unlock()

	ev := Event{Type: ConfigAdded, SubjectClass: id.class, Subject: id.subject, ConfigKey: id.key, Config: cfg}
	if hadPrev {
		ev.Type = ConfigUpdated
		ev.PrevConfig = prev.config
	}
	r.dispatch(ev)

	return cfg, nil
}

func (r *Registry) RemoveConfig(class, subject, key string) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	id := configID{class: class, subject: subject, key: key}

	r.mu.Lock()
	delete(r.pending, id)
	prev, ok := r.configs[id]
	delete(r.configs, id)
	r.mu.Unlock()

	if !ok {
		return
	}

	r.dispatch(Event{Type: ConfigRemoved, SubjectClass: class, Subject: subject, ConfigKey: key, PrevConfig: prev.config})
}

// Subjects lists the live configs sorted by class, subject and key.
func (r *Registry) Subjects() []ConfigRef {
	r.mu.RLock()
	out := make([]ConfigRef, 0, len(r.configs))
	for id := range r.configs {
		out = append(out, ConfigRef{SubjectClass: id.class, Subject: id.subject, ConfigKey: id.key})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectClass != out[j].SubjectClass {
			return out[i].SubjectClass < out[j].SubjectClass
		}
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].ConfigKey < out[j].ConfigKey
	})
	return out
}

// dispatch must be called with changeMu held.
func (r *Registry) dispatch(ev Event) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	r.logger.Debug("Config event", "type", ev.Type.String(), "subject_class", ev.SubjectClass, "subject", ev.Subject, "key", ev.ConfigKey)

	for _, l := range listeners {
		r.notify(l, ev)
	}

	if r.bus != nil {
		r.bus.Publish(events.TopicNetworkConfig, events.Event{
			Source: logger.NetCfg,
			Data: events.NetworkConfigEvent{
				Type:         ev.Type.String(),
				SubjectClass: ev.SubjectClass,
				Subject:      ev.Subject,
				ConfigKey:    ev.ConfigKey,
			},
		})
	}
}

func (r *Registry) notify(l Listener, ev Event) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Config listener panicked", "type", ev.Type.String(), "key", ev.ConfigKey, "panic", p)
		}
	}()
	l.Event(ev)
}
