package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
)

const namespace = "unicastdhcp"

const (
	DirectionToServer = "host_to_server"
	DirectionToHost   = "server_to_host"

	ReasonUnparsable   = "unparsable"
	ReasonNotIPv4      = "not_ipv4"
	ReasonServerUnset  = "server_unset"
	ReasonBuildFailure = "build_failure"

	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultMissing  = "missing"
)

// Metrics holds the handler's collectors on a private registry so tests and
// multiple instances do not collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	IntentsSubmitted *prometheus.CounterVec
	PacketsIgnored   *prometheus.CounterVec
	ConfigUpdates    *prometheus.CounterVec
	ServerLocation   *prometheus.GaugeVec

	mu       sync.Mutex
	location prometheus.Labels
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		IntentsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_submitted_total",
			Help:      "Point-to-point intents submitted, by direction.",
		}, []string{"direction"}),
		PacketsIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_ignored_total",
			Help:      "Punted packets that did not lead to intent submission, by reason.",
		}, []string{"reason"}),
		ConfigUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_updates_total",
			Help:      "Server location config events, by result.",
		}, []string{"result"}),
		ServerLocation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_location_info",
			Help:      "DHCP server attachment point in effect; value is always 1.",
		}, []string{"device", "port"}),
	}

	m.Registry.MustRegister(
		m.IntentsSubmitted,
		m.PacketsIgnored,
		m.ConfigUpdates,
		m.ServerLocation,
	)

	return m
}

func (m *Metrics) IntentSubmitted(direction string) {
	m.IntentsSubmitted.WithLabelValues(direction).Inc()
}

func (m *Metrics) PacketIgnored(reason string) {
	m.PacketsIgnored.WithLabelValues(reason).Inc()
}

func (m *Metrics) ConfigUpdate(result string) {
	m.ConfigUpdates.WithLabelValues(result).Inc()
}

// SetServerLocation replaces the info series. A zero point clears it.
func (m *Metrics) SetServerLocation(cp connectpoint.ConnectPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.location != nil {
		m.ServerLocation.Delete(m.location)
		m.location = nil
	}
	if cp.IsZero() {
		return
	}

	m.location = prometheus.Labels{
		"device": string(cp.DeviceID),
		"port":   strconv.FormatUint(uint64(cp.Port), 10),
	}
	m.ServerLocation.With(m.location).Set(1)
}
