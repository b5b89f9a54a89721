package device

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds one sub-device's prometheus counters, in the style of
// client/doublezerod/internal/manager's metrics: counters registered at
// construction time, labeled rather than split into many metric names.
type Metrics struct {
	CriticalSectionsEntered prometheus.Counter
	SiblingBroadcasts       prometheus.Counter
	PeerMessagesSent        prometheus.Counter
	PacketsForwarded        prometheus.Counter
	PacketsDropped          *prometheus.CounterVec
	EventsDropped           prometheus.Counter
}

// NewMetrics builds an unregistered Metrics set for one sub-device,
// distinguished from its siblings by an "orientation" const label so all
// five can share one prometheus.Registry without a duplicate-registration
// collision.
func NewMetrics(orientation string) *Metrics {
	labels := prometheus.Labels{"orientation": orientation}
	return &Metrics{
		CriticalSectionsEntered: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "meshcore_critical_sections_entered_total",
			Help:        "Number of times this sub-device entered its token-ring critical section.",
			ConstLabels: labels,
		}),
		SiblingBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "meshcore_sibling_broadcasts_total",
			Help:        "Number of sibling ring messages this sub-device originated.",
			ConstLabels: labels,
		}),
		PeerMessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "meshcore_peer_messages_sent_total",
			Help:        "Number of peer-plane messages sent over WLAN.",
			ConstLabels: labels,
		}),
		PacketsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "meshcore_packets_forwarded_total",
			Help:        "Number of IP packets forwarded out an SPI or WLAN interface.",
			ConstLabels: labels,
		}),
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "meshcore_packets_dropped_total",
			Help:        "Number of IP packets dropped by the classifier, labeled by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "meshcore_events_dropped_total",
			Help:        "Number of device-loop events dropped because the event queue was full.",
			ConstLabels: labels,
		}),
	}
}

// Collectors returns every metric for registration with a prometheus.Registerer.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CriticalSectionsEntered,
		m.SiblingBroadcasts,
		m.PeerMessagesSent,
		m.PacketsForwarded,
		m.PacketsDropped,
		m.EventsDropped,
	}
}
