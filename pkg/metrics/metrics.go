package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "coedit", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "coedit", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "coedit", Name: "rooms_active", Help: "Number of rooms with at least one connected member."},
	)
	EventsBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "coedit", Name: "events_broadcast_total", Help: "Number of room events fanned out, by event type."},
		[]string{"event"},
	)
	PersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "coedit", Name: "persist_failures_total", Help: "Number of document content writes dropped by the persistence gateway."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RoomsActive)
	reg.MustRegister(EventsBroadcast)
	reg.MustRegister(PersistFailures)
}
