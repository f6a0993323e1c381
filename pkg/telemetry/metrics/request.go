package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grokgate/pkg/config"
)

// RelayMetrics tracks streamed chat replies.
//
// Metrics:
//   - grokgate_relays_total: relays by source and outcome
//   - grokgate_relay_duration_seconds: relay duration histogram
//   - grokgate_relay_first_token_seconds: time to first token
//   - grokgate_relay_tokens_total: data events written
//   - grokgate_relays_in_flight: relays currently streaming
//   - grokgate_chat_rejected_total: chat requests refused before streaming
type RelayMetrics struct {
	relaysTotal *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	firstToken  *prometheus.HistogramVec
	tokensTotal *prometheus.CounterVec
	inFlight    *prometheus.GaugeVec
	rejected    *prometheus.CounterVec
}

// NewRelayMetrics creates and registers relay metrics with the provided registry.
func NewRelayMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RelayMetrics {
	rm := &RelayMetrics{
		relaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "relays_total",
				Help:      "Total number of relays by outcome",
			},
			[]string{"source", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "relay_duration_seconds",
				Help:      "Duration of relays in seconds",
				// Streamed replies: 100ms to 2min.
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"source", "outcome"},
		),

		firstToken: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "relay_first_token_seconds",
				Help:      "Time from relay start to the first token in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "relay_tokens_total",
				Help:      "Total number of tokens relayed to clients",
			},
			[]string{"source"},
		),

		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "relays_in_flight",
				Help:      "Number of relays currently streaming",
			},
			[]string{"source"},
		),

		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "chat_rejected_total",
				Help:      "Chat requests answered with an error before streaming",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		rm.relaysTotal,
		rm.duration,
		rm.firstToken,
		rm.tokensTotal,
		rm.inFlight,
		rm.rejected,
	)

	return rm
}

// Record records a finished relay.
func (rm *RelayMetrics) Record(source, outcome string, tokens int, firstToken, duration time.Duration) {
	rm.relaysTotal.WithLabelValues(source, outcome).Inc()
	rm.duration.WithLabelValues(source, outcome).Observe(duration.Seconds())

	if tokens > 0 {
		rm.tokensTotal.WithLabelValues(source).Add(float64(tokens))
		rm.firstToken.WithLabelValues(source).Observe(firstToken.Seconds())
	}
}
