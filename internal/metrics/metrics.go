package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "subflow_agent"

// Service owns a dedicated registry so several servers (e.g. in tests) never collide on registration.
type Service struct {
	Registry *prometheus.Registry

	signRequests *prometheus.CounterVec
	signReplayed prometheus.Counter
	nonceResets  prometheus.Counter
	signDuration prometheus.Histogram
	chainIDGauge prometheus.Gauge
}

func New() *Service {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Service{
		Registry: reg,
		signRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_requests_total",
			Help:      "Signing requests by outcome.",
		}, []string{"outcome"}),
		signReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_replayed_total",
			Help:      "Signing requests answered with a previously signed transaction.",
		}),
		nonceResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonce_reservations_reset_total",
			Help:      "Stale nonce reservations discarded in favour of the chain pending nonce.",
		}),
		signDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_duration_seconds",
			Help:      "Duration of signing requests including node queries.",
			Buckets:   prometheus.DefBuckets,
		}),
		chainIDGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_id",
			Help:      "Chain id transactions are signed for.",
		}),
	}

	reg.MustRegister(s.signRequests, s.signReplayed, s.nonceResets, s.signDuration, s.chainIDGauge)

	return s
}

// SignCompleted records a finished request, outcome is "ok" or the error kind.
func (s *Service) SignCompleted(outcome string, replayed bool, d time.Duration) {
	s.signRequests.WithLabelValues(outcome).Inc()
	s.signDuration.Observe(d.Seconds())
	if replayed {
		s.signReplayed.Inc()
	}
}

func (s *Service) NonceReset() {
	s.nonceResets.Inc()
}

func (s *Service) ChainID(id int64) {
	s.chainIDGauge.Set(float64(id))
}
