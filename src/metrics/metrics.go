// Registers:
//
//	#stockdata_streaming_sessions_active
//	#stockdata_streaming_workers_active
//	#stockdata_samples_sent_total
//	#stockdata_unknown_stocks_total
//	#stockdata_auth_rejections_total
//	#stockdata_health_status
//	#go_* and process_* system metrics
//
// Exposed through Handler() on the plain HTTP status server (/metrics).
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once           sync.Once
	registry       *prometheus.Registry
	sessionsActive prometheus.Gauge
	workersActive  prometheus.Gauge
	samplesSent    *prometheus.CounterVec
	unknownStocks  *prometheus.CounterVec
	authRejections *prometheus.CounterVec
	healthStatus   *prometheus.GaugeVec
)

func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockdata_streaming_sessions_active",
			Help: "Number of bidirectional streaming sessions currently open",
		})
		workersActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockdata_streaming_workers_active",
			Help: "Number of per-request sample workers currently running",
		})
		samplesSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockdata_samples_sent_total",
				Help: "Number of price samples written to clients",
			},
			[]string{"rpc"},
		)
		unknownStocks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockdata_unknown_stocks_total",
				Help: "Number of requests naming a stock that is not in the catalog",
			},
			[]string{"rpc"},
		)
		authRejections = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockdata_auth_rejections_total",
				Help: "Number of rejected credentials or tokens",
			},
			[]string{"reason"},
		)
		healthStatus = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockdata_health_status",
				Help: "Serving status per service name, 1 serving and 0 not serving",
			},
			[]string{"service"},
		)

		registry.MustRegister(
			sessionsActive,
			workersActive,
			samplesSent,
			unknownStocks,
			authRejections,
			healthStatus,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// SessionOpened increments the active session gauge and returns its decrement.
func SessionOpened() func() {
	if sessionsActive == nil {
		return func() {}
	}
	sessionsActive.Inc()
	return sessionsActive.Dec
}

// WorkerStarted increments the active worker gauge and returns its decrement.
func WorkerStarted() func() {
	if workersActive == nil {
		return func() {}
	}
	workersActive.Inc()
	return workersActive.Dec
}

// SampleSent counts one sample written by the given RPC.
func SampleSent(rpc string) {
	if samplesSent != nil {
		samplesSent.WithLabelValues(rpc).Inc()
	}
}

// UnknownStock counts one request for an identifier outside the catalog.
func UnknownStock(rpc string) {
	if unknownStocks != nil {
		unknownStocks.WithLabelValues(rpc).Inc()
	}
}

// AuthRejected counts one rejected credential or token.
func AuthRejected(reason string) {
	if authRejections != nil {
		authRejections.WithLabelValues(reason).Inc()
	}
}

// SetHealthStatus records the serving status of a service.
func SetHealthStatus(service string, serving bool) {
	if healthStatus == nil {
		return
	}
	if service == "" {
		service = "overall"
	}
	value := 0.0
	if serving {
		value = 1
	}
	healthStatus.WithLabelValues(service).Set(value)
}
