package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_requests_total",
			Help: "Total bonus API requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bonus_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bonus_in_flight",
		Help: "In-flight HTTP requests",
	})
	AllocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bonus_allocations_total",
		Help: "Allocations committed to the basket API",
	})
	AllocationsCapped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bonus_allocations_capped_total",
		Help: "Allocations whose requested quantity exceeded remaining capacity",
	})
	MutationsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bonus_mutations_skipped_total",
		Help: "Add-to-basket calls skipped because no capacity remained",
	})
	MutationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bonus_mutation_errors_total",
		Help: "Failed basket mutation calls",
	})
	QualifyCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_qualify_cache_total",
			Help: "Qualifying-product cache lookups by outcome",
		}, []string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal, Latency, InFlight,
		AllocationsTotal, AllocationsCapped, MutationsSkipped, MutationErrors,
		QualifyCacheHits,
	)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
