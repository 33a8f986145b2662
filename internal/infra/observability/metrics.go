package observability

import (
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	billsGenerated  prometheus.Counter
	billMutations   *prometheus.CounterVec
	importFiles     *prometheus.CounterVec
	parseRetries    prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contas_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		billsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contas_bills_generated_total",
				Help: "Total bills created automatically by recurring generation.",
			},
		),
		billMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_bill_mutations_total",
				Help: "Total bill mutations by operation.",
			},
			[]string{"operation"},
		),
		importFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_import_files_total",
				Help: "Total imported files by terminal status.",
			},
			[]string{"status"},
		),
		parseRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contas_parse_retries_total",
				Help: "Total rate-limit retries against the document parser.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// AddBillsGenerated records bills created by the recurring engine.
func (m *Metrics) AddBillsGenerated(n int) {
	if n > 0 {
		m.billsGenerated.Add(float64(n))
	}
}

// IncrBillMutation increments the mutation counter for an operation.
func (m *Metrics) IncrBillMutation(operation string) {
	m.billMutations.WithLabelValues(operation).Inc()
}

// IncrImportFile increments the import counter with a terminal status.
func (m *Metrics) IncrImportFile(status string) {
	m.importFiles.WithLabelValues(status).Inc()
}

// IncrParseRetry increments the rate-limit retry counter.
func (m *Metrics) IncrParseRetry() {
	m.parseRetries.Inc()
}

// OpsSummary is the payload of GET /v1/metrics/summary.
type OpsSummary struct {
	BillsGenerated float64            `json:"billsGenerated"`
	Mutations      map[string]float64 `json:"mutations"`
	ImportFiles    map[string]float64 `json:"importFiles"`
	ParseRetries   float64            `json:"parseRetries"`
	CacheHitRate   float64            `json:"cacheHitRate"`
}

// Snapshot gathers current counter values for the ops summary endpoint.
func (m *Metrics) Snapshot() *OpsSummary {
	mutations := map[string]float64{}
	for _, op := range []string{"create", "edit", "pay", "unpay", "postpone", "delete", "attach", "recurring"} {
		if v := getCounterValue(m.billMutations, op); v > 0 {
			mutations[op] = v
		}
	}
	imports := map[string]float64{}
	for _, st := range []string{string(domain.ImportSuccess), string(domain.ImportError)} {
		if v := getCounterValue(m.importFiles, st); v > 0 {
			imports[st] = v
		}
	}

	hits := getCounterValue(m.cacheHits, "cep")
	misses := getCounterValue(m.cacheMisses, "cep")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &OpsSummary{
		BillsGenerated: counterValue(m.billsGenerated),
		Mutations:      mutations,
		ImportFiles:    imports,
		ParseRetries:   counterValue(m.parseRetries),
		CacheHitRate:   hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
