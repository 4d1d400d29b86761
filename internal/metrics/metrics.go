package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_journal_entries_created_total",
		Help: "Journal entries created in draft",
	})

	EntriesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_journal_entries_posted_total",
		Help: "Journal entries posted",
	})

	EntriesReversed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_journal_entries_reversed_total",
		Help: "Journal entries reversed",
	})

	PostingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_posting_duration_seconds",
		Help:    "Journal entry posting latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	TaxCalculations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tax_calculations_total",
		Help: "Tax calculations performed",
	})

	ReportCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_report_cache_hits_total",
		Help: "Report cache hits by layer",
	}, []string{"layer"})

	ReportCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_report_cache_misses_total",
		Help: "Report cache misses",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})
)
