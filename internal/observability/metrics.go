package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard service.
type Metrics struct {
	// Dataset metrics.
	DatasetLoads        *prometheus.CounterVec // labels: outcome={replaced,unchanged,error}
	DatasetLoadDuration prometheus.Histogram
	DatasetRows         prometheus.Gauge
	SnapshotRevision    prometheus.Gauge
	CoercionFailures    *prometheus.CounterVec // labels: field
	CoordinateRescales  prometheus.Counter
	CoordinateDrops     prometheus.Counter

	// View metrics.
	ViewDuration *prometheus.HistogramVec // labels: view
	ViewRequests *prometheus.CounterVec   // labels: view, state

	// Ingest metrics.
	MessagesConsumed        prometheus.Counter
	RowsAppended            prometheus.Counter
	TransformErrors         prometheus.Counter
	DeadLetters             prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "dataset_loads_total",
			Help:      "Dataset reload attempts by outcome.",
		}, []string{"outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pfas_dashboard",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a dataset file parse and snapshot swap.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pfas_dashboard",
			Name:      "dataset_rows",
			Help:      "Rows in the current snapshot.",
		}),
		SnapshotRevision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pfas_dashboard",
			Name:      "snapshot_revision",
			Help:      "Stream append revision of the current snapshot; 0 right after a file load.",
		}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "coercion_failures_total",
			Help:      "Cells that could not be coerced to their typed field, by field.",
		}, []string{"field"}),
		CoordinateRescales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "coordinate_rescales_total",
			Help:      "Rows whose coordinates were repaired from the scaled integer form.",
		}),
		CoordinateDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "coordinate_drops_total",
			Help:      "Rows whose coordinates stayed out of range after repair and were cleared.",
		}),
		ViewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pfas_dashboard",
			Name:      "view_duration_seconds",
			Help:      "Duration of view aggregation by view.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"view"}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "view_requests_total",
			Help:      "View requests by view and response state.",
		}, []string{"view", "state"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the measurement topic.",
		}),
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "rows_appended_total",
			Help:      "Total stream rows appended to the snapshot.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "transform_errors_total",
			Help:      "Total stream records that failed decoding.",
		}),
		DeadLetters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "dead_letters_total",
			Help:      "Total undecodable payloads forwarded to the dead-letter topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pfas_dashboard",
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pfas_dashboard",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pfas_dashboard",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-append cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pfas_dashboard",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pfas_dashboard",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pfas_dashboard",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.DatasetRows,
		m.SnapshotRevision,
		m.CoercionFailures,
		m.CoordinateRescales,
		m.CoordinateDrops,
		m.ViewDuration,
		m.ViewRequests,
		m.MessagesConsumed,
		m.RowsAppended,
		m.TransformErrors,
		m.DeadLetters,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoads:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "dataset_loads_total"}, []string{"outcome"}),
		DatasetLoadDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "pfas_dashboard", Name: "dataset_load_duration_seconds"}),
		DatasetRows:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "pfas_dashboard", Name: "dataset_rows"}),
		SnapshotRevision:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "pfas_dashboard", Name: "snapshot_revision"}),
		CoercionFailures:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "coercion_failures_total"}, []string{"field"}),
		CoordinateRescales:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "coordinate_rescales_total"}),
		CoordinateDrops:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "coordinate_drops_total"}),
		ViewDuration:            prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "pfas_dashboard", Name: "view_duration_seconds"}, []string{"view"}),
		ViewRequests:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "view_requests_total"}, []string{"view", "state"}),
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "messages_consumed_total"}),
		RowsAppended:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "rows_appended_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "transform_errors_total"}),
		DeadLetters:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "dead_letters_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "pfas_dashboard", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "pfas_dashboard", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "pfas_dashboard", Name: "batch_processing_duration_seconds"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pfas_dashboard", Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "pfas_dashboard", Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "pfas_dashboard", Name: "geocode_enabled"}),
	}
}
