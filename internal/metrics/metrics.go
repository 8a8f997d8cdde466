// Package metrics exposes the prometheus metrics of rntool runs. The command
// line tool is short lived, metrics are exported in the text format of the
// node exporter textfile collector rather than served over HTTP.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rntool"

// Registry holds the metrics of one rntool run.
type Registry struct {
	registry *prometheus.Registry

	FilesTotal       *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	FileDuration     *prometheus.HistogramVec
	FieldsTotal      prometheus.Counter
	ColumnsTotal     prometheus.Counter
	PagesTotal       prometheus.Counter
	PageBytesTotal   prometheus.Counter
	SharedPagesTotal prometheus.Counter
	GapBytesTotal    prometheus.Counter
	RowsStoredTotal  *prometheus.CounterVec
}

// NewRegistry creates a registry with all the metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.FilesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Number of description documents processed",
		},
		[]string{"command", "status"},
	)

	r.FailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Number of files which failed, by kind of error",
		},
		[]string{"command", "kind"},
	)

	r.FileDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent processing one file",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"command"},
	)

	r.FieldsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fields_total",
		Help:      "Number of fields indexed",
	})

	r.ColumnsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "columns_total",
		Help:      "Number of physical columns indexed",
	})

	r.PagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_total",
		Help:      "Number of distinct pages indexed",
	})

	r.PageBytesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_bytes_total",
		Help:      "Number of bytes held by distinct pages",
	})

	r.SharedPagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shared_pages_total",
		Help:      "Number of pages claimed by more than one column",
	})

	r.GapBytesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gap_bytes_total",
		Help:      "Number of bytes not covered by any span of a layout",
	})

	r.RowsStoredTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_stored_total",
			Help:      "Number of relational rows written, by table",
		},
		[]string{"table"},
	)

	return r
}

// Gatherer returns the prometheus gatherer of r.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// RecordFile records the outcome of processing one file. The kind is the
// error classification of the failure and is ignored when ok is true.
func (r *Registry) RecordFile(command string, ok bool, kind string, duration time.Duration) {
	status := "ok"
	if !ok {
		status = "error"
		r.FailuresTotal.WithLabelValues(command, kind).Inc()
	}
	r.FilesTotal.WithLabelValues(command, status).Inc()
	r.FileDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordIndex records the size of an index.
func (r *Registry) RecordIndex(fields, columns, pages int, bytes int64, sharedPages int) {
	r.FieldsTotal.Add(float64(fields))
	r.ColumnsTotal.Add(float64(columns))
	r.PagesTotal.Add(float64(pages))
	r.PageBytesTotal.Add(float64(bytes))
	r.SharedPagesTotal.Add(float64(sharedPages))
}

// RecordGaps records the number of bytes of a layout not covered by any
// span.
func (r *Registry) RecordGaps(bytes int64) {
	r.GapBytesTotal.Add(float64(bytes))
}

// RecordRows records the number of rows written to a table.
func (r *Registry) RecordRows(table string, n int) {
	r.RowsStoredTotal.WithLabelValues(table).Add(float64(n))
}

// WriteTextfile writes the metrics of r to path, in the prometheus text
// format. The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
