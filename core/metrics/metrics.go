package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricImportsTotal          = "rental_imports_total"
	MetricImportGeocodeFailures = "rental_import_geocode_failures_total"
	MetricImportRecordsTotal    = "rental_import_records_total"
	MetricCatalogMutationsTotal = "rental_catalog_mutations_total"
)

// Import outcomes used as the "outcome" label.
const (
	OutcomeSuccess    = "success"
	OutcomeDryRun     = "dry_run"
	OutcomeMissing    = "missing_entities"
	OutcomeValidation = "validation_failed"
	OutcomeGeocode    = "geocode_failed"
	OutcomeError      = "error"
)

// Recorder owns a private registry with the directory's counters.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	importsTotal     *prometheus.CounterVec
	geocodeFailures  prometheus.Counter
	recordsTotal     prometheus.Counter
	catalogMutations *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		importsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricImportsTotal,
			Help: "Import runs by outcome.",
		}, []string{"outcome"}),
		geocodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricImportGeocodeFailures,
			Help: "Companies whose address could not be geocoded during import.",
		}),
		recordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricImportRecordsTotal,
			Help: "Rental company records parsed from import payloads.",
		}),
		catalogMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCatalogMutationsTotal,
			Help: "Catalog writes by entity and operation.",
		}, []string{"entity", "op"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.importsTotal,
		r.geocodeFailures,
		r.recordsTotal,
		r.catalogMutations,
	)

	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ImportFinished counts one import run.
func (r *Recorder) ImportFinished(outcome string) {
	if r == nil {
		return
	}
	r.importsTotal.WithLabelValues(outcome).Inc()
}

// GeocodeFailures adds n failed company lookups.
func (r *Recorder) GeocodeFailures(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.geocodeFailures.Add(float64(n))
}

// RecordsParsed adds n parsed import records.
func (r *Recorder) RecordsParsed(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.recordsTotal.Add(float64(n))
}

// CatalogMutation counts one catalog write.
func (r *Recorder) CatalogMutation(entity, op string) {
	if r == nil {
		return
	}
	r.catalogMutations.WithLabelValues(entity, op).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
