// Package metrics exposes Prometheus counters for imports and catalog writes.
//
// The Recorder uses its own registry so tests can create as many as they
// need without clashing on the global default registry.
package metrics
