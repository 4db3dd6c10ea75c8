// Package metrics provides Prometheus metrics registry and recording utilities.
//
// All metrics are registered with the Prometheus default registry through
// promauto and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	result, err := parser.Parse(html, pc)
//	if err != nil {
//	    metrics.RecordSourceFetchError("dc", "parse_failed")
//	    return
//	}
//	metrics.RecordSourceFetch("dc", time.Since(start), len(result.Skipped))
package metrics
