// Package metrics implements a process-wide registry of typed metric series
// with a pull-based text exposition endpoint.
//
// Four metric kinds are supported: Counter (monotonic accumulator), Gauge
// (last-write-wins accumulator), Histogram (cumulative buckets plus count and
// sum) and Summary (count and sum only; streaming quantiles are not
// implemented). Metrics are registered once, typically at startup, and updated
// concurrently from arbitrary goroutines; an external scraper pulls the state
// over HTTP in the Prometheus text exposition format.
//
// The usual entry point is [Exporter], which owns one [Registry] and an
// optional background [Server]:
//
//	exp, err := metrics.NewExporter(metrics.Config{ListenAddr: ":9090"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer exp.Close()
//
//	exp.RegisterCounter("requests_total", "Total requests served.", []string{"method"})
//	exp.IncCounter("requests_total", map[string]string{"method": "GET"}, 1)
//
// Observation calls against a name that was never registered log a warning and
// do nothing, so a missing metric never destabilizes the host application.
// Structural mistakes (wrong label count, missing label, negative counter
// delta) are returned as errors because they indicate a bug at the call site.
package metrics
