package metrics

import (
	"net/http"

	"github.com/renatoramossilva/bindl-lib/logging"
)

// Config configures an Exporter.
type Config struct {
	// ListenAddr is the address of the scrape endpoint, e.g. ":9090".
	// When empty, no HTTP server is started and the registry is only
	// reachable through Handler.
	ListenAddr string
}

// Exporter owns one Registry and, when configured with a listen address, the
// background server exposing it. One Exporter instance holds the whole metric
// namespace of the process; construct it once and pass it to every call site.
type Exporter struct {
	registry *Registry
	server   *Server
	logger   *logging.Logger
}

// NewExporter creates an Exporter. If cfg.ListenAddr is set, the scrape
// server is started immediately; a bind failure aborts construction.
func NewExporter(cfg Config, logger *logging.Logger) (*Exporter, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	e := &Exporter{
		registry: NewRegistry(logger),
		logger:   logger,
	}
	if cfg.ListenAddr != "" {
		srv := NewServer(cfg.ListenAddr, e.registry, logger)
		if err := srv.Start(); err != nil {
			return nil, err
		}
		e.server = srv
		logger.Infof("metrics exporter listening", map[string]any{
			"addr": srv.Addr(),
		})
	}
	return e, nil
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *Registry {
	return e.registry
}

// Handler returns the scrape handler for mounting on an existing mux.
func (e *Exporter) Handler() http.Handler {
	return scrapeHandler(e.registry, e.logger)
}

// Addr returns the bound scrape address, or "" when no server is running.
func (e *Exporter) Addr() string {
	if e.server == nil {
		return ""
	}
	return e.server.Addr()
}

// Close stops the scrape server, if one was started.
func (e *Exporter) Close() error {
	if e.server == nil {
		return nil
	}
	return e.server.Close()
}

// RegisterCounter registers a counter metric.
func (e *Exporter) RegisterCounter(name, help string, labelNames []string) error {
	return e.registry.RegisterCounter(name, help, labelNames)
}

// RegisterGauge registers a gauge metric.
func (e *Exporter) RegisterGauge(name, help string, labelNames []string) error {
	return e.registry.RegisterGauge(name, help, labelNames)
}

// RegisterHistogram registers a histogram metric with the given buckets.
func (e *Exporter) RegisterHistogram(name, help string, labelNames []string, buckets []float64) error {
	return e.registry.RegisterHistogram(name, help, labelNames, buckets)
}

// RegisterSummary registers a summary metric.
func (e *Exporter) RegisterSummary(name, help string, labelNames []string) error {
	return e.registry.RegisterSummary(name, help, labelNames)
}

// IncCounter adds delta to a counter series.
func (e *Exporter) IncCounter(name string, labels map[string]string, delta float64) error {
	return e.registry.IncCounter(name, labels, delta)
}

// SetGauge sets a gauge series value.
func (e *Exporter) SetGauge(name string, labels map[string]string, value float64) error {
	return e.registry.SetGauge(name, labels, value)
}

// AddGauge adds delta (possibly negative) to a gauge series.
func (e *Exporter) AddGauge(name string, labels map[string]string, delta float64) error {
	return e.registry.AddGauge(name, labels, delta)
}

// ObserveHistogram records an observation into a histogram series.
func (e *Exporter) ObserveHistogram(name string, labels map[string]string, value float64) error {
	return e.registry.ObserveHistogram(name, labels, value)
}

// ObserveSummary records an observation into a summary series.
func (e *Exporter) ObserveSummary(name string, labels map[string]string, value float64) error {
	return e.registry.ObserveSummary(name, labels, value)
}
