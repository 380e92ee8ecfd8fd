package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nomis52/procsim/config"
	"github.com/prometheus/client_golang/prometheus"
)

// New builds the Registry selected by cfg.Mode. The returned handler serves
// the scrape endpoint and is nil unless the mode is scrape.
func New(cfg config.MonitoringConfig, logger *slog.Logger) (Registry, http.Handler, error) {
	switch cfg.Mode {
	case config.MetricsModeScrape:
		reg, err := NewScrapeRegistry(cfg.MetricsPrefix)
		if err != nil {
			return nil, nil, err
		}
		return reg, reg.Handler(), nil
	case config.MetricsModePush:
		hostname, err := os.Hostname()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get hostname: %w", err)
		}
		return NewPushRegistry(PushConfig{
			URL:      cfg.VictoriaMetricsURL,
			Prefix:   cfg.MetricsPrefix,
			Job:      cfg.JobName,
			Instance: hostname,
			Logger:   logger,
		}), nil, nil
	case config.MetricsModeOff, "":
		return NoopRegistry{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown metrics mode %q", cfg.Mode)
	}
}

// NoopRegistry hands out metrics that discard every update.
type NoopRegistry struct{}

func (NoopRegistry) NewGauge(prometheus.GaugeOpts) (Gauge, error) { return noopMetric{}, nil }

func (NoopRegistry) NewGaugeVec(prometheus.GaugeOpts, []string) (GaugeVec, error) {
	return noopGaugeVec{}, nil
}

func (NoopRegistry) NewCounter(prometheus.CounterOpts) (Counter, error) { return noopMetric{}, nil }

func (NoopRegistry) NewCounterVec(prometheus.CounterOpts, []string) (CounterVec, error) {
	return noopCounterVec{}, nil
}

type noopMetric struct{}

func (noopMetric) Set(float64) {}
func (noopMetric) Inc()        {}
func (noopMetric) Add(float64) {}

type noopGaugeVec struct{}

func (noopGaugeVec) With(prometheus.Labels) Gauge { return noopMetric{} }

type noopCounterVec struct{}

func (noopCounterVec) With(prometheus.Labels) Counter { return noopMetric{} }
