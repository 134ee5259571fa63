package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// RunMetrics 一次运行的指标, 运行结束时推送到 pushgateway
type RunMetrics struct {
	registry *prometheus.Registry

	Runs            prometheus.Counter
	Findings        *prometheus.CounterVec // labels: source, kind
	SymbolsScanned  *prometheus.CounterVec // labels: source
	SymbolsFailed   *prometheus.CounterVec // labels: source
	UniverseSize    *prometheus.GaugeVec   // labels: source
	NotifyFailures  prometheus.Counter
	PersistFailures prometheus.Counter
	RunDuration     prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_runs_total",
			Help: "Total scan runs",
		}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_findings_total",
			Help: "Volume spike findings",
		}, []string{"source", "kind"}),
		SymbolsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_symbols_scanned_total",
			Help: "Symbols evaluated",
		}, []string{"source"}),
		SymbolsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_symbols_failed_total",
			Help: "Symbols skipped because candles could not be fetched",
		}, []string{"source"}),
		UniverseSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radar_universe_size",
			Help: "Instruments in the universe of each source",
		}, []string{"source"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_notify_failures_total",
			Help: "Notifications that could not be delivered",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_persist_failures_total",
			Help: "State saves that failed",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radar_run_duration_seconds",
			Help: "Duration of the last run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radar_last_success_timestamp_seconds",
			Help: "Unix time of the last run that reached persisting",
		}),
	}
	m.registry.MustRegister(
		m.Runs, m.Findings, m.SymbolsScanned, m.SymbolsFailed, m.UniverseSize,
		m.NotifyFailures, m.PersistFailures, m.RunDuration, m.LastSuccess,
	)
	return m
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) ObserveRun(start, end time.Time, success bool) {
	m.Runs.Inc()
	m.RunDuration.Set(end.Sub(start).Seconds())
	if success {
		m.LastSuccess.Set(float64(end.Unix()))
	}
}

// Pusher 推送指标, url 为空时不推送
type Pusher struct {
	url string
	job string
}

func NewPusher(url, job string) *Pusher {
	return &Pusher{url: url, job: job}
}

func (p *Pusher) Enabled() bool {
	return p != nil && p.url != ""
}

func (p *Pusher) Push(ctx context.Context, m *RunMetrics) error {
	if !p.Enabled() {
		return nil
	}
	if err := push.New(p.url, p.job).Gatherer(m.Registry()).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
