// Package metrics collects per-run metrics and pushes them to a Prometheus
// Pushgateway, the tool is too short-lived to be scraped.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "jetton_airdrop"
	JobName   = "jetton_airdrop"
)

type Metrics struct {
	registry *prometheus.Registry
	messages *prometheus.GaugeVec
	total    prometheus.Gauge
	duration prometheus.Gauge
	lastRun  *prometheus.GaugeVec
	log      *slog.Logger
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "messages",
			Help:      "Transfer messages of the last run by status.",
		}, []string{"status"}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "amount_total",
			Help:      "Sum of jetton units requested by the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Finish time of the last run by outcome.",
		}, []string{"outcome"}),
		log: slog.With("component", "metrics"),
	}

	m.registry.MustRegister(m.messages, m.total, m.duration, m.lastRun)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe sets all gauges from a finished run.
func (m *Metrics) Observe(report *types.Report) {
	for _, status := range []types.MessageStatus{
		types.StatusPending,
		types.StatusSuccess,
		types.StatusError,
		types.StatusUnknown,
		types.StatusSkipped,
	} {
		m.messages.WithLabelValues(string(status)).Set(float64(report.Count(status)))
	}

	if report.Total != nil {
		total, _ := new(big.Float).SetInt(report.Total).Float64()
		m.total.Set(total)
	}

	if !report.FinishedAt.IsZero() && !report.StartedAt.IsZero() {
		m.duration.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}

	outcome := "success"
	switch {
	case report.Error != "":
		outcome = "error"
	case report.DryRun:
		outcome = "dry_run"
	}
	m.lastRun.WithLabelValues(outcome).Set(float64(report.FinishedAt.Unix()))
}

// Pusher is the report sink pushing run metrics to a Pushgateway.
type Pusher struct {
	metrics *Metrics
	url     string
}

func NewPusher(metrics *Metrics, url string) *Pusher {
	return &Pusher{metrics: metrics, url: url}
}

func (p *Pusher) Record(ctx context.Context, report *types.Report) error {
	p.metrics.Observe(report)

	err := push.New(p.url, JobName).
		Gatherer(p.metrics.registry).
		Grouping("network", report.Network).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}

	p.metrics.log.Debug("Pushed metrics", "url", p.url)

	return nil
}
