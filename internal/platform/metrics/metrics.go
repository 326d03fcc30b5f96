package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder holds the metrics of one process. A batch job exits before any
// scrape, so the registry is pushed instead of served.
type Recorder struct {
	registry *prometheus.Registry

	// commands counts executed commands by kind and status.
	commands *prometheus.CounterVec
	// commandDuration is the latency of executed commands.
	commandDuration *prometheus.HistogramVec
	// finalBatchSize is the dynamic batch size when the last run ended.
	finalBatchSize prometheus.Gauge
	// runs counts fuels by outcome.
	runs *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablefuel_commands_total",
				Help: "Total number of executed commands",
			},
			[]string{"kind", "status"},
		),
		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tablefuel_command_duration_seconds",
				Help:    "Command latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
			},
			[]string{"kind"},
		),
		finalBatchSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tablefuel_final_batch_size",
			Help: "Batch size in effect when the last run ended",
		}),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablefuel_runs_total",
				Help: "Total number of fuel runs",
			},
			[]string{"status"},
		),
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveCommand(kind, status string, elapsed time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	r.commands.WithLabelValues(kind, status).Inc()
	r.commandDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveRun(status string, finalBatchSize int) {
	r.runs.WithLabelValues(status).Inc()
	r.finalBatchSize.Set(float64(finalBatchSize))
}

// Push sends every collected metric to a Pushgateway under job.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("pushgateway url is required")
	}
	if strings.TrimSpace(job) == "" {
		return errors.New("push job is required")
	}
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
