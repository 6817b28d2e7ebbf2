// Package metrics exposes engine counters through Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Collector groups the engine metrics. A nil *Collector ignores every call.
type Collector struct {
	commands       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	keys           prometheus.Gauge
	expired        prometheus.Counter
	watchConflicts prometheus.Counter
}

func NewCollector(namespace string) *Collector {
	return &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands dispatched, by name and outcome",
		}, []string{"command", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent executing a command",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"command"}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "keys",
			Help:      "Keys currently held in the keyspace",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_keys_total",
			Help:      "Keys removed by expiry sweeps",
		}),
		watchConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_conflicts_total",
			Help:      "Transactions aborted because a watched key changed",
		}),
	}
}

// Register adds every metric to reg
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.commands, c.duration, c.keys, c.expired, c.watchConflicts} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCommand records one dispatched command
func (c *Collector) ObserveCommand(name string, took time.Duration, err error) {
	if c == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	c.commands.WithLabelValues(name, status).Inc()
	c.duration.WithLabelValues(name).Observe(took.Seconds())
}

func (c *Collector) SetKeys(n int) {
	if c == nil {
		return
	}
	c.keys.Set(float64(n))
}

func (c *Collector) AddExpired(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.expired.Add(float64(n))
}

func (c *Collector) WatchConflict() {
	if c == nil {
		return
	}
	c.watchConflicts.Inc()
}
