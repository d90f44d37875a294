// Package metrics exports Prometheus counters for callback groups.
//
// A Collector is attached to groups through Hooks(), alongside any other
// observers (see callback.ChainHooks). It never affects an invocation.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/trace"
)

// Namespace prefixes every metric name.
const Namespace = "verifly"

// Resolution results.
const (
	ResultOK    = "ok"
	ResultCycle = "cycle"
)

// Collector holds the counters. All methods are safe for concurrent use.
type Collector struct {
	callbacks   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	invocations *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "callbacks_total",
				Help:      "Callback bodies run, by group and position.",
			},
			[]string{"group", "position"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "callback_failures_total",
				Help:      "Callback bodies that returned an error, by group and position.",
			},
			[]string{"group", "position"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolutions_total",
				Help:      "Group resolutions, by outcome.",
			},
			[]string{"group", "result"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "invocations_total",
				Help:      "Finished invocations, by status.",
			},
			[]string{"group", "status"},
		),
	}

	for _, col := range []prometheus.Collector{c.callbacks, c.failures, c.resolutions, c.invocations} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// Hooks returns observers that count resolutions and callback bodies.
// The action itself is not counted as a callback.
func (c *Collector) Hooks() callback.Hooks {
	return callback.Hooks{
		OnResolve: func(e callback.ResolveEvent) {
			result := ResultOK
			if e.Err != nil {
				result = ResultCycle
			}
			c.resolutions.WithLabelValues(e.Group, result).Inc()
		},
		OnLeave: func(e callback.Event) {
			if e.Kind != callback.KindCallback {
				return
			}
			pos := e.Position.String()
			c.callbacks.WithLabelValues(e.Group, pos).Inc()
			if e.Err != nil && !e.Propagated {
				c.failures.WithLabelValues(e.Group, pos).Inc()
			}
		},
	}
}

// ObserveInvocation counts a finished invocation.
func (c *Collector) ObserveInvocation(inv trace.Invocation) {
	c.invocations.WithLabelValues(inv.GroupIdentity, inv.Status).Inc()
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
