//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package metrics holds the Prometheus collectors for the companion server.
package metrics

import (
	"context"
	"github.com/fieldcad/cadfield/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"time"
)

const namespace = "cadfield"

// Collector records task list, workflow, sync, and HTTP metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	recomputeDuration *prometheus.HistogramVec
	workflowStates    *prometheus.CounterVec
	workflowOutcomes  *prometheus.CounterVec
	syncsTotal        *prometheus.CounterVec
	lastSync          prometheus.Gauge
	requestDuration   *prometheus.HistogramVec
	requestsInFlight  prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		recomputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tasklist",
			Name:      "recompute_duration_seconds",
			Help:      "Time taken to recompute a task list category.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"category"}),
		workflowStates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "states_entered_total",
			Help:      "Status selection states entered.",
		}, []string{"state"}),
		workflowOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "outcomes_total",
			Help:      "Finished status selections, by final state and target status.",
		}, []string{"state", "to"}),
		syncsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "total",
			Help:      "Snapshot syncs with the CAD backend.",
		}, []string{"result"}),
		lastSync: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync.",
		}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Companion API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler", "code", "method"}),
		requestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Companion API requests being served.",
		}),
	}
}

func (c *Collector) ObserveRecompute(category string, took time.Duration) {
	c.recomputeDuration.WithLabelValues(category).Observe(took.Seconds())
}

// ObserveWorkflowState has the shape of a workflow observer.
func (c *Collector) ObserveWorkflowState(_ string, s workflow.State) {
	c.workflowStates.WithLabelValues(s.String()).Inc()
}

// Audit counts a finished status selection.
func (c *Collector) Audit(_ context.Context, o workflow.Outcome) {
	c.workflowOutcomes.WithLabelValues(o.State.String(), string(o.Change.To)).Inc()
}

func (c *Collector) ObserveSync(err error) {
	if err != nil {
		c.syncsTotal.WithLabelValues("error").Inc()
		return
	}
	c.syncsTotal.WithLabelValues("ok").Inc()
	c.lastSync.SetToCurrentTime()
}

// Instrument wraps an API handler to record its latency under the name handler.
func (c *Collector) Instrument(handler string, next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(c.requestsInFlight,
		promhttp.InstrumentHandlerDuration(
			c.requestDuration.MustCurryWith(prometheus.Labels{"handler": handler}),
			next,
		),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry is for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
