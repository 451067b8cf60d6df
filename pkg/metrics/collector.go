package metrics

import (
	"time"

	"research-agent-be/pkg/flow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "research_agent"

// Collector owns the agent's Prometheus series on a private registry.
type Collector struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	nodeRuns     *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	archived     prometheus.Counter
	toolCalls    *prometheus.CounterVec
}

var _ flow.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed chat runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a chat run.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		nodeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Graph node executions by emitted token.",
		}, []string{"node", "token"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Time spent in a single node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		archived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_archived_total",
			Help:      "Exchanges moved from the short-term window into long-term memory.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by provider.",
		}, []string{"provider"}),
	}

	c.registry.MustRegister(
		c.runs, c.runDuration, c.nodeRuns, c.nodeDuration, c.archived, c.toolCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) ObserveNode(node flow.Name, token flow.Token, elapsed time.Duration) {
	c.nodeRuns.WithLabelValues(string(node), token.String()).Inc()
	c.nodeDuration.WithLabelValues(string(node)).Observe(elapsed.Seconds())
}

// ObserveRun records one chat run. outcome is "answered", "forced" or "error".
func (c *Collector) ObserveRun(outcome string, elapsed time.Duration) {
	c.runs.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveArchived(string) {
	c.archived.Inc()
}

func (c *Collector) ObserveToolCall(provider string) {
	c.toolCalls.WithLabelValues(provider).Inc()
}
