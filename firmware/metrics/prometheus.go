//go:build !tinygo

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Screens lists the label values of the screen gauge.
var Screens = []string{"onboarding", "welcome", "tasklist"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration *prom.HistogramVec
	renders        *prom.CounterVec
	operations     *prom.CounterVec
	resets         *prom.CounterVec
	sleeps         prom.Counter
	screen         *prom.GaugeVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "todowrist",
			Name:      "render_duration_seconds",
			Help:      "Duration of full panel refresh cycles",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5, 10, 20},
		}, []string{"mode"}),
		renders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "todowrist",
			Name:      "renders_total",
			Help:      "Panel refreshes by screen and result",
		}, []string{"mode", "result"}),
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "todowrist",
			Name:      "operations_total",
			Help:      "Core operations by outcome",
		}, []string{"op", "outcome"}),
		resets: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "todowrist",
			Name:      "resets_total",
			Help:      "Completed task resets by source",
		}, []string{"source"}),
		sleeps: prom.NewCounter(prom.CounterOpts{
			Namespace: "todowrist",
			Name:      "sleeps_total",
			Help:      "Entries into deep sleep",
		}),
		screen: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "todowrist",
			Name:      "screen",
			Help:      "1 for the screen currently shown",
		}, []string{"mode"}),
	}
	reg.MustRegister(pr.renderDuration, pr.renders, pr.operations, pr.resets, pr.sleeps, pr.screen)
	return pr
}

func (p *PrometheusRecorder) ObserveRender(mode string, d time.Duration, ok bool) {
	if p == nil {
		return
	}
	res := ResultFailed
	if ok {
		res = ResultOK
		p.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
	p.renders.WithLabelValues(mode, res).Inc()
}

func (p *PrometheusRecorder) IncOperation(op, outcome string) {
	if p == nil {
		return
	}
	p.operations.WithLabelValues(op, outcome).Inc()
}

func (p *PrometheusRecorder) IncReset(source string) {
	if p == nil {
		return
	}
	p.resets.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) IncSleep() {
	if p == nil {
		return
	}
	p.sleeps.Inc()
}

func (p *PrometheusRecorder) SetScreen(mode string) {
	if p == nil {
		return
	}
	for _, m := range Screens {
		v := 0.0
		if m == mode {
			v = 1
		}
		p.screen.WithLabelValues(m).Set(v)
	}
}

// HTTPHandler serves the metrics registered with reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
