package metrics

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// LatencyBuckets are the upper bounds (ms) of the request latency histogram.
// +Inf is implicit.
var LatencyBuckets = []float64{100, 500}

// Recorder is the process-wide metrics surface shared by every request.
type Recorder interface {
	IncHTTPRequest(path string, status int)
	IncWebhookOutcome(outcome string)
	ObserveLatency(ms float64)
	Render() (string, error)
}

// Registry is a Recorder backed by a private prometheus registry, so only
// the service's own series are exposed.
type Registry struct {
	reg *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	webhookRequests *prometheus.CounterVec
	latency         prometheus.Histogram
}

var _ Recorder = (*Registry)(nil)

// NewRegistry creates all collectors at zero. Webhook outcomes listed in
// outcomes are exposed with a zero count before their first increment.
func NewRegistry(outcomes ...string) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"path", "status"},
		),
		webhookRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_requests_total",
				Help: "Webhook processing outcomes",
			},
			[]string{"result"},
		),
		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "request_latency_ms",
				Help:    "Request latency in milliseconds",
				Buckets: LatencyBuckets,
			},
		),
	}

	r.reg.MustRegister(r.httpRequests, r.webhookRequests, r.latency)
	for _, o := range outcomes {
		r.webhookRequests.WithLabelValues(o)
	}
	return r
}

func (r *Registry) IncHTTPRequest(path string, status int) {
	r.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

func (r *Registry) IncWebhookOutcome(outcome string) {
	r.webhookRequests.WithLabelValues(outcome).Inc()
}

// ObserveLatency records one request duration. Buckets are cumulative.
func (r *Registry) ObserveLatency(ms float64) {
	r.latency.Observe(ms)
}

// sectionOrder is the order families appear in Render output.
var sectionOrder = map[string]int{
	"http_requests_total":    0,
	"webhook_requests_total": 1,
	"request_latency_ms":     2,
}

// Render returns the text exposition of every series: HTTP requests, then
// webhook outcomes, then latency. Label sets within a family are sorted by value.
func (r *Registry) Render() (string, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return "", err
	}
	sort.SliceStable(families, func(i, j int) bool {
		return sectionOrder[families[i].GetName()] < sectionOrder[families[j].GetName()]
	})

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Gatherer exposes the underlying registry, e.g. for promhttp or testutil.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
