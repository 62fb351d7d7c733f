package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// Legend Metrics
var (
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameResolutionsTotal,
			Help: HelpTextResolutionsTotal,
		},
		[]string{LabelProvider, LabelKind, LabelResult},
	)

	VerificationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameVerificationRuns,
			Help: HelpTextVerificationRuns,
		},
		[]string{LabelResult},
	)

	VerificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: MetricNameVerificationDuration,
			Help: HelpTextVerificationDuration,
		},
	)

	Findings = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameFindings,
			Help: HelpTextFindings,
		},
		[]string{LabelProvider, LabelKind},
	)

	ReferenceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameReferenceFetchesTotal,
			Help: HelpTextReferenceFetchesTotal,
		},
		[]string{LabelResult},
	)
)
