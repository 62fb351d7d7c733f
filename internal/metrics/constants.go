package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal     = "http_requests_total"
	MetricNameHTTPRequestDuration   = "http_request_duration_seconds"
	MetricNameResolutionsTotal      = "legend_resolutions_total"
	MetricNameVerificationRuns      = "legend_verification_runs_total"
	MetricNameVerificationDuration  = "legend_verification_duration_seconds"
	MetricNameFindings              = "legend_findings"
	MetricNameReferenceFetchesTotal = "legend_reference_fetches_total"
)

// Metric help text
const (
	HelpTextHTTPRequestsTotal     = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration   = "HTTP request latency in seconds"
	HelpTextResolutionsTotal      = "Symbol resolutions by provider, identifier kind and result"
	HelpTextVerificationRuns      = "Verification runs by result"
	HelpTextVerificationDuration  = "Time taken by a full verification run in seconds"
	HelpTextFindings              = "Findings in the latest verification report by provider and kind"
	HelpTextReferenceFetchesTotal = "Reference legend fetches by result"
)

// Label names
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelProvider = "provider"
	LabelKind     = "kind"
	LabelResult   = "result"
)

// Label values
const (
	ResultOK       = "ok"
	ResultMiss     = "miss"
	ResultError    = "error"
	ResultCacheHit = "cache_hit"

	// ProviderUnregistered labels resolutions for provider ids the registry
	// does not know, so callers cannot grow the label set.
	ProviderUnregistered = "unregistered"
)

// HTTPLatencyBuckets are the histogram buckets for request latency.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
