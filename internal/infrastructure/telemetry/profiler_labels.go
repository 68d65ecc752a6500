package telemetry

import (
	"context"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Values must stay low cardinality, so ids never
// become labels.
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelOperation = "operation"
	ProfilingLabelModel     = "model"
)

// MaxLabelValueLength truncates label values
const MaxLabelValueLength = 128

// WithProfilingLabels runs fn with labels attached to the samples taken on
// its goroutine. Empty values are dropped; with no labels left fn runs
// unlabelled.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// ProfileOperation labels fn with a service operation such as
// "message.create" and the document model it works on.
func ProfileOperation(ctx context.Context, operation, model string, fn func(context.Context)) {
	WithProfilingLabels(ctx, OperationLabels(operation, model), fn)
}

// OperationLabels builds the labels of a service operation
func OperationLabels(operation, model string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation: operation,
		ProfilingLabelModel:     model,
	}
}

// HTTPRequestLabels builds the labels of a matched route
func HTTPRequestLabels(route, method string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:  route,
		ProfilingLabelMethod: method,
	}
}

// labelPairs flattens labels into sorted key/value pairs
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labels[k]
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
