package model

type Intent string

const (
	IntentUnknown     Intent = "unknown"
	IntentPerformance Intent = "performance"
	IntentDefects     Intent = "defects"
	IntentFailures    Intent = "failures"
	IntentOrders      Intent = "orders"
	IntentGuidance    Intent = "guidance"
)

// Metrics maps a coarse intent onto the metric categories it implies.
func (i Intent) Metrics() []Metric {
	switch i {
	case IntentPerformance:
		return []Metric{MetricProduction, MetricEfficiency}
	case IntentDefects:
		return []Metric{MetricDefects}
	case IntentFailures:
		return []Metric{MetricFailures}
	case IntentOrders:
		return []Metric{MetricOrders}
	default:
		return nil
	}
}

type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Prediction struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities,omitempty"`
}

func UnknownPrediction() Prediction {
	return Prediction{Intent: IntentUnknown, Confidence: 0}
}
