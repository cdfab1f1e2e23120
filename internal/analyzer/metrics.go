package analyzer

import (
	"regexp"

	"factory-assistant/internal/model"
)

type metricPattern struct {
	metric  model.Metric
	pattern *regexp.Regexp
}

var metricPatterns = []metricPattern{
	{model.MetricProduction, regexp.MustCompile(`\b(production|output|produced|units|quantity)\b`)},
	{model.MetricDefects, regexp.MustCompile(`\b(defects?|errors?|quality issues?)\b`)},
	{model.MetricEfficiency, regexp.MustCompile(`\b(efficiency|performance|productivity)\b`)},
	{model.MetricFailures, regexp.MustCompile(`\b(failures?|breakdowns?|maintenance|repairs?|interventions?)\b|\bmachines?\s+fail`)},
	{model.MetricTarget, regexp.MustCompile(`\b(targets?|goals?|objectives?)\b`)},
	{model.MetricVariance, regexp.MustCompile(`\b(variance|deviation|difference)\b`)},
	{model.MetricOrders, regexp.MustCompile(`\b(orders?|delivery|deliveries|shipments?)\b`)},
}

// extractMetrics tests every category independently, so metrics never displace each other.
func extractMetrics(text string, _ model.Analysis) model.Fragment {
	var found []model.Metric
	for _, mp := range metricPatterns {
		if mp.pattern.MatchString(text) {
			found = append(found, mp.metric)
		}
	}
	return model.Fragment{Metrics: found}
}

type operationPattern struct {
	op      model.MathOperation
	pattern *regexp.Regexp
}

var operationPatterns = []operationPattern{
	{model.OpSum, regexp.MustCompile(`\b(sum|total|add|addition)\b`)},
	{model.OpAverage, regexp.MustCompile(`\b(average|mean|avg)\b`)},
	{model.OpPercentage, regexp.MustCompile(`\b(percentage|percent)\b|%`)},
	{model.OpDifference, regexp.MustCompile(`\b(difference|change|gap)\b`)},
	{model.OpTrend, regexp.MustCompile(`\b(trend|movement|progression)\b`)},
	{model.OpRate, regexp.MustCompile(`\b(rate|speed|pace|per|productivity)\b`)},
	{model.OpDistribution, regexp.MustCompile(`\b(distribution|spread|range|statistics)\b`)},
	{model.OpCompare, regexp.MustCompile(`\b(compare|comparison|versus|vs|against)\b`)},
	{model.OpEfficiency, regexp.MustCompile(`\b(efficiency|productivity|performance)\b`)},
}

var (
	timeRatePattern    = regexp.MustCompile(`\bper\s+(hour|day|week|month)\b|\b(hourly|daily|weekly|monthly|yearly)\b`)
	infoRequestPattern = regexp.MustCompile(`\b(show|display|get|find|what|how many|calculate|list|give|tell)\b`)
)

func extractMathOperation(text string, _ model.Analysis) model.Fragment {
	var matched []model.MathOperation
	hasRate := false
	for _, op := range operationPatterns {
		if op.pattern.MatchString(text) {
			matched = append(matched, op.op)
			hasRate = hasRate || op.op == model.OpRate
		}
	}
	for _, op := range matched {
		if op == model.OpEfficiency && hasRate {
			continue
		}
		return model.Fragment{MathOperation: op}
	}

	if timeRatePattern.MatchString(text) {
		return model.Fragment{MathOperation: model.OpRate}
	}
	if infoRequestPattern.MatchString(text) {
		return model.Fragment{MathOperation: model.OpSum}
	}
	return model.Fragment{}
}
