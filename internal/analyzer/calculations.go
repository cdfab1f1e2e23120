package analyzer

import (
	"regexp"
	"strings"

	"factory-assistant/internal/model"
)

var (
	failurePattern      = regexp.MustCompile(`\bmachines?\s+failures?\b|\b(failures?|breakdowns?|interventions?)\b`)
	distributionPattern = regexp.MustCompile(`\b(distribution|spread|statistics)\b`)

	compareMetricPattern = regexp.MustCompile(`\bcompare\s+(\w+)\s+between\s+(workshop|chain|machine|technician)s?\s+([\w\-]+)\s+(?:and|vs\.?|versus|with|to)\s+(?:(?:workshop|chain|machine|technician)s?\s+)?([\w\-]+)`)
	compareEntityPattern = regexp.MustCompile(`\bcompare\s+(workshop|chain|machine|technician)s?\s+([\w\-]+)\s+(?:and|vs\.?|versus|with|to)\s+(?:(?:workshop|chain|machine|technician)s?\s+)?([\w\-]+)`)
	compareLoosePattern  = regexp.MustCompile(`\b(?:compare|comparison|versus|vs)\b.*?\bworkshops?\s+(\d+)\s+(?:and|vs\.?|versus|with|to)\s+(?:workshops?\s+)?(\d+)\b`)
	workshopVsPattern    = regexp.MustCompile(`\bworkshop\s+(\d+)\s+(?:vs\.?|versus)\s+(?:workshop\s+)?(\d+)\b`)

	averageDefectRatePattern = regexp.MustCompile(`\b(average|mean|avg)\s+(defects?\s+)?(rate|ratio|percentage)\s+of\s+defects?\b|\b(average|mean|avg)\s+defects?\s+(rate|ratio|percentage)\b|\bdefects?\s+(rate|ratio|percentage)\b.*\b(average|mean|avg)\b`)
	defectRatePattern        = regexp.MustCompile(`\bdefects?\s+(rate|ratio|percentage|proportion)\b|\b(rate|ratio|percentage|proportion)\s+of\s+defects?\b`)

	chainQuestionPattern = regexp.MustCompile(`\b(which\s+chains?|chains?\s+with|chains?\s+has|chains?\s+had)\b`)
	highestPattern       = regexp.MustCompile(`\b(highest|most|maximum|max|top|worst|greatest)\b`)
	lowestPattern        = regexp.MustCompile(`\b(lowest|least|minimum|min|fewest|bottom|best)\b`)

	efficiencyRatePattern = regexp.MustCompile(`\b(?:efficiency|performance|production|output)\s+rate\s+(?:per|by|each|every|an?)\s+(hour|day|week|month)\b`)
	periodicRatePattern   = regexp.MustCompile(`\b(hourly|daily|weekly|monthly)\s+(?:efficiency|performance|production|output)\s+rate\b`)
	perUnitPattern        = regexp.MustCompile(`\b(?:efficiency|production|output)\s+per\s+(hour|day|week|month)\b`)
	plainEfficiencyRate   = regexp.MustCompile(`\b(?:efficiency|performance)\s+rate\b`)

	defectTypesPattern     = regexp.MustCompile(`\b(types?|kinds?|categories|category)\s+of\s+defects?\b|\bdefects?\s+(types?|categories|kinds)\b|\b(most\s+)?common\s+defects?\b`)
	defectStatsPattern     = regexp.MustCompile(`\bdefects?\s+(statistics|stats|summary|overview)\b|\b(statistics|stats|summary|overview)\s+(?:of|for|about|on)\s+defects?\b`)
	defectTypeCountPattern = regexp.MustCompile(`\bhow\s+many\s+([a-z][a-z\s]*?)\s+(?:(?:were|was)\s+)?(?:defects?|issues?|problems?|reported|found)\b`)
)

var periodWords = map[string]model.TimePeriod{
	"hour": model.PeriodHour, "hourly": model.PeriodHour,
	"day": model.PeriodDay, "daily": model.PeriodDay,
	"week": model.PeriodWeek, "weekly": model.PeriodWeek,
	"month": model.PeriodMonth, "monthly": model.PeriodMonth,
}

var comparisonMetricWords = map[string]model.Metric{
	"production": model.MetricProduction, "output": model.MetricProduction,
	"defects": model.MetricDefects, "defect": model.MetricDefects, "quality": model.MetricDefects,
	"efficiency": model.MetricEfficiency, "performance": model.MetricEfficiency,
}

var defaultComparisonMetrics = []model.Metric{model.MetricProduction, model.MetricDefects, model.MetricEfficiency}

// Words that show a "how many X ..." capture is not a defect type.
var nonDefectTypeWords = map[string]bool{
	"defect": true, "defects": true, "total": true, "the": true, "of": true, "there": true,
	"are": true, "is": true, "have": true, "had": true, "been": true, "machine": true,
	"machines": true, "failure": true, "failures": true, "quality": true, "units": true,
	"orders": true, "records": true, "times": true, "breakdowns": true,
}

func classifyFailures(text string, _ model.Analysis) model.Fragment {
	if !failurePattern.MatchString(text) {
		return model.Fragment{}
	}
	f := model.Fragment{Metrics: []model.Metric{model.MetricFailures}}
	if distributionPattern.MatchString(text) {
		f.MathOperation = model.OpDistribution
	}
	return f
}

func classifyComparison(text string, _ model.Analysis) model.Fragment {
	var cmp *model.Comparison

	switch {
	case compareMetricPattern.MatchString(text):
		m := compareMetricPattern.FindStringSubmatch(text)
		metrics := defaultComparisonMetrics
		if metric, ok := comparisonMetricWords[m[1]]; ok {
			metrics = []model.Metric{metric}
		}
		cmp = &model.Comparison{Entity: m[2], A: m[3], B: m[4], Metrics: metrics}
	case compareEntityPattern.MatchString(text):
		m := compareEntityPattern.FindStringSubmatch(text)
		cmp = &model.Comparison{Entity: m[1], A: m[2], B: m[3], Metrics: defaultComparisonMetrics}
	case compareLoosePattern.MatchString(text):
		m := compareLoosePattern.FindStringSubmatch(text)
		cmp = &model.Comparison{Entity: "workshop", A: m[1], B: m[2], Metrics: defaultComparisonMetrics}
	case workshopVsPattern.MatchString(text):
		m := workshopVsPattern.FindStringSubmatch(text)
		cmp = &model.Comparison{Entity: "workshop", A: m[1], B: m[2], Metrics: defaultComparisonMetrics}
	default:
		return model.Fragment{}
	}

	cmp.A = normalizeNumberWord(cmp.A)
	cmp.B = normalizeNumberWord(cmp.B)
	return model.Fragment{
		Comparison:      cmp,
		Metrics:         cmp.Metrics,
		CalculationType: model.CalcComparison,
		MathOperation:   model.OpCompare,
	}
}

func classifyAverageDefectRate(text string, _ model.Analysis) model.Fragment {
	if !averageDefectRatePattern.MatchString(text) {
		return model.Fragment{}
	}
	return model.Fragment{
		Metrics:         []model.Metric{model.MetricDefects, model.MetricProduction},
		CalculationType: model.CalcDefectRate,
		MathOperation:   model.OpAverage,
	}
}

func classifyDefectRate(text string, prior model.Analysis) model.Fragment {
	if prior.CalculationType == model.CalcDefectRate || !defectRatePattern.MatchString(text) {
		return model.Fragment{}
	}
	f := model.Fragment{
		Metrics:         []model.Metric{model.MetricDefects, model.MetricProduction},
		CalculationType: model.CalcDefectRate,
		MathOperation:   model.OpRate,
	}
	if prior.Comparison == nil || !prior.Comparison.IsPair() {
		if rank := rankOf(text); rank != model.RankNone {
			f.Comparison = &model.Comparison{Rank: rank}
		}
	}
	return f
}

func classifyChainDefects(text string, prior model.Analysis) model.Fragment {
	if !chainQuestionPattern.MatchString(text) || !prior.HasMetric(model.MetricDefects) {
		return model.Fragment{}
	}
	rank := rankOf(text)
	if rank == model.RankNone {
		return model.Fragment{}
	}
	return model.Fragment{
		Metrics:         []model.Metric{model.MetricProduction},
		CalculationType: model.CalcChainDefects,
		Comparison:      &model.Comparison{Rank: rank},
	}
}

func classifyEfficiencyRate(text string, _ model.Analysis) model.Fragment {
	var period model.TimePeriod
	switch {
	case efficiencyRatePattern.MatchString(text):
		period = periodWords[efficiencyRatePattern.FindStringSubmatch(text)[1]]
	case periodicRatePattern.MatchString(text):
		period = periodWords[periodicRatePattern.FindStringSubmatch(text)[1]]
	case perUnitPattern.MatchString(text):
		period = periodWords[perUnitPattern.FindStringSubmatch(text)[1]]
	case plainEfficiencyRate.MatchString(text):
		period = model.PeriodHour
	default:
		return model.Fragment{}
	}
	return model.Fragment{
		Metrics:         []model.Metric{model.MetricEfficiency, model.MetricProduction},
		CalculationType: model.CalcEfficiencyRate,
		MathOperation:   model.OpRate,
		TimePeriod:      period,
	}
}

// classifyRanking records a bare highest/lowest request when nothing more specific did.
func classifyRanking(text string, prior model.Analysis) model.Fragment {
	if prior.Comparison != nil {
		return model.Fragment{}
	}
	if rank := rankOf(text); rank != model.RankNone {
		return model.Fragment{Comparison: &model.Comparison{Rank: rank}}
	}
	return model.Fragment{}
}

func classifyDefectTypes(text string, _ model.Analysis) model.Fragment {
	if !defectTypesPattern.MatchString(text) {
		return model.Fragment{}
	}
	return model.Fragment{
		Metrics:         []model.Metric{model.MetricDefects},
		CalculationType: model.CalcDefectTypes,
	}
}

func classifyDefectStats(text string, _ model.Analysis) model.Fragment {
	if !defectStatsPattern.MatchString(text) {
		return model.Fragment{}
	}
	return model.Fragment{
		Metrics:         []model.Metric{model.MetricDefects, model.MetricProduction},
		CalculationType: model.CalcDefectStats,
	}
}

func classifyDefectTypeCount(text string, _ model.Analysis) model.Fragment {
	m := defectTypeCountPattern.FindStringSubmatch(text)
	if m == nil {
		return model.Fragment{}
	}
	words := strings.Fields(m[1])
	if len(words) == 0 || len(words) > 3 {
		return model.Fragment{}
	}
	for _, w := range words {
		if nonDefectTypeWords[w] {
			return model.Fragment{}
		}
	}
	return model.Fragment{
		Metrics:         []model.Metric{model.MetricDefects},
		CalculationType: model.CalcDefectTypeCount,
		DefectType:      strings.Join(words, " "),
	}
}

func rankOf(text string) model.Rank {
	switch {
	case highestPattern.MatchString(text):
		return model.RankHighest
	case lowestPattern.MatchString(text):
		return model.RankLowest
	}
	return model.RankNone
}
