// Package calc derives statistics from the records of one collection. Every division is
// guarded so results are always finite.
package calc

import (
	"sort"

	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/schema"
)

const (
	ReasonNoRecords     = "no records"
	ReasonNoValues      = "no usable values"
	ReasonNoProduction  = "no production values"
	ReasonNoTarget      = "no target values"
	ReasonTooFewRecords = "not enough records"
)

type Engine struct {
	table *schema.Table
}

func New(table *schema.Table) *Engine {
	return &Engine{table: table}
}

// Calculate picks the computation for a plan. Specialized calculation types take
// precedence over the generic math operation.
func (e *Engine) Calculate(plan planner.Plan, records []model.Record) model.CalculationResult {
	if len(records) == 0 {
		return model.NoCalculation{Reason: ReasonNoRecords, Metrics: plan.Metrics}
	}

	a := plan.Analysis
	switch a.CalculationType {
	case model.CalcChainDefects:
		return e.chainDefects(records, a.ComparisonRank())
	case model.CalcDefectRate:
		return e.defectRate(records, a)
	case model.CalcEfficiencyRate:
		return e.efficiencyRate(records, a.TimePeriod)
	case model.CalcDefectTypes, model.CalcDefectStats, model.CalcDefectTypeCount:
		return e.defectBreakdown(records, a)
	}

	// Failures carry no quantity to add up, so a plain request lists them.
	if plan.HasMetric(model.MetricFailures) {
		switch a.MathOperation {
		case model.OpDistribution:
			return e.failureReport(records)
		case model.OpNone, model.OpSum:
			return e.failureLog(records)
		}
	}

	if a.MathOperation == model.OpNone || (a.MathOperation == model.OpSum && !summable(plan.Metrics)) {
		return e.summary(records, plan.Metrics)
	}
	return e.generic(records, a.MathOperation, plan.Metrics)
}

type series struct {
	metric model.Metric
	values []float64
	usable int
}

// collect resolves each numeric metric to one value per record. Missing values count as 0.
func (e *Engine) collect(records []model.Record, metrics []model.Metric) ([]series, []model.Metric) {
	var (
		out      []series
		unusable []model.Metric
	)
	for _, m := range metrics {
		field, ok := schema.MetricField(m)
		if !ok {
			unusable = append(unusable, m)
			continue
		}
		s := series{metric: m, values: make([]float64, len(records))}
		for i, r := range records {
			if v, ok := e.table.Number(r, field); ok {
				s.values[i] = v
				s.usable++
			}
		}
		if s.usable == 0 {
			unusable = append(unusable, m)
			continue
		}
		out = append(out, s)
	}
	return out, unusable
}

func (e *Engine) generic(records []model.Record, op model.MathOperation, metrics []model.Metric) model.CalculationResult {
	switch op {
	case model.OpCompare:
		op = model.OpSum
	case model.OpEfficiency:
		op = model.OpAverage
	case model.OpDifference, model.OpTrend:
		records = e.byDate(records)
	}

	cols, unusable := e.collect(records, metrics)
	if op == model.OpDistribution {
		return e.distribution(records, cols)
	}

	agg := model.Aggregate{Operation: op, SampleSize: len(records), Unusable: unusable}
	switch op {
	case model.OpSum:
		for _, c := range cols {
			agg.Values = append(agg.Values, model.Value{Name: string(c.metric), Label: "Total " + metricLabel(c.metric), Value: sum(c.values), Unit: metricUnit(c.metric)})
		}
	case model.OpAverage:
		for _, c := range cols {
			agg.Values = append(agg.Values, model.Value{Name: string(c.metric), Label: "Average " + metricLabel(c.metric), Value: mean(c.values), Unit: averageUnit(metricUnit(c.metric))})
		}
	case model.OpPercentage:
		target := e.total(records, schema.FieldTarget)
		if target <= 0 {
			return model.NoCalculation{Reason: ReasonNoTarget, Metrics: metrics, Records: len(records)}
		}
		for _, c := range cols {
			if c.metric == model.MetricTarget {
				continue
			}
			agg.Values = append(agg.Values, model.Value{Name: string(c.metric) + "_percent", Label: capitalize(metricLabel(c.metric)) + " vs target", Value: percent(sum(c.values), target), Unit: model.UnitPercent})
		}
	case model.OpRate:
		agg.Values = e.rates(records, cols)
	case model.OpDifference, model.OpTrend:
		if len(records) < 2 {
			return model.NoCalculation{Reason: ReasonTooFewRecords, Metrics: metrics, Records: len(records)}
		}
		for _, c := range cols {
			first, last := c.values[0], c.values[len(c.values)-1]
			if op == model.OpDifference {
				agg.Values = append(agg.Values, model.Value{Name: string(c.metric) + "_difference", Label: capitalize(metricLabel(c.metric)) + " difference", Value: last - first, Unit: metricUnit(c.metric)})
				continue
			}
			agg.Values = append(agg.Values, model.Value{Name: string(c.metric) + "_trend", Label: capitalize(metricLabel(c.metric)) + " trend", Value: percent(last-first, first), Unit: model.UnitTrend})
		}
	}

	if len(agg.Values) == 0 {
		return model.NoCalculation{Reason: ReasonNoValues, Metrics: metrics, Records: len(records)}
	}
	return agg
}

func (e *Engine) rates(records []model.Record, cols []series) []model.Value {
	var production, defects *series
	for i := range cols {
		switch cols[i].metric {
		case model.MetricProduction:
			production = &cols[i]
		case model.MetricDefects:
			defects = &cols[i]
		}
	}

	var out []model.Value
	if production != nil {
		out = append(out, model.Value{Name: "production_rate", Label: "Production rate", Value: ratio(sum(production.values), float64(len(records))), Unit: model.UnitRate})
	}
	if production != nil && defects != nil {
		if total := sum(production.values); total > 0 {
			out = append(out, model.Value{Name: "defect_rate", Label: "Defect rate", Value: percent(sum(defects.values), total), Unit: model.UnitPercent})
		}
	}
	return out
}

func (e *Engine) distribution(records []model.Record, cols []series) model.CalculationResult {
	if len(cols) == 0 {
		return model.NoCalculation{Reason: ReasonNoValues, Records: len(records)}
	}
	dist := model.Distribution{SampleSize: len(records)}
	for _, c := range cols {
		dist.Metrics = append(dist.Metrics, model.MetricStats{Metric: c.metric, Stats: describe(c.values)})
	}
	return dist
}

func summable(metrics []model.Metric) bool {
	for _, m := range metrics {
		if _, ok := schema.MetricField(m); ok {
			return true
		}
	}
	return false
}

// summary totals production and defects when no operation was asked for.
func (e *Engine) summary(records []model.Record, metrics []model.Metric) model.CalculationResult {
	wanted := []model.Metric{model.MetricProduction, model.MetricDefects}
	requested := false
	for _, m := range metrics {
		if m == model.MetricProduction || m == model.MetricDefects {
			requested = true
		}
	}
	if requested {
		wanted = wanted[:0]
		for _, m := range metrics {
			if m == model.MetricProduction || m == model.MetricDefects {
				wanted = append(wanted, m)
			}
		}
	}

	cols, _ := e.collect(records, wanted)
	if requested && len(cols) == 0 {
		return model.NoCalculation{Reason: ReasonNoValues, Metrics: wanted, Records: len(records)}
	}

	agg := model.Aggregate{
		SampleSize: len(records),
		Values:     []model.Value{{Name: "records", Label: "Records found", Value: float64(len(records)), Unit: model.UnitCount}},
	}
	for _, c := range cols {
		agg.Values = append(agg.Values, model.Value{Name: string(c.metric), Label: "Total " + metricLabel(c.metric), Value: sum(c.values), Unit: metricUnit(c.metric)})
	}
	return agg
}

func (e *Engine) total(records []model.Record, field string) float64 {
	var total float64
	for _, r := range records {
		total += e.table.Float(r, field)
	}
	return total
}

// byDate orders records chronologically. Undated records keep retrieval order after
// the dated ones.
func (e *Engine) byDate(records []model.Record) []model.Record {
	sorted := append([]model.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := e.table.Text(sorted[i], schema.FieldDate), e.table.Text(sorted[j], schema.FieldDate)
		if di == "" || dj == "" {
			return di != "" && dj == ""
		}
		return di < dj
	})
	return sorted
}

func metricLabel(m model.Metric) string {
	if m == model.MetricFailures {
		return "repair time"
	}
	return string(m)
}

func metricUnit(m model.Metric) model.Unit {
	switch m {
	case model.MetricProduction, model.MetricTarget:
		return model.UnitUnits
	case model.MetricEfficiency:
		return model.UnitPercent
	case model.MetricFailures:
		return model.UnitMinutes
	default:
		return model.UnitCount
	}
}

func averageUnit(u model.Unit) model.Unit {
	switch u {
	case model.UnitUnits:
		return model.UnitMeanUnits
	case model.UnitCount:
		return model.UnitPlain
	default:
		return u
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
