package calc

import (
	"sort"
	"strings"

	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/schema"
)

const (
	topRates         = 5
	unknownChain     = "Unknown Chain"
	unknownDate      = "unknown"
	periodAllTime    = "all time"
	defaultTimeField = schema.FieldHours
)

var periodHours = map[model.TimePeriod]float64{
	model.PeriodHour:  1,
	model.PeriodDay:   24,
	model.PeriodWeek:  24 * 7,
	model.PeriodMonth: 24 * 30,
}

func (e *Engine) dateLabel(r model.Record) string {
	if d := e.table.Text(r, schema.FieldDate); d != "" {
		return d
	}
	return unknownDate
}

func (e *Engine) defectRate(records []model.Record, a model.Analysis) model.CalculationResult {
	var (
		items             []model.RankedItem
		produced, defects float64
	)
	for _, r := range records {
		p := e.table.Float(r, schema.FieldProduced)
		if p <= 0 {
			continue
		}
		d := e.table.Float(r, schema.FieldDefects)
		items = append(items, model.RankedItem{
			Label:    e.dateLabel(r),
			Workshop: e.table.Text(r, schema.FieldWorkshop),
			Value:    percent(d, p),
			Produced: p,
			Defects:  d,
		})
		produced += p
		defects += d
	}
	if len(items) == 0 {
		return model.NoCalculation{Reason: ReasonNoProduction, Metrics: []model.Metric{model.MetricProduction}, Records: len(records)}
	}

	if a.MathOperation == model.OpAverage {
		period := periodAllTime
		if a.Date != nil && a.Date.Description != "" {
			period = a.Date.Description
		}
		return model.Aggregate{
			Operation:   model.OpAverage,
			Calculation: model.CalcDefectRate,
			Period:      period,
			SampleSize:  len(items),
			Values: []model.Value{
				{Name: "overall_defect_rate", Label: "Overall defect rate", Value: percent(defects, produced), Unit: model.UnitPercent},
				{Name: "total_production", Label: "Total production", Value: produced, Unit: model.UnitUnits},
				{Name: "total_defects", Label: "Total defects", Value: defects, Unit: model.UnitCount},
			},
		}
	}

	rank := a.ComparisonRank()
	if rank == model.RankNone {
		rank = model.RankHighest
	}
	sortItems(items, rank, func(it model.RankedItem) float64 { return it.Value })
	if len(items) > topRates {
		items = items[:topRates]
	}
	return model.RankedList{
		Calculation: model.CalcDefectRate,
		Rank:        rank,
		Items:       items,
		SampleSize:  len(records),
		Summary: []model.Value{
			{Name: "overall_defect_rate", Label: "Overall defect rate", Value: percent(defects, produced), Unit: model.UnitPercent},
		},
	}
}

// efficiencyRate reports output per period. Records without a working time count as
// one full period.
func (e *Engine) efficiencyRate(records []model.Record, period model.TimePeriod) model.CalculationResult {
	if period == model.PeriodNone {
		period = model.PeriodHour
	}
	hoursPer := periodHours[period]

	var (
		items                     []model.RankedItem
		produced, periods, target float64
		hasTarget                 bool
		efficiencies              []float64
	)
	for _, r := range records {
		p := e.table.Float(r, schema.FieldProduced)
		if p <= 0 {
			continue
		}
		hours := hoursPer
		if h, ok := e.table.Number(r, defaultTimeField); ok && h > 0 {
			hours = h
		}
		spent := hours / hoursPer

		item := model.RankedItem{
			Label:    e.dateLabel(r),
			Workshop: e.table.Text(r, schema.FieldWorkshop),
			Value:    ratio(p, spent),
			Produced: p,
			Time:     hours,
		}
		if t, ok := e.table.Number(r, schema.FieldTarget); ok {
			target += t
			hasTarget = true
			if t > 0 {
				perf := percent(p, t)
				item.Performance = &perf
			}
		}
		if eff, ok := e.table.Number(r, schema.FieldEfficiency); ok {
			efficiencies = append(efficiencies, eff)
		}

		items = append(items, item)
		produced += p
		periods += spent
	}
	if len(items) == 0 {
		return model.NoCalculation{Reason: ReasonNoProduction, Metrics: []model.Metric{model.MetricProduction}, Records: len(records)}
	}

	sortItems(items, model.RankHighest, func(it model.RankedItem) float64 { return it.Value })

	summary := []model.Value{
		{Name: "overall_rate", Label: "Overall production rate", Value: ratio(produced, periods), Unit: model.UnitRate},
	}
	if hasTarget && target > 0 {
		summary = append(summary, model.Value{Name: "overall_performance", Label: "Overall performance vs target", Value: percent(produced, target), Unit: model.UnitPercent})
	}
	if len(efficiencies) > 0 {
		summary = append(summary, model.Value{Name: "average_efficiency", Label: "Average efficiency", Value: mean(efficiencies), Unit: model.UnitPercent})
	}

	return model.RankedList{
		Calculation: model.CalcEfficiencyRate,
		Period:      period,
		Items:       items,
		Summary:     summary,
		SampleSize:  len(items),
	}
}

// chainDefects groups defects by production chain. When a record has no chain field the
// first proxy field present names the group instead.
func (e *Engine) chainDefects(records []model.Record, rank model.Rank) model.CalculationResult {
	type group struct {
		produced, defects float64
	}
	groups := make(map[string]*group)
	var (
		order     []string
		groupedBy string
		total     float64
	)
	for _, r := range records {
		label, by := e.chainLabel(r)
		if groupedBy == "" || groupedBy == unknownChain {
			groupedBy = by
		}
		g, ok := groups[label]
		if !ok {
			g = &group{}
			groups[label] = g
			order = append(order, label)
		}
		d := e.table.Float(r, schema.FieldDefects)
		g.defects += d
		g.produced += e.table.Float(r, schema.FieldProduced)
		total += d
	}

	items := make([]model.RankedItem, 0, len(order))
	for _, label := range order {
		g := groups[label]
		items = append(items, model.RankedItem{
			Label:    label,
			Value:    percent(g.defects, g.produced),
			Produced: g.produced,
			Defects:  g.defects,
		})
	}
	if rank == model.RankNone {
		rank = model.RankHighest
	}
	sortItems(items, rank, func(it model.RankedItem) float64 { return it.Defects })

	return model.RankedList{
		Calculation: model.CalcChainDefects,
		Rank:        rank,
		GroupedBy:   groupedBy,
		Items:       items,
		SampleSize:  len(records),
		Summary: []model.Value{
			{Name: "total_defects", Label: "Total defects", Value: total, Unit: model.UnitCount},
		},
	}
}

// chainLabel returns the group label of a record and the field kind it came from.
func (e *Engine) chainLabel(r model.Record) (string, string) {
	if chain := e.table.Text(r, schema.FieldChain); chain != "" {
		return chain, schema.FieldChain
	}
	for _, alias := range e.table.Aliases(schema.FieldChainProxy) {
		if v, ok := r[alias]; ok && v != nil {
			if text := schema.ToText(v); text != "" {
				return capitalize(alias) + "-" + text, capitalize(alias)
			}
		}
	}
	return unknownChain, unknownChain
}

var defaultComparisonMetrics = []model.Metric{model.MetricProduction, model.MetricDefects, model.MetricEfficiency}

// Compare totals each side of an entity comparison.
func (e *Engine) Compare(plan planner.Plan, a, b []model.Record) model.CalculationResult {
	cmp := plan.Comparison
	if cmp == nil {
		return model.NoCalculation{Reason: ReasonNoValues, Records: len(a) + len(b)}
	}
	metrics := defaultComparisonMetrics
	if c := plan.Analysis.Comparison; c != nil && len(c.Metrics) > 0 {
		metrics = c.Metrics
	}
	return model.ComparisonPair{
		Entity:  string(cmp.Entity),
		A:       e.entityTotals(cmp.A.ID, a),
		B:       e.entityTotals(cmp.B.ID, b),
		Metrics: metrics,
	}
}

func (e *Engine) entityTotals(id string, records []model.Record) model.EntityTotals {
	t := model.EntityTotals{ID: id, Records: len(records)}
	var efficiency float64
	for _, r := range records {
		t.Production += e.table.Float(r, schema.FieldProduced)
		t.Defects += e.table.Float(r, schema.FieldDefects)
		if eff, ok := e.table.Number(r, schema.FieldEfficiency); ok {
			efficiency += eff
			t.HasEfficiency = true
		}
	}
	t.DefectRate = percent(t.Defects, t.Production)
	t.Efficiency = ratio(efficiency, float64(len(records)))
	return t
}

func sortItems(items []model.RankedItem, rank model.Rank, key func(model.RankedItem) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		if rank == model.RankLowest {
			return key(items[i]) < key(items[j])
		}
		return key(items[i]) > key(items[j])
	})
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
