package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/schema"
)

func newEngine() *Engine {
	return New(schema.Default())
}

func planFor(a model.Analysis) planner.Plan {
	return planner.New(schema.Default(), 0, 0).Plan(a, model.UnknownPrediction())
}

func TestSumProduction(t *testing.T) {
	records := []model.Record{{"produced": 100.0}, {"produced": "150"}, {"production": 200}}
	plan := planFor(model.Analysis{Metrics: []model.Metric{model.MetricProduction}, MathOperation: model.OpSum})

	got, ok := newEngine().Calculate(plan, records).(model.Aggregate)
	require.True(t, ok)
	v, found := got.Get("production")
	require.True(t, found)
	assert.Equal(t, 450.0, v)
	assert.Equal(t, "Total production", got.Values[0].Label)
	assert.Equal(t, model.UnitUnits, got.Values[0].Unit)
}

func TestAverageDefectRate(t *testing.T) {
	records := []model.Record{
		{"produced": 500.0, "defects": 25.0},
		{"produced": 300.0, "defects": 9.0},
	}
	plan := planFor(model.Analysis{
		Date:            &model.DateFilter{Start: "2026-01-01", End: "2026-01-15", Description: "this month"},
		Metrics:         []model.Metric{model.MetricDefects, model.MetricProduction},
		MathOperation:   model.OpAverage,
		CalculationType: model.CalcDefectRate,
	})

	got, ok := newEngine().Calculate(plan, records).(model.Aggregate)
	require.True(t, ok)
	rate, _ := got.Get("overall_defect_rate")
	assert.InDelta(t, 4.25, rate, 1e-9)
	assert.Equal(t, 2, got.SampleSize)
	assert.Equal(t, "this month", got.Period)
	production, _ := got.Get("total_production")
	assert.Equal(t, 800.0, production)
	defects, _ := got.Get("total_defects")
	assert.Equal(t, 34.0, defects)
}

func TestDefectRateRanking(t *testing.T) {
	records := []model.Record{
		{"date": "2026-01-01", "produced": 100.0, "defects": 5.0},
		{"date": "2026-01-02", "produced": 100.0, "defects": 9.0},
		{"date": "2026-01-03", "produced": 0.0, "defects": 3.0},
		{"date": "2026-01-04", "produced": 100.0, "defects": 1.0},
	}
	a := model.Analysis{CalculationType: model.CalcDefectRate, MathOperation: model.OpRate}

	got, ok := newEngine().Calculate(planFor(a), records).(model.RankedList)
	require.True(t, ok)
	require.Len(t, got.Items, 3)
	assert.Equal(t, []string{"2026-01-02", "2026-01-01", "2026-01-04"}, labels(got.Items))

	a.Comparison = &model.Comparison{Rank: model.RankLowest}
	got = newEngine().Calculate(planFor(a), records).(model.RankedList)
	assert.Equal(t, []string{"2026-01-04", "2026-01-01", "2026-01-02"}, labels(got.Items))
}

func TestDivisionSafety(t *testing.T) {
	engine := newEngine()

	got := engine.Calculate(planFor(model.Analysis{CalculationType: model.CalcDefectRate, MathOperation: model.OpAverage}),
		[]model.Record{{"produced": 0.0, "defects": 4.0}})
	assert.IsType(t, model.NoCalculation{}, got)

	eff, ok := engine.Calculate(planFor(model.Analysis{CalculationType: model.CalcEfficiencyRate, MathOperation: model.OpRate}),
		[]model.Record{{"produced": 80.0, "productionTarget": 0.0, "hours": 0.0}}).(model.RankedList)
	require.True(t, ok)
	require.Len(t, eff.Items, 1)
	assert.Nil(t, eff.Items[0].Performance)
	assert.Equal(t, 80.0, eff.Items[0].Value)
	_, hasPerformance := eff.Get("overall_performance")
	assert.False(t, hasPerformance)

	trend, ok := engine.Calculate(planFor(model.Analysis{Metrics: []model.Metric{model.MetricProduction}, MathOperation: model.OpTrend}),
		[]model.Record{{"date": "2026-01-01", "produced": 0.0}, {"date": "2026-01-02", "produced": 50.0}}).(model.Aggregate)
	require.True(t, ok)
	for _, v := range trend.Values {
		assert.False(t, math.IsNaN(v.Value) || math.IsInf(v.Value, 0))
	}
	value, _ := trend.Get("production_trend")
	assert.Equal(t, 0.0, value)
}

func TestTrendSortsByDate(t *testing.T) {
	records := []model.Record{
		{"date": "2026-01-03", "produced": 150.0},
		{"produced": 999.0},
		{"date": "2026-01-01", "produced": 100.0},
	}
	plan := planFor(model.Analysis{Metrics: []model.Metric{model.MetricProduction}, MathOperation: model.OpTrend})

	got, ok := newEngine().Calculate(plan, records).(model.Aggregate)
	require.True(t, ok)
	trend, _ := got.Get("production_trend")
	assert.InDelta(t, 899.0, trend, 1e-9)

	plan.Analysis.MathOperation = model.OpDifference
	got = newEngine().Calculate(plan, records).(model.Aggregate)
	diff, _ := got.Get("production_difference")
	assert.Equal(t, 899.0, diff)
}

func TestEfficiencyRatePeriod(t *testing.T) {
	records := []model.Record{
		{"date": "2026-01-01", "produced": 80.0, "hours": 8.0, "productionTarget": 100.0, "efficiency": 90.0},
		{"date": "2026-01-02", "produced": 120.0, "hours": 8.0, "productionTarget": 100.0, "efficiency": 70.0},
	}
	a := model.Analysis{CalculationType: model.CalcEfficiencyRate, MathOperation: model.OpRate, TimePeriod: model.PeriodHour}

	got, ok := newEngine().Calculate(planFor(a), records).(model.RankedList)
	require.True(t, ok)
	assert.Equal(t, "2026-01-02", got.Items[0].Label)
	assert.Equal(t, 15.0, got.Items[0].Value)
	require.NotNil(t, got.Items[0].Performance)
	assert.Equal(t, 120.0, *got.Items[0].Performance)
	overall, _ := got.Get("overall_rate")
	assert.Equal(t, 12.5, overall)
	perf, _ := got.Get("overall_performance")
	assert.Equal(t, 100.0, perf)
	avg, _ := got.Get("average_efficiency")
	assert.Equal(t, 80.0, avg)

	a.TimePeriod = model.PeriodDay
	got = newEngine().Calculate(planFor(a), records).(model.RankedList)
	overall, _ = got.Get("overall_rate")
	assert.InDelta(t, 300.0, overall, 1e-9)
}

func TestFailureDistribution(t *testing.T) {
	records := []model.Record{
		{"machineReference": "M1", "technicianName": "Ali", "description": "Motor overheating", "timeSpent": 30.0},
		{"machineReference": "M2", "technicianName": "Sara", "description": "power cut on line", "timeSpent": 45.0},
		{"machineReference": "M1", "technicianName": "Ali", "description": "needle broke twice", "timeSpent": 10.0},
		{"machineReference": "M3", "technicianName": "Ali", "description": "routine check"},
		{"machineReference": "M1", "technicianName": "Sara", "description": "gear slipping", "timeSpent": 20.0},
	}
	plan := planFor(model.Analysis{Metrics: []model.Metric{model.MetricFailures}, MathOperation: model.OpDistribution})

	got, ok := newEngine().Calculate(plan, records).(model.FailureReport)
	require.True(t, ok)

	assert.Equal(t, 5, got.Total)
	require.Len(t, got.Machines, 3)
	assert.Equal(t, model.Bucket{Label: "M1", Count: 3}, got.Machines[0])
	assert.Equal(t, "M2", got.Machines[1].Label)
	assert.Equal(t, "M3", got.Machines[2].Label)

	var total float64
	for _, b := range got.Machines {
		total += b.Count
	}
	assert.Equal(t, float64(len(records)), total)

	assert.Equal(t, model.Bucket{Label: "Mechanical", Count: 2}, got.Issues[0])
	assert.Contains(t, got.Issues, model.Bucket{Label: "Electrical", Count: 1})
	assert.Contains(t, got.Issues, model.Bucket{Label: "needle broke...", Count: 1})
	assert.Contains(t, got.Issues, model.Bucket{Label: "Maintenance", Count: 1})

	require.NotNil(t, got.RepairTime)
	assert.Equal(t, 4, got.RepairTime.N)
	assert.Equal(t, 26.25, got.RepairTime.Mean)
	assert.Equal(t, 25.0, got.RepairTime.Median)
	assert.Equal(t, 10.0, got.RepairTime.Min)
	assert.Equal(t, 45.0, got.RepairTime.Max)
}

func TestSumWithoutQuantityMetric(t *testing.T) {
	records := []model.Record{
		{"orderRef": "1001", "produced": 40.0},
		{"orderRef": "1001", "produced": 60.0},
	}
	got, ok := newEngine().Calculate(planFor(model.Analysis{MathOperation: model.OpSum}), records).(model.Aggregate)
	require.True(t, ok)
	found, _ := got.Get("records")
	assert.Equal(t, 2.0, found)
	produced, _ := got.Get("production")
	assert.Equal(t, 100.0, produced)
}

func TestFailureLog(t *testing.T) {
	var records []model.Record
	for i := 0; i < 12; i++ {
		records = append(records, model.Record{"machineReference": "M1", "description": "jam"})
	}
	plan := planFor(model.Analysis{Metrics: []model.Metric{model.MetricFailures}})

	got, ok := newEngine().Calculate(plan, records).(model.FailureLog)
	require.True(t, ok)
	assert.Equal(t, 12, got.Total)
	assert.Len(t, got.Entries, 10)
	require.NotNil(t, got.Summary)

	got = newEngine().Calculate(plan, records[:3]).(model.FailureLog)
	assert.Nil(t, got.Summary)

	plan.Analysis.MathOperation = model.OpSum
	_, ok = newEngine().Calculate(plan, records).(model.FailureLog)
	assert.True(t, ok, "a plain show request still lists failures")
}

func TestChainDefects(t *testing.T) {
	records := []model.Record{
		{"chain": "C1", "produced": 100.0, "defects": 3.0},
		{"chain": "C2", "produced": 100.0, "defects": 8.0},
		{"chain": "C1", "produced": 100.0, "defects": 2.0},
	}
	a := model.Analysis{CalculationType: model.CalcChainDefects, Comparison: &model.Comparison{Rank: model.RankHighest}}

	got, ok := newEngine().Calculate(planFor(a), records).(model.RankedList)
	require.True(t, ok)
	assert.Equal(t, schema.FieldChain, got.GroupedBy)
	assert.Equal(t, []string{"C2", "C1"}, labels(got.Items))
	assert.Equal(t, 5.0, got.Items[1].Defects)
	assert.Equal(t, 2.5, got.Items[1].Value)

	proxied := []model.Record{
		{"workshop": 1.0, "defects": 3.0},
		{"workshop": 2.0, "defects": 1.0},
	}
	got = newEngine().Calculate(planFor(a), proxied).(model.RankedList)
	assert.Equal(t, "Workshop", got.GroupedBy)
	assert.Equal(t, []string{"Workshop-1", "Workshop-2"}, labels(got.Items))
}

func TestDefectBreakdown(t *testing.T) {
	records := []model.Record{
		{"workshop": 1.0, "produced": 100.0, "defects": 6.0, "defectTypes": map[string]any{"loose thread": 4.0, "stain": 2.0}},
		{"workshop": 2.0, "produced": 100.0, "defects": 4.0, "defectTypes": map[string]any{"loose thread": 1.0, "hole": 3.0}},
	}
	a := model.Analysis{CalculationType: model.CalcDefectTypeCount, DefectType: "loose thread"}

	got, ok := newEngine().Calculate(planFor(a), records).(model.DefectBreakdown)
	require.True(t, ok)
	assert.Equal(t, model.Bucket{Label: "loose thread", Count: 5}, got.Types[0])
	assert.Equal(t, 5.0, got.RequestedCount)
	assert.Equal(t, 10.0, got.TotalDefects)
	assert.Equal(t, 5.0, got.DefectRate)
	assert.Len(t, got.ByWorkshop, 2)

	catalogue := []model.Record{{"defectName": "Stain", "defectTypes": 7.0}, {"defectName": "Hole", "count": 2.0}}
	got = newEngine().Calculate(planFor(model.Analysis{CalculationType: model.CalcDefectTypes}), catalogue).(model.DefectBreakdown)
	assert.Equal(t, []model.Bucket{{Label: "Stain", Count: 7}, {Label: "Hole", Count: 2}}, got.Types)
}

func TestCompare(t *testing.T) {
	a := model.Analysis{
		Comparison:      &model.Comparison{Entity: "workshop", A: "3", B: "5", Metrics: []model.Metric{model.MetricProduction, model.MetricDefects}},
		CalculationType: model.CalcComparison,
	}
	got, ok := newEngine().Compare(planFor(a),
		[]model.Record{{"produced": 600.0, "defects": 12.0}, {"produced": 400.0, "defects": 8.0}},
		[]model.Record{{"produced": 800.0, "defects": 40.0}},
	).(model.ComparisonPair)
	require.True(t, ok)

	assert.Equal(t, "workshop", got.Entity)
	assert.Equal(t, "3", got.A.ID)
	assert.Equal(t, 1000.0, got.A.Production)
	assert.Equal(t, 2.0, got.A.DefectRate)
	assert.Equal(t, 5.0, got.B.DefectRate)
	assert.False(t, got.A.HasEfficiency)
	assert.Equal(t, []model.Metric{model.MetricProduction, model.MetricDefects}, got.Metrics)
}

func TestNoUsableValues(t *testing.T) {
	plan := planFor(model.Analysis{Metrics: []model.Metric{model.MetricProduction}, MathOperation: model.OpSum})

	got, ok := newEngine().Calculate(plan, []model.Record{{"note": "n/a"}, {"produced": "lots"}}).(model.NoCalculation)
	require.True(t, ok)
	assert.Equal(t, 2, got.Records)
	assert.Equal(t, ReasonNoValues, got.Reason)
}

func TestDescribe(t *testing.T) {
	s := describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 2.0, s.Std)
	assert.Equal(t, 4.5, s.Median)
	assert.Equal(t, model.NumericStats{}, describe(nil))
}

func labels(items []model.RankedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}
