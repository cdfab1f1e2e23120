package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"factory-assistant/internal/calc"
	"factory-assistant/internal/executor"
	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
)

func TestAggregate(t *testing.T) {
	f := New()

	total := model.Aggregate{
		Operation:  model.OpSum,
		SampleSize: 3,
		Values:     []model.Value{{Name: "production", Label: "Total production", Value: 450, Unit: model.UnitUnits}},
	}
	assert.Equal(t, "Total production: 450 units", f.Format(planner.Plan{}, total))

	avg := model.Aggregate{
		Operation: model.OpAverage,
		Values:    []model.Value{{Name: "production", Label: "Average production", Value: 112.5, Unit: model.UnitMeanUnits}},
		Unusable:  []model.Metric{model.MetricEfficiency},
	}
	assert.Equal(t, "Average production: 112.50 units | No usable values for efficiency", f.Format(planner.Plan{}, avg))

	trend := model.Aggregate{Values: []model.Value{{Label: "Production trend", Value: -12.5, Unit: model.UnitTrend}}}
	assert.Equal(t, "Production trend: 12.50% decrease", f.Format(planner.Plan{}, trend))
}

func TestCountsHaveNoDecimals(t *testing.T) {
	f := New()

	total := model.Aggregate{Values: []model.Value{
		{Name: "production", Label: "Total production", Value: 450.4, Unit: model.UnitUnits},
		{Name: "defects", Label: "Total defects", Value: 12.6, Unit: model.UnitCount},
	}}
	assert.Equal(t, "Total production: 450 units | Total defects: 13", f.Format(planner.Plan{}, total))

	report := model.FailureReport{Total: 2, Machines: []model.Bucket{{Label: "M1", Count: 1.5}}}
	assert.Contains(t, f.Format(planner.Plan{}, report), "M1: 2 failures (75.0%)")
}

func TestAverageDefectRate(t *testing.T) {
	got := New().Format(planner.Plan{}, model.Aggregate{
		Operation:   model.OpAverage,
		Calculation: model.CalcDefectRate,
		Period:      "this month",
		SampleSize:  2,
		Values: []model.Value{
			{Name: "overall_defect_rate", Value: 4.25},
			{Name: "total_production", Value: 800},
			{Name: "total_defects", Value: 34},
		},
	})
	assert.Equal(t, "Average Defect Rate Analysis for this month (based on 2 records): | Overall defect rate: 4.25% | Total production: 800 units | Total defects: 34", got)
}

func TestSummaryMentionsPeriod(t *testing.T) {
	plan := planner.Plan{Analysis: model.Analysis{Date: &model.DateFilter{Start: "2026-01-05", End: "2026-01-11", Description: "last week"}}}
	got := New().Format(plan, model.Aggregate{
		SampleSize: 4,
		Values: []model.Value{
			{Name: "records", Value: 4},
			{Name: "production", Label: "Total production", Value: 1200, Unit: model.UnitUnits},
		},
	})
	assert.Equal(t, "Found 4 records for last week | Total production: 1200 units", got)
}

func TestComparison(t *testing.T) {
	pair := model.ComparisonPair{
		Entity:  "workshop",
		A:       model.EntityTotals{ID: "3", Production: 1000, Defects: 20, DefectRate: 2, Efficiency: 91, HasEfficiency: true, Records: 2},
		B:       model.EntityTotals{ID: "5", Production: 800, Defects: 40, DefectRate: 5, Efficiency: 84.25, HasEfficiency: true, Records: 1},
		Metrics: []model.Metric{model.MetricProduction, model.MetricDefects, model.MetricEfficiency},
	}
	got := New().Format(planner.Plan{}, pair)

	assert.Contains(t, got, "Workshop Comparison: Workshop 3 vs Workshop 5")
	assert.Contains(t, got, "Production: Workshop 3 produced 200 more units (25.0% more)")
	assert.Contains(t, got, "Quality: Workshop 3 has better quality with 2.00% defect rate vs 5.00%")
	assert.Contains(t, got, "Efficiency: Workshop 3 is more efficient at 91.0% vs 84.2%")
	assert.Contains(t, got, "Records analyzed: Workshop 3: 2, Workshop 5: 1")

	pair.B = model.EntityTotals{ID: "5"}
	assert.Equal(t, "No data found for Workshop 5.", New().Format(planner.Plan{}, pair))
}

func TestComparisonTies(t *testing.T) {
	pair := model.ComparisonPair{
		Entity:  "workshop",
		A:       model.EntityTotals{ID: "1", Production: 500, DefectRate: 1, Records: 1},
		B:       model.EntityTotals{ID: "2", Production: 500, DefectRate: 1, Records: 1},
		Metrics: []model.Metric{model.MetricProduction, model.MetricDefects, model.MetricEfficiency},
	}
	got := New().Format(planner.Plan{}, pair)
	assert.Contains(t, got, "Both workshops had equal production: 500 units")
	assert.Contains(t, got, "Both workshops have the same defect rate")
	assert.NotContains(t, got, "Efficiency:")
}

func TestFailureReport(t *testing.T) {
	report := model.FailureReport{
		Total:       5,
		Machines:    []model.Bucket{{Label: "M1", Count: 3}, {Label: "M2", Count: 2}},
		Technicians: []model.Bucket{{Label: "Ali", Count: 5}},
		Issues:      []model.Bucket{{Label: "Mechanical", Count: 5}},
		RepairTime:  &model.NumericStats{Mean: 26.25, Median: 25, Min: 10, Max: 45, N: 4},
	}
	got := New().Format(planner.Plan{}, report)

	assert.Contains(t, got, "Machine Failure Distribution: M1: 3 failures (60.0%) M2: 2 failures (40.0%)")
	assert.Contains(t, got, "Technician Distribution: Ali: 5 repairs")
	assert.Contains(t, got, "Repair Time Statistics: Average: 26.2 minutes | Median: 25.0 minutes | Min: 10.0 minutes | Max: 45.0 minutes")
}

func TestFailureLog(t *testing.T) {
	log := model.FailureLog{
		Total: 1,
		Entries: []model.FailureEntry{
			{Date: "2026-01-10", Machine: "M7", Technician: "Sara", Issue: "belt snapped", TimeSpent: 40, HasTime: true, Status: "fixed"},
		},
	}
	assert.Equal(t,
		"Found 1 machine failure records: ■ Date: 2026-01-10 | Machine: M7 | Technician: Sara | Issue: belt snapped | Time Spent: 40 minutes | Status: fixed",
		New().Format(planner.Plan{}, log))
}

func TestRankedLists(t *testing.T) {
	f := New()

	rates := model.RankedList{
		Calculation: model.CalcDefectRate,
		Rank:        model.RankHighest,
		Items:       []model.RankedItem{{Label: "2026-01-02", Value: 9, Produced: 100, Defects: 9}},
	}
	assert.Contains(t, f.Format(planner.Plan{}, rates), "Highest defect rates found: ■ #1: Date: 2026-01-02 | Defect Rate: 9.00% | Units Produced: 100 | Defects: 9")

	perf := 120.0
	eff := model.RankedList{
		Calculation: model.CalcEfficiencyRate,
		Period:      model.PeriodHour,
		SampleSize:  2,
		Items:       []model.RankedItem{{Label: "2026-01-02", Workshop: "1", Value: 15, Produced: 120, Time: 8, Performance: &perf}},
		Summary:     []model.Value{{Name: "overall_rate", Value: 12.5}},
	}
	got := f.Format(planner.Plan{}, eff)
	assert.Contains(t, got, "Overall production rate: 12.50 units per hour")
	assert.Contains(t, got, "#1: Date: 2026-01-02 | Workshop: 1 | Rate: 15.00 units/hour | Production: 120 units | Time: 8 hours | Performance: 120.00%")
	assert.NotContains(t, got, "Overall performance vs target")

	chains := model.RankedList{
		Calculation: model.CalcChainDefects,
		GroupedBy:   "Workshop",
		SampleSize:  2,
		Items:       []model.RankedItem{{Label: "Workshop-1", Defects: 4}},
		Summary:     []model.Value{{Name: "total_defects", Value: 4}},
	}
	got = f.Format(planner.Plan{}, chains)
	assert.Contains(t, got, "Chain information not found. Showing Workshop statistics instead:")
	assert.Contains(t, got, "Only one chain/group found in the data.")

	chains.GroupedBy = "Unknown Chain"
	assert.Equal(t, "Found 2 records | Total defects: 4 | No chain information found in database.", f.Format(planner.Plan{}, chains))
}

func TestDefects(t *testing.T) {
	f := New()
	types := []model.Bucket{{Label: "loose thread", Count: 5}, {Label: "hole", Count: 3}, {Label: "stain", Count: 2}}

	got := f.Format(planner.Plan{}, model.DefectBreakdown{Calculation: model.CalcDefectTypes, Types: types})
	assert.Equal(t, "The most common defect types are: 1. loose thread (5 occurrences) 2. hole (3 occurrences) 3. stain (2 occurrences)", got)

	got = f.Format(planner.Plan{}, model.DefectBreakdown{Calculation: model.CalcDefectTypeCount, Types: types, RequestedType: "hole", RequestedCount: 3})
	assert.Equal(t, "Hole defects reported: 3 (30.0% of all defects)", got)

	got = f.Format(planner.Plan{}, model.DefectBreakdown{Calculation: model.CalcDefectTypeCount, RequestedType: "tear", SampleSize: 40})
	assert.Equal(t, "No tear defects found in the last 40 records.", got)

	got = f.Format(planner.Plan{}, model.DefectBreakdown{Calculation: model.CalcDefectStats, TotalDefects: 10, TotalProduction: 200, DefectRate: 5, SampleSize: 2, Types: types[:1]})
	assert.Contains(t, got, "• Overall defect rate: 5.00%")
	assert.Contains(t, got, "Top defect types: loose thread: 5 (100.0%)")

	got = f.Format(planner.Plan{}, model.DefectBreakdown{Calculation: model.CalcDefectTypes, TotalDefects: 7})
	assert.Contains(t, got, "No specific defect type information was found")
}

func TestAbsence(t *testing.T) {
	f := New()
	performance := planner.Plan{Category: planner.CategoryPerformance}
	failures := planner.Plan{Category: planner.CategoryFailures}

	tests := []struct {
		name    string
		plan    planner.Plan
		absence executor.Absence
		want    string
	}{
		{
			name:    "order",
			plan:    performance,
			absence: executor.Absence{Reason: executor.NoMatchingFilter, Filter: model.FilterOrder, Value: "12345"},
			want:    "No data found for order 12345. Please check the order reference number and try again.",
		},
		{
			name:    "filter with hints",
			plan:    performance,
			absence: executor.Absence{Reason: executor.NoMatchingFilter, Filter: model.FilterWorkshop, Value: "9", Hints: []string{"1", "2"}},
			want:    "No data found for workshop 9. Known values: 1, 2.",
		},
		{
			name:    "comparison",
			plan:    planner.Plan{Comparison: &planner.ComparisonPlan{Entity: model.FilterWorkshop}},
			absence: executor.Absence{Reason: executor.NoMatchingFilter, Filter: model.FilterWorkshop},
			want:    "No data found for the specified workshops.",
		},
		{
			name:    "range",
			plan:    planner.Plan{Analysis: model.Analysis{Date: &model.DateFilter{Description: "last week"}}},
			absence: executor.Absence{Reason: executor.NoRecordsInRange},
			want:    "No production records found for last week.",
		},
		{
			name:    "no failures",
			plan:    failures,
			absence: executor.Absence{Reason: executor.NoData},
			want:    "No machine failures found matching your criteria.",
		},
		{
			name:    "no production",
			plan:    performance,
			absence: executor.Absence{Reason: executor.NoData},
			want:    "No production data is available yet.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Absence(tt.plan, tt.absence))
		})
	}
}

func TestNoCalculation(t *testing.T) {
	got := New().Format(planner.Plan{}, model.NoCalculation{Reason: calc.ReasonNoValues, Metrics: []model.Metric{model.MetricEfficiency}, Records: 3})
	assert.Equal(t, "Found 3 records, but none of them contain usable values for efficiency.", got)
}

func TestNeverEmpty(t *testing.T) {
	assert.Equal(t, msgGenericError, New().Format(planner.Plan{}, nil))
	assert.Equal(t, msgGenericError, New().Format(planner.Plan{}, model.Distribution{}))
}
