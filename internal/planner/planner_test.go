package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factory-assistant/internal/model"
	"factory-assistant/internal/schema"
	"factory-assistant/internal/store"
)

func newPlanner() *Planner {
	return New(schema.Default(), 0, 0)
}

func TestPlanMetrics(t *testing.T) {
	p := newPlanner()

	plan := p.Plan(model.Analysis{Metrics: []model.Metric{model.MetricDefects}}, model.Prediction{Intent: model.IntentPerformance, Confidence: 0.9})
	assert.Equal(t, []model.Metric{model.MetricDefects}, plan.Metrics)

	plan = p.Plan(model.Analysis{}, model.Prediction{Intent: model.IntentPerformance, Confidence: 0.9})
	assert.Equal(t, []model.Metric{model.MetricProduction, model.MetricEfficiency}, plan.Metrics)

	plan = p.Plan(model.Analysis{}, model.UnknownPrediction())
	assert.Empty(t, plan.Metrics)
}

func TestPlanCategory(t *testing.T) {
	p := newPlanner()

	tests := []struct {
		name     string
		analysis model.Analysis
		want     Category
	}{
		{"failures", model.Analysis{Metrics: []model.Metric{model.MetricProduction, model.MetricFailures}}, CategoryFailures},
		{"defect types", model.Analysis{CalculationType: model.CalcDefectTypes}, CategoryDefects},
		{"defect stats", model.Analysis{CalculationType: model.CalcDefectStats}, CategoryDefects},
		{"default", model.Analysis{Metrics: []model.Metric{model.MetricDefects}}, CategoryPerformance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Plan(tt.analysis, model.UnknownPrediction()).Category)
		})
	}
}

func TestFilterSpecNumericVariant(t *testing.T) {
	p := newPlanner()

	spec := p.filterSpec(model.FilterWorkshop, "3")
	or, ok := spec.Predicate.(store.Or)
	require.True(t, ok)
	assert.Contains(t, or, store.Eq{Field: "workshop", Value: "3"})
	assert.Contains(t, or, store.Eq{Field: "workshopId", Value: 3.0})

	spec = p.filterSpec(model.FilterWorkshop, "north")
	or, ok = spec.Predicate.(store.Or)
	require.True(t, ok)
	assert.Len(t, or, len(spec.Aliases))
	for _, pred := range or {
		eq, ok := pred.(store.Eq)
		require.True(t, ok)
		assert.Equal(t, "north", eq.Value)
	}
}

func TestFilterSpecMatchModes(t *testing.T) {
	p := newPlanner()

	machine := p.filterSpec(model.FilterMachine, "W1-C2.M3")
	assert.Contains(t, machine.Predicate, store.Match{Field: "machineReference", Pattern: `W1-C2\.M3`})

	hour := p.filterSpec(model.FilterHour, "08")
	assert.Contains(t, hour.Predicate, store.Match{Field: "hour", Pattern: "^08"})
	assert.Contains(t, hour.Predicate, store.Eq{Field: "hour", Value: 8.0})
}

func TestDatePredicate(t *testing.T) {
	p := newPlanner()

	exact := p.datePredicate(model.DateFilter{Exact: "2025-04-24"})
	assert.Contains(t, exact, store.Eq{Field: "date", Value: "2025-04-24"})
	assert.Contains(t, exact, store.Match{Field: "date", Pattern: "^2025-04-24"})

	rng := p.datePredicate(model.DateFilter{Start: "2025-04-01", End: "2025-04-30"})
	assert.Contains(t, rng, store.Range{Field: "date", Min: "2025-04-01", Max: "2025-04-30T23:59:59"})
}

func TestPlanComparisonDropsEntityFilter(t *testing.T) {
	p := newPlanner()
	a := model.Analysis{
		Filters:         map[model.FilterKey]string{model.FilterWorkshop: "3", model.FilterHour: "08"},
		Comparison:      &model.Comparison{Entity: "workshop", A: "3", B: "5"},
		CalculationType: model.CalcComparison,
		MathOperation:   model.OpCompare,
	}

	plan := p.Plan(a, model.UnknownPrediction())
	require.NotNil(t, plan.Comparison)
	require.Len(t, plan.Filters, 1)
	assert.Equal(t, model.FilterHour, plan.Filters[0].Key)
	assert.Equal(t, model.FilterWorkshop, plan.Comparison.Entity)
	assert.Equal(t, "3", plan.Comparison.A.ID)
	assert.Equal(t, "5", plan.Comparison.B.ID)
	assert.Equal(t, comparisonLimit, plan.Limit)
}

func TestPlanChainDefectsIgnoresChainFilter(t *testing.T) {
	plan := newPlanner().Plan(model.Analysis{
		Filters:         map[model.FilterKey]string{model.FilterChain: "2"},
		CalculationType: model.CalcChainDefects,
	}, model.UnknownPrediction())
	assert.Empty(t, plan.Filters)
	assert.False(t, plan.HasExplicitConstraint())
}

func TestPlanLimits(t *testing.T) {
	p := New(schema.Default(), 20, 80)

	assert.Equal(t, 20, p.Plan(model.Analysis{MathOperation: model.OpSum}, model.UnknownPrediction()).Limit)
	assert.Equal(t, 80, p.Plan(model.Analysis{MathOperation: model.OpDistribution}, model.UnknownPrediction()).Limit)
	assert.Equal(t, 80, p.Plan(model.Analysis{CalculationType: model.CalcEfficiencyRate}, model.UnknownPrediction()).Limit)
}

func TestPlanPredicateAgainstStore(t *testing.T) {
	mem := store.NewMemory()
	mem.Insert("performance3",
		model.Record{"date": "2026-01-14", "workshop": 3.0, "produced": 100.0},
		model.Record{"date": "2026-01-14T10:00:00Z", "workshopId": "3", "produced": 50.0},
		model.Record{"date": "2026-01-14", "workshop": 5.0, "produced": 70.0},
		model.Record{"date": "2026-01-13", "workshop": 3.0, "produced": 90.0},
		model.Record{"date": "2026-01-14", "workshop": 3.0, "note": "no output"},
	)

	plan := newPlanner().Plan(model.Analysis{
		Date:    &model.DateFilter{Exact: "2026-01-14", Description: "yesterday"},
		Metrics: []model.Metric{model.MetricProduction},
		Filters: map[model.FilterKey]string{model.FilterWorkshop: "3"},
	}, model.UnknownPrediction())

	docs, err := mem.Find(context.Background(), "performance3", plan.Predicate(), plan.Limit)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 100.0, docs[0]["produced"])
	assert.Equal(t, 50.0, docs[1]["produced"])

	docs, err = mem.Find(context.Background(), "performance3", plan.Unconstrained(), plan.Limit)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestFailureShapeExcludesProductionRecords(t *testing.T) {
	mem := store.NewMemory()
	mem.Insert("performance3", model.Record{"produced": 10.0, "workshop": 1.0})
	mem.Insert("machinefailures", model.Record{"machineReference": "W1-M2", "description": "motor jam"})

	plan := newPlanner().Plan(model.Analysis{Metrics: []model.Metric{model.MetricFailures}}, model.UnknownPrediction())

	docs, err := mem.Find(context.Background(), "performance3", plan.Unconstrained(), 0)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = mem.Find(context.Background(), "machinefailures", plan.Unconstrained(), 0)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRankCollections(t *testing.T) {
	p := newPlanner()
	names := []string{"chatbot_conversations", "defect_types", "machine_repairs", "new_data.machinefailures", "orders", "performance3", "production_performance"}

	failures := p.RankCollections(names, Plan{Category: CategoryFailures})
	assert.Equal(t, []string{"machine_repairs", "new_data.machinefailures", "defect_types", "orders", "performance3", "production_performance"}, failures)

	perf := p.RankCollections(names, Plan{Category: CategoryPerformance})
	assert.Equal(t, "production_performance", perf[0])
	assert.Equal(t, "performance3", perf[1])
	assert.NotContains(t, perf, "chatbot_conversations")
}

func TestRankCollectionsFallback(t *testing.T) {
	p := newPlanner()
	names := []string{"alpha", "monthly_stats", "new_data.machinefailures", "zeta"}

	ranked := p.RankCollections(names, Plan{Category: CategoryPerformance})
	assert.Equal(t, []string{"new_data.machinefailures", "alpha", "monthly_stats", "zeta"}, ranked)
}

func TestImpliedAcceptsNumericText(t *testing.T) {
	plan := newPlanner().Plan(model.Analysis{Metrics: []model.Metric{model.MetricProduction}}, model.UnknownPrediction())

	or, ok := plan.Implied.(store.Or)
	require.True(t, ok)
	assert.Contains(t, or, store.Numeric{Field: "produced"})
	assert.Contains(t, or, store.Numeric{Field: "output"})
}
