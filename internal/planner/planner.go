// Package planner turns an analysis and an intent prediction into store predicates and a
// ranked list of candidate collections.
package planner

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"factory-assistant/internal/model"
	"factory-assistant/internal/schema"
	"factory-assistant/internal/store"
)

const (
	DefaultLimit     = 50
	DefaultScanLimit = 100
	comparisonLimit  = 500
)

type Category string

const (
	CategoryPerformance Category = "performance"
	CategoryDefects     Category = "defects"
	CategoryFailures    Category = "failures"
)

// FilterSpec is one entity filter resolved against the alias table.
type FilterSpec struct {
	Key       model.FilterKey
	Value     string
	Aliases   []string
	Discover  []string
	Numeric   bool
	Predicate store.Predicate
}

type Side struct {
	ID        string
	Predicate store.Predicate
}

type ComparisonPlan struct {
	Entity model.FilterKey
	A      Side
	B      Side
}

// Plan is everything the executor needs for one question. Implied requires a numeric
// value for the requested quantity metrics and may be relaxed. Shape keeps records of the
// wrong kind out of a category and never is.
type Plan struct {
	Analysis   model.Analysis
	Prediction model.Prediction
	Metrics    []model.Metric
	Category   Category
	Filters    []FilterSpec
	Date       store.Predicate
	Implied    store.Predicate
	Shape      store.Predicate
	Comparison *ComparisonPlan
	Limit      int
	ScanLimit  int
}

// Predicate is the fully constrained query.
func (p Plan) Predicate() store.Predicate {
	return store.Conjoin(p.Date, p.entityPredicate(), p.Shape, p.Implied)
}

// Unconstrained drops the implied metric constraint, keeping only the record shape.
func (p Plan) Unconstrained() store.Predicate {
	return store.Conjoin(p.Date, p.entityPredicate(), p.Shape)
}

func (p Plan) entityPredicate() store.Predicate {
	preds := make([]store.Predicate, 0, len(p.Filters))
	for _, f := range p.Filters {
		preds = append(preds, f.Predicate)
	}
	return store.Conjoin(preds...)
}

func (p Plan) HasEntityFilters() bool {
	return len(p.Filters) > 0
}

// HasExplicitConstraint reports whether the question named entities or a date. Such a
// question must never widen into an unfiltered scan.
func (p Plan) HasExplicitConstraint() bool {
	return len(p.Filters) > 0 || p.Analysis.Date != nil
}

func (p Plan) HasMetric(m model.Metric) bool {
	return containsMetric(p.Metrics, m)
}

type Planner struct {
	table        *schema.Table
	defaultLimit int
	scanLimit    int
}

func New(table *schema.Table, defaultLimit, scanLimit int) *Planner {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &Planner{table: table, defaultLimit: defaultLimit, scanLimit: scanLimit}
}

func (p *Planner) Table() *schema.Table {
	return p.table
}

func (p *Planner) Plan(a model.Analysis, pred model.Prediction) Plan {
	plan := Plan{
		Analysis:   a,
		Prediction: pred,
		Metrics:    resolveMetrics(a, pred),
		ScanLimit:  p.scanLimit,
	}
	plan.Category = categoryOf(plan.Metrics, a.CalculationType)

	var entity model.FilterKey
	if a.Comparison != nil && a.Comparison.IsPair() {
		entity = comparisonEntity(a.Comparison.Entity)
	}

	for _, key := range model.FilterKeys {
		value, ok := a.Filters[key]
		if !ok || key == entity {
			continue
		}
		if key == model.FilterChain && a.CalculationType == model.CalcChainDefects {
			continue
		}
		plan.Filters = append(plan.Filters, p.filterSpec(key, value))
	}

	if a.Date != nil {
		plan.Date = p.datePredicate(*a.Date)
	}
	plan.Implied = p.impliedPredicate(plan.Metrics)
	if plan.Category == CategoryFailures {
		plan.Shape = p.failureShape()
	}

	if entity != "" {
		base := []store.Predicate{plan.Date, plan.entityPredicate()}
		plan.Comparison = &ComparisonPlan{
			Entity: entity,
			A:      Side{ID: a.Comparison.A, Predicate: store.Conjoin(append(base, p.filterSpec(entity, a.Comparison.A).Predicate)...)},
			B:      Side{ID: a.Comparison.B, Predicate: store.Conjoin(append(base, p.filterSpec(entity, a.Comparison.B).Predicate)...)},
		}
	}

	plan.Limit = p.limitFor(plan)
	return plan
}

func (p *Planner) limitFor(plan Plan) int {
	switch {
	case plan.Comparison != nil:
		return comparisonLimit
	case plan.Analysis.MathOperation == model.OpDistribution,
		plan.Analysis.CalculationType == model.CalcEfficiencyRate,
		plan.Category == CategoryDefects:
		return p.scanLimit
	default:
		return p.defaultLimit
	}
}

func resolveMetrics(a model.Analysis, pred model.Prediction) []model.Metric {
	if len(a.Metrics) > 0 {
		return append([]model.Metric(nil), a.Metrics...)
	}
	if pred.Intent == model.IntentUnknown {
		return nil
	}
	return pred.Intent.Metrics()
}

func categoryOf(metrics []model.Metric, calc model.CalculationType) Category {
	for _, m := range metrics {
		if m == model.MetricFailures {
			return CategoryFailures
		}
	}
	switch calc {
	case model.CalcDefectTypes, model.CalcDefectStats, model.CalcDefectTypeCount:
		return CategoryDefects
	}
	return CategoryPerformance
}

func comparisonEntity(entity string) model.FilterKey {
	for _, key := range model.FilterKeys {
		if string(key) == entity {
			return key
		}
	}
	return model.FilterWorkshop
}

func (p *Planner) filterSpec(key model.FilterKey, value string) FilterSpec {
	field := p.table.Field(schema.FilterField(key))
	spec := FilterSpec{
		Key:      key,
		Value:    value,
		Aliases:  field.Aliases,
		Discover: field.Discover,
		Numeric:  field.Numeric,
	}

	quoted := regexp.QuoteMeta(value)
	number, numberErr := strconv.ParseFloat(strings.TrimSpace(value), 64)

	var or store.Or
	for _, alias := range field.Aliases {
		switch field.Match {
		case schema.MatchContains:
			or = append(or, store.Match{Field: alias, Pattern: quoted})
		case schema.MatchPrefix:
			or = append(or, store.Match{Field: alias, Pattern: "^" + quoted})
		default:
			or = append(or, store.Eq{Field: alias, Value: value})
		}
		// A value that does not parse simply loses its numeric variant.
		if field.Numeric && numberErr == nil {
			or = append(or, store.Eq{Field: alias, Value: number})
		}
	}
	spec.Predicate = or
	return spec
}

func (p *Planner) datePredicate(d model.DateFilter) store.Predicate {
	var or store.Or
	for _, alias := range p.table.Aliases(schema.FieldDate) {
		if d.IsExact() {
			or = append(or,
				store.Eq{Field: alias, Value: d.Exact},
				store.Match{Field: alias, Pattern: "^" + regexp.QuoteMeta(d.Exact)},
			)
			continue
		}
		// Timestamps on the last day sort after the bare date, so the upper bound
		// is pushed to the end of that day.
		or = append(or, store.Range{Field: alias, Min: d.Start, Max: d.End + "T23:59:59"})
	}
	return or
}

var quantityMetrics = []model.Metric{
	model.MetricProduction,
	model.MetricDefects,
	model.MetricEfficiency,
	model.MetricTarget,
}

func (p *Planner) impliedPredicate(metrics []model.Metric) store.Predicate {
	var or store.Or
	for _, m := range quantityMetrics {
		if !containsMetric(metrics, m) {
			continue
		}
		field, _ := schema.MetricField(m)
		for _, alias := range p.table.Aliases(field) {
			or = append(or, store.Numeric{Field: alias})
		}
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

func (p *Planner) failureShape() store.Predicate {
	var or store.Or
	for _, field := range []string{schema.FieldMachine, schema.FieldIssue, schema.FieldTimeSpent} {
		for _, alias := range p.table.Aliases(field) {
			or = append(or, store.Match{Field: alias, Pattern: "."})
		}
	}
	return or
}

func containsMetric(metrics []model.Metric, m model.Metric) bool {
	for _, existing := range metrics {
		if existing == m {
			return true
		}
	}
	return false
}

// RankCollections orders candidate collections for a plan. Names carrying the category's
// keywords come first, then known fallbacks, then everything else.
func (p *Planner) RankCollections(names []string, plan Plan) []string {
	routing := p.table.Collections
	excluded := make(map[string]bool, len(routing.Exclude))
	for _, name := range routing.Exclude {
		excluded[name] = true
	}

	keywords := routing.Categories[string(plan.Category)]
	type scored struct {
		name string
		hits int
	}
	var (
		matched []scored
		rest    []string
		present = make(map[string]bool, len(names))
	)
	for _, name := range names {
		if excluded[name] {
			continue
		}
		present[name] = true
		lowered := strings.ToLower(name)
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		if hits > 0 {
			matched = append(matched, scored{name: name, hits: hits})
		} else {
			rest = append(rest, name)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].hits != matched[j].hits {
			return matched[i].hits > matched[j].hits
		}
		return matched[i].name < matched[j].name
	})

	ranked := make([]string, 0, len(present))
	used := make(map[string]bool, len(present))
	for _, m := range matched {
		ranked = append(ranked, m.name)
		used[m.name] = true
	}
	if len(matched) == 0 {
		for _, name := range routing.Fallback {
			if present[name] && !used[name] {
				ranked = append(ranked, name)
				used[name] = true
			}
		}
	}
	for _, name := range rest {
		if !used[name] {
			ranked = append(ranked, name)
		}
	}
	return ranked
}
