package executor

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/store"
)

const (
	StrategyFiltered          = "filtered"
	StrategyNextRanked        = "next-ranked"
	StrategyUnconstrainedScan = "unconstrained-scan"
	StrategyAliasDiscovery    = "alias-discovery"
	StrategyComparison        = "comparison"
)

// Strategy is one relaxation step. Run returns the collection the records came from.
type Strategy interface {
	Name() string
	Applies(plan planner.Plan) bool
	Run(ctx context.Context, q *Query) (string, []model.Record)
}

// DefaultStrategies returns the relaxation chain in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		Filtered{},
		NextRanked{},
		UnconstrainedScan{},
		AliasDiscovery{},
	}
}

// Filtered runs the full predicate on the best-ranked collection.
type Filtered struct{}

func (Filtered) Name() string { return StrategyFiltered }

func (Filtered) Applies(planner.Plan) bool { return true }

func (Filtered) Run(ctx context.Context, q *Query) (string, []model.Record) {
	if len(q.Candidates) == 0 {
		return "", nil
	}
	collection := q.Candidates[0]
	return collection, q.find(ctx, collection, q.Plan.Predicate(), q.Plan.Limit)
}

// NextRanked runs the full predicate on every remaining candidate in rank order.
type NextRanked struct{}

func (NextRanked) Name() string { return StrategyNextRanked }

func (NextRanked) Applies(planner.Plan) bool { return true }

func (NextRanked) Run(ctx context.Context, q *Query) (string, []model.Record) {
	if len(q.Candidates) < 2 {
		return "", nil
	}
	pred := q.Plan.Predicate()
	for _, collection := range q.Candidates[1:] {
		if records := q.find(ctx, collection, pred, q.Plan.Limit); len(records) > 0 {
			return collection, records
		}
	}
	return "", nil
}

// UnconstrainedScan drops the implied metric constraint. It never runs for a question
// that named an entity or a date, so an explicit filter cannot widen to every record.
type UnconstrainedScan struct{}

func (UnconstrainedScan) Name() string { return StrategyUnconstrainedScan }

func (UnconstrainedScan) Applies(plan planner.Plan) bool {
	return !plan.HasExplicitConstraint() && plan.Implied != nil
}

func (UnconstrainedScan) Run(ctx context.Context, q *Query) (string, []model.Record) {
	pred := q.Plan.Unconstrained()
	for _, collection := range q.Candidates {
		if records := q.find(ctx, collection, pred, q.Plan.ScanLimit); len(records) > 0 {
			return collection, records
		}
	}
	return "", nil
}

// AliasDiscovery samples one document per candidate and looks for field names that
// resemble each filter, then retries with a looser predicate over those fields.
type AliasDiscovery struct{}

func (AliasDiscovery) Name() string { return StrategyAliasDiscovery }

func (AliasDiscovery) Applies(plan planner.Plan) bool {
	return plan.HasEntityFilters()
}

func (AliasDiscovery) Run(ctx context.Context, q *Query) (string, []model.Record) {
	log := zerolog.Ctx(ctx)
	for _, collection := range q.Candidates {
		sample, ok := q.findOne(ctx, collection)
		if !ok {
			continue
		}
		pred, ok := discoverPredicate(sample, q.Plan.Filters)
		if !ok {
			continue
		}
		log.Debug().Str("collection", collection).Msg("retrying with discovered fields")
		if records := q.find(ctx, collection, store.Conjoin(q.Plan.Date, pred, q.Plan.Shape), q.Plan.Limit); len(records) > 0 {
			return collection, records
		}
	}
	return "", nil
}

// discoverPredicate builds an AND over filters of an OR over the sample's matching fields.
// It fails when any filter has no plausible field in the sample.
func discoverPredicate(sample model.Record, filters []planner.FilterSpec) (store.Predicate, bool) {
	fields := make([]string, 0, len(sample))
	for name := range sample {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	and := make(store.And, 0, len(filters))
	for _, f := range filters {
		var or store.Or
		for _, name := range fields {
			if !resembles(name, f.Discover) {
				continue
			}
			or = append(or,
				store.Eq{Field: name, Value: f.Value},
				store.Match{Field: name, Pattern: regexp.QuoteMeta(f.Value)},
			)
			if n, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64); err == nil {
				or = append(or, store.Eq{Field: name, Value: n})
			}
		}
		if len(or) == 0 {
			return nil, false
		}
		and = append(and, or)
	}
	return and, len(and) > 0
}

func resembles(field string, substrings []string) bool {
	lowered := strings.ToLower(field)
	for _, sub := range substrings {
		if strings.Contains(lowered, sub) {
			return true
		}
	}
	return false
}
