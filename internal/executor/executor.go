// Package executor runs a plan against the document store, relaxing the query one
// strategy at a time until some collection yields records.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/schema"
	"factory-assistant/internal/store"
)

var ErrStoreUnavailable = errors.New("document store unavailable")

const maxHints = 5

type AbsenceReason string

const (
	NoMatchingFilter AbsenceReason = "no_matching_filter"
	NoRecordsInRange AbsenceReason = "no_records_in_range"
	NoData           AbsenceReason = "no_data"
)

type Absence struct {
	Reason AbsenceReason
	Filter model.FilterKey
	Value  string
	Hints  []string
}

// Execution holds the records of exactly one collection. Comparison plans fill A and B
// instead of Records.
type Execution struct {
	Collection string
	Strategy   string
	Records    []model.Record
	A          []model.Record
	B          []model.Record
	Absence    *Absence
}

func (e Execution) Empty() bool {
	return len(e.Records) == 0 && len(e.A) == 0 && len(e.B) == 0
}

type Ranker interface {
	RankCollections(names []string, plan planner.Plan) []string
}

type Executor struct {
	ranker     Ranker
	strategies []Strategy
}

// New builds an executor. Without explicit strategies the default relaxation chain is used.
func New(ranker Ranker, strategies ...Strategy) *Executor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Executor{ranker: ranker, strategies: strategies}
}

func (e *Executor) Execute(ctx context.Context, s store.DocumentStore, plan planner.Plan) (Execution, error) {
	log := zerolog.Ctx(ctx)

	names, err := s.ListCollections(ctx)
	if err != nil {
		return Execution{}, fmt.Errorf("%w: list collections: %v", ErrStoreUnavailable, err)
	}

	q := &Query{
		Store:      s,
		Plan:       plan,
		Candidates: e.ranker.RankCollections(names, plan),
	}
	log.Debug().
		Strs("candidates", q.Candidates).
		Str("category", string(plan.Category)).
		Msg("executing plan")

	var exec Execution
	if plan.Comparison != nil {
		exec = compare(ctx, q)
	} else {
		exec = e.relax(ctx, q)
	}

	if err := q.Err(); err != nil {
		if q.AllFailed() {
			log.Error().Err(err).Int("queries", q.issued).Msg("every store query failed")
			return Execution{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		log.Warn().Err(err).Msg("some store queries failed")
	}

	if !exec.Empty() {
		log.Info().
			Str("collection", exec.Collection).
			Str("strategy", exec.Strategy).
			Int("records", len(exec.Records)+len(exec.A)+len(exec.B)).
			Msg("plan yielded records")
		return exec, nil
	}

	exec.Absence = classifyAbsence(ctx, q)
	log.Info().Str("reason", string(exec.Absence.Reason)).Msg("plan yielded no records")
	return exec, nil
}

func (e *Executor) relax(ctx context.Context, q *Query) Execution {
	for _, strategy := range e.strategies {
		if !strategy.Applies(q.Plan) {
			continue
		}
		collection, records := strategy.Run(ctx, q)
		if len(records) > 0 {
			return Execution{Collection: collection, Strategy: strategy.Name(), Records: records}
		}
	}
	return Execution{}
}

func compare(ctx context.Context, q *Query) Execution {
	cmp := q.Plan.Comparison
	for _, collection := range q.Candidates {
		a := q.find(ctx, collection, cmp.A.Predicate, q.Plan.Limit)
		b := q.find(ctx, collection, cmp.B.Predicate, q.Plan.Limit)
		if len(a) > 0 || len(b) > 0 {
			return Execution{Collection: collection, Strategy: StrategyComparison, A: a, B: b}
		}
	}
	return Execution{}
}

func classifyAbsence(ctx context.Context, q *Query) *Absence {
	plan := q.Plan
	best := ""
	if len(q.Candidates) > 0 {
		best = q.Candidates[0]
	}

	switch {
	case plan.Comparison != nil:
		return &Absence{Reason: NoMatchingFilter, Filter: plan.Comparison.Entity}
	case plan.HasEntityFilters():
		first := plan.Filters[0]
		return &Absence{
			Reason: NoMatchingFilter,
			Filter: first.Key,
			Value:  first.Value,
			Hints:  knownValues(ctx, q.Store, best, first.Aliases),
		}
	case plan.Analysis.Date != nil && best != "":
		n, err := q.Store.Count(ctx, best, store.All())
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("collection", best).Msg("count failed")
		}
		if n > 0 {
			return &Absence{Reason: NoRecordsInRange}
		}
	}
	return &Absence{Reason: NoData}
}

// knownValues returns up to maxHints distinct values of the first alias that has any.
func knownValues(ctx context.Context, s store.DocumentStore, collection string, aliases []string) []string {
	if collection == "" {
		return nil
	}
	for _, alias := range aliases {
		values, err := s.Distinct(ctx, collection, alias)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("field", alias).Msg("distinct failed")
			continue
		}
		if len(values) == 0 {
			continue
		}
		seen := make(map[string]bool, len(values))
		hints := make([]string, 0, len(values))
		for _, v := range values {
			text := schema.ToText(v)
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			hints = append(hints, text)
		}
		sort.Strings(hints)
		if len(hints) > maxHints {
			hints = hints[:maxHints]
		}
		return hints
	}
	return nil
}

// Query carries one execution's inputs and tallies every store call made on its behalf.
type Query struct {
	Store      store.DocumentStore
	Plan       planner.Plan
	Candidates []string

	issued int
	failed int
	errs   *multierror.Error
}

func (q *Query) find(ctx context.Context, collection string, pred store.Predicate, limit int) []model.Record {
	q.issued++
	records, err := q.Store.Find(ctx, collection, pred, limit)
	if err != nil {
		q.failed++
		q.errs = multierror.Append(q.errs, fmt.Errorf("find in %s: %w", collection, err))
		return nil
	}
	return records
}

func (q *Query) findOne(ctx context.Context, collection string) (model.Record, bool) {
	q.issued++
	doc, ok, err := q.Store.FindOne(ctx, collection, store.All())
	if err != nil {
		q.failed++
		q.errs = multierror.Append(q.errs, fmt.Errorf("sample %s: %w", collection, err))
		return nil, false
	}
	return doc, ok
}

func (q *Query) Err() error {
	return q.errs.ErrorOrNil()
}

// AllFailed reports whether at least one query was issued and none succeeded.
func (q *Query) AllFailed() bool {
	return q.issued > 0 && q.failed == q.issued
}
