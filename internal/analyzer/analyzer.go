// Package analyzer turns a normalized question into a structured Analysis.
//
// Extraction is an ordered list of rules. Each rule is a pure function of the question
// text and the analysis accumulated so far, and returns a fragment that is merged with
// model.Analysis.Apply. The order of the list is the precedence between rules and must
// not be changed casually: later rules may overwrite the math operation or calculation
// type, but can only add metrics and filters.
package analyzer

import (
	"time"

	"factory-assistant/internal/model"
)

type Rule func(text string, prior model.Analysis) model.Fragment

type Analyzer struct {
	now   func() time.Time
	rules []Rule
}

type Option func(*Analyzer)

// WithClock fixes the reference time used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.rules = []Rule{
		a.extractDate,
		extractMetrics,
		extractMathOperation,
		extractFilters,
		classifyFailures,
		classifyComparison,
		classifyAverageDefectRate,
		classifyDefectRate,
		classifyChainDefects,
		classifyEfficiencyRate,
		classifyRanking,
		classifyDefectTypes,
		classifyDefectStats,
		classifyDefectTypeCount,
	}
	return a
}

func (a *Analyzer) Analyze(q model.Question) model.Analysis {
	var analysis model.Analysis
	for _, rule := range a.rules {
		analysis.Apply(rule(q.Normalized, analysis))
	}
	return analysis
}
