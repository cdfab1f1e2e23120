package model

import (
	"strings"
)

type Metric string

const (
	MetricProduction Metric = "production"
	MetricDefects    Metric = "defects"
	MetricEfficiency Metric = "efficiency"
	MetricFailures   Metric = "failures"
	MetricTarget     Metric = "target"
	MetricVariance   Metric = "variance"
	MetricOrders     Metric = "orders"
)

type MathOperation string

const (
	OpNone         MathOperation = ""
	OpSum          MathOperation = "sum"
	OpAverage      MathOperation = "average"
	OpPercentage   MathOperation = "percentage"
	OpDifference   MathOperation = "difference"
	OpTrend        MathOperation = "trend"
	OpRate         MathOperation = "rate"
	OpDistribution MathOperation = "distribution"
	OpCompare      MathOperation = "compare"
	OpEfficiency   MathOperation = "efficiency"
)

type CalculationType string

const (
	CalcNone            CalculationType = ""
	CalcDefectRate      CalculationType = "defect_rate"
	CalcEfficiencyRate  CalculationType = "efficiency_rate"
	CalcChainDefects    CalculationType = "chain_defects"
	CalcComparison      CalculationType = "comparison"
	CalcDefectTypes     CalculationType = "defect_types"
	CalcDefectStats     CalculationType = "defect_stats"
	CalcDefectTypeCount CalculationType = "defect_type_count"
)

type TimePeriod string

const (
	PeriodNone  TimePeriod = ""
	PeriodHour  TimePeriod = "hour"
	PeriodDay   TimePeriod = "day"
	PeriodWeek  TimePeriod = "week"
	PeriodMonth TimePeriod = "month"
)

type Rank string

const (
	RankNone    Rank = ""
	RankHighest Rank = "highest"
	RankLowest  Rank = "lowest"
)

type FilterKey string

const (
	FilterWorkshop   FilterKey = "workshop"
	FilterMachine    FilterKey = "machine"
	FilterTechnician FilterKey = "technician"
	FilterOrder      FilterKey = "order"
	FilterChain      FilterKey = "chain"
	FilterHour       FilterKey = "hour"
)

// FilterKeys lists filter keys in the order predicates are built and messages are rendered.
var FilterKeys = []FilterKey{
	FilterOrder,
	FilterWorkshop,
	FilterChain,
	FilterMachine,
	FilterTechnician,
	FilterHour,
}

type DateFilter struct {
	Exact       string `json:"exact,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Description string `json:"description"`
}

func (d DateFilter) IsExact() bool {
	return d.Exact != ""
}

type Comparison struct {
	Entity  string   `json:"entity,omitempty"`
	A       string   `json:"a,omitempty"`
	B       string   `json:"b,omitempty"`
	Metrics []Metric `json:"metrics,omitempty"`
	Rank    Rank     `json:"rank,omitempty"`
}

func (c Comparison) IsPair() bool {
	return c.Entity != "" && c.A != "" && c.B != ""
}

// Fragment is the partial result of a single extraction rule. Zero values mean
// "no opinion" and never override what earlier rules produced.
type Fragment struct {
	Date            *DateFilter
	Metrics         []Metric
	Filters         map[FilterKey]string
	Comparison      *Comparison
	MathOperation   MathOperation
	CalculationType CalculationType
	TimePeriod      TimePeriod
	DefectType      string
}

type Analysis struct {
	Date            *DateFilter          `json:"date,omitempty"`
	Metrics         []Metric             `json:"metrics,omitempty"`
	Filters         map[FilterKey]string `json:"filters,omitempty"`
	Comparison      *Comparison          `json:"comparison,omitempty"`
	MathOperation   MathOperation        `json:"math_operation,omitempty"`
	CalculationType CalculationType      `json:"calculation_type,omitempty"`
	TimePeriod      TimePeriod           `json:"time_period,omitempty"`
	DefectType      string               `json:"defect_type,omitempty"`
}

// Apply merges a fragment into the analysis. Later scalars win, metrics and
// filters only accumulate and an existing filter value is never replaced.
func (a *Analysis) Apply(f Fragment) {
	if f.Date != nil {
		d := *f.Date
		a.Date = &d
	}
	for _, m := range f.Metrics {
		a.AddMetric(m)
	}
	for _, key := range FilterKeys {
		value, ok := f.Filters[key]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if a.Filters == nil {
			a.Filters = make(map[FilterKey]string)
		}
		if _, exists := a.Filters[key]; !exists {
			a.Filters[key] = value
		}
	}
	if f.Comparison != nil {
		c := *f.Comparison
		a.Comparison = &c
	}
	if f.MathOperation != OpNone {
		a.MathOperation = f.MathOperation
	}
	if f.CalculationType != CalcNone {
		a.CalculationType = f.CalculationType
	}
	if f.TimePeriod != PeriodNone {
		a.TimePeriod = f.TimePeriod
	}
	if f.DefectType != "" {
		a.DefectType = f.DefectType
	}
}

func (a *Analysis) AddMetric(m Metric) {
	if !a.HasMetric(m) {
		a.Metrics = append(a.Metrics, m)
	}
}

func (a Analysis) HasMetric(m Metric) bool {
	for _, existing := range a.Metrics {
		if existing == m {
			return true
		}
	}
	return false
}

func (a Analysis) HasFilters() bool {
	return len(a.Filters) > 0
}

func (a Analysis) IsConversational() bool {
	return len(a.Metrics) == 0 &&
		len(a.Filters) == 0 &&
		a.Date == nil &&
		a.MathOperation == OpNone &&
		a.CalculationType == CalcNone
}

// ComparisonRank returns the scalar highest/lowest request, if any.
func (a Analysis) ComparisonRank() Rank {
	if a.Comparison == nil {
		return RankNone
	}
	return a.Comparison.Rank
}
