package model

// CalculationResult is implemented by every shape the calculation engine can produce.
type CalculationResult interface {
	calculationResult()
}

type Unit string

const (
	UnitCount   Unit = "count"
	UnitUnits   Unit = "units"
	UnitPercent Unit = "percent"
	UnitRate    Unit = "rate"
	UnitMinutes Unit = "minutes"
	UnitPlain   Unit = "plain"
	UnitTrend   Unit = "trend"

	// UnitMeanUnits is an average of units and keeps its decimals.
	UnitMeanUnits Unit = "mean_units"
)

type Value struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

type Aggregate struct {
	Operation   MathOperation   `json:"operation,omitempty"`
	Calculation CalculationType `json:"calculation,omitempty"`
	Values      []Value         `json:"values"`
	SampleSize  int             `json:"sample_size"`
	Period      string          `json:"period,omitempty"`
	Unusable    []Metric        `json:"unusable,omitempty"`
}

func (a Aggregate) Get(name string) (float64, bool) {
	for _, v := range a.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

type RankedItem struct {
	Label       string   `json:"label"`
	Workshop    string   `json:"workshop,omitempty"`
	Value       float64  `json:"value"`
	Produced    float64  `json:"produced"`
	Defects     float64  `json:"defects"`
	Time        float64  `json:"time,omitempty"`
	Performance *float64 `json:"performance,omitempty"`
}

// RankedList is an ordered set of per-record or per-group figures. GroupedBy names the
// field groups were keyed on when the list is grouped.
type RankedList struct {
	Calculation CalculationType `json:"calculation"`
	Rank        Rank            `json:"rank,omitempty"`
	Period      TimePeriod      `json:"period,omitempty"`
	GroupedBy   string          `json:"grouped_by,omitempty"`
	Items       []RankedItem    `json:"items"`
	Summary     []Value         `json:"summary,omitempty"`
	SampleSize  int             `json:"sample_size"`
}

func (l RankedList) Get(name string) (float64, bool) {
	for _, v := range l.Summary {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

type Bucket struct {
	Label string  `json:"label"`
	Count float64 `json:"count"`
}

type NumericStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	N      int     `json:"n"`
}

type FailureReport struct {
	Total       int           `json:"total"`
	Machines    []Bucket      `json:"machines"`
	Technicians []Bucket      `json:"technicians"`
	Issues      []Bucket      `json:"issues"`
	RepairTime  *NumericStats `json:"repair_time,omitempty"`
}

type MetricStats struct {
	Metric Metric       `json:"metric"`
	Stats  NumericStats `json:"stats"`
}

type Distribution struct {
	Metrics    []MetricStats `json:"metrics"`
	SampleSize int           `json:"sample_size"`
}

type EntityTotals struct {
	ID            string  `json:"id"`
	Production    float64 `json:"production"`
	Defects       float64 `json:"defects"`
	DefectRate    float64 `json:"defect_rate"`
	Efficiency    float64 `json:"efficiency"`
	HasEfficiency bool    `json:"has_efficiency"`
	Records       int     `json:"records"`
}

type ComparisonPair struct {
	Entity  string       `json:"entity"`
	A       EntityTotals `json:"a"`
	B       EntityTotals `json:"b"`
	Metrics []Metric     `json:"metrics"`
}

type DefectBreakdown struct {
	Calculation     CalculationType `json:"calculation"`
	Types           []Bucket        `json:"types"`
	ByWorkshop      []Bucket        `json:"by_workshop,omitempty"`
	TotalDefects    float64         `json:"total_defects"`
	TotalProduction float64         `json:"total_production"`
	DefectRate      float64         `json:"defect_rate"`
	RequestedType   string          `json:"requested_type,omitempty"`
	RequestedCount  float64         `json:"requested_count,omitempty"`
	SampleSize      int             `json:"sample_size"`
}

type FailureEntry struct {
	Date       string  `json:"date,omitempty"`
	Machine    string  `json:"machine,omitempty"`
	Technician string  `json:"technician,omitempty"`
	Issue      string  `json:"issue,omitempty"`
	Solution   string  `json:"solution,omitempty"`
	Status     string  `json:"status,omitempty"`
	TimeSpent  float64 `json:"time_spent,omitempty"`
	HasTime    bool    `json:"has_time"`
}

type FailureLog struct {
	Total   int            `json:"total"`
	Entries []FailureEntry `json:"entries"`
	Summary *FailureReport `json:"summary,omitempty"`
}

// NoCalculation marks that records were found but none carried usable values.
type NoCalculation struct {
	Reason  string   `json:"reason"`
	Metrics []Metric `json:"metrics,omitempty"`
	Records int      `json:"records"`
}

func (Aggregate) calculationResult()       {}
func (RankedList) calculationResult()      {}
func (FailureReport) calculationResult()   {}
func (Distribution) calculationResult()    {}
func (ComparisonPair) calculationResult()  {}
func (DefectBreakdown) calculationResult() {}
func (FailureLog) calculationResult()      {}
func (NoCalculation) calculationResult()   {}
