// Package formatter renders calculation results and absences as short plain-text answers.
package formatter

import (
	"fmt"
	"math"
	"strings"

	"factory-assistant/internal/calc"
	"factory-assistant/internal/executor"
	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
)

const (
	msgUnavailable    = "Database connection is currently unavailable. Please try again later."
	msgConversational = "I'm sorry, I didn't understand that question. Could you please rephrase it?"
	msgGenericError   = "Sorry, something went wrong while preparing the answer. Please try again."
	msgNoFailures     = "No machine failures found matching your criteria."
	msgNoProduction   = "No production data is available yet."

	fieldSep   = " | "
	sectionSep = " ■ "
)

type Formatter struct{}

func New() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Unavailable() string {
	return msgUnavailable
}

func (f *Formatter) Conversational() string {
	return msgConversational
}

func (f *Formatter) GenericError() string {
	return msgGenericError
}

// Format renders a calculation result for the plan that produced it.
func (f *Formatter) Format(plan planner.Plan, result model.CalculationResult) string {
	var text string
	switch r := result.(type) {
	case model.Aggregate:
		text = f.aggregate(plan, r)
	case model.RankedList:
		text = f.ranked(r)
	case model.Distribution:
		text = f.distribution(r)
	case model.ComparisonPair:
		text = f.comparison(r)
	case model.FailureReport:
		text = f.failureReport(r)
	case model.FailureLog:
		text = f.failureLog(r)
	case model.DefectBreakdown:
		text = f.defects(r)
	case model.NoCalculation:
		text = f.noCalculation(r)
	}
	if strings.TrimSpace(text) == "" {
		return msgGenericError
	}
	return text
}

// Absence explains why a plan found no records.
func (f *Formatter) Absence(plan planner.Plan, a executor.Absence) string {
	switch a.Reason {
	case executor.NoMatchingFilter:
		if plan.Comparison != nil {
			return fmt.Sprintf("No data found for the specified %ss.", plan.Comparison.Entity)
		}
		if a.Filter == model.FilterOrder {
			return fmt.Sprintf("No data found for order %s. Please check the order reference number and try again.", a.Value)
		}
		msg := fmt.Sprintf("No data found for %s %s.", a.Filter, a.Value)
		if len(a.Hints) > 0 {
			msg += " Known values: " + strings.Join(a.Hints, ", ") + "."
		}
		return msg
	case executor.NoRecordsInRange:
		if plan.Category == planner.CategoryFailures {
			return fmt.Sprintf("No machine failure records found for %s.", periodOf(plan))
		}
		return fmt.Sprintf("No production records found for %s.", periodOf(plan))
	default:
		if plan.Category == planner.CategoryFailures {
			return msgNoFailures
		}
		return msgNoProduction
	}
}

func (f *Formatter) noCalculation(r model.NoCalculation) string {
	switch r.Reason {
	case calc.ReasonNoRecords:
		return msgNoProduction
	case calc.ReasonTooFewRecords:
		return fmt.Sprintf("Found %d records, but at least two are needed to measure a change.", r.Records)
	case calc.ReasonNoTarget:
		return fmt.Sprintf("Found %d records, but none of them contain a production target.", r.Records)
	case calc.ReasonNoProduction:
		return fmt.Sprintf("Found %d records, but none of them report units produced.", r.Records)
	}
	return fmt.Sprintf("Found %d records, but none of them contain usable values for %s.", r.Records, metricList(r.Metrics))
}

func periodOf(plan planner.Plan) string {
	d := plan.Analysis.Date
	switch {
	case d == nil:
		return "the requested period"
	case d.Description != "":
		return d.Description
	case d.IsExact():
		return d.Exact
	default:
		return d.Start + " to " + d.End
	}
}

func metricList(metrics []model.Metric) string {
	if len(metrics) == 0 {
		return "the requested figures"
	}
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

// count renders totals and occurrences, which never carry decimals.
func count(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// quantity prints whole numbers without decimals and anything else with two.
func quantity(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func renderValue(v model.Value) string {
	switch v.Unit {
	case model.UnitUnits:
		return count(v.Value) + " units"
	case model.UnitCount:
		return count(v.Value)
	case model.UnitMeanUnits:
		return fmt.Sprintf("%.2f units", v.Value)
	case model.UnitPercent:
		return fmt.Sprintf("%.2f%%", v.Value)
	case model.UnitRate:
		return fmt.Sprintf("%.2f units per record", v.Value)
	case model.UnitMinutes:
		return fmt.Sprintf("%.1f minutes", v.Value)
	case model.UnitTrend:
		switch {
		case v.Value > 0:
			return fmt.Sprintf("%.2f%% increase", v.Value)
		case v.Value < 0:
			return fmt.Sprintf("%.2f%% decrease", -v.Value)
		default:
			return "0.00% change"
		}
	case model.UnitPlain:
		return fmt.Sprintf("%.2f", v.Value)
	default:
		return quantity(v.Value)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
