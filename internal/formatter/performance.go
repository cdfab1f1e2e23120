package formatter

import (
	"fmt"
	"strings"

	"factory-assistant/internal/model"
	"factory-assistant/internal/planner"
)

const topEfficiency = 3

func (f *Formatter) aggregate(plan planner.Plan, r model.Aggregate) string {
	if r.Calculation == model.CalcDefectRate {
		return averageDefectRate(r)
	}

	parts := make([]string, 0, len(r.Values)+1)
	for _, v := range r.Values {
		if v.Name == "records" {
			head := fmt.Sprintf("Found %s records", count(v.Value))
			if plan.Analysis.Date != nil {
				head += " for " + periodOf(plan)
			}
			parts = append(parts, head)
			continue
		}
		parts = append(parts, v.Label+": "+renderValue(v))
	}
	if len(r.Unusable) > 0 {
		parts = append(parts, "No usable values for "+metricList(r.Unusable))
	}
	return strings.Join(parts, fieldSep)
}

func averageDefectRate(r model.Aggregate) string {
	rate, _ := r.Get("overall_defect_rate")
	produced, _ := r.Get("total_production")
	defects, _ := r.Get("total_defects")
	return strings.Join([]string{
		fmt.Sprintf("Average Defect Rate Analysis for %s (based on %d records):", r.Period, r.SampleSize),
		fmt.Sprintf("Overall defect rate: %.2f%%", rate),
		fmt.Sprintf("Total production: %s units", count(produced)),
		fmt.Sprintf("Total defects: %s", count(defects)),
	}, fieldSep)
}

func (f *Formatter) ranked(r model.RankedList) string {
	switch r.Calculation {
	case model.CalcEfficiencyRate:
		return efficiencyRate(r)
	case model.CalcChainDefects:
		return chainDefects(r)
	default:
		return defectRates(r)
	}
}

func defectRates(r model.RankedList) string {
	header := "Highest defect rates found:"
	if r.Rank == model.RankLowest {
		header = "Lowest defect rates found:"
	}
	lines := []string{header}
	for i, it := range r.Items {
		lines = append(lines, fmt.Sprintf("#%d: Date: %s | Defect Rate: %.2f%% | Units Produced: %s | Defects: %s",
			i+1, it.Label, it.Value, count(it.Produced), count(it.Defects)))
	}
	if overall, ok := r.Get("overall_defect_rate"); ok {
		lines = append(lines, fmt.Sprintf("Overall defect rate: %.2f%%", overall))
	}
	return strings.Join(lines, sectionSep)
}

func efficiencyRate(r model.RankedList) string {
	period := string(r.Period)
	head := []string{fmt.Sprintf("Efficiency Rate Analysis (based on %d records):", r.SampleSize)}
	if overall, ok := r.Get("overall_rate"); ok {
		head = append(head, fmt.Sprintf("Overall production rate: %.2f units per %s", overall, period))
	}
	if perf, ok := r.Get("overall_performance"); ok {
		head = append(head, fmt.Sprintf("Overall performance vs target: %.2f%%", perf))
	}
	if eff, ok := r.Get("average_efficiency"); ok {
		head = append(head, fmt.Sprintf("Average efficiency: %.2f%%", eff))
	}

	sections := []string{strings.Join(head, fieldSep), "Top production rates:"}
	for i, it := range r.Items {
		if i == topEfficiency {
			break
		}
		line := fmt.Sprintf("#%d: Date: %s", i+1, it.Label)
		if it.Workshop != "" {
			line += " | Workshop: " + it.Workshop
		}
		line += fmt.Sprintf(" | Rate: %.2f units/%s | Production: %s units | Time: %s hours",
			it.Value, period, count(it.Produced), quantity(it.Time))
		if it.Performance != nil {
			line += fmt.Sprintf(" | Performance: %.2f%%", *it.Performance)
		}
		sections = append(sections, line)
	}
	return strings.Join(sections, sectionSep)
}

func chainDefects(r model.RankedList) string {
	total, _ := r.Get("total_defects")
	if r.GroupedBy == "Unknown Chain" {
		return fmt.Sprintf("Found %d records | Total defects: %s | No chain information found in database.", r.SampleSize, count(total))
	}

	var header string
	if r.GroupedBy == "chain" {
		header = fmt.Sprintf("Chain Defect Analysis (from %d records, total defects: %s):", r.SampleSize, count(total))
	} else {
		header = fmt.Sprintf("Chain information not found. Showing %s statistics instead:", r.GroupedBy)
	}

	lines := []string{header}
	for i, it := range r.Items {
		lines = append(lines, fmt.Sprintf("#%d: %s | Defects: %s | Production: %s | Defect Rate: %.2f%%",
			i+1, chainName(it.Label, r.GroupedBy), count(it.Defects), count(it.Produced), it.Value))
	}
	if len(r.Items) == 1 {
		lines = append(lines, "Only one chain/group found in the data.")
	}
	return strings.Join(lines, sectionSep)
}

func chainName(label, groupedBy string) string {
	if groupedBy == "chain" {
		return "Chain " + label
	}
	return label
}

func (f *Formatter) distribution(r model.Distribution) string {
	sections := make([]string, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		s := m.Stats
		sections = append(sections, fmt.Sprintf(
			"%s distribution (based on %d records): Mean: %.2f | Median: %.2f | Std dev: %.2f | Min: %s | Max: %s",
			capitalize(string(m.Metric)), r.SampleSize, s.Mean, s.Median, s.Std, quantity(s.Min), quantity(s.Max)))
	}
	return strings.Join(sections, sectionSep)
}

func (f *Formatter) comparison(r model.ComparisonPair) string {
	entity := capitalize(r.Entity)
	nameA, nameB := entity+" "+r.A.ID, entity+" "+r.B.ID

	switch {
	case r.A.Records == 0 && r.B.Records == 0:
		return fmt.Sprintf("No data found for the specified %ss.", r.Entity)
	case r.A.Records == 0:
		return fmt.Sprintf("No data found for %s.", nameA)
	case r.B.Records == 0:
		return fmt.Sprintf("No data found for %s.", nameB)
	}

	lines := []string{fmt.Sprintf("%s Comparison: %s vs %s", entity, nameA, nameB)}
	for _, m := range r.Metrics {
		switch m {
		case model.MetricProduction:
			lines = append(lines, productionLine(r, nameA, nameB))
		case model.MetricDefects:
			lines = append(lines, qualityLine(r, nameA, nameB))
		case model.MetricEfficiency:
			if r.A.HasEfficiency && r.B.HasEfficiency {
				lines = append(lines, efficiencyLine(r, nameA, nameB))
			}
		}
	}
	lines = append(lines, fmt.Sprintf("Records analyzed: %s: %d, %s: %d", nameA, r.A.Records, nameB, r.B.Records))
	return strings.Join(lines, fieldSep)
}

func productionLine(r model.ComparisonPair, nameA, nameB string) string {
	a, b := r.A.Production, r.B.Production
	if a == b {
		return fmt.Sprintf("Production: Both %ss had equal production: %s units", r.Entity, count(a))
	}
	more, moreName, less := a, nameA, b
	if b > a {
		more, moreName, less = b, nameB, a
	}
	line := fmt.Sprintf("Production: %s produced %s more units", moreName, count(more-less))
	if less > 0 {
		line += fmt.Sprintf(" (%.1f%% more)", (more-less)/less*100)
	}
	return line
}

func qualityLine(r model.ComparisonPair, nameA, nameB string) string {
	a, b := r.A.DefectRate, r.B.DefectRate
	if a == b {
		return fmt.Sprintf("Quality: Both %ss have the same defect rate", r.Entity)
	}
	better, worse, name := a, b, nameA
	if b < a {
		better, worse, name = b, a, nameB
	}
	return fmt.Sprintf("Quality: %s has better quality with %.2f%% defect rate vs %.2f%%", name, better, worse)
}

func efficiencyLine(r model.ComparisonPair, nameA, nameB string) string {
	a, b := r.A.Efficiency, r.B.Efficiency
	if a == b {
		return fmt.Sprintf("Efficiency: Both %ss have the same efficiency", r.Entity)
	}
	high, low, name := a, b, nameA
	if b > a {
		high, low, name = b, a, nameB
	}
	return fmt.Sprintf("Efficiency: %s is more efficient at %.1f%% vs %.1f%%", name, high, low)
}
