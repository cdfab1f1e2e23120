package formatter

import (
	"fmt"
	"strings"

	"factory-assistant/internal/model"
)

const topDefectTypes = 5

func (f *Formatter) defects(r model.DefectBreakdown) string {
	switch r.Calculation {
	case model.CalcDefectTypeCount:
		if r.RequestedType != "" {
			return defectTypeCount(r)
		}
		return defectStats(r)
	case model.CalcDefectStats:
		return defectStats(r)
	default:
		return commonDefects(r)
	}
}

func defectTypeCount(r model.DefectBreakdown) string {
	if r.RequestedCount == 0 {
		return fmt.Sprintf("No %s defects found in the last %d records.", r.RequestedType, r.SampleSize)
	}
	var all float64
	for _, b := range r.Types {
		all += b.Count
	}
	return fmt.Sprintf("%s defects reported: %s (%.1f%% of all defects)",
		capitalize(r.RequestedType), count(r.RequestedCount), share(r.RequestedCount, all))
}

func defectStats(r model.DefectBreakdown) string {
	lines := []string{
		fmt.Sprintf("Defect Statistics (based on %d recent records):", r.SampleSize),
		"• Total defects: " + count(r.TotalDefects),
	}
	if r.TotalProduction > 0 {
		lines = append(lines,
			"• Total production: "+count(r.TotalProduction)+" units",
			fmt.Sprintf("• Overall defect rate: %.2f%%", r.DefectRate))
	}
	sections := []string{strings.Join(lines, " ")}

	if len(r.Types) > 0 {
		var all float64
		for _, b := range r.Types {
			all += b.Count
		}
		types := []string{"Top defect types:"}
		for _, b := range head(r.Types, topDefectTypes) {
			types = append(types, fmt.Sprintf("%s: %s (%.1f%%)", b.Label, count(b.Count), share(b.Count, all)))
		}
		sections = append(sections, strings.Join(types, " "))
	}
	if len(r.ByWorkshop) > 0 {
		shops := []string{"Defects by workshop:"}
		for _, b := range r.ByWorkshop {
			shops = append(shops, fmt.Sprintf("Workshop %s: %s", b.Label, count(b.Count)))
		}
		sections = append(sections, strings.Join(shops, " "))
	}
	return strings.Join(sections, sectionSep)
}

func commonDefects(r model.DefectBreakdown) string {
	if len(r.Types) == 0 {
		return fmt.Sprintf("No specific defect type information was found, but general defect counts are available. Total defects: %s",
			count(r.TotalDefects))
	}
	lines := []string{"The most common defect types are:"}
	for i, b := range head(r.Types, topDefectTypes) {
		lines = append(lines, fmt.Sprintf("%d. %s (%s occurrences)", i+1, b.Label, count(b.Count)))
	}
	return strings.Join(lines, " ")
}
