package formatter

import (
	"fmt"
	"strings"

	"factory-assistant/internal/model"
)

const (
	topMachines    = 5
	topTechnicians = 3
	topIssues      = 5
)

func (f *Formatter) failureReport(r model.FailureReport) string {
	total := float64(r.Total)

	machines := []string{"Machine Failure Distribution:"}
	for _, b := range head(r.Machines, topMachines) {
		machines = append(machines, fmt.Sprintf("%s: %s failures (%.1f%%)", b.Label, count(b.Count), share(b.Count, total)))
	}
	technicians := []string{"Technician Distribution:"}
	for _, b := range head(r.Technicians, topTechnicians) {
		technicians = append(technicians, fmt.Sprintf("%s: %s repairs", b.Label, count(b.Count)))
	}
	issues := []string{"Issue Type Distribution:"}
	for _, b := range head(r.Issues, topIssues) {
		issues = append(issues, fmt.Sprintf("%s: %s (%.1f%%)", b.Label, count(b.Count), share(b.Count, total)))
	}

	sections := []string{
		fmt.Sprintf("Machine Failure Analysis (based on %d records):", r.Total),
		strings.Join(machines, " "),
		strings.Join(technicians, " "),
		strings.Join(issues, " "),
	}
	if s := r.RepairTime; s != nil {
		sections = append(sections, fmt.Sprintf(
			"Repair Time Statistics: Average: %.1f minutes | Median: %.1f minutes | Min: %.1f minutes | Max: %.1f minutes",
			s.Mean, s.Median, s.Min, s.Max))
	}
	return strings.Join(sections, sectionSep)
}

func (f *Formatter) failureLog(r model.FailureLog) string {
	sections := []string{fmt.Sprintf("Found %d machine failure records:", r.Total)}
	for _, e := range r.Entries {
		sections = append(sections, failureEntry(e))
	}
	if r.Total > len(r.Entries) {
		sections = append(sections, fmt.Sprintf("Showing the first %d records.", len(r.Entries)))
	}
	if s := r.Summary; s != nil {
		sections = append(sections, strings.Join([]string{
			"Summary:",
			"Technicians: " + bucketList(head(s.Technicians, topTechnicians), "%s (%s)"),
			"Top machines: " + bucketList(head(s.Machines, topTechnicians), "%s: %s failures"),
			"Top issues: " + bucketList(head(s.Issues, topTechnicians), "%s (%s)"),
		}, fieldSep))
	}
	return strings.Join(sections, sectionSep)
}

func failureEntry(e model.FailureEntry) string {
	fields := []struct{ name, value string }{
		{"Date", e.Date},
		{"Machine", e.Machine},
		{"Technician", e.Technician},
		{"Issue", e.Issue},
	}
	parts := make([]string, 0, len(fields)+3)
	for _, fl := range fields {
		if fl.value != "" {
			parts = append(parts, fl.name+": "+fl.value)
		}
	}
	if e.HasTime {
		parts = append(parts, fmt.Sprintf("Time Spent: %s minutes", quantity(e.TimeSpent)))
	}
	if e.Solution != "" {
		parts = append(parts, "Solution: "+e.Solution)
	}
	if e.Status != "" {
		parts = append(parts, "Status: "+e.Status)
	}
	if len(parts) == 0 {
		return "Failure record with no details"
	}
	return strings.Join(parts, fieldSep)
}

func bucketList(buckets []model.Bucket, layout string) string {
	items := make([]string, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, fmt.Sprintf(layout, b.Label, count(b.Count)))
	}
	return strings.Join(items, ", ")
}

func head(buckets []model.Bucket, n int) []model.Bucket {
	if len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}

func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
