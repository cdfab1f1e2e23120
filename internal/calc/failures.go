package calc

import (
	"strings"

	"factory-assistant/internal/model"
	"factory-assistant/internal/schema"
)

const (
	maxLogEntries    = 10
	summaryThreshold = 5
	unknownLabel     = "Unknown"
)

type issueCategory struct {
	name     string
	keywords []string
}

// issueTaxonomy is matched in order; the first category with a keyword in the text wins.
var issueTaxonomy = []issueCategory{
	{"Electrical", []string{"electrical", "circuit", "power", "voltage"}},
	{"Mechanical", []string{"mechanical", "bearing", "motor", "gear"}},
	{"Software", []string{"software", "program", "error", "code"}},
	{"Maintenance", []string{"maintenance", "service", "routine"}},
}

func categorizeIssue(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return unknownLabel
	}
	for _, c := range issueTaxonomy {
		for _, kw := range c.keywords {
			if strings.Contains(lowered, kw) {
				return c.name
			}
		}
	}
	return firstWords(lowered, 2) + "..."
}

func (e *Engine) textOr(r model.Record, field, fallback string) string {
	if text := strings.TrimSpace(e.table.Text(r, field)); text != "" {
		return text
	}
	return fallback
}

func (e *Engine) failureReport(records []model.Record) model.FailureReport {
	machines, technicians, issues := newCounter(), newCounter(), newCounter()
	var repair []float64
	for _, r := range records {
		machines.add(e.textOr(r, schema.FieldMachine, unknownLabel), 1)
		technicians.add(e.textOr(r, schema.FieldTechnician, unknownLabel), 1)
		issues.add(categorizeIssue(e.table.Text(r, schema.FieldIssue)), 1)
		if t, ok := e.table.Number(r, schema.FieldTimeSpent); ok {
			repair = append(repair, t)
		}
	}

	report := model.FailureReport{
		Total:       len(records),
		Machines:    machines.buckets(),
		Technicians: technicians.buckets(),
		Issues:      issues.buckets(),
	}
	if len(repair) > 0 {
		stats := describe(repair)
		report.RepairTime = &stats
	}
	return report
}

func (e *Engine) failureLog(records []model.Record) model.FailureLog {
	log := model.FailureLog{Total: len(records)}
	for i, r := range records {
		if i == maxLogEntries {
			break
		}
		entry := model.FailureEntry{
			Date:       e.table.Text(r, schema.FieldDate),
			Machine:    e.table.Text(r, schema.FieldMachine),
			Technician: e.table.Text(r, schema.FieldTechnician),
			Issue:      e.table.Text(r, schema.FieldIssue),
			Solution:   e.table.Text(r, schema.FieldSolution),
			Status:     e.table.Text(r, schema.FieldStatus),
		}
		if t, ok := e.table.Number(r, schema.FieldTimeSpent); ok {
			entry.TimeSpent = t
			entry.HasTime = true
		}
		log.Entries = append(log.Entries, entry)
	}
	if len(records) > summaryThreshold {
		report := e.failureReport(records)
		log.Summary = &report
	}
	return log
}
