package calc

import (
	"sort"
	"strings"

	"factory-assistant/internal/model"
	"factory-assistant/internal/schema"
)

var countKeys = []string{"count", "occurrences", "frequency", "quantity"}

// defectBreakdown tallies defect types from per-record type maps, type lists, or
// one-type-per-record catalogues.
func (e *Engine) defectBreakdown(records []model.Record, a model.Analysis) model.CalculationResult {
	types := newCounter()
	workshops := newCounter()
	out := model.DefectBreakdown{
		Calculation:   a.CalculationType,
		RequestedType: strings.ToLower(strings.TrimSpace(a.DefectType)),
		SampleSize:    len(records),
	}

	usable := false
	for _, r := range records {
		if e.addDefectTypes(types, r) {
			usable = true
		}
		d, hasDefects := e.table.Number(r, schema.FieldDefects)
		if hasDefects {
			usable = true
			out.TotalDefects += d
			if w := e.table.Text(r, schema.FieldWorkshop); w != "" {
				workshops.add(w, d)
			}
		}
		out.TotalProduction += e.table.Float(r, schema.FieldProduced)
	}
	if !usable {
		return model.NoCalculation{Reason: ReasonNoValues, Metrics: []model.Metric{model.MetricDefects}, Records: len(records)}
	}

	out.Types = types.buckets()
	out.DefectRate = percent(out.TotalDefects, out.TotalProduction)
	if workshops.size() > 1 {
		out.ByWorkshop = workshops.buckets()
	}
	if out.RequestedType != "" {
		for _, b := range out.Types {
			if strings.Contains(strings.ToLower(b.Label), out.RequestedType) {
				out.RequestedCount += b.Count
			}
		}
	}
	return out
}

// addDefectTypes adds the record's defect types to the counter and reports whether it
// found any.
func (e *Engine) addDefectTypes(types *counter, r model.Record) bool {
	name := strings.TrimSpace(e.table.Text(r, schema.FieldDefectName))
	raw, ok := e.table.Lookup(r, schema.FieldDefectTypes)
	if !ok {
		if name == "" {
			return false
		}
		types.add(name, countOf(r, 1))
		return true
	}

	found := false
	switch v := raw.(type) {
	case map[string]any:
		labels := make([]string, 0, len(v))
		for label := range v {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			if n, ok := schema.ToFloat(v[label]); ok && n > 0 {
				types.add(label, n)
				found = true
			}
		}
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case string:
				if it != "" {
					types.add(it, 1)
					found = true
				}
			case map[string]any:
				label := e.table.Text(model.Record(it), schema.FieldDefectName)
				if label == "" {
					label = schema.ToText(it["name"])
				}
				if label != "" {
					types.add(label, countOf(model.Record(it), 1))
					found = true
				}
			}
		}
	default:
		// Catalogue rows keep the occurrence count under the type field.
		if n, ok := schema.ToFloat(v); ok && name != "" {
			types.add(name, n)
			found = true
		}
	}
	return found
}

func countOf(r model.Record, fallback float64) float64 {
	for _, key := range countKeys {
		if n, ok := schema.ToFloat(r[key]); ok {
			return n
		}
	}
	return fallback
}
