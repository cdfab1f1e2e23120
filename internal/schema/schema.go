// Package schema holds the alias table that maps semantic record fields onto the
// physical field names used by the different collections.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"factory-assistant/internal/model"
)

const (
	FieldWorkshop    = "workshop"
	FieldMachine     = "machine"
	FieldTechnician  = "technician"
	FieldOrder       = "order"
	FieldChain       = "chain"
	FieldChainProxy  = "chain_proxy"
	FieldHour        = "hour"
	FieldDate        = "date"
	FieldProduced    = "produced"
	FieldDefects     = "defects"
	FieldTarget      = "target"
	FieldEfficiency  = "efficiency"
	FieldTimeSpent   = "time_spent"
	FieldHours       = "hours"
	FieldIssue       = "issue"
	FieldSolution    = "solution"
	FieldStatus      = "status"
	FieldDefectTypes = "defect_types"
	FieldDefectName  = "defect_name"
)

var requiredFields = []string{
	FieldWorkshop, FieldMachine, FieldTechnician, FieldOrder, FieldChain, FieldHour,
	FieldDate, FieldProduced, FieldDefects, FieldTarget, FieldEfficiency, FieldTimeSpent,
}

var ErrInvalidTable = errors.New("invalid alias table")

//go:embed aliases.yaml
var defaultTable []byte

type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
	MatchPrefix   MatchMode = "prefix"
)

type Field struct {
	Aliases  []string  `yaml:"aliases"`
	Match    MatchMode `yaml:"match"`
	Numeric  bool      `yaml:"numeric"`
	Discover []string  `yaml:"discover"`
}

type Collections struct {
	Categories map[string][]string `yaml:"categories"`
	Fallback   []string            `yaml:"fallback"`
	Exclude    []string            `yaml:"exclude"`
}

type Table struct {
	Version     int              `yaml:"version"`
	Fields      map[string]Field `yaml:"fields"`
	Collections Collections      `yaml:"collections"`
}

// Default returns the alias table compiled into the binary.
func Default() *Table {
	table, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded alias table: %v", err))
	}
	return table
}

// Load reads an alias table from path, or returns the embedded table when path is empty.
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if table.Version <= 0 {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidTable)
	}
	for _, name := range requiredFields {
		if len(table.Fields[name].Aliases) == 0 {
			return nil, fmt.Errorf("%w: field %q has no aliases", ErrInvalidTable, name)
		}
	}
	for name, field := range table.Fields {
		if field.Match == "" {
			field.Match = MatchExact
			table.Fields[name] = field
		}
	}
	return &table, nil
}

func (t *Table) Field(name string) Field {
	return t.Fields[name]
}

func (t *Table) Aliases(name string) []string {
	return t.Fields[name].Aliases
}

// Lookup returns the first alias of field present in the record.
func (t *Table) Lookup(record model.Record, field string) (any, bool) {
	for _, alias := range t.Fields[field].Aliases {
		if value, ok := record[alias]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// Number returns the first alias of field that holds a numeric-coercible value.
func (t *Table) Number(record model.Record, field string) (float64, bool) {
	for _, alias := range t.Fields[field].Aliases {
		value, ok := record[alias]
		if !ok || value == nil {
			continue
		}
		if n, ok := ToFloat(value); ok {
			return n, true
		}
	}
	return 0, false
}

func (t *Table) Float(record model.Record, field string) float64 {
	n, _ := t.Number(record, field)
	return n
}

func (t *Table) Text(record model.Record, field string) string {
	value, ok := t.Lookup(record, field)
	if !ok {
		return ""
	}
	return ToText(value)
}

// FilterField maps a filter key onto its semantic field name.
func FilterField(key model.FilterKey) string {
	return string(key)
}

// MetricField maps a metric onto the numeric record field that measures it.
func MetricField(metric model.Metric) (string, bool) {
	switch metric {
	case model.MetricProduction:
		return FieldProduced, true
	case model.MetricDefects:
		return FieldDefects, true
	case model.MetricTarget:
		return FieldTarget, true
	case model.MetricEfficiency:
		return FieldEfficiency, true
	case model.MetricFailures:
		return FieldTimeSpent, true
	default:
		return "", false
	}
}

func ToFloat(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func ToText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
