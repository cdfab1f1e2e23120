package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"factory-assistant/internal/model"
	"factory-assistant/internal/schema"
)

// Memory is an in-process DocumentStore used for fixtures and tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]model.Record
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]model.Record)}
}

// Insert appends documents to a collection, creating it if needed.
func (m *Memory) Insert(collection string, docs ...model.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], docs...)
}

// CreateCollection registers an empty collection.
func (m *Memory) CreateCollection(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = nil
	}
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Find(ctx context.Context, collection string, pred Predicate, limit int) ([]model.Record, error) {
	match, err := compile(pred)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Record
	for _, doc := range m.collections[collection] {
		if !match(doc) {
			continue
		}
		out = append(out, copyRecord(doc))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) FindOne(ctx context.Context, collection string, pred Predicate) (model.Record, bool, error) {
	docs, err := m.Find(ctx, collection, pred, 1)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

func (m *Memory) Distinct(ctx context.Context, collection, field string) ([]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []any
	for _, doc := range m.collections[collection] {
		value, ok := doc[field]
		if !ok || value == nil {
			continue
		}
		key := fmt.Sprintf("%T:%v", value, value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out, nil
}

func (m *Memory) Count(ctx context.Context, collection string, pred Predicate) (int64, error) {
	docs, err := m.Find(ctx, collection, pred, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func copyRecord(doc model.Record) model.Record {
	out := make(model.Record, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

type matcher func(model.Record) bool

func compile(pred Predicate) (matcher, error) {
	switch p := pred.(type) {
	case nil:
		return func(model.Record) bool { return true }, nil
	case Eq:
		return compileEq(p), nil
	case Match:
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for %s: %w", p.Field, err)
		}
		return func(doc model.Record) bool {
			value, ok := doc[p.Field]
			if !ok || value == nil {
				return false
			}
			return re.MatchString(schema.ToText(value))
		}, nil
	case Range:
		return compileRange(p)
	case Numeric:
		return func(doc model.Record) bool {
			_, ok := schema.ToFloat(doc[p.Field])
			return ok
		}, nil
	case Or:
		subs, err := compileAll(p)
		if err != nil {
			return nil, err
		}
		return func(doc model.Record) bool {
			for _, sub := range subs {
				if sub(doc) {
					return true
				}
			}
			return false
		}, nil
	case And:
		subs, err := compileAll(p)
		if err != nil {
			return nil, err
		}
		return func(doc model.Record) bool {
			for _, sub := range subs {
				if !sub(doc) {
					return false
				}
			}
			return true
		}, nil
	default:
		return nil, fmt.Errorf("unsupported predicate %T", pred)
	}
}

func compileAll(preds []Predicate) ([]matcher, error) {
	out := make([]matcher, 0, len(preds))
	for _, p := range preds {
		m, err := compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func compileEq(p Eq) matcher {
	return func(doc model.Record) bool {
		value, ok := doc[p.Field]
		if !ok || value == nil {
			return false
		}
		switch want := p.Value.(type) {
		case float64:
			got, ok := numeric(value)
			return ok && got == want
		case string:
			return schema.ToText(value) == want
		default:
			return schema.ToText(value) == schema.ToText(want)
		}
	}
}

func compileRange(p Range) (matcher, error) {
	minNum, minIsNum := p.Min.(float64)
	maxNum, maxIsNum := p.Max.(float64)
	minStr, minIsStr := p.Min.(string)
	maxStr, maxIsStr := p.Max.(string)

	switch {
	case (p.Min == nil || minIsNum) && (p.Max == nil || maxIsNum):
		return func(doc model.Record) bool {
			got, ok := numeric(doc[p.Field])
			if !ok {
				return false
			}
			return (p.Min == nil || got >= minNum) && (p.Max == nil || got <= maxNum)
		}, nil
	case (p.Min == nil || minIsStr) && (p.Max == nil || maxIsStr):
		return func(doc model.Record) bool {
			value, ok := doc[p.Field]
			if !ok || value == nil {
				return false
			}
			got := schema.ToText(value)
			return (p.Min == nil || strings.Compare(got, minStr) >= 0) &&
				(p.Max == nil || strings.Compare(got, maxStr) <= 0)
		}, nil
	default:
		return nil, fmt.Errorf("range on %s mixes bound types", p.Field)
	}
}

// numeric accepts only values stored as numbers, mirroring a JSON number type check.
func numeric(value any) (float64, bool) {
	if _, isString := value.(string); isString {
		return 0, false
	}
	return schema.ToFloat(value)
}
