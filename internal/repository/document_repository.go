package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"factory-assistant/internal/model"
	"factory-assistant/internal/store"
)

// DocumentRepository stores every collection as a Postgres table with a jsonb "doc" column.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

type docRow struct {
	Doc string
}

func (r *DocumentRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *DocumentRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *DocumentRepository) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT c.table_name
			FROM information_schema.columns c
			WHERE c.table_schema = 'public' AND c.column_name = 'doc' AND c.data_type = 'jsonb'
			ORDER BY c.table_name`).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *DocumentRepository) Find(ctx context.Context, collection string, pred store.Predicate, limit int) ([]model.Record, error) {
	if !r.relationExists(ctx, collection) {
		return nil, nil
	}

	where, args, err := compilePredicate(pred)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table(quoteIdent(collection)).
		Select("doc::text AS doc").
		Where(where, args...)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []docRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		var record model.Record
		if err := json.Unmarshal([]byte(row.Doc), &record); err != nil {
			return nil, fmt.Errorf("decode document in %s: %w", collection, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *DocumentRepository) FindOne(ctx context.Context, collection string, pred store.Predicate) (model.Record, bool, error) {
	records, err := r.Find(ctx, collection, pred, 1)
	if err != nil || len(records) == 0 {
		return nil, false, err
	}
	return records[0], true, nil
}

func (r *DocumentRepository) Distinct(ctx context.Context, collection, field string) ([]any, error) {
	if !r.relationExists(ctx, collection) {
		return nil, nil
	}

	var raw []string
	err := r.db.WithContext(ctx).
		Table(quoteIdent(collection)).
		Select("DISTINCT (doc->?)::text AS value", field).
		Where("jsonb_typeof(doc->?) IS NOT NULL AND jsonb_typeof(doc->?) <> 'null'", field, field).
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(raw))
	for _, item := range raw {
		var value any
		if err := json.Unmarshal([]byte(item), &value); err != nil {
			continue
		}
		values = append(values, value)
	}
	return values, nil
}

func (r *DocumentRepository) Count(ctx context.Context, collection string, pred store.Predicate) (int64, error) {
	if !r.relationExists(ctx, collection) {
		return 0, nil
	}

	where, args, err := compilePredicate(pred)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Table(quoteIdent(collection)).Where(where, args...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DocumentRepository) relationExists(ctx context.Context, name string) bool {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw(`SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_class c
			JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = ? AND c.relkind IN ('r','m','v') AND n.nspname = 'public'
		)`, name).
		Scan(&exists).Error
	if err != nil {
		return false
	}
	return exists
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

const (
	numericText    = "(jsonb_typeof(doc->?) = 'number' OR doc->>? ~ ?)"
	numericPattern = `^\s*[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?\s*$`
)

const numericField = "(CASE WHEN jsonb_typeof(doc->?) = 'number' THEN (doc->>?)::numeric END)"

// compilePredicate renders a predicate as a WHERE clause over the doc column.
func compilePredicate(pred store.Predicate) (string, []any, error) {
	switch p := pred.(type) {
	case nil:
		return "TRUE", nil, nil
	case store.Eq:
		switch v := p.Value.(type) {
		case float64:
			return "doc->? = ?::jsonb", []any{p.Field, strconv.FormatFloat(v, 'f', -1, 64)}, nil
		case string:
			return "doc->>? = ?", []any{p.Field, v}, nil
		default:
			return "", nil, fmt.Errorf("unsupported eq value %T for %s", p.Value, p.Field)
		}
	case store.Match:
		return "doc->>? ~* ?", []any{p.Field, p.Pattern}, nil
	case store.Range:
		return compileRange(p)
	case store.Numeric:
		return numericText, []any{p.Field, p.Field, numericPattern}, nil
	case store.Or:
		if len(p) == 0 {
			return "FALSE", nil, nil
		}
		return compileGroup([]store.Predicate(p), " OR ")
	case store.And:
		if len(p) == 0 {
			return "TRUE", nil, nil
		}
		return compileGroup([]store.Predicate(p), " AND ")
	default:
		return "", nil, fmt.Errorf("unsupported predicate %T", pred)
	}
}

func compileGroup(preds []store.Predicate, sep string) (string, []any, error) {
	parts := make([]string, 0, len(preds))
	var args []any
	for _, sub := range preds {
		clause, subArgs, err := compilePredicate(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, clause)
		args = append(args, subArgs...)
	}
	return "(" + strings.Join(parts, sep) + ")", args, nil
}

func compileRange(p store.Range) (string, []any, error) {
	_, minNum := p.Min.(float64)
	_, maxNum := p.Max.(float64)
	_, minStr := p.Min.(string)
	_, maxStr := p.Max.(string)

	var (
		expr     string
		exprArgs []any
	)
	switch {
	case (p.Min == nil || minNum) && (p.Max == nil || maxNum):
		if p.Min == nil && p.Max == nil {
			return "jsonb_typeof(doc->?) = 'number'", []any{p.Field}, nil
		}
		expr = numericField
		exprArgs = []any{p.Field, p.Field}
	case (p.Min == nil || minStr) && (p.Max == nil || maxStr):
		if p.Min == nil && p.Max == nil {
			return "doc->>? IS NOT NULL", []any{p.Field}, nil
		}
		expr = "doc->>?"
		exprArgs = []any{p.Field}
	default:
		return "", nil, fmt.Errorf("range on %s mixes bound types", p.Field)
	}

	var (
		parts []string
		args  []any
	)
	if p.Min != nil {
		parts = append(parts, expr+" >= ?")
		args = append(args, exprArgs...)
		args = append(args, p.Min)
	}
	if p.Max != nil {
		parts = append(parts, expr+" <= ?")
		args = append(args, exprArgs...)
		args = append(args, p.Max)
	}
	return "(" + strings.Join(parts, " AND ") + ")", args, nil
}
