// Package store defines the document-store contract the query executor runs against.
package store

import (
	"context"

	"factory-assistant/internal/model"
)

// DocumentStore is a schema-less collection store. A limit <= 0 means no limit.
type DocumentStore interface {
	ListCollections(ctx context.Context) ([]string, error)
	Find(ctx context.Context, collection string, pred Predicate, limit int) ([]model.Record, error)
	FindOne(ctx context.Context, collection string, pred Predicate) (model.Record, bool, error)
	Distinct(ctx context.Context, collection, field string) ([]any, error)
	Count(ctx context.Context, collection string, pred Predicate) (int64, error)
	Ping(ctx context.Context) error
}
