// Package docstore defines the schemaless document store contract the
// service facades are written against: CRUD with merge semantics,
// filtered/ordered queries, array-union/array-remove field mutations,
// server-assigned creation timestamps, and push-based live queries.
//
// Implementations live in subpackages (see postgres). Consumers receive
// raw documents and decode them into typed records at the facade boundary.
package docstore

import (
	"context"
	"time"
)

// Document is a raw record as delivered by the store. CreatedAt is
// assigned by the store at insert time; Data holds the schemaless fields.
type Document struct {
	ID        string
	CreatedAt time.Time
	Data      map[string]any
}

// Op is a filter comparison operator.
type Op string

const (
	OpEqual          Op = "=="
	OpGreaterThan    Op = ">"
	OpLessThan       Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreaterOrEqual Op = ">="
)

// Filter restricts a query to documents whose field compares true
// against Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts query results by a field.
type Order struct {
	Field      string
	Descending bool
}

// Query selects documents from a single collection. A zero Limit means
// no limit. Implementations must make ordering deterministic: equal sort
// keys are tie-broken by the store's own document ordering.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    []Order
	Limit      int
}

// Where appends a filter and returns the query for chaining.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderedBy appends a sort order and returns the query for chaining.
func (q Query) OrderedBy(field string, descending bool) Query {
	q.OrderBy = append(q.OrderBy, Order{Field: field, Descending: descending})
	return q
}

// Snapshot is a point-in-time result of a query, in query order.
type Snapshot []Document

// SnapshotFunc receives each snapshot pushed by a live query.
type SnapshotFunc func(Snapshot)

// Subscription is the capability to cancel a live query. Unsubscribe is
// idempotent and may be called from within the snapshot callback; once
// it returns, no further snapshot is delivered.
type Subscription interface {
	Unsubscribe()
}

// ArrayUnion returns a merge-patch value that adds the given elements to
// an array field, skipping elements already present (set semantics).
func ArrayUnion(elems ...any) ArrayUnionValue {
	return ArrayUnionValue{Elems: elems}
}

// ArrayRemove returns a merge-patch value that removes all occurrences
// of the given elements from an array field.
func ArrayRemove(elems ...any) ArrayRemoveValue {
	return ArrayRemoveValue{Elems: elems}
}

// ArrayUnionValue is the patch value produced by ArrayUnion. Store
// implementations interpret it when applying a Merge.
type ArrayUnionValue struct{ Elems []any }

// ArrayRemoveValue is the patch value produced by ArrayRemove.
type ArrayRemoveValue struct{ Elems []any }

// Store is the document store client contract.
type Store interface {
	// Create inserts a document with a store-assigned ID and CreatedAt.
	Create(ctx context.Context, collection string, data map[string]any) (Document, error)

	// Set upserts a document under the caller-chosen ID, replacing any
	// existing data.
	Set(ctx context.Context, collection, id string, data map[string]any) (Document, error)

	// Get reads one document. A missing document yields a not-found error.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Merge applies a partial update. Plain patch values replace fields;
	// ArrayUnion/ArrayRemove values mutate array fields atomically.
	Merge(ctx context.Context, collection, id string, patch map[string]any) error

	// Delete removes a document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// Query runs a one-shot query and returns the matching snapshot.
	Query(ctx context.Context, q Query) (Snapshot, error)

	// Subscribe registers a live query. The current snapshot is pushed
	// immediately, then a fresh snapshot after every mutation of the
	// collection, in order, until the subscription is cancelled or ctx is
	// done.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Subscription, error)
}
