// Package postgres implements the docstore contract on PostgreSQL. Each
// document is a JSONB row in a single documents table; created_at is
// assigned by the database on insert. Live queries are served by an
// in-process hub that re-runs a subscriber's query after every mutation
// of its collection.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5/pgconn"

	"moments/internal/apperr"
	"moments/internal/docstore"
)

// Store is a PostgreSQL-backed document store.
type Store struct {
	db  *sql.DB
	hub *docstore.Hub
}

var _ docstore.Store = (*Store)(nil)

// New creates a Store over an open database handle.
func New(db *sql.DB) *Store {
	s := &Store{db: db}
	s.hub = docstore.NewHub(s.runQuery)
	return s
}

// Create inserts a document with a fresh ID; created_at comes from the
// database clock.
func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (docstore.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return docstore.Document{}, apperr.Wrap(apperr.InvalidArgument, "document is not serializable", err)
	}

	doc := docstore.Document{ID: uuid.NewString(), Data: data}
	const q = `
		INSERT INTO documents (id, collection, data)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := s.db.QueryRowContext(ctx, q, doc.ID, collection, raw).Scan(&doc.CreatedAt); err != nil {
		return docstore.Document{}, mapError("create document", err)
	}

	s.hub.Broadcast(collection)
	return doc, nil
}

// Set upserts a document under a caller-chosen ID.
func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) (docstore.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return docstore.Document{}, apperr.Wrap(apperr.InvalidArgument, "document is not serializable", err)
	}

	doc := docstore.Document{ID: id, Data: data}
	const q = `
		INSERT INTO documents (id, collection, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
		RETURNING created_at
	`
	if err := s.db.QueryRowContext(ctx, q, id, collection, raw).Scan(&doc.CreatedAt); err != nil {
		return docstore.Document{}, mapError("set document", err)
	}

	s.hub.Broadcast(collection)
	return doc, nil
}

// Get reads a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	const q = `
		SELECT data, created_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	var raw []byte
	doc := docstore.Document{ID: id}
	if err := s.db.QueryRowContext(ctx, q, collection, id).Scan(&raw, &doc.CreatedAt); err != nil {
		return docstore.Document{}, mapError("get document", err)
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return docstore.Document{}, apperr.Wrap(apperr.Decode, "stored document is corrupt", err)
	}
	return doc, nil
}

// Merge applies a partial update inside a transaction. The row is locked
// for the duration so array-union/array-remove mutations are atomic.
func (s *Store) Merge(ctx context.Context, collection, id string, patch map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("begin merge", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const sel = `
		SELECT data
		FROM documents
		WHERE collection = $1 AND id = $2
		FOR UPDATE
	`
	var raw []byte
	if err := tx.QueryRowContext(ctx, sel, collection, id).Scan(&raw); err != nil {
		return mapError("merge document", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return apperr.Wrap(apperr.Decode, "stored document is corrupt", err)
	}

	if err := applyPatch(data, patch); err != nil {
		return err
	}

	merged, err := json.Marshal(data)
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "merged document is not serializable", err)
	}

	const upd = `UPDATE documents SET data = $1 WHERE collection = $2 AND id = $3`
	if _, err := tx.ExecContext(ctx, upd, merged, collection, id); err != nil {
		return mapError("merge document", err)
	}
	if err := tx.Commit(); err != nil {
		return mapError("commit merge", err)
	}

	s.hub.Broadcast(collection)
	return nil
}

// Delete removes a document. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, q, collection, id)
	if err != nil {
		return mapError("delete document", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.hub.Broadcast(collection)
	}
	return nil
}

// Query runs a one-shot query.
func (s *Store) Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	return s.runQuery(ctx, q)
}

// Subscribe registers a live query against the change hub.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	if q.Collection == "" {
		return nil, apperr.New(apperr.InvalidArgument, "subscription requires a collection")
	}
	return s.hub.Subscribe(ctx, q, fn)
}

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// fieldExpr maps a document field to its SQL expression. createdAt is a
// real column; everything else lives in the JSONB blob and compares as
// text.
func fieldExpr(field string) (string, error) {
	if field == "createdAt" {
		return "created_at", nil
	}
	if !fieldNamePattern.MatchString(field) {
		return "", apperr.Newf(apperr.InvalidArgument, "invalid field name %q", field)
	}
	return fmt.Sprintf("data->>'%s'", field), nil
}

func (s *Store) runQuery(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "data", "created_at").From("documents")
	sb.Where(sb.Equal("collection", q.Collection))

	for _, f := range q.Filters {
		expr, err := fieldExpr(f.Field)
		if err != nil {
			return nil, err
		}
		switch f.Op {
		case docstore.OpEqual:
			sb.Where(sb.Equal(expr, f.Value))
		case docstore.OpGreaterThan:
			sb.Where(sb.GreaterThan(expr, f.Value))
		case docstore.OpGreaterOrEqual:
			sb.Where(sb.GreaterEqualThan(expr, f.Value))
		case docstore.OpLessThan:
			sb.Where(sb.LessThan(expr, f.Value))
		case docstore.OpLessOrEqual:
			sb.Where(sb.LessEqualThan(expr, f.Value))
		default:
			return nil, apperr.Newf(apperr.InvalidArgument, "unsupported filter op %q", f.Op)
		}
	}

	orders := make([]string, 0, len(q.OrderBy)+1)
	for _, o := range q.OrderBy {
		expr, err := fieldExpr(o.Field)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		orders = append(orders, expr+" "+dir)
	}
	// Deterministic tie-break on the store's own document ordering.
	orders = append(orders, "id ASC")
	sb.OrderBy(orders...)

	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("query documents", err)
	}
	defer rows.Close()

	snap := docstore.Snapshot{}
	for rows.Next() {
		var (
			doc docstore.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt); err != nil {
			return nil, mapError("scan document", err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, apperr.Wrap(apperr.Decode, "stored document is corrupt", err)
		}
		snap = append(snap, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("query documents", err)
	}
	return snap, nil
}

// applyPatch merges patch into data in place, honoring the array
// mutation sentinels.
func applyPatch(data, patch map[string]any) error {
	for field, value := range patch {
		switch v := value.(type) {
		case docstore.ArrayUnionValue:
			arr, err := arrayField(data, field)
			if err != nil {
				return err
			}
			data[field] = unionElems(arr, v.Elems)
		case docstore.ArrayRemoveValue:
			arr, err := arrayField(data, field)
			if err != nil {
				return err
			}
			data[field] = removeElems(arr, v.Elems)
		default:
			data[field] = value
		}
	}
	return nil
}

func arrayField(data map[string]any, field string) ([]any, error) {
	existing, ok := data[field]
	if !ok || existing == nil {
		return []any{}, nil
	}
	arr, ok := existing.([]any)
	if !ok {
		return nil, apperr.Newf(apperr.InvalidArgument, "field %q is not an array", field)
	}
	return arr, nil
}

// elemKey canonicalizes an element for set-membership comparison, so a
// value that round-tripped through JSON equals its freshly built twin.
func elemKey(elem any) string {
	b, err := json.Marshal(elem)
	if err != nil {
		return fmt.Sprintf("!%v", elem)
	}
	return string(b)
}

func unionElems(arr []any, elems []any) []any {
	seen := make(map[string]struct{}, len(arr))
	for _, e := range arr {
		seen[elemKey(e)] = struct{}{}
	}
	out := arr
	for _, e := range elems {
		key := elemKey(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

func removeElems(arr []any, elems []any) []any {
	drop := make(map[string]struct{}, len(elems))
	for _, e := range elems {
		drop[elemKey(e)] = struct{}{}
	}
	out := make([]any, 0, len(arr))
	for _, e := range arr {
		if _, gone := drop[elemKey(e)]; gone {
			continue
		}
		out = append(out, e)
	}
	return out
}

// mapError classifies database failures into the shared taxonomy.
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.Wrap(apperr.NotFound, "document not found", err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.RemoteUnavailable, op+": store unreachable", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Wrap(apperr.RemoteUnavailable, op+": store unreachable", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
			return apperr.Wrap(apperr.RemoteUnavailable, op+": store unreachable", err)
		case pgErr.Code == "42501": // insufficient_privilege
			return apperr.Wrap(apperr.PermissionDenied, op+": permission denied", err)
		}
	}

	return apperr.Wrap(apperr.Unknown, op+" failed", err)
}
