// Package store abstracts the document-oriented backing store. Collections
// are user-scoped slash paths such as "users/u1/transactions"; each document
// is a flat field map keyed by a store-generated id.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("store: document not found")

// Doc is one document in a collection.
type Doc struct {
	ID   string
	Data map[string]any
}

// Op is a query filter operator.
type Op string

const (
	OpEqual        Op = "=="
	OpGreaterEqual Op = ">="
	OpLessEqual    Op = "<="
)

// Filter restricts a query to documents whose field satisfies Op Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query describes a filtered, ordered read over one collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
}

// Tx is the handle passed to a RunTransaction callback. The callback may be
// retried on write conflict, so it must be free of external side effects.
type Tx interface {
	Get(col, id string) (Doc, error)
	Merge(col, id string, fields map[string]any) error
}

// Subscription is a live query handle. Updates delivers a full result
// snapshot after every underlying change; Close stops the server-side
// listener and releases its resources, after which Updates is closed.
type Subscription interface {
	Updates() <-chan []Doc
	Err() error
	Close()
}

// Store is the document store contract the ledger is written against.
// Create assigns the document id. Merge is a partial update that leaves
// unspecified fields intact. BatchCreate commits all documents or none.
// RunTransaction executes fn as a single atomic read-modify-write unit;
// conflict retry is the implementation's responsibility.
type Store interface {
	Get(ctx context.Context, col, id string) (Doc, error)
	Create(ctx context.Context, col string, data map[string]any) (string, error)
	Merge(ctx context.Context, col, id string, fields map[string]any) error
	Delete(ctx context.Context, col, id string) error
	Query(ctx context.Context, col string, q Query) ([]Doc, error)
	BatchCreate(ctx context.Context, col string, docs []map[string]any) ([]string, error)
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	Listen(ctx context.Context, col string, q Query) (Subscription, error)
	Close() error
}
