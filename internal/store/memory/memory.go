// Package memory is an in-process store.Store used by tests and local mode.
// It provides the same atomicity and listener semantics as the remote store:
// transactions run under a single writer lock and listeners receive a full
// snapshot after every mutation of their collection.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saldo-app/saldo/internal/store"
)

// Store keeps collections as nested maps guarded by one mutex.
type Store struct {
	mu   sync.Mutex
	cols map[string]map[string]map[string]any
	subs map[string][]*subscription
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		cols: make(map[string]map[string]map[string]any),
		subs: make(map[string][]*subscription),
	}
}

// Get returns a document by id.
func (s *Store) Get(_ context.Context, col, id string) (store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.cols[col][id]
	if !ok {
		return store.Doc{}, store.ErrNotFound
	}
	return store.Doc{ID: id, Data: clone(data)}, nil
}

// Create inserts a document under a generated id.
func (s *Store) Create(_ context.Context, col string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.put(col, id, clone(data))
	s.notify(col)
	return id, nil
}

// Merge applies a partial update, leaving unspecified fields intact.
func (s *Store) Merge(_ context.Context, col, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.merge(col, id, fields); err != nil {
		return err
	}
	s.notify(col)
	return nil
}

// Delete removes a document. Deleting an absent document is a no-op, like
// the remote store.
func (s *Store) Delete(_ context.Context, col, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cols[col], id)
	s.notify(col)
	return nil
}

// Query returns matching documents in the requested order.
func (s *Store) Query(_ context.Context, col string, q store.Query) ([]store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query(col, q), nil
}

// BatchCreate inserts all documents under the single writer lock, so the
// batch is observed either entirely or not at all.
func (s *Store) BatchCreate(_ context.Context, col string, docs []map[string]any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(docs))
	for i, data := range docs {
		ids[i] = uuid.NewString()
		s.put(col, ids[i], clone(data))
	}
	s.notify(col)
	return ids, nil
}

// RunTransaction executes fn atomically. The single writer lock is held for
// the whole callback, so no retry is ever needed.
func (s *Store) RunTransaction(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &memTx{store: s}
	if err := fn(t); err != nil {
		return err
	}
	for col := range t.touched {
		s.notify(col)
	}
	return nil
}

// Listen registers a live query and delivers an initial snapshot.
func (s *Store) Listen(_ context.Context, col string, q store.Query) (store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscription{
		q:    q,
		ch:   make(chan []store.Doc),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		detach: func(target *subscription) {
			s.mu.Lock()
			defer s.mu.Unlock()
			list := s.subs[col]
			for i, candidate := range list {
				if candidate == target {
					s.subs[col] = append(list[:i], list[i+1:]...)
					break
				}
			}
		},
	}
	s.subs[col] = append(s.subs[col], sub)
	go sub.pump()
	sub.push(s.query(col, q))
	return sub, nil
}

// Close releases all listeners.
func (s *Store) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[string][]*subscription)
	s.mu.Unlock()
	for _, list := range subs {
		for _, sub := range list {
			sub.stop()
		}
	}
	return nil
}

// put, merge, query and notify require s.mu to be held.

func (s *Store) put(col, id string, data map[string]any) {
	docs, ok := s.cols[col]
	if !ok {
		docs = make(map[string]map[string]any)
		s.cols[col] = docs
	}
	docs[id] = data
}

func (s *Store) merge(col, id string, fields map[string]any) error {
	data, ok := s.cols[col][id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

func (s *Store) query(col string, q store.Query) []store.Doc {
	var out []store.Doc
	for id, data := range s.cols[col] {
		if matches(data, q.Filters) {
			out = append(out, store.Doc{ID: id, Data: clone(data)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compare(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) notify(col string) {
	for _, sub := range s.subs[col] {
		sub.push(s.query(col, sub.q))
	}
}

type memTx struct {
	store   *Store
	touched map[string]bool
}

func (t *memTx) Get(col, id string) (store.Doc, error) {
	data, ok := t.store.cols[col][id]
	if !ok {
		return store.Doc{}, store.ErrNotFound
	}
	return store.Doc{ID: id, Data: clone(data)}, nil
}

func (t *memTx) Merge(col, id string, fields map[string]any) error {
	if err := t.store.merge(col, id, fields); err != nil {
		return err
	}
	if t.touched == nil {
		t.touched = make(map[string]bool)
	}
	t.touched[col] = true
	return nil
}

// subscription delivers the latest snapshot to a consumer-paced channel.
// A slow consumer only ever skips intermediate snapshots, never the final one.
type subscription struct {
	q      store.Query
	ch     chan []store.Doc
	wake   chan struct{}
	done   chan struct{}
	detach func(*subscription)

	mu     sync.Mutex
	latest []store.Doc
	closed bool
}

func (s *subscription) Updates() <-chan []store.Doc { return s.ch }

// Err reports the listener failure cause. The in-memory listener cannot fail.
func (s *subscription) Err() error { return nil }

func (s *subscription) Close() {
	s.detach(s)
	s.stop()
}

func (s *subscription) stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

func (s *subscription) push(snap []store.Doc) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.latest = snap
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) pump() {
	defer close(s.ch)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.mu.Lock()
		snap := s.latest
		s.mu.Unlock()
		select {
		case s.ch <- snap:
		case <-s.done:
			return
		}
	}
}

func matches(data map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		c := compare(v, f.Value)
		switch f.Op {
		case store.OpEqual:
			if c != 0 {
				return false
			}
		case store.OpGreaterEqual:
			if c < 0 {
				return false
			}
		case store.OpLessEqual:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare orders the value types the ledger stores: strings, bools,
// numbers and timestamps. Mismatched or unknown types compare equal.
func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case bv:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case int:
		if bv, ok := toFloat(b); ok {
			return cmpFloat(float64(av), bv)
		}
	case int64:
		if bv, ok := toFloat(b); ok {
			return cmpFloat(float64(av), bv)
		}
	case float64:
		if bv, ok := toFloat(b); ok {
			return cmpFloat(av, bv)
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
