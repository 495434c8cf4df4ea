// Package firestoredb backs store.Store with Cloud Firestore. Write-conflict
// retry for transactions and push delivery for listeners come from the
// Firestore client itself.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/saldo-app/saldo/internal/store"
)

// Store wraps a Firestore client.
type Store struct {
	client *firestore.Client
}

// Open connects to the given Firestore project. A credentials file is
// optional; without one the client falls back to application default
// credentials (or the emulator when FIRESTORE_EMULATOR_HOST is set).
func Open(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to firestore: %w", err)
	}
	return &Store{client: client}, nil
}

// Get returns a document by id.
func (s *Store) Get(ctx context.Context, col, id string) (store.Doc, error) {
	snap, err := s.client.Collection(col).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.Doc{}, store.ErrNotFound
	}
	if err != nil {
		return store.Doc{}, fmt.Errorf("getting %s/%s: %w", col, id, err)
	}
	return store.Doc{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// Create inserts a document under a Firestore auto-id.
func (s *Store) Create(ctx context.Context, col string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(col).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("creating document in %s: %w", col, err)
	}
	return ref.ID, nil
}

// Merge applies a partial update, leaving unspecified fields intact.
func (s *Store) Merge(ctx context.Context, col, id string, fields map[string]any) error {
	_, err := s.client.Collection(col).Doc(id).Set(ctx, fields, firestore.MergeAll)
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", col, id, err)
	}
	return nil
}

// Delete removes a document. Firestore deletes are no-ops for absent ids.
func (s *Store) Delete(ctx context.Context, col, id string) error {
	if _, err := s.client.Collection(col).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", col, id, err)
	}
	return nil
}

// Query returns matching documents in the requested order.
func (s *Store) Query(ctx context.Context, col string, q store.Query) ([]store.Doc, error) {
	it := s.build(col, q).Documents(ctx)
	defer it.Stop()

	var out []store.Doc
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", col, err)
		}
		out = append(out, store.Doc{ID: snap.Ref.ID, Data: snap.Data()})
	}
}

// BatchCreate writes all documents inside one Firestore transaction, so the
// whole set commits or none of it does.
func (s *Store) BatchCreate(ctx context.Context, col string, docs []map[string]any) ([]string, error) {
	collection := s.client.Collection(col)
	refs := make([]*firestore.DocumentRef, len(docs))
	ids := make([]string, len(docs))
	for i := range docs {
		refs[i] = collection.NewDoc()
		ids[i] = refs[i].ID
	}
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for i, data := range docs {
			if err := tx.Create(refs[i], data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch write to %s: %w", col, err)
	}
	return ids, nil
}

// RunTransaction executes fn as one atomic read-modify-write unit. The
// Firestore client retries fn on write conflict.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		return fn(&fsTx{store: s, tx: tx})
	})
}

// Listen opens a snapshot listener and pumps full result snapshots until
// the subscription is closed.
func (s *Store) Listen(ctx context.Context, col string, q store.Query) (store.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		ctx:    ctx,
		ch:     make(chan []store.Doc),
		cancel: cancel,
	}
	go sub.run(s.build(col, q).Snapshots(ctx))
	return sub, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) build(col string, q store.Query) firestore.Query {
	query := s.client.Collection(col).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, string(f.Op), f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	return query
}

type fsTx struct {
	store *Store
	tx    *firestore.Transaction
}

func (t *fsTx) Get(col, id string) (store.Doc, error) {
	snap, err := t.tx.Get(t.store.client.Collection(col).Doc(id))
	if status.Code(err) == codes.NotFound {
		return store.Doc{}, store.ErrNotFound
	}
	if err != nil {
		return store.Doc{}, fmt.Errorf("getting %s/%s in transaction: %w", col, id, err)
	}
	return store.Doc{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (t *fsTx) Merge(col, id string, fields map[string]any) error {
	if err := t.tx.Set(t.store.client.Collection(col).Doc(id), fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("updating %s/%s in transaction: %w", col, id, err)
	}
	return nil
}

type subscription struct {
	ctx    context.Context
	ch     chan []store.Doc
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func (s *subscription) Updates() <-chan []store.Doc { return s.ch }

// Err reports why the listener stopped, nil after a clean Close.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the listener context, which stops the server-side listener;
// Updates is closed once the listener goroutine winds down.
func (s *subscription) Close() { s.cancel() }

func (s *subscription) run(it *firestore.QuerySnapshotIterator) {
	defer close(s.ch)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err != nil {
			if !canceled(err) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}

		var docs []store.Doc
		docIt := snap.Documents
		for {
			d, err := docIt.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				if !canceled(err) {
					s.mu.Lock()
					s.err = err
					s.mu.Unlock()
				}
				return
			}
			docs = append(docs, store.Doc{ID: d.Ref.ID, Data: d.Data()})
		}

		select {
		case s.ch <- docs:
		case <-s.ctx.Done():
			return
		}
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled
}
