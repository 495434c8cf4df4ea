package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/store"
)

// TransactionStream is a live query handle. Updates delivers the complete
// result set, newest first, after every underlying change — snapshots, not
// deltas. Close stops the store-side listener and releases its resources;
// it is the only cancellation primitive.
type TransactionStream struct {
	sub  store.Subscription
	ch   chan []model.Transaction
	done chan struct{}
	once sync.Once
}

// Updates returns the snapshot channel. It is closed after Close, or when
// the underlying listener fails (check Err).
func (t *TransactionStream) Updates() <-chan []model.Transaction { return t.ch }

// Err reports why the stream stopped, nil after a clean Close.
func (t *TransactionStream) Err() error { return t.sub.Err() }

// Close deterministically stops the underlying listener.
func (t *TransactionStream) Close() {
	t.once.Do(func() {
		t.sub.Close()
		close(t.done)
	})
}

func (t *TransactionStream) pump() {
	defer close(t.ch)
	for docs := range t.sub.Updates() {
		txs := make([]model.Transaction, 0, len(docs))
		for _, doc := range docs {
			txs = append(txs, transactionFromDoc(doc))
		}
		select {
		case t.ch <- txs:
		case <-t.done:
			return
		}
	}
}

// StreamTransactions subscribes to all transactions, descending by date,
// optionally filtered to one account.
func (s *Service) StreamTransactions(ctx context.Context, accountID string) (*TransactionStream, error) {
	q := store.Query{OrderBy: "date", Desc: true}
	if accountID != "" {
		q.Filters = append(q.Filters, store.Filter{Field: "accountId", Op: store.OpEqual, Value: accountID})
	}
	return s.streamTransactions(ctx, q)
}

// StreamTransactionsByDateRange subscribes to transactions with dates in
// [start, end], descending by date.
func (s *Service) StreamTransactionsByDateRange(ctx context.Context, start, end time.Time) (*TransactionStream, error) {
	return s.streamTransactions(ctx, store.Query{
		Filters: []store.Filter{
			{Field: "date", Op: store.OpGreaterEqual, Value: start},
			{Field: "date", Op: store.OpLessEqual, Value: end},
		},
		OrderBy: "date",
		Desc:    true,
	})
}

func (s *Service) streamTransactions(ctx context.Context, q store.Query) (*TransactionStream, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.Listen(ctx, userCol(uid, colTransactions), q)
	if err != nil {
		return nil, fmt.Errorf("opening transaction stream: %w", err)
	}
	stream := &TransactionStream{
		sub:  sub,
		ch:   make(chan []model.Transaction),
		done: make(chan struct{}),
	}
	go stream.pump()
	return stream, nil
}
