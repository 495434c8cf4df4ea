// Package ledger owns persistence of accounts, transactions and
// subscriptions in a user-scoped document store. Balance-adjusting writes go
// through the store's atomic read-modify-write primitive so concurrent
// writers never lose an update.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/saldo-app/saldo/internal/auth"
	"github.com/saldo-app/saldo/internal/store"
)

// Sentinel errors returned by ledger operations. Store failures are wrapped
// with context but never reinterpreted.
var (
	ErrAuthRequired = errors.New("ledger: authentication required")
	ErrNotFound     = errors.New("ledger: not found")
	ErrValidation   = errors.New("ledger: validation failed")
)

const (
	colAccounts      = "accounts"
	colTransactions  = "transactions"
	colSubscriptions = "subscriptions"
)

// Service is the ledger repository. Construct one at startup and inject it
// into consuming components; it holds no global state.
type Service struct {
	store store.Store
	auth  auth.Provider
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a ledger Service on top of a document store and an identity
// provider.
func New(st store.Store, provider auth.Provider, log zerolog.Logger) *Service {
	return &Service{store: st, auth: provider, log: log, now: time.Now}
}

// userID resolves the session identity. Every operation calls this before
// touching the store.
func (s *Service) userID(ctx context.Context) (string, error) {
	uid, err := s.auth.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return uid, nil
}

func userCol(uid, name string) string {
	return "users/" + uid + "/" + name
}

// adjustBalance applies delta to an account's running balance as a single
// atomic unit. Conflict retry is the store's responsibility.
func (s *Service) adjustBalance(ctx context.Context, uid, accountID string, delta decimal.Decimal) error {
	col := userCol(uid, colAccounts)
	err := s.store.RunTransaction(ctx, func(t store.Tx) error {
		doc, err := t.Get(col, accountID)
		if err != nil {
			return err
		}
		balance := docDecimal(doc, "balance")
		return t.Merge(col, accountID, map[string]any{
			"balance":     balance.Add(delta).StringFixed(2),
			"lastUpdated": s.now(),
		})
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
	}
	if err != nil {
		return fmt.Errorf("adjusting balance of account %s: %w", accountID, err)
	}
	return nil
}

// Document field accessors. Documents written by older app versions may
// miss fields; absent or mistyped fields read as zero values.

func docString(d store.Doc, key string) string {
	v, _ := d.Data[key].(string)
	return v
}

func docBool(d store.Doc, key string) bool {
	v, _ := d.Data[key].(bool)
	return v
}

func docTime(d store.Doc, key string) time.Time {
	v, _ := d.Data[key].(time.Time)
	return v
}

func docDecimal(d store.Doc, key string) decimal.Decimal {
	s, ok := d.Data[key].(string)
	if !ok {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
