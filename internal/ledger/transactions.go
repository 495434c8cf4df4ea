package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/store"
)

// AddTransaction persists a transaction, then applies its amount to the
// owning account's balance as a single atomic unit. If the balance
// adjustment fails the transaction document is already committed; the id is
// returned alongside the error so callers can reconcile.
func (s *Service) AddTransaction(ctx context.Context, tx model.Transaction) (string, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return "", err
	}
	if tx.Type == "" {
		tx.Type = model.TypeForAmount(tx.Amount)
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	tx.CreatedAt = s.now()
	if tx.Date.IsZero() {
		tx.Date = tx.CreatedAt
	}

	id, err := s.store.Create(ctx, userCol(uid, colTransactions), transactionData(tx))
	if err != nil {
		return "", fmt.Errorf("saving transaction: %w", err)
	}
	if err := s.adjustBalance(ctx, uid, tx.AccountID, tx.Amount); err != nil {
		return id, err
	}
	s.log.Info().
		Str("transaction", id).
		Str("account", tx.AccountID).
		Str("amount", tx.Amount.StringFixed(2)).
		Msg("transaction added")
	return id, nil
}

// DeleteTransaction removes a transaction and applies the inverse balance
// adjustment on its account.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	col := userCol(uid, colTransactions)

	doc, err := s.store.Get(ctx, col, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("getting transaction %s: %w", id, err)
	}
	tx := transactionFromDoc(doc)

	if err := s.store.Delete(ctx, col, id); err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	if err := s.adjustBalance(ctx, uid, tx.AccountID, tx.Amount.Neg()); err != nil {
		return err
	}
	s.log.Info().Str("transaction", id).Str("account", tx.AccountID).Msg("transaction deleted")
	return nil
}

// AddTransactionsBatch writes all transactions in one atomic commit and
// returns how many were written. Account balances are NOT touched; callers
// reconcile afterwards via ReconcileBalance. Used by the import workflow.
func (s *Service) AddTransactionsBatch(ctx context.Context, txs []model.Transaction) (int, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	docs := make([]map[string]any, len(txs))
	for i, tx := range txs {
		if tx.Type == "" {
			tx.Type = model.TypeForAmount(tx.Amount)
		}
		if err := tx.Validate(); err != nil {
			return 0, fmt.Errorf("%w: transaction %d: %v", ErrValidation, i+1, err)
		}
		tx.CreatedAt = now
		docs[i] = transactionData(tx)
	}

	ids, err := s.store.BatchCreate(ctx, userCol(uid, colTransactions), docs)
	if err != nil {
		return 0, fmt.Errorf("batch saving transactions: %w", err)
	}
	s.log.Info().Int("count", len(ids)).Msg("transaction batch committed")
	return len(ids), nil
}

// ReconcileBalance applies an incremental delta to an account balance using
// the same atomic primitive as AddTransaction. The import workflow calls it
// with the summed amount of a freshly committed batch.
func (s *Service) ReconcileBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	return s.adjustBalance(ctx, uid, accountID, delta)
}

// Transactions returns a one-shot list, newest first. An empty accountID
// means all accounts.
func (s *Service) Transactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	q := store.Query{OrderBy: "date", Desc: true}
	if accountID != "" {
		q.Filters = append(q.Filters, store.Filter{Field: "accountId", Op: store.OpEqual, Value: accountID})
	}
	docs, err := s.store.Query(ctx, userCol(uid, colTransactions), q)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	txs := make([]model.Transaction, 0, len(docs))
	for _, doc := range docs {
		txs = append(txs, transactionFromDoc(doc))
	}
	return txs, nil
}

func transactionData(tx model.Transaction) map[string]any {
	return map[string]any{
		"accountId":      tx.AccountID,
		"amount":         tx.Amount.StringFixed(2),
		"description":    tx.Description,
		"category":       tx.Category,
		"notes":          tx.Notes,
		"date":           tx.Date,
		"createdAt":      tx.CreatedAt,
		"type":           string(tx.Type),
		"isRecurring":    tx.IsRecurring,
		"subscriptionId": tx.SubscriptionID,
	}
}

func transactionFromDoc(d store.Doc) model.Transaction {
	return model.Transaction{
		ID:             d.ID,
		AccountID:      docString(d, "accountId"),
		Amount:         docDecimal(d, "amount"),
		Description:    docString(d, "description"),
		Category:       docString(d, "category"),
		Notes:          docString(d, "notes"),
		Date:           docTime(d, "date"),
		CreatedAt:      docTime(d, "createdAt"),
		Type:           model.TransactionType(docString(d, "type")),
		IsRecurring:    docBool(d, "isRecurring"),
		SubscriptionID: docString(d, "subscriptionId"),
	}
}
