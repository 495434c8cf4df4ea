// Package importer orchestrates statement ingestion: parse the file, then
// commit the whole set or nothing. The parser is lenient per row; the
// importer is strict per file.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/statement"
)

// ErrImportAborted means the file was rejected as a whole: parse errors
// were present or no rows were parsed. Nothing is persisted.
var ErrImportAborted = errors.New("import aborted")

// RowsError rejects a file because of row-level parse failures. It carries
// the complete error list so callers can report every failed row, not just
// the first.
type RowsError struct {
	RowErrors []statement.RowError
}

func (e *RowsError) Error() string {
	msgs := make([]string, len(e.RowErrors))
	for i, re := range e.RowErrors {
		msgs[i] = fmt.Sprintf("row %d: %s", re.Row, re.Message)
	}
	return fmt.Sprintf("import aborted: %d unparsable rows: %s", len(e.RowErrors), strings.Join(msgs, "; "))
}

// Unwrap makes the error match ErrImportAborted.
func (e *RowsError) Unwrap() error { return ErrImportAborted }

// Ledger is the slice of the ledger repository the importer needs.
type Ledger interface {
	AddTransactionsBatch(ctx context.Context, txs []model.Transaction) (int, error)
	ReconcileBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
}

// Importer runs the statement ingestion workflow.
type Importer struct {
	parser *statement.Parser
	ledger Ledger
	log    zerolog.Logger
}

// New creates an Importer.
func New(parser *statement.Parser, ledger Ledger, log zerolog.Logger) *Importer {
	return &Importer{parser: parser, ledger: ledger, log: log}
}

// ImportStatement parses a statement file and appends its transactions to
// the account in one atomic batch, then reconciles the account balance with
// the batch's summed delta. Any parse error rejects the entire file, even
// though the remaining rows parsed cleanly.
//
// The batch commit and the balance reconciliation are separate atomic
// units: if the process dies in between, the persisted transactions and the
// balance diverge until the import is reconciled or repeated against a
// fresh export.
func (im *Importer) ImportStatement(ctx context.Context, path, accountID string) (int, error) {
	res := im.parser.Parse(path, accountID)
	if len(res.Errors) > 0 {
		im.log.Warn().
			Str("file", path).
			Int("rows_failed", len(res.Errors)).
			Msg("statement rejected")
		return 0, &RowsError{RowErrors: res.Errors}
	}
	if len(res.Transactions) == 0 {
		return 0, fmt.Errorf("%w: no transactions in %s", ErrImportAborted, path)
	}

	txs := make([]model.Transaction, len(res.Transactions))
	delta := decimal.Zero
	for i, cand := range res.Transactions {
		txs[i] = model.Transaction{
			AccountID:   accountID,
			Amount:      cand.Amount,
			Description: cand.Description,
			Category:    cand.Category,
			Date:        cand.Date,
			Type:        model.TypeForAmount(cand.Amount),
		}
		delta = delta.Add(cand.Amount)
	}

	count, err := im.ledger.AddTransactionsBatch(ctx, txs)
	if err != nil {
		return 0, fmt.Errorf("committing imported transactions: %w", err)
	}
	if err := im.ledger.ReconcileBalance(ctx, accountID, delta); err != nil {
		return count, fmt.Errorf("reconciling balance after import: %w", err)
	}

	im.log.Info().
		Str("file", path).
		Str("account", accountID).
		Int("count", count).
		Str("delta", delta.StringFixed(2)).
		Msg("statement imported")
	return count, nil
}
