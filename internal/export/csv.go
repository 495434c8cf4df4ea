// Package export renders ledger data as CSV for use outside the app.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/saldo-app/saldo/internal/model"
)

// Header is the CSV header for transaction exports.
const Header = "id,date,account_id,amount,category,description,type,recurring,subscription_id,notes"

const dateFormat = "2006-01-02"

// WriteTransactions writes transactions as CSV (including header) in the
// order given. Output is deterministic for a given input.
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(marshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func marshalTransaction(tx model.Transaction) []string {
	return []string{
		tx.ID,
		tx.Date.Format(dateFormat),
		tx.AccountID,
		tx.Amount.StringFixed(2),
		tx.Category,
		tx.Description,
		string(tx.Type),
		strconv.FormatBool(tx.IsRecurring),
		tx.SubscriptionID,
		tx.Notes,
	}
}
