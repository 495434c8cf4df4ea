package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType labels the direction of a transaction.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// TypeForAmount derives the transaction type from the amount sign.
func TypeForAmount(amount decimal.Decimal) TransactionType {
	if amount.IsPositive() {
		return TypeIncome
	}
	return TypeExpense
}

// Transaction is one ledger movement against an account.
// Positive amounts are income, negative amounts are expenses.
// Transactions are immutable after creation; removing one applies the
// inverse balance adjustment on its account.
type Transaction struct {
	ID             string
	AccountID      string
	Amount         decimal.Decimal
	Description    string
	Category       string
	Notes          string
	Date           time.Time // event time, distinct from CreatedAt
	CreatedAt      time.Time
	Type           TransactionType
	IsRecurring    bool
	SubscriptionID string // back-reference when generated by a renewal
}

// Validate checks fields settable at creation time. The amount sign must
// agree with the type for income/expense transactions.
func (t Transaction) Validate() error {
	if t.AccountID == "" {
		return fmt.Errorf("transaction account id is required")
	}
	switch t.Type {
	case TypeIncome:
		if !t.Amount.IsPositive() {
			return fmt.Errorf("income transaction has non-positive amount %s", t.Amount)
		}
	case TypeExpense:
		if !t.Amount.IsNegative() {
			return fmt.Errorf("expense transaction has non-negative amount %s", t.Amount)
		}
	case TypeTransfer, "":
	default:
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	return nil
}
