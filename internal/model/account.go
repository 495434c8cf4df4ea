package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypePrimaryBank AccountType = "primary-bank"
	AccountTypeCardWallet  AccountType = "card-wallet"
	AccountTypeOther       AccountType = "other"
)

// DefaultCurrency is assigned to accounts created without an explicit currency.
const DefaultCurrency = "EUR"

// Account is a money container with an authoritative running balance.
// Balance is mutated only through the ledger service's atomic adjustment;
// it always equals the initial balance plus the sum of all committed
// transaction amounts, including reversals.
type Account struct {
	ID          string
	Name        string
	Type        AccountType
	Balance     decimal.Decimal
	Currency    string
	IBAN        string // optional, mod-97 validated when present
	CreatedAt   time.Time
	LastUpdated time.Time
}

// Validate checks fields settable at creation time.
func (a Account) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	switch a.Type {
	case AccountTypePrimaryBank, AccountTypeCardWallet, AccountTypeOther:
	default:
		return fmt.Errorf("unknown account type %q", a.Type)
	}
	if a.IBAN != "" {
		if err := ValidateIBAN(a.IBAN); err != nil {
			return err
		}
	}
	return nil
}

// AccountPatch holds the fields an account update may change.
// Nil fields are left untouched (partial merge).
type AccountPatch struct {
	Name *string
	Type *AccountType
	IBAN *string
}
