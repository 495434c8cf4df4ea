package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is a subscription renewal interval.
type Frequency string

const (
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiannual Frequency = "SEMIANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

// ParseFrequency converts a stored string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// Months returns the interval length in months.
func (f Frequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencySemiannual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 1
	}
}

// MonthlyFactor converts one periodic charge into its monthly equivalent:
// MONTHLY 1, QUARTERLY 1/3, SEMIANNUAL 1/6, ANNUAL 1/12.
func (f Frequency) MonthlyFactor() decimal.Decimal {
	return decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(f.Months())))
}

// NextAfter returns t advanced by exactly one frequency interval.
func (f Frequency) NextAfter(t time.Time) time.Time {
	return t.AddDate(0, f.Months(), 0)
}

// Subscription is a recurring charge against an account. Deactivation is a
// soft toggle that preserves the record and its transaction history; hard
// deletion is a separate, explicit operation.
type Subscription struct {
	ID              string
	AccountID       string
	Name            string
	Description     string
	Amount          decimal.Decimal // magnitude of each renewal charge, always positive
	Frequency       Frequency
	Category        string
	StartDate       time.Time
	NextRenewalDate time.Time // never before StartDate, advances only forward
	EndDate         time.Time // zero unless deactivated
	IsActive        bool
	Notes           string
	CreatedAt       time.Time
	LastUpdated     time.Time
}

// Validate checks fields settable at creation time.
func (s Subscription) Validate() error {
	if s.AccountID == "" {
		return fmt.Errorf("subscription account id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("subscription name is required")
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("subscription amount must be positive, got %s", s.Amount)
	}
	if _, err := ParseFrequency(string(s.Frequency)); err != nil {
		return err
	}
	if s.NextRenewalDate.Before(s.StartDate) {
		return fmt.Errorf("next renewal date %s is before start date %s",
			s.NextRenewalDate.Format("2006-01-02"), s.StartDate.Format("2006-01-02"))
	}
	return nil
}

// SubscriptionPatch holds the fields a subscription update may change.
// Nil fields are left untouched (partial merge).
type SubscriptionPatch struct {
	Name        *string
	Description *string
	Amount      *decimal.Decimal
	Frequency   *Frequency
	Category    *string
	Notes       *string
}
