// Package renewal materializes subscription renewals as ledger
// transactions and advances each subscription's schedule.
package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/saldo-app/saldo/internal/model"
)

// ErrConflict means the stored subscription no longer matches the renewal
// being processed: the cycle was already handled elsewhere, or the
// subscription was deactivated in the meantime.
var ErrConflict = errors.New("renewal: conflicting subscription state")

// Ledger is the slice of the ledger repository the processor needs.
type Ledger interface {
	AddTransaction(ctx context.Context, tx model.Transaction) (string, error)
	Subscription(ctx context.Context, id string) (model.Subscription, error)
	UpdateNextRenewalDate(ctx context.Context, id string, next time.Time) error
	DueSubscriptions(ctx context.Context) ([]model.Subscription, error)
}

// Processor turns due subscriptions into expense transactions.
type Processor struct {
	ledger Ledger
	log    zerolog.Logger
}

// New creates a Processor.
func New(ledger Ledger, log zerolog.Logger) *Processor {
	return &Processor{ledger: ledger, log: log}
}

// ProcessRenewal charges one renewal cycle: it creates an expense
// transaction of −sub.Amount tagged with the subscription id through the
// normal atomic path, then advances NextRenewalDate by exactly one
// frequency interval from its current value (not from now).
//
// A compare-and-advance guard protects against double charging: the stored
// subscription is re-read first, and processing refuses when its
// NextRenewalDate differs from the caller's copy or it is no longer active.
func (p *Processor) ProcessRenewal(ctx context.Context, sub model.Subscription) error {
	current, err := p.ledger.Subscription(ctx, sub.ID)
	if err != nil {
		return err
	}
	if !current.IsActive {
		return fmt.Errorf("%w: subscription %s is deactivated", ErrConflict, sub.ID)
	}
	if !current.NextRenewalDate.Equal(sub.NextRenewalDate) {
		return fmt.Errorf("%w: subscription %s renewal date moved to %s", ErrConflict,
			sub.ID, current.NextRenewalDate.Format("2006-01-02"))
	}

	txID, err := p.ledger.AddTransaction(ctx, model.Transaction{
		AccountID:      sub.AccountID,
		Amount:         sub.Amount.Neg(),
		Description:    "Rinnovo " + sub.Name,
		Category:       sub.Category,
		Date:           sub.NextRenewalDate,
		Type:           model.TypeExpense,
		IsRecurring:    true,
		SubscriptionID: sub.ID,
	})
	if err != nil {
		return fmt.Errorf("charging renewal of subscription %s: %w", sub.ID, err)
	}

	next := sub.Frequency.NextAfter(sub.NextRenewalDate)
	if err := p.ledger.UpdateNextRenewalDate(ctx, sub.ID, next); err != nil {
		// The charge is committed; the schedule was not advanced. A retry
		// would double-charge, so surface the partial state to the caller.
		return fmt.Errorf("renewal of subscription %s charged (transaction %s) but schedule not advanced: %w",
			sub.ID, txID, err)
	}

	p.log.Info().
		Str("subscription", sub.ID).
		Str("transaction", txID).
		Str("next_renewal", next.Format("2006-01-02")).
		Msg("subscription renewed")
	return nil
}

// ProcessDue charges every subscription whose renewal date has passed and
// returns how many renewals succeeded, joined with any per-subscription
// failures. Conflicts are skipped, not treated as failures: another run
// already handled those cycles.
func (p *Processor) ProcessDue(ctx context.Context) (int, error) {
	due, err := p.ledger.DueSubscriptions(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	var errs []error
	for _, sub := range due {
		err := p.ProcessRenewal(ctx, sub)
		switch {
		case errors.Is(err, ErrConflict):
			p.log.Debug().Str("subscription", sub.ID).Msg("renewal already handled, skipping")
		case err != nil:
			errs = append(errs, err)
		default:
			processed++
		}
	}
	return processed, errors.Join(errs...)
}
