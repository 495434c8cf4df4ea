package renewal

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-app/saldo/internal/auth"
	"github.com/saldo-app/saldo/internal/ledger"
	"github.com/saldo-app/saldo/internal/logger"
	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/store/memory"
)

func newLedger(t *testing.T) *ledger.Service {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	return ledger.New(st, auth.NewStatic("u1"), logger.NewWithWriter(io.Discard))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProcessRenewal(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank, Balance: dec("100"),
	})
	require.NoError(t, err)
	subID, err := svc.CreateSubscription(ctx, model.Subscription{
		AccountID: acc,
		Name:      "Netflix",
		Amount:    dec("12.99"),
		Frequency: model.FrequencyMonthly,
		StartDate: date(2025, 1, 15),
	})
	require.NoError(t, err)

	sub, err := svc.Subscription(ctx, subID)
	require.NoError(t, err)

	p := New(svc, logger.NewWithWriter(io.Discard))
	require.NoError(t, p.ProcessRenewal(ctx, sub))

	// Exactly one charge, tagged with its subscription.
	txs, err := svc.Transactions(ctx, acc)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(dec("-12.99")))
	assert.Equal(t, "Rinnovo Netflix", txs[0].Description)
	assert.Equal(t, model.TypeExpense, txs[0].Type)
	assert.True(t, txs[0].IsRecurring)
	assert.Equal(t, subID, txs[0].SubscriptionID)
	assert.Equal(t, date(2025, 1, 15), txs[0].Date)

	account, err := svc.Account(ctx, acc)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("87.01")))

	// The schedule advanced one interval from the renewal date.
	renewed, err := svc.Subscription(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 15), renewed.NextRenewalDate)
}

func TestProcessRenewal_StaleCopyConflicts(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank,
	})
	require.NoError(t, err)
	subID, err := svc.CreateSubscription(ctx, model.Subscription{
		AccountID: acc, Name: "Spotify", Amount: dec("9.99"),
		Frequency: model.FrequencyMonthly, StartDate: date(2025, 1, 1),
	})
	require.NoError(t, err)

	stale, err := svc.Subscription(ctx, subID)
	require.NoError(t, err)

	p := New(svc, logger.NewWithWriter(io.Discard))
	require.NoError(t, p.ProcessRenewal(ctx, stale))

	// Replaying the same cycle must refuse, not double-charge.
	assert.ErrorIs(t, p.ProcessRenewal(ctx, stale), ErrConflict)
	txs, err := svc.Transactions(ctx, acc)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestProcessRenewal_DeactivatedConflicts(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank,
	})
	require.NoError(t, err)
	subID, err := svc.CreateSubscription(ctx, model.Subscription{
		AccountID: acc, Name: "DAZN", Amount: dec("29.99"),
		Frequency: model.FrequencyMonthly, StartDate: date(2025, 1, 1),
	})
	require.NoError(t, err)

	sub, err := svc.Subscription(ctx, subID)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateSubscription(ctx, subID))

	p := New(svc, logger.NewWithWriter(io.Discard))
	assert.ErrorIs(t, p.ProcessRenewal(ctx, sub), ErrConflict)
}

func TestProcessDue(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank, Balance: dec("500"),
	})
	require.NoError(t, err)

	overdue := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -5)
	start := overdue.AddDate(0, -1, 0)

	for _, name := range []string{"Netflix", "Spotify"} {
		_, err := svc.CreateSubscription(ctx, model.Subscription{
			AccountID: acc, Name: name, Amount: dec("10"),
			Frequency: model.FrequencyMonthly,
			StartDate: start, NextRenewalDate: overdue,
		})
		require.NoError(t, err)
	}
	// Not yet due.
	_, err = svc.CreateSubscription(ctx, model.Subscription{
		AccountID: acc, Name: "Prime", Amount: dec("4.99"),
		Frequency: model.FrequencyAnnual,
		StartDate: start, NextRenewalDate: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	p := New(svc, logger.NewWithWriter(io.Discard))
	processed, err := p.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	txs, err := svc.Transactions(ctx, acc)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	// The advanced schedules are a month out, so a second run is a no-op.
	processed, err = p.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)
}
