package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saldo-app/saldo/internal/store"
)

// TotalByCategory sums transaction amounts per category over [start, end].
func (s *Service) TotalByCategory(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, userCol(uid, colTransactions), store.Query{
		Filters: []store.Filter{
			{Field: "date", Op: store.OpGreaterEqual, Value: start},
			{Field: "date", Op: store.OpLessEqual, Value: end},
		},
		OrderBy: "date",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("querying transactions by date range: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, doc := range docs {
		tx := transactionFromDoc(doc)
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	return totals, nil
}

// TotalMonthlyCost is the monthly-equivalent cost of all active
// subscriptions: Σ amount × frequency factor.
func (s *Service) TotalMonthlyCost(ctx context.Context) (decimal.Decimal, error) {
	subs, err := s.Subscriptions(ctx, true)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sub := range subs {
		total = total.Add(sub.Amount.Mul(sub.Frequency.MonthlyFactor()))
	}
	return total, nil
}
