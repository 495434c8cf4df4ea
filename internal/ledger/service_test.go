package ledger

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/saldo-app/saldo/internal/auth"
	"github.com/saldo-app/saldo/internal/logger"
	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/store/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	return New(st, auth.NewStatic("u1"), logger.NewWithWriter(io.Discard))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createAccount(t *testing.T, s *Service, name, balance string) string {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), model.Account{
		Name:    name,
		Type:    model.AccountTypePrimaryBank,
		Balance: dec(balance),
	})
	require.NoError(t, err)
	return id
}

func accountBalance(t *testing.T, s *Service, id string) decimal.Decimal {
	t.Helper()
	a, err := s.Account(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}
