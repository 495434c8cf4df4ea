package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/saldo-app/saldo/internal/auth"
	"github.com/saldo-app/saldo/internal/ledger"
	"github.com/saldo-app/saldo/internal/logger"
	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/statement"
	"github.com/saldo-app/saldo/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newWorkflow(t *testing.T) (*Importer, *ledger.Service) {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	log := logger.NewWithWriter(io.Discard)
	svc := ledger.New(st, auth.NewStatic("u1"), log)
	return New(statement.NewParser(), svc, log), svc
}

func writeStatement(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := []any{"Data operazione", "Data contabile", "IBAN", "Tipologia", "Beneficiario", "Descrizione", "Importo"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i := range rows {
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &rows[i]))
	}

	path := filepath.Join(t.TempDir(), "statement.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func row(date, payee, amount string) []any {
	return []any{date, date, "", "Pagamento POS", payee, "", amount}
}

func TestImportStatement(t *testing.T) {
	im, svc := newWorkflow(t)
	ctx := context.Background()
	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank, Balance: dec("100"),
	})
	require.NoError(t, err)

	path := writeStatement(t, [][]any{
		row("15/01/2025", "ESSELUNGA SPA", "-42,50"),
		row("16/01/2025", "ACME SRL", "1.850,00"),
		row("17/01/2025", "NETFLIX.COM", "-12,99"),
	})

	count, err := im.ImportStatement(ctx, path, acc)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	txs, err := svc.Transactions(ctx, acc)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, model.TypeIncome, txs[1].Type)

	// Balance moved by the batch's summed delta.
	account, err := svc.Account(ctx, acc)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("1894.51")), "got %s", account.Balance)
}

func TestImportStatement_RejectsWholeFileOnRowError(t *testing.T) {
	im, svc := newWorkflow(t)
	ctx := context.Background()
	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank, Balance: dec("100"),
	})
	require.NoError(t, err)

	rows := make([][]any, 10)
	for i := range rows {
		rows[i] = row("15/01/2025", "Negozio", "-10,00")
	}
	rows[4] = row("15/01/2025", "Negozio", "abc")

	_, err = im.ImportStatement(ctx, writeStatement(t, rows), acc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImportAborted)

	var rowsErr *RowsError
	require.ErrorAs(t, err, &rowsErr)
	require.Len(t, rowsErr.RowErrors, 1)
	assert.Equal(t, 6, rowsErr.RowErrors[0].Row)

	// Nothing persisted, even though nine rows parsed cleanly.
	txs, err := svc.Transactions(ctx, acc)
	require.NoError(t, err)
	assert.Empty(t, txs)
	account, err := svc.Account(ctx, acc)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("100")))
}

func TestImportStatement_EmptyFileAborts(t *testing.T) {
	im, svc := newWorkflow(t)
	ctx := context.Background()
	acc, err := svc.CreateAccount(ctx, model.Account{
		Name: "Conto", Type: model.AccountTypePrimaryBank,
	})
	require.NoError(t, err)

	_, err = im.ImportStatement(ctx, writeStatement(t, nil), acc)
	assert.ErrorIs(t, err, ErrImportAborted)
}

func TestImportStatement_UnsupportedFileAborts(t *testing.T) {
	im, _ := newWorkflow(t)

	_, err := im.ImportStatement(context.Background(), filepath.Join(t.TempDir(), "statement.csv"), "acc")
	assert.ErrorIs(t, err, ErrImportAborted)

	var rowsErr *RowsError
	require.ErrorAs(t, err, &rowsErr)
	require.Len(t, rowsErr.RowErrors, 1)
	assert.Zero(t, rowsErr.RowErrors[0].Row)
}

func TestImportStatement_ReconcileFailureReportsCount(t *testing.T) {
	im, _ := newWorkflow(t)

	path := writeStatement(t, [][]any{row("15/01/2025", "Negozio", "-10,00")})

	// The batch commits against the ghost account id; reconciliation then
	// fails because no such account exists.
	count, err := im.ImportStatement(context.Background(), path, "ghost")
	assert.Equal(t, 1, count)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}
