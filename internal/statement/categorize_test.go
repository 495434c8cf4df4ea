package statement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/saldo-app/saldo/internal/model"
)

func TestCategorize_Expenses(t *testing.T) {
	tests := []struct {
		name  string
		label string
		payee string
		desc  string
		want  string
	}{
		{"streaming", "Pagamento POS", "NETFLIX.COM", "abbonamento mensile", model.CategoryAbbonamenti},
		{"groceries", "Pagamento POS", "ESSELUNGA SPA", "spesa settimanale", model.CategorySpesa},
		{"dining", "Pagamento POS", "Pizzeria Da Mario", "", model.CategoryRistorazione},
		{"fuel", "Pagamento POS", "Q8 STAZIONE 042", "", model.CategoryCarburante},
		{"transport", "Pagamento POS", "TRENITALIA", "biglietto", model.CategoryTrasporti},
		{"utilities", "Addebito SDD", "ENEL ENERGIA", "bolletta luce", model.CategoryUtenze},
		{"shopping", "Pagamento POS", "AMAZON MKTPLACE", "", model.CategoryShopping},
		{"online payment", "Pagamento", "PAYPAL *STEAM", "", model.CategoryPagamentiOnline},
		{"withdrawal keyword", "Prelievo", "PRELIEVO ATM 1234", "", model.CategoryPrelievi},
		{"label fallback withdrawal", "Prelievo contante", "Sportello 99", "", model.CategoryPrelievi},
		{"label fallback direct debit", "Addebito diretto SDD", "Condominio Rossi", "", model.CategoryUtenze},
		{"label fallback pos", "Pagamento POS", "Negozio Sconosciuto", "", model.CategoryShopping},
		{"generic expense", "Operazione", "Sconosciuto", "", model.CategoryAltro},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(decimal.NewFromInt(-10), tt.label, tt.payee, tt.desc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorize_Income(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"salary", "Accredito stipendio", model.CategoryStipendio},
		{"transfer", "Bonifico in entrata", model.CategoryBonifico},
		{"refund", "Rimborso", model.CategoryAccredito},
		{"generic", "Versamento", model.CategoryEntrata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(decimal.NewFromInt(100), tt.label, "ACME SRL", "")
			assert.Equal(t, tt.want, got)
		})
	}
}

// Identical inputs must yield the identical category regardless of prior
// calls or invocation order.
func TestCategorize_Pure(t *testing.T) {
	first := Categorize(decimal.NewFromInt(-5), "Pagamento POS", "SPOTIFY", "premium")
	Categorize(decimal.NewFromInt(-5), "Pagamento POS", "ESSELUNGA", "")
	Categorize(decimal.NewFromInt(200), "Bonifico", "", "")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Categorize(decimal.NewFromInt(-5), "Pagamento POS", "SPOTIFY", "premium"))
	}
}
