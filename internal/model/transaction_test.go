package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForAmount(t *testing.T) {
	assert.Equal(t, TypeIncome, TypeForAmount(dec("0.01")))
	assert.Equal(t, TypeExpense, TypeForAmount(dec("-0.01")))
	assert.Equal(t, TypeExpense, TypeForAmount(dec("0")))
}

func TestTransaction_Validate(t *testing.T) {
	assert.NoError(t, Transaction{AccountID: "a1", Amount: dec("10"), Type: TypeIncome}.Validate())
	assert.NoError(t, Transaction{AccountID: "a1", Amount: dec("-10"), Type: TypeExpense}.Validate())
	assert.NoError(t, Transaction{AccountID: "a1", Amount: dec("10"), Type: TypeTransfer}.Validate())
	assert.NoError(t, Transaction{AccountID: "a1", Amount: dec("-10")}.Validate())

	assert.Error(t, Transaction{Amount: dec("10"), Type: TypeIncome}.Validate())
	assert.Error(t, Transaction{AccountID: "a1", Amount: dec("-10"), Type: TypeIncome}.Validate())
	assert.Error(t, Transaction{AccountID: "a1", Amount: dec("10"), Type: TypeExpense}.Validate())
	assert.Error(t, Transaction{AccountID: "a1", Amount: dec("10"), Type: "refund"}.Validate())
}

func TestAccount_Validate(t *testing.T) {
	assert.NoError(t, Account{Name: "Conto", Type: AccountTypePrimaryBank}.Validate())
	assert.NoError(t, Account{Name: "Carta", Type: AccountTypeCardWallet, IBAN: "IT60X0542811101000000123456"}.Validate())

	assert.Error(t, Account{Type: AccountTypePrimaryBank}.Validate())
	assert.Error(t, Account{Name: "Conto", Type: "savings"}.Validate())
	assert.Error(t, Account{Name: "Conto", Type: AccountTypeOther, IBAN: "IT60X0542811101000000123457"}.Validate())
}
