package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

func createTestAccount(t *testing.T, policy OverdraftPolicy) *CashAccount {
	a, err := NewCashAccount(uuid.New(), "Main Operating Account", AccountTypeBank, valueobject.USD, policy)
	require.NoError(t, err)
	return a
}

func TestNewCashAccount(t *testing.T) {
	t.Run("creates account with zero balance", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		assert.True(t, a.Balance.IsZero())
		assert.Equal(t, AccountTypeBank, a.AccountType)
		assert.Equal(t, valueobject.USD, a.Currency)
	})

	t.Run("defaults currency and overdraft policy", func(t *testing.T) {
		a, err := NewCashAccount(uuid.New(), "Petty Cash", AccountTypeCash, "", "")
		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultCurrency, a.Currency)
		assert.Equal(t, OverdraftPolicyDeny, a.OverdraftPolicy)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCashAccount(uuid.New(), "", AccountTypeCash, valueobject.USD, OverdraftPolicyDeny)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects invalid account type", func(t *testing.T) {
		_, err := NewCashAccount(uuid.New(), "X", AccountType("CRYPTO"), valueobject.USD, OverdraftPolicyDeny)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})
}

func TestCashAccount_CreditDebit(t *testing.T) {
	t.Run("credit increases balance", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		require.NoError(t, a.Credit(valueobject.NewMoneyUSDFromFloat(500)))
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("debit decreases balance", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		require.NoError(t, a.Credit(valueobject.NewMoneyUSDFromFloat(500)))
		require.NoError(t, a.Debit(valueobject.NewMoneyUSDFromFloat(200)))
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(300)))
	})

	t.Run("no-overdraft account rejects debit below zero", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		require.NoError(t, a.Credit(valueobject.NewMoneyUSDFromFloat(100)))

		err := a.Debit(valueobject.NewMoneyUSDFromFloat(150))
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientFunds))
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("allow-overdraft account accepts negative balance", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyAllow)
		require.NoError(t, a.Debit(valueobject.NewMoneyUSDFromFloat(150)))
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(-150)))
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		amount, _ := valueobject.NewMoneyFromFloat(10, valueobject.EUR)
		assert.True(t, shared.IsCode(a.Credit(amount), shared.CodeCurrencyMismatch))
		assert.True(t, shared.IsCode(a.Debit(amount), shared.CodeCurrencyMismatch))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		assert.True(t, shared.IsCode(a.Credit(valueobject.ZeroUSD()), shared.CodeInvalidAmount))
		assert.True(t, shared.IsCode(a.Debit(valueobject.NewMoneyUSDFromFloat(-5)), shared.CodeInvalidAmount))
	})
}

func TestCashAccount_SetOverdraftPolicy(t *testing.T) {
	t.Run("switches policy", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyDeny)
		require.NoError(t, a.SetOverdraftPolicy(OverdraftPolicyAllow))
		assert.Equal(t, OverdraftPolicyAllow, a.OverdraftPolicy)
	})

	t.Run("cannot deny overdraft while negative", func(t *testing.T) {
		a := createTestAccount(t, OverdraftPolicyAllow)
		require.NoError(t, a.Debit(valueobject.NewMoneyUSDFromFloat(10)))

		err := a.SetOverdraftPolicy(OverdraftPolicyDeny)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})
}

func TestCashAccount_Rename(t *testing.T) {
	a := createTestAccount(t, OverdraftPolicyDeny)
	require.NoError(t, a.Rename("Payroll Account"))
	assert.Equal(t, "Payroll Account", a.AccountName)

	assert.Error(t, a.Rename(""))
}
