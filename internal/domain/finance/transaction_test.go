package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

func createTestTransaction(t *testing.T, txType TransactionType, amount float64) *Transaction {
	tx, err := NewTransaction(
		uuid.New(),
		uuid.New(),
		txType,
		CategorySales,
		valueobject.NewMoneyUSDFromFloat(amount),
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		"test transaction",
	)
	require.NoError(t, err)
	return tx
}

func TestNewTransaction(t *testing.T) {
	t.Run("creates a posted transaction", func(t *testing.T) {
		tx := createTestTransaction(t, TransactionTypeIncome, 250)
		assert.Equal(t, TransactionStatusPosted, tx.Status)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, valueobject.USD, tx.Currency)
		assert.Len(t, tx.GetDomainEvents(), 1)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewTransaction(uuid.New(), uuid.New(), TransactionTypeIncome, CategorySales,
			valueobject.ZeroUSD(), time.Now(), "")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})

	t.Run("rejects invalid type and category", func(t *testing.T) {
		_, err := NewTransaction(uuid.New(), uuid.New(), TransactionType("TRANSFER"), CategorySales,
			valueobject.NewMoneyUSDFromFloat(10), time.Now(), "")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

		_, err = NewTransaction(uuid.New(), uuid.New(), TransactionTypeIncome, TransactionCategory("BONUS"),
			valueobject.NewMoneyUSDFromFloat(10), time.Now(), "")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects empty cash account", func(t *testing.T) {
		_, err := NewTransaction(uuid.New(), uuid.Nil, TransactionTypeIncome, CategorySales,
			valueobject.NewMoneyUSDFromFloat(10), time.Now(), "")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})
}

func TestTransaction_SignedAmount(t *testing.T) {
	income := createTestTransaction(t, TransactionTypeIncome, 100)
	expense := createTestTransaction(t, TransactionTypeExpense, 100)

	assert.True(t, income.SignedAmount().Equal(decimal.NewFromInt(100)))
	assert.True(t, expense.SignedAmount().Equal(decimal.NewFromInt(-100)))
}

func TestTransaction_Period(t *testing.T) {
	tx := createTestTransaction(t, TransactionTypeIncome, 100)
	year, month := tx.Period()
	assert.Equal(t, 2026, year)
	assert.Equal(t, 3, month)
}

func TestTransaction_Void(t *testing.T) {
	t.Run("voids a posted transaction", func(t *testing.T) {
		tx := createTestTransaction(t, TransactionTypeIncome, 100)
		require.NoError(t, tx.Void("recorded twice"))

		assert.True(t, tx.IsVoided())
		assert.Equal(t, "recorded twice", tx.VoidReason)
		assert.NotNil(t, tx.VoidedAt)
	})

	t.Run("rejects double void", func(t *testing.T) {
		tx := createTestTransaction(t, TransactionTypeIncome, 100)
		require.NoError(t, tx.Void("first"))
		err := tx.Void("second")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})

	t.Run("requires a reason", func(t *testing.T) {
		tx := createTestTransaction(t, TransactionTypeIncome, 100)
		err := tx.Void("")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})
}

func TestTransaction_Links(t *testing.T) {
	tx := createTestTransaction(t, TransactionTypeExpense, 100)
	counterpartyID := uuid.New()
	paymentID := uuid.New()

	tx.SetCounterparty(counterpartyID)
	tx.SetDebtPayment(paymentID)

	require.NotNil(t, tx.CounterpartyID)
	assert.Equal(t, counterpartyID, *tx.CounterpartyID)
	require.NotNil(t, tx.DebtPaymentID)
	assert.Equal(t, paymentID, *tx.DebtPaymentID)
}
