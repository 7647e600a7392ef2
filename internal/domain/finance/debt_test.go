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

// Test helpers
func createTestDebt(t *testing.T) *Debt {
	d, err := NewDebt(
		uuid.New(),
		uuid.New(),
		DebtTypePayable,
		valueobject.NewMoneyUSDFromFloat(1000.00),
		nil,
	)
	require.NoError(t, err)
	return d
}

func createTestDebtWithDueDate(t *testing.T, daysFromNow int) *Debt {
	d := createTestDebt(t)
	dueDate := time.Now().AddDate(0, 0, daysFromNow)
	d.DueDate = &dueDate
	return d
}

func applyTestPayment(t *testing.T, d *Debt, amount float64) *DebtPayment {
	p, err := d.ApplyPayment(valueobject.NewMoneyUSDFromFloat(amount), time.Now(), PaymentMethodBankTransfer, "", nil)
	require.NoError(t, err)
	return p
}

// ============================================
// DebtStatus Tests
// ============================================

func TestDebtStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  DebtStatus
		isValid bool
	}{
		{DebtStatusPending, true},
		{DebtStatusPartiallyPaid, true},
		{DebtStatusPaid, true},
		{DebtStatusOverdue, true},
		{DebtStatusCancelled, true},
		{DebtStatus("INVALID"), false},
		{DebtStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestDebtStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status     DebtStatus
		isTerminal bool
	}{
		{DebtStatusPending, false},
		{DebtStatusPartiallyPaid, false},
		{DebtStatusOverdue, false},
		{DebtStatusPaid, true},
		{DebtStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

func TestDebtStatus_CanApplyPayment(t *testing.T) {
	tests := []struct {
		status   DebtStatus
		canApply bool
	}{
		{DebtStatusPending, true},
		{DebtStatusPartiallyPaid, true},
		{DebtStatusOverdue, true},
		{DebtStatusPaid, false},
		{DebtStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.canApply, tt.status.CanApplyPayment())
		})
	}
}

// ============================================
// NewDebt Tests
// ============================================

func TestNewDebt(t *testing.T) {
	t.Run("creates a pending debt with full remaining amount", func(t *testing.T) {
		d := createTestDebt(t)

		assert.Equal(t, DebtStatusPending, d.Status)
		assert.True(t, d.TotalAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, d.PaidAmount.IsZero())
		assert.True(t, d.RemainingAmount.Equal(d.TotalAmount))
		assert.Equal(t, valueobject.USD, d.Currency)
		assert.Equal(t, 1, d.GetVersion())
		assert.Len(t, d.GetDomainEvents(), 1)
	})

	t.Run("rejects empty company", func(t *testing.T) {
		_, err := NewDebt(uuid.Nil, uuid.New(), DebtTypePayable, valueobject.NewMoneyUSDFromFloat(100), nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects invalid debt type", func(t *testing.T) {
		_, err := NewDebt(uuid.New(), uuid.New(), DebtType("LOAN"), valueobject.NewMoneyUSDFromFloat(100), nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewDebt(uuid.New(), uuid.New(), DebtTypeReceivable, valueobject.ZeroUSD(), nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewDebt(uuid.New(), uuid.New(), DebtTypeReceivable, valueobject.NewMoneyUSDFromFloat(-50), nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})
}

// ============================================
// ApplyPayment Tests
// ============================================

func TestDebt_ApplyPayment(t *testing.T) {
	t.Run("partial payment moves debt to partially paid", func(t *testing.T) {
		d := createTestDebt(t)

		p := applyTestPayment(t, d, 400)

		assert.Equal(t, DebtStatusPartiallyPaid, d.Status)
		assert.True(t, d.PaidAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(600)))
		assert.True(t, p.IsActive())
		assert.Equal(t, PaymentMethodBankTransfer, p.Method)
	})

	t.Run("payments settling the full amount mark the debt paid", func(t *testing.T) {
		d := createTestDebt(t)

		applyTestPayment(t, d, 400)
		applyTestPayment(t, d, 600)

		assert.Equal(t, DebtStatusPaid, d.Status)
		assert.True(t, d.RemainingAmount.IsZero())
		assert.NotNil(t, d.PaidAt)

		// A settled debt takes no further payments
		_, err := d.ApplyPayment(valueobject.NewMoneyUSDFromFloat(1), time.Now(), PaymentMethodCash, "", nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})

	t.Run("rejects overpayment without partial application", func(t *testing.T) {
		d, err := NewDebt(uuid.New(), uuid.New(), DebtTypePayable, valueobject.NewMoneyUSDFromFloat(500), nil)
		require.NoError(t, err)

		_, err = d.ApplyPayment(valueobject.NewMoneyUSDFromFloat(600), time.Now(), PaymentMethodCash, "", nil)
		assert.True(t, shared.IsCode(err, shared.CodeOverpayment))

		assert.Equal(t, DebtStatusPending, d.Status)
		assert.True(t, d.PaidAmount.IsZero())
		assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(500)))
		assert.Empty(t, d.Payments)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		d := createTestDebt(t)
		_, err := d.ApplyPayment(valueobject.ZeroUSD(), time.Now(), PaymentMethodCash, "", nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		d := createTestDebt(t)
		amount, _ := valueobject.NewMoneyFromFloat(100, valueobject.EUR)
		_, err := d.ApplyPayment(amount, time.Now(), PaymentMethodCash, "", nil)
		assert.True(t, shared.IsCode(err, shared.CodeCurrencyMismatch))
	})

	t.Run("rejects invalid payment method", func(t *testing.T) {
		d := createTestDebt(t)
		_, err := d.ApplyPayment(valueobject.NewMoneyUSDFromFloat(100), time.Now(), PaymentMethod("BARTER"), "", nil)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("overdue debt still accepts payments", func(t *testing.T) {
		d := createTestDebtWithDueDate(t, -5)
		require.True(t, d.MarkOverdue(time.Now()))

		applyTestPayment(t, d, 1000)
		assert.Equal(t, DebtStatusPaid, d.Status)
	})
}

// ============================================
// ReversePayment Tests
// ============================================

func TestDebt_ReversePayment(t *testing.T) {
	t.Run("reversal restores paid and remaining amounts exactly", func(t *testing.T) {
		d := createTestDebt(t)
		p := applyTestPayment(t, d, 400)

		reversed, err := d.ReversePayment(p.ID, "entered against wrong debt")
		require.NoError(t, err)

		assert.True(t, reversed.IsReversed())
		assert.Equal(t, "entered against wrong debt", reversed.ReversalReason)
		assert.True(t, d.PaidAmount.IsZero())
		assert.True(t, d.RemainingAmount.Equal(d.TotalAmount))
		assert.Equal(t, DebtStatusPending, d.Status)
	})

	t.Run("reversing one of several payments reopens a paid debt", func(t *testing.T) {
		d := createTestDebt(t)
		p1 := applyTestPayment(t, d, 400)
		applyTestPayment(t, d, 600)
		require.Equal(t, DebtStatusPaid, d.Status)

		_, err := d.ReversePayment(p1.ID, "duplicate entry")
		require.NoError(t, err)

		assert.Equal(t, DebtStatusPartiallyPaid, d.Status)
		assert.True(t, d.PaidAmount.Equal(decimal.NewFromInt(600)))
		assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(400)))
		assert.Nil(t, d.PaidAt)
	})

	t.Run("rejects double reversal", func(t *testing.T) {
		d := createTestDebt(t)
		p := applyTestPayment(t, d, 100)

		_, err := d.ReversePayment(p.ID, "first")
		require.NoError(t, err)
		_, err = d.ReversePayment(p.ID, "second")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})

	t.Run("rejects unknown payment", func(t *testing.T) {
		d := createTestDebt(t)
		_, err := d.ReversePayment(uuid.New(), "missing")
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("requires a reason", func(t *testing.T) {
		d := createTestDebt(t)
		p := applyTestPayment(t, d, 100)
		_, err := d.ReversePayment(p.ID, "")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("reversal past the due date lands on overdue", func(t *testing.T) {
		d := createTestDebtWithDueDate(t, -3)
		p := applyTestPayment(t, d, 1000)
		require.Equal(t, DebtStatusPaid, d.Status)

		_, err := d.ReversePayment(p.ID, "bounced transfer")
		require.NoError(t, err)
		assert.Equal(t, DebtStatusOverdue, d.Status)
	})
}

// ============================================
// MarkOverdue Tests
// ============================================

func TestDebt_MarkOverdue(t *testing.T) {
	t.Run("marks an open past-due debt", func(t *testing.T) {
		d := createTestDebtWithDueDate(t, -1)
		assert.True(t, d.MarkOverdue(time.Now()))
		assert.Equal(t, DebtStatusOverdue, d.Status)
	})

	t.Run("is idempotent", func(t *testing.T) {
		d := createTestDebtWithDueDate(t, -1)
		require.True(t, d.MarkOverdue(time.Now()))
		version := d.GetVersion()

		assert.False(t, d.MarkOverdue(time.Now()))
		assert.Equal(t, version, d.GetVersion())
	})

	t.Run("ignores debts not yet due", func(t *testing.T) {
		d := createTestDebtWithDueDate(t, 7)
		assert.False(t, d.MarkOverdue(time.Now()))
		assert.Equal(t, DebtStatusPending, d.Status)
	})

	t.Run("ignores debts without a due date", func(t *testing.T) {
		d := createTestDebt(t)
		assert.False(t, d.MarkOverdue(time.Now()))
	})

	t.Run("never touches terminal debts", func(t *testing.T) {
		d := createTestDebtWithDueDate(t, -1)
		applyTestPayment(t, d, 1000)
		require.Equal(t, DebtStatusPaid, d.Status)

		assert.False(t, d.MarkOverdue(time.Now()))
		assert.Equal(t, DebtStatusPaid, d.Status)
	})
}

// ============================================
// Cancel Tests
// ============================================

func TestDebt_Cancel(t *testing.T) {
	t.Run("cancels an unpaid debt", func(t *testing.T) {
		d := createTestDebt(t)
		require.NoError(t, d.Cancel("contract voided"))

		assert.Equal(t, DebtStatusCancelled, d.Status)
		assert.True(t, d.RemainingAmount.IsZero())
		assert.NotNil(t, d.CancelledAt)
	})

	t.Run("rejects cancellation once payments exist", func(t *testing.T) {
		d := createTestDebt(t)
		applyTestPayment(t, d, 100)

		err := d.Cancel("too late")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})

	t.Run("rejects cancellation of terminal debts", func(t *testing.T) {
		d := createTestDebt(t)
		require.NoError(t, d.Cancel("first"))
		err := d.Cancel("second")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})

	t.Run("requires a reason", func(t *testing.T) {
		d := createTestDebt(t)
		err := d.Cancel("")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("cancelled debt rejects payment reversal", func(t *testing.T) {
		d := createTestDebt(t)
		require.NoError(t, d.Cancel("gone"))
		_, err := d.ReversePayment(uuid.New(), "any")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})
}

// ============================================
// Misc Tests
// ============================================

func TestDebt_LinkTransaction(t *testing.T) {
	d := createTestDebt(t)
	p := applyTestPayment(t, d, 250)
	txID := uuid.New()

	require.NoError(t, d.LinkTransaction(p.ID, txID))
	linked := d.FindPayment(p.ID)
	require.NotNil(t, linked)
	require.NotNil(t, linked.TransactionID)
	assert.Equal(t, txID, *linked.TransactionID)

	assert.Error(t, d.LinkTransaction(uuid.New(), txID))
}

func TestDebt_ActivePaymentCount(t *testing.T) {
	d := createTestDebt(t)
	p1 := applyTestPayment(t, d, 100)
	applyTestPayment(t, d, 200)
	assert.Equal(t, 2, d.ActivePaymentCount())

	_, err := d.ReversePayment(p1.ID, "oops")
	require.NoError(t, err)
	assert.Equal(t, 1, d.ActivePaymentCount())
	assert.Len(t, d.Payments, 2)
}

func TestDebtPayments_ScanValue(t *testing.T) {
	d := createTestDebt(t)
	applyTestPayment(t, d, 100)

	v, err := d.Payments.Value()
	require.NoError(t, err)

	var scanned DebtPayments
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.Equal(t, d.Payments[0].ID, scanned[0].ID)
	assert.True(t, scanned[0].Amount.Equal(decimal.NewFromInt(100)))

	var empty DebtPayments
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)

	var nilValue DebtPayments
	v, err = nilValue.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
