package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

func newTransactionServiceFixture(t *testing.T, policy finance.OverdraftPolicy) (*TransactionService, *testEnv, uuid.UUID, *finance.CashAccount) {
	t.Helper()
	env := newTestEnv()
	svc := NewTransactionService(env.scope, env.idempotency, shared.DefaultIdempotencyConfig())

	companyID := uuid.New()
	account, err := finance.NewCashAccount(companyID, "Operating", finance.AccountTypeBank, valueobject.USD, policy)
	require.NoError(t, err)
	require.NoError(t, env.accountRepo.Save(context.Background(), account))

	return svc, env, companyID, account
}

func TestTransactionService_RecordTransaction(t *testing.T) {
	t.Run("income credits the account and updates profit", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()
		date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

		res, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(5000),
			TransactionDate: date,
			Description:     "March sales",
		})
		require.NoError(t, err)
		assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(5000)))

		_, err = svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeExpense,
			Category:        finance.CategoryRent,
			Amount:          decimal.NewFromInt(3000),
			TransactionDate: date,
		})
		require.NoError(t, err)

		record, err := env.profitRepo.FindByPeriod(ctx, companyID, 2026, 3)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.Revenue.Equal(decimal.NewFromInt(5000)))
		assert.True(t, record.Expenses.Equal(decimal.NewFromInt(3000)))
		assert.True(t, record.NetProfit.Equal(decimal.NewFromInt(2000)))
		require.NotNil(t, record.ProfitMargin)
		assert.Equal(t, "40.00", record.ProfitMargin.StringFixed(2))
	})

	t.Run("expense beyond balance is rejected on no-overdraft account", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()

		_, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeExpense,
			Category:        finance.CategoryRent,
			Amount:          decimal.NewFromInt(100),
		})
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientFunds))

		// Nothing was recorded
		count, err := env.txRepo.CountForCompany(ctx, companyID, finance.TransactionFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("currency mismatch against the account is rejected", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()

		_, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(100),
			Currency:        valueobject.EUR,
		})
		assert.True(t, shared.IsCode(err, shared.CodeCurrencyMismatch))

		count, err := env.txRepo.CountForCompany(ctx, companyID, finance.TransactionFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("explicit matching currency posts", func(t *testing.T) {
		svc, _, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)

		res, err := svc.RecordTransaction(context.Background(), RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(100),
			Currency:        valueobject.USD,
		})
		require.NoError(t, err)
		assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("sub-cent amount is rejected", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()

		_, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.RequireFromString("0.001"),
		})
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))

		count, err := env.txRepo.CountForCompany(ctx, companyID, finance.TransactionFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("duplicate idempotency key posts once", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()

		req := RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(100),
			IdempotencyKey:  "tx-once",
		}
		first, err := svc.RecordTransaction(ctx, req)
		require.NoError(t, err)
		assert.False(t, first.Duplicate)

		second, err := svc.RecordTransaction(ctx, req)
		require.NoError(t, err)
		assert.True(t, second.Duplicate)

		count, err := env.txRepo.CountForCompany(ctx, companyID, finance.TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestTransactionService_VoidTransaction(t *testing.T) {
	t.Run("void restores balance and profit exactly", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()
		date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

		res, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(500),
			TransactionDate: date,
		})
		require.NoError(t, err)

		voidRes, err := svc.VoidTransaction(ctx, VoidTransactionRequest{
			CompanyID:     companyID,
			TransactionID: res.Transaction.ID,
			Reason:        "recorded twice",
		})
		require.NoError(t, err)
		assert.True(t, voidRes.Transaction.IsVoided())
		assert.True(t, voidRes.NewBalance.IsZero())

		record, err := env.profitRepo.FindByPeriod(ctx, companyID, 2026, 3)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.Revenue.IsZero())
		assert.Nil(t, record.ProfitMargin)
	})

	t.Run("double void is rejected", func(t *testing.T) {
		svc, _, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyDeny)
		ctx := context.Background()

		res, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(100),
		})
		require.NoError(t, err)

		req := VoidTransactionRequest{CompanyID: companyID, TransactionID: res.Transaction.ID, Reason: "dup"}
		_, err = svc.VoidTransaction(ctx, req)
		require.NoError(t, err)
		_, err = svc.VoidTransaction(ctx, req)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	})

	t.Run("voiding an income may push a tolerant account negative", func(t *testing.T) {
		svc, env, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyAllow)
		ctx := context.Background()

		res, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(200),
		})
		require.NoError(t, err)

		// Spend part of it, then void the income: the account owes money
		_, err = svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeExpense,
			Category:        finance.CategoryRent,
			Amount:          decimal.NewFromInt(150),
		})
		require.NoError(t, err)

		voidRes, err := svc.VoidTransaction(ctx, VoidTransactionRequest{
			CompanyID:     companyID,
			TransactionID: res.Transaction.ID,
			Reason:        "chargeback",
		})
		require.NoError(t, err)
		assert.True(t, voidRes.NewBalance.Equal(decimal.NewFromInt(-150)))

		storedAccount, err := env.accountRepo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, storedAccount.Balance.Equal(decimal.NewFromInt(-150)))
	})
}

func TestTransactionService_VoidTransaction_DebtLinked(t *testing.T) {
	t.Run("voiding a payment transaction reverses the payment on the debt", func(t *testing.T) {
		env := newTestEnv()
		txSvc := NewTransactionService(env.scope, env.idempotency, shared.DefaultIdempotencyConfig())
		debtSvc := NewDebtService(env.scope, env.idempotency, shared.DefaultIdempotencyConfig())
		ctx := context.Background()
		companyID := uuid.New()

		account, err := finance.NewCashAccount(companyID, "Operating", finance.AccountTypeBank, valueobject.USD, finance.OverdraftPolicyDeny)
		require.NoError(t, err)
		require.NoError(t, env.accountRepo.Save(ctx, account))

		debt, err := debtSvc.CreateDebt(ctx, CreateDebtRequest{
			CompanyID:      companyID,
			CounterpartyID: uuid.New(),
			DebtType:       finance.DebtTypeReceivable,
			Amount:         decimal.NewFromInt(1000),
		})
		require.NoError(t, err)

		payRes, err := debtSvc.RegisterPayment(ctx, RegisterDebtPaymentRequest{
			CompanyID:     companyID,
			DebtID:        debt.ID,
			CashAccountID: account.ID,
			Amount:        decimal.NewFromInt(400),
			Method:        finance.PaymentMethodBankTransfer,
		})
		require.NoError(t, err)
		require.NotNil(t, payRes.Transaction)

		voidRes, err := txSvc.VoidTransaction(ctx, VoidTransactionRequest{
			CompanyID:     companyID,
			TransactionID: payRes.Transaction.ID,
			Reason:        "posted against the wrong debt",
		})
		require.NoError(t, err)
		assert.True(t, voidRes.NewBalance.IsZero())
		require.NotNil(t, voidRes.Debt)

		// The debt is back where it started and the payment is kept as history
		stored, err := env.debtRepo.FindByID(ctx, debt.ID)
		require.NoError(t, err)
		assert.True(t, stored.PaidAmount.IsZero())
		assert.True(t, stored.RemainingAmount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, finance.DebtStatusPending, stored.Status)
		payment := stored.FindPayment(payRes.Payment.ID)
		require.NotNil(t, payment)
		assert.True(t, payment.IsReversed())
	})

	t.Run("voiding a settling payment reopens a paid debt", func(t *testing.T) {
		env := newTestEnv()
		txSvc := NewTransactionService(env.scope, env.idempotency, shared.DefaultIdempotencyConfig())
		debtSvc := NewDebtService(env.scope, env.idempotency, shared.DefaultIdempotencyConfig())
		ctx := context.Background()
		companyID := uuid.New()

		account, err := finance.NewCashAccount(companyID, "Operating", finance.AccountTypeBank, valueobject.USD, finance.OverdraftPolicyDeny)
		require.NoError(t, err)
		require.NoError(t, env.accountRepo.Save(ctx, account))

		debt, err := debtSvc.CreateDebt(ctx, CreateDebtRequest{
			CompanyID:      companyID,
			CounterpartyID: uuid.New(),
			DebtType:       finance.DebtTypeReceivable,
			Amount:         decimal.NewFromInt(500),
		})
		require.NoError(t, err)

		payRes, err := debtSvc.RegisterPayment(ctx, RegisterDebtPaymentRequest{
			CompanyID:     companyID,
			DebtID:        debt.ID,
			CashAccountID: account.ID,
			Amount:        decimal.NewFromInt(500),
			Method:        finance.PaymentMethodCash,
		})
		require.NoError(t, err)
		assert.Equal(t, finance.DebtStatusPaid, payRes.Debt.Status)

		_, err = txSvc.VoidTransaction(ctx, VoidTransactionRequest{
			CompanyID:     companyID,
			TransactionID: payRes.Transaction.ID,
			Reason:        "bounced check",
		})
		require.NoError(t, err)

		stored, err := env.debtRepo.FindByID(ctx, debt.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.DebtStatusPending, stored.Status)
		assert.Nil(t, stored.PaidAt)
		assert.True(t, stored.RemainingAmount.Equal(decimal.NewFromInt(500)))
	})
}

func TestTransactionService_ListTransactions(t *testing.T) {
	svc, _, companyID, account := newTransactionServiceFixture(t, finance.OverdraftPolicyAllow)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordTransaction(ctx, RecordTransactionRequest{
			CompanyID:       companyID,
			CashAccountID:   account.ID,
			TransactionType: finance.TransactionTypeIncome,
			Category:        finance.CategorySales,
			Amount:          decimal.NewFromInt(int64(100 * (i + 1))),
		})
		require.NoError(t, err)
	}

	page, err := svc.ListTransactions(ctx, companyID, finance.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 3)
}
