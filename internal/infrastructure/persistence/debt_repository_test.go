package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// newMockDebtRepository creates a GormDebtRepository with a mocked SQL connection
func newMockDebtRepository(t *testing.T) (*GormDebtRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormDebtRepository(gormDB), mock, mockDB
}

func TestGormDebtRepository_SaveWithLock(t *testing.T) {
	t.Run("cleared fields overwrite the stored row", func(t *testing.T) {
		repo, mock, mockDB := newMockDebtRepository(t)
		defer mockDB.Close()

		amount, err := valueobject.NewMoney(decimal.NewFromInt(1000), valueobject.USD)
		require.NoError(t, err)
		debt, err := finance.NewDebt(uuid.New(), uuid.New(), finance.DebtTypeReceivable, amount, nil)
		require.NoError(t, err)

		payment, err := debt.ApplyPayment(amount, time.Now(), finance.PaymentMethodCash, "", nil)
		require.NoError(t, err)
		require.NotNil(t, debt.PaidAt)

		_, err = debt.ReversePayment(payment.ID, "charged back")
		require.NoError(t, err)
		require.Nil(t, debt.PaidAt)

		// paid_at reverted to NULL and must still be part of the update
		mock.ExpectExec(`UPDATE "debts" SET .*"paid_at"=.*WHERE`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), debt)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when version is stale", func(t *testing.T) {
		repo, mock, mockDB := newMockDebtRepository(t)
		defer mockDB.Close()

		amount, err := valueobject.NewMoney(decimal.NewFromInt(100), valueobject.USD)
		require.NoError(t, err)
		debt, err := finance.NewDebt(uuid.New(), uuid.New(), finance.DebtTypePayable, amount, nil)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "debts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), debt)

		assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDebtRepository_FindByPaymentID(t *testing.T) {
	t.Run("matches the debt owning the payment", func(t *testing.T) {
		repo, mock, mockDB := newMockDebtRepository(t)
		defer mockDB.Close()

		debtID := uuid.New()
		companyID := uuid.New()
		paymentID := uuid.New()

		payments, err := json.Marshal(finance.DebtPayments{{
			ID:     paymentID,
			Amount: decimal.NewFromInt(400),
			Status: finance.DebtPaymentStatusActive,
		}})
		require.NoError(t, err)

		rows := sqlmock.NewRows([]string{"id", "company_id", "counterparty_id", "debt_type", "total_amount", "paid_amount", "remaining_amount", "currency", "status", "payments", "version"}).
			AddRow(debtID, companyID, uuid.New(), "RECEIVABLE", decimal.NewFromInt(1000), decimal.NewFromInt(400), decimal.NewFromInt(600), "USD", "PARTIALLY_PAID", payments, 2)

		mock.ExpectQuery(`SELECT \* FROM "debts" WHERE company_id = \$1 AND payments @> \$2`).
			WillReturnRows(rows)

		debt, err := repo.FindByPaymentID(context.Background(), companyID, paymentID)

		assert.NoError(t, err)
		require.NotNil(t, debt)
		assert.Equal(t, debtID, debt.ID)
		require.NotNil(t, debt.FindPayment(paymentID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when no debt owns the payment", func(t *testing.T) {
		repo, mock, mockDB := newMockDebtRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "debts" WHERE company_id = \$1 AND payments @> \$2`).
			WillReturnError(gorm.ErrRecordNotFound)

		debt, err := repo.FindByPaymentID(context.Background(), uuid.New(), uuid.New())

		assert.NoError(t, err)
		assert.Nil(t, debt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
