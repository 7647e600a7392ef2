package persistence

import (
	"context"
	"database/sql"
	"testing"

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

// newMockCashAccountRepository creates a GormCashAccountRepository with a mocked SQL connection
func newMockCashAccountRepository(t *testing.T) (*GormCashAccountRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormCashAccountRepository(gormDB), mock, mockDB
}

func TestGormCashAccountRepository_FindByID(t *testing.T) {
	t.Run("finds existing account", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()
		companyID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "company_id", "account_name", "account_type", "currency", "balance", "overdraft_policy", "version"}).
			AddRow(accountID, companyID, "Operating", "BANK", "USD", decimal.NewFromInt(100), "NO_OVERDRAFT", 1)

		mock.ExpectQuery(`SELECT \* FROM "cash_accounts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(accountID, 1).
			WillReturnRows(rows)

		account, err := repo.FindByID(context.Background(), accountID)

		assert.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, accountID, account.ID)
		assert.Equal(t, "Operating", account.AccountName)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for non-existent account", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "cash_accounts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(accountID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		account, err := repo.FindByID(context.Background(), accountID)

		assert.NoError(t, err)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCashAccountRepository_FindByIDForCompany(t *testing.T) {
	t.Run("finds account within company", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()
		companyID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "company_id", "account_name", "account_type", "currency", "balance", "overdraft_policy", "version"}).
			AddRow(accountID, companyID, "Operating", "BANK", "USD", decimal.Zero, "NO_OVERDRAFT", 1)

		mock.ExpectQuery(`SELECT \* FROM "cash_accounts" WHERE company_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(companyID, accountID, 1).
			WillReturnRows(rows)

		account, err := repo.FindByIDForCompany(context.Background(), companyID, accountID)

		assert.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, companyID, account.CompanyID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCashAccountRepository_SaveWithLock(t *testing.T) {
	t.Run("updates when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		account, err := finance.NewCashAccount(companyID, "Operating", finance.AccountTypeBank, valueobject.USD, finance.OverdraftPolicyAllow)
		require.NoError(t, err)
		require.NoError(t, account.Credit(valueobject.NewMoneyUSD(decimal.NewFromInt(50))))

		mock.ExpectExec(`UPDATE "cash_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), account)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when version is stale", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		account, err := finance.NewCashAccount(companyID, "Operating", finance.AccountTypeBank, valueobject.USD, finance.OverdraftPolicyAllow)
		require.NoError(t, err)
		require.NoError(t, account.Credit(valueobject.NewMoneyUSD(decimal.NewFromInt(50))))

		mock.ExpectExec(`UPDATE "cash_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), account)

		assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCashAccountRepository_ExistsByName(t *testing.T) {
	t.Run("returns true when name exists", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "cash_accounts" WHERE company_id = \$1 AND account_name = \$2`).
			WithArgs(companyID, "Operating").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByName(context.Background(), companyID, "Operating")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false when name is free", func(t *testing.T) {
		repo, mock, mockDB := newMockCashAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "cash_accounts" WHERE company_id = \$1 AND account_name = \$2`).
			WithArgs(companyID, "Savings").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByName(context.Background(), companyID, "Savings")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCashAccountRepository_InterfaceCompliance(t *testing.T) {
	repo, _, mockDB := newMockCashAccountRepository(t)
	defer mockDB.Close()

	var _ finance.CashAccountRepository = repo
}
