package persistence

import (
	"context"

	"gorm.io/gorm"

	appfin "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfin.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// DebtRepo returns the debt repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DebtRepo() finance.DebtRepository {
	return NewGormDebtRepository(r.tx)
}

// TransactionRepo returns the ledger transaction repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TransactionRepo() finance.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// CashAccountRepo returns the cash account repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CashAccountRepo() finance.CashAccountRepository {
	return NewGormCashAccountRepository(r.tx)
}

// ProfitRecordRepo returns the profit record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProfitRecordRepo() finance.ProfitRecordRepository {
	return NewGormProfitRecordRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appfin.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appfin.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
