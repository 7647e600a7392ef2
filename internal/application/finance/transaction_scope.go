package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Every multi-aggregate mutation in this package runs
// inside a scope so the ledger can never observe a partial update.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// DebtRepo returns the debt repository scoped to the current transaction
	DebtRepo() finance.DebtRepository
	// TransactionRepo returns the transaction repository scoped to the current transaction
	TransactionRepo() finance.TransactionRepository
	// CashAccountRepo returns the cash account repository scoped to the current transaction
	CashAccountRepo() finance.CashAccountRepository
	// ProfitRecordRepo returns the profit record repository scoped to the current transaction
	ProfitRecordRepo() finance.ProfitRecordRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support
// is not required.
type NoOpTransactionScope struct {
	debtRepo        finance.DebtRepository
	transactionRepo finance.TransactionRepository
	cashAccountRepo finance.CashAccountRepository
	profitRepo      finance.ProfitRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	debtRepo finance.DebtRepository,
	transactionRepo finance.TransactionRepository,
	cashAccountRepo finance.CashAccountRepository,
	profitRepo finance.ProfitRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		debtRepo:        debtRepo,
		transactionRepo: transactionRepo,
		cashAccountRepo: cashAccountRepo,
		profitRepo:      profitRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DebtRepo returns the debt repository.
func (s *NoOpTransactionScope) DebtRepo() finance.DebtRepository {
	return s.debtRepo
}

// TransactionRepo returns the transaction repository.
func (s *NoOpTransactionScope) TransactionRepo() finance.TransactionRepository {
	return s.transactionRepo
}

// CashAccountRepo returns the cash account repository.
func (s *NoOpTransactionScope) CashAccountRepo() finance.CashAccountRepository {
	return s.cashAccountRepo
}

// ProfitRecordRepo returns the profit record repository.
func (s *NoOpTransactionScope) ProfitRecordRepo() finance.ProfitRecordRepository {
	return s.profitRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
