package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
)

// DebtFilter defines filtering options for debt queries
type DebtFilter struct {
	shared.Filter
	CounterpartyID *uuid.UUID       // Filter by counterparty
	ContractID     *uuid.UUID       // Filter by contract
	DebtType       *DebtType        // Filter by payable/receivable
	Status         *DebtStatus      // Filter by status
	DueFrom        *time.Time       // Filter by due date range start
	DueTo          *time.Time       // Filter by due date range end
	MinRemaining   *decimal.Decimal // Filter by minimum remaining amount
	MaxRemaining   *decimal.Decimal // Filter by maximum remaining amount
}

// DebtRepository defines the interface for debt persistence
type DebtRepository interface {
	// FindByID finds a debt by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Debt, error)

	// FindByIDForCompany finds a debt by ID for a specific company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Debt, error)

	// FindByPaymentID finds the debt owning the given payment for a company
	FindByPaymentID(ctx context.Context, companyID, paymentID uuid.UUID) (*Debt, error)

	// FindAllForCompany finds all debts for a company with filtering
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter DebtFilter) ([]Debt, error)

	// FindOpenPastDue finds non-terminal debts whose due date is before asOf
	// and which have not been marked overdue yet
	FindOpenPastDue(ctx context.Context, asOf time.Time, limit int) ([]Debt, error)

	// Save creates or updates a debt
	Save(ctx context.Context, debt *Debt) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, debt *Debt) error

	// CountForCompany counts debts for a company with optional filters
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter DebtFilter) (int64, error)

	// SumRemainingForCompany totals the remaining amount of open debts by type
	SumRemainingForCompany(ctx context.Context, companyID uuid.UUID, debtType DebtType) (decimal.Decimal, error)
}

// TransactionFilter defines filtering options for transaction queries
type TransactionFilter struct {
	shared.Filter
	CashAccountID   *uuid.UUID           // Filter by cash account
	CounterpartyID  *uuid.UUID           // Filter by counterparty
	TransactionType *TransactionType     // Filter by income/expense
	Category        *TransactionCategory // Filter by category
	Status          *TransactionStatus   // Filter by posting status
	DateFrom        *time.Time           // Filter by transaction date range start
	DateTo          *time.Time           // Filter by transaction date range end
}

// TransactionRepository defines the interface for transaction persistence
type TransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForCompany finds a transaction by ID for a specific company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Transaction, error)

	// FindAllForCompany finds all transactions for a company with filtering
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter TransactionFilter) ([]Transaction, error)

	// FindByPeriod finds posted transactions for a company in a calendar month
	FindByPeriod(ctx context.Context, companyID uuid.UUID, year, month int) ([]Transaction, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, transaction *Transaction) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, transaction *Transaction) error

	// CountForCompany counts transactions for a company with optional filters
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter TransactionFilter) (int64, error)

	// SumByPeriod totals posted income and expenses for a company in a calendar month
	SumByPeriod(ctx context.Context, companyID uuid.UUID, year, month int) (revenue, expenses decimal.Decimal, err error)
}

// CashAccountFilter defines filtering options for cash account queries
type CashAccountFilter struct {
	shared.Filter
	BranchID    *uuid.UUID   // Filter by branch
	AccountType *AccountType // Filter by account type
}

// CashAccountRepository defines the interface for cash account persistence
type CashAccountRepository interface {
	// FindByID finds a cash account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CashAccount, error)

	// FindByIDForCompany finds a cash account by ID for a specific company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*CashAccount, error)

	// FindAllForCompany finds all cash accounts for a company with filtering
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter CashAccountFilter) ([]CashAccount, error)

	// Save creates or updates a cash account
	Save(ctx context.Context, account *CashAccount) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *CashAccount) error

	// ExistsByName checks if an account with the given name exists for a company
	ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
}

// ProfitRecordRepository defines the interface for profit record persistence
type ProfitRecordRepository interface {
	// FindByID finds a profit record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProfitRecord, error)

	// FindByPeriod finds the profit record for a company and calendar month
	FindByPeriod(ctx context.Context, companyID uuid.UUID, year, month int) (*ProfitRecord, error)

	// FindAllForCompany finds all profit records for a company, newest period first
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]ProfitRecord, error)

	// Upsert inserts the record or, when one already exists for the same
	// company and period, replaces its figures. The period uniqueness is
	// enforced by a database constraint rather than a read-then-write check.
	Upsert(ctx context.Context, record *ProfitRecord) error

	// Save creates or updates a profit record
	Save(ctx context.Context, record *ProfitRecord) error
}
