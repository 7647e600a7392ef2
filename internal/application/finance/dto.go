package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// CreateDebtRequest represents a request to create a debt
type CreateDebtRequest struct {
	CompanyID      uuid.UUID
	CounterpartyID uuid.UUID
	ContractID     *uuid.UUID
	DebtType       finance.DebtType
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	DueDate        *time.Time
	Description    string
	CreatedBy      *uuid.UUID
}

// RegisterDebtPaymentRequest represents a request to pay down a debt.
// The payment, its ledger transaction, and the cash account balance
// change are recorded atomically.
type RegisterDebtPaymentRequest struct {
	CompanyID      uuid.UUID
	DebtID         uuid.UUID
	CashAccountID  uuid.UUID
	Amount         decimal.Decimal
	PaymentDate    time.Time
	Method         finance.PaymentMethod
	Category       finance.TransactionCategory // Defaults to OTHER
	Notes          string
	CreatedBy      *uuid.UUID
	IdempotencyKey string // Optional; repeated submissions with the same key are recorded once
}

// RegisterDebtPaymentResult is the outcome of registering a debt payment
type RegisterDebtPaymentResult struct {
	Debt        *finance.Debt        `json:"debt"`
	Payment     *finance.DebtPayment `json:"payment"`
	Transaction *finance.Transaction `json:"transaction"`
	NewBalance  decimal.Decimal      `json:"new_balance"`
	Duplicate   bool                 `json:"duplicate"` // True when the idempotency key was already processed
}

// ReverseDebtPaymentRequest represents a request to reverse a debt payment
type ReverseDebtPaymentRequest struct {
	CompanyID uuid.UUID
	DebtID    uuid.UUID
	PaymentID uuid.UUID
	Reason    string
}

// ReverseDebtPaymentResult is the outcome of reversing a debt payment
type ReverseDebtPaymentResult struct {
	Debt        *finance.Debt        `json:"debt"`
	Payment     *finance.DebtPayment `json:"payment"`
	Transaction *finance.Transaction `json:"transaction,omitempty"` // The voided ledger transaction, when one was linked
}

// RecordTransactionRequest represents a request to post a standalone transaction
type RecordTransactionRequest struct {
	CompanyID       uuid.UUID
	CashAccountID   uuid.UUID
	TransactionType finance.TransactionType
	Category        finance.TransactionCategory
	Amount          decimal.Decimal
	Currency        valueobject.Currency // Defaults to the account currency; a mismatch is rejected
	TransactionDate time.Time
	CounterpartyID  *uuid.UUID
	ContractID      *uuid.UUID
	Description     string
	CreatedBy       *uuid.UUID
	IdempotencyKey  string
}

// RecordTransactionResult is the outcome of posting a transaction
type RecordTransactionResult struct {
	Transaction *finance.Transaction `json:"transaction"`
	NewBalance  decimal.Decimal      `json:"new_balance"`
	Duplicate   bool                 `json:"duplicate"`
}

// VoidTransactionRequest represents a request to void a posted transaction
type VoidTransactionRequest struct {
	CompanyID     uuid.UUID
	TransactionID uuid.UUID
	Reason        string
}

// VoidTransactionResult is the outcome of voiding a transaction
type VoidTransactionResult struct {
	Transaction *finance.Transaction `json:"transaction"`
	Debt        *finance.Debt        `json:"debt,omitempty"` // The debt whose payment was reversed, when one was linked
	NewBalance  decimal.Decimal      `json:"new_balance"`
}

// CreateCashAccountRequest represents a request to create a cash account
type CreateCashAccountRequest struct {
	CompanyID       uuid.UUID
	BranchID        *uuid.UUID
	AccountName     string
	AccountType     finance.AccountType
	Currency        valueobject.Currency
	OverdraftPolicy finance.OverdraftPolicy
	CreatedBy       *uuid.UUID
}

// ProfitSummary is the read model for a profit record
type ProfitSummary struct {
	CompanyID    uuid.UUID        `json:"company_id"`
	PeriodYear   int              `json:"period_year"`
	PeriodMonth  int              `json:"period_month"`
	Revenue      decimal.Decimal  `json:"revenue"`
	Expenses     decimal.Decimal  `json:"expenses"`
	NetProfit    decimal.Decimal  `json:"net_profit"`
	ProfitMargin *decimal.Decimal `json:"profit_margin,omitempty"`
}

// NewProfitSummary builds the read model from a profit record
func NewProfitSummary(p *finance.ProfitRecord) ProfitSummary {
	return ProfitSummary{
		CompanyID:    p.CompanyID,
		PeriodYear:   p.PeriodYear,
		PeriodMonth:  p.PeriodMonth,
		Revenue:      p.Revenue,
		Expenses:     p.Expenses,
		NetProfit:    p.NetProfit,
		ProfitMargin: p.ProfitMargin,
	}
}
