package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// TransactionType distinguishes inflows from outflows
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// TransactionCategory classifies a transaction for profit reporting
type TransactionCategory string

const (
	CategorySales          TransactionCategory = "SALES"
	CategoryPurchase       TransactionCategory = "PURCHASE"
	CategorySalary         TransactionCategory = "SALARY"
	CategoryUtilities      TransactionCategory = "UTILITIES"
	CategoryRent           TransactionCategory = "RENT"
	CategoryEquipment      TransactionCategory = "EQUIPMENT"
	CategoryMarketing      TransactionCategory = "MARKETING"
	CategoryTransportation TransactionCategory = "TRANSPORTATION"
	CategoryTaxes          TransactionCategory = "TAXES"
	CategoryOther          TransactionCategory = "OTHER"
)

// IsValid checks if the category is valid
func (c TransactionCategory) IsValid() bool {
	switch c {
	case CategorySales, CategoryPurchase, CategorySalary, CategoryUtilities,
		CategoryRent, CategoryEquipment, CategoryMarketing, CategoryTransportation,
		CategoryTaxes, CategoryOther:
		return true
	}
	return false
}

// TransactionStatus represents the posting status of a transaction
type TransactionStatus string

const (
	TransactionStatusPosted TransactionStatus = "POSTED"
	TransactionStatusVoided TransactionStatus = "VOIDED"
)

// IsValid checks if the transaction status is valid
func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusPosted || s == TransactionStatusVoided
}

// Transaction represents a single posted cash movement aggregate root.
// Transactions are immutable once posted; corrections happen by voiding,
// which restores the account balance rather than editing the record.
type Transaction struct {
	shared.CompanyAggregateRoot
	CashAccountID   uuid.UUID            `json:"cash_account_id"`
	TransactionType TransactionType      `json:"transaction_type"`
	Category        TransactionCategory  `json:"category"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        valueobject.Currency `json:"currency"`
	CounterpartyID  *uuid.UUID           `json:"counterparty_id,omitempty"`
	ContractID      *uuid.UUID           `json:"contract_id,omitempty"`
	DebtPaymentID   *uuid.UUID           `json:"debt_payment_id,omitempty"` // Set when the transaction settles a debt payment
	Description     string               `json:"description"`
	TransactionDate time.Time            `json:"transaction_date"`
	Status          TransactionStatus    `json:"status"`
	VoidedAt        *time.Time           `json:"voided_at,omitempty"`
	VoidReason      string               `json:"void_reason,omitempty"`
}

// NewTransaction creates a new posted transaction
func NewTransaction(
	companyID uuid.UUID,
	cashAccountID uuid.UUID,
	transactionType TransactionType,
	category TransactionCategory,
	amount valueobject.Money,
	transactionDate time.Time,
	description string,
) (*Transaction, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Company ID cannot be empty")
	}
	if cashAccountID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cash account ID cannot be empty")
	}
	if !transactionType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Transaction type is not valid")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Transaction category is not valid")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Transaction amount must be positive")
	}
	if transactionDate.IsZero() {
		transactionDate = time.Now()
	}

	currency := amount.Currency()
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	tx := &Transaction{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CashAccountID:        cashAccountID,
		TransactionType:      transactionType,
		Category:             category,
		Amount:               amount.Amount(),
		Currency:             currency,
		Description:          description,
		TransactionDate:      transactionDate,
		Status:               TransactionStatusPosted,
	}

	tx.AddDomainEvent(NewTransactionPostedEvent(tx))

	return tx, nil
}

// SetCounterparty associates the transaction with a counterparty
func (t *Transaction) SetCounterparty(counterpartyID uuid.UUID) {
	t.CounterpartyID = &counterpartyID
}

// SetContract associates the transaction with a contract
func (t *Transaction) SetContract(contractID uuid.UUID) {
	t.ContractID = &contractID
}

// SetDebtPayment links the transaction to the debt payment it settles
func (t *Transaction) SetDebtPayment(paymentID uuid.UUID) {
	t.DebtPaymentID = &paymentID
}

// Void voids a posted transaction. The caller is responsible for
// applying the compensating balance change to the cash account.
func (t *Transaction) Void(reason string) error {
	if t.Status == TransactionStatusVoided {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Transaction has already been voided")
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Void reason is required")
	}

	now := time.Now()
	t.Status = TransactionStatusVoided
	t.VoidedAt = &now
	t.VoidReason = reason
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransactionVoidedEvent(t))

	return nil
}

// IsVoided returns true if the transaction has been voided
func (t *Transaction) IsVoided() bool {
	return t.Status == TransactionStatusVoided
}

// GetAmountMoney returns the amount as Money
func (t *Transaction) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(t.Amount, t.Currency)
	return m
}

// SignedAmount returns the amount with the sign implied by the type:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.TransactionType == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Period returns the year and month the transaction falls in
func (t *Transaction) Period() (int, int) {
	return t.TransactionDate.Year(), int(t.TransactionDate.Month())
}

// String returns a short human-readable description
func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s %s (%s)", t.TransactionType, t.Amount.StringFixed(2), t.Currency, t.Category)
}

// TransactionPostedEvent is raised when a transaction is posted
type TransactionPostedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID           `json:"transaction_id"`
	CashAccountID   uuid.UUID           `json:"cash_account_id"`
	TransactionType TransactionType     `json:"transaction_type"`
	Category        TransactionCategory `json:"category"`
	Amount          decimal.Decimal     `json:"amount"`
	TransactionDate time.Time           `json:"transaction_date"`
}

// EventType returns the event type name
func (e *TransactionPostedEvent) EventType() string {
	return "TransactionPosted"
}

// NewTransactionPostedEvent creates a new TransactionPostedEvent
func NewTransactionPostedEvent(t *Transaction) *TransactionPostedEvent {
	return &TransactionPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TransactionPosted", "Transaction", t.ID, t.CompanyID),
		TransactionID:   t.ID,
		CashAccountID:   t.CashAccountID,
		TransactionType: t.TransactionType,
		Category:        t.Category,
		Amount:          t.Amount,
		TransactionDate: t.TransactionDate,
	}
}

// TransactionVoidedEvent is raised when a transaction is voided
type TransactionVoidedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID       `json:"transaction_id"`
	CashAccountID   uuid.UUID       `json:"cash_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	VoidReason      string          `json:"void_reason"`
	VoidedAt        time.Time       `json:"voided_at"`
}

// EventType returns the event type name
func (e *TransactionVoidedEvent) EventType() string {
	return "TransactionVoided"
}

// NewTransactionVoidedEvent creates a new TransactionVoidedEvent
func NewTransactionVoidedEvent(t *Transaction) *TransactionVoidedEvent {
	voidedAt := time.Now()
	if t.VoidedAt != nil {
		voidedAt = *t.VoidedAt
	}
	return &TransactionVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TransactionVoided", "Transaction", t.ID, t.CompanyID),
		TransactionID:   t.ID,
		CashAccountID:   t.CashAccountID,
		Amount:          t.Amount,
		TransactionType: t.TransactionType,
		VoidReason:      t.VoidReason,
		VoidedAt:        voidedAt,
	}
}
