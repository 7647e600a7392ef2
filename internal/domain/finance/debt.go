package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// DebtStatus represents the lifecycle status of a debt
type DebtStatus string

const (
	DebtStatusPending       DebtStatus = "PENDING"        // Unpaid, no payments applied
	DebtStatusPartiallyPaid DebtStatus = "PARTIALLY_PAID" // 0 < paid < total
	DebtStatusPaid          DebtStatus = "PAID"           // Fully settled
	DebtStatusOverdue       DebtStatus = "OVERDUE"        // Past due date with an open balance
	DebtStatusCancelled     DebtStatus = "CANCELLED"      // Cancelled before any payment
)

// IsValid checks if the status is a valid DebtStatus
func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtStatusPending, DebtStatusPartiallyPaid, DebtStatusPaid,
		DebtStatusOverdue, DebtStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DebtStatus
func (s DebtStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the debt is in a terminal state
func (s DebtStatus) IsTerminal() bool {
	return s == DebtStatusPaid || s == DebtStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s DebtStatus) CanApplyPayment() bool {
	return s == DebtStatusPending || s == DebtStatusPartiallyPaid || s == DebtStatusOverdue
}

// DebtType distinguishes money the company owes from money owed to it
type DebtType string

const (
	DebtTypePayable    DebtType = "PAYABLE"    // Company owes the counterparty
	DebtTypeReceivable DebtType = "RECEIVABLE" // Counterparty owes the company
)

// IsValid checks if the debt type is valid
func (t DebtType) IsValid() bool {
	return t == DebtTypePayable || t == DebtTypeReceivable
}

// PaymentMethod identifies how a debt payment was settled
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// DebtPaymentStatus represents the status of an individual debt payment
type DebtPaymentStatus string

const (
	DebtPaymentStatusActive   DebtPaymentStatus = "ACTIVE"
	DebtPaymentStatusReversed DebtPaymentStatus = "REVERSED"
)

// DebtPayment represents a payment applied to a debt.
// It is a value object within the Debt aggregate, stored as JSONB;
// payments never exist apart from their owning debt.
type DebtPayment struct {
	ID             uuid.UUID         `json:"id"`
	Amount         decimal.Decimal   `json:"amount"`
	PaymentDate    time.Time         `json:"payment_date"`
	Method         PaymentMethod     `json:"method"`
	TransactionID  *uuid.UUID        `json:"transaction_id,omitempty"` // Ledger transaction recorded alongside this payment
	Notes          string            `json:"notes,omitempty"`
	CreatedBy      *uuid.UUID        `json:"created_by,omitempty"`
	Status         DebtPaymentStatus `json:"status"`
	ReversedAt     *time.Time        `json:"reversed_at,omitempty"`
	ReversalReason string            `json:"reversal_reason,omitempty"`
}

// DebtPayments is a slice of DebtPayment that implements GORM Scanner/Valuer for JSONB storage
type DebtPayments []DebtPayment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p DebtPayments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *DebtPayments) Scan(value interface{}) error {
	if value == nil {
		*p = DebtPayments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan DebtPayments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = DebtPayments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// IsActive returns true if the payment still counts toward the paid amount
func (p *DebtPayment) IsActive() bool {
	return p.Status == DebtPaymentStatusActive || p.Status == ""
}

// IsReversed returns true if the payment has been reversed
func (p *DebtPayment) IsReversed() bool {
	return p.Status == DebtPaymentStatusReversed
}

// MarkReversed marks the payment as reversed with the given reason
func (p *DebtPayment) MarkReversed(reason string) {
	now := time.Now()
	p.Status = DebtPaymentStatusReversed
	p.ReversedAt = &now
	p.ReversalReason = reason
}

// GetAmountMoney returns the payment amount as Money in the given currency
func (p *DebtPayment) GetAmountMoney(currency valueobject.Currency) valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, currency)
	return m
}

// Debt represents a payable or receivable obligation aggregate root.
// The invariant totalAmount = paidAmount + remainingAmount holds after
// every mutation, with paidAmount derived from active payments only.
type Debt struct {
	shared.CompanyAggregateRoot
	CounterpartyID  uuid.UUID            `json:"counterparty_id"`
	ContractID      *uuid.UUID           `json:"contract_id,omitempty"`
	DebtType        DebtType             `json:"debt_type"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	PaidAmount      decimal.Decimal      `json:"paid_amount"`
	RemainingAmount decimal.Decimal      `json:"remaining_amount"`
	Currency        valueobject.Currency `json:"currency"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	Status          DebtStatus           `json:"status"`
	Payments        DebtPayments         `json:"payments"`
	Description     string               `json:"description"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason    string               `json:"cancel_reason,omitempty"`
}

// NewDebt creates a new debt obligation
func NewDebt(
	companyID uuid.UUID,
	counterpartyID uuid.UUID,
	debtType DebtType,
	totalAmount valueobject.Money,
	dueDate *time.Time,
) (*Debt, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Company ID cannot be empty")
	}
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Counterparty ID cannot be empty")
	}
	if !debtType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Debt type is not valid")
	}
	if totalAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Total amount must be positive")
	}

	currency := totalAmount.Currency()
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	d := &Debt{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CounterpartyID:       counterpartyID,
		DebtType:             debtType,
		TotalAmount:          totalAmount.Amount(),
		PaidAmount:           decimal.Zero,
		RemainingAmount:      totalAmount.Amount(),
		Currency:             currency,
		DueDate:              dueDate,
		Status:               DebtStatusPending,
		Payments:             DebtPayments{},
	}

	d.AddDomainEvent(NewDebtCreatedEvent(d))

	return d, nil
}

// ApplyPayment applies a payment against the remaining balance.
// Returns the created payment record so callers can link it to a
// ledger transaction.
func (d *Debt) ApplyPayment(amount valueobject.Money, paymentDate time.Time, method PaymentMethod, notes string, createdBy *uuid.UUID) (*DebtPayment, error) {
	if !d.Status.CanApplyPayment() {
		return nil, shared.NewDomainError(shared.CodeInvalidStateTransition, fmt.Sprintf("Cannot apply payment to debt in %s status", d.Status))
	}
	if amount.Currency() != d.Currency {
		return nil, shared.NewDomainError(shared.CodeCurrencyMismatch, fmt.Sprintf("Payment currency %s does not match debt currency %s", amount.Currency(), d.Currency))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(d.RemainingAmount) {
		return nil, shared.NewDomainError(shared.CodeOverpayment, fmt.Sprintf("Payment amount %s exceeds remaining amount %s", amount.Amount().StringFixed(2), d.RemainingAmount.StringFixed(2)))
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment method is not valid")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	payment := DebtPayment{
		ID:          uuid.New(),
		Amount:      amount.Amount(),
		PaymentDate: paymentDate,
		Method:      method,
		Notes:       notes,
		CreatedBy:   createdBy,
		Status:      DebtPaymentStatusActive,
	}
	d.Payments = append(d.Payments, payment)

	d.PaidAmount = d.PaidAmount.Add(amount.Amount())
	d.RemainingAmount = d.TotalAmount.Sub(d.PaidAmount)

	if d.RemainingAmount.IsZero() {
		now := time.Now()
		d.Status = DebtStatusPaid
		d.PaidAt = &now
		d.AddDomainEvent(NewDebtPaidEvent(d))
	} else {
		d.Status = DebtStatusPartiallyPaid
		d.AddDomainEvent(NewDebtPaymentAppliedEvent(d, &d.Payments[len(d.Payments)-1]))
	}

	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return &d.Payments[len(d.Payments)-1], nil
}

// LinkTransaction records the ledger transaction created for a payment
func (d *Debt) LinkTransaction(paymentID, transactionID uuid.UUID) error {
	for i := range d.Payments {
		if d.Payments[i].ID == paymentID {
			d.Payments[i].TransactionID = &transactionID
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeNotFound, "Payment not found on debt")
}

// ReversePayment reverses a previously applied payment and recomputes
// the paid and remaining amounts from the payments that are still active.
func (d *Debt) ReversePayment(paymentID uuid.UUID, reason string) (*DebtPayment, error) {
	if d.Status == DebtStatusCancelled {
		return nil, shared.NewDomainError(shared.CodeInvalidStateTransition, "Cannot reverse payment on a cancelled debt")
	}
	if reason == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reversal reason is required")
	}

	var payment *DebtPayment
	for i := range d.Payments {
		if d.Payments[i].ID == paymentID {
			payment = &d.Payments[i]
			break
		}
	}
	if payment == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Payment not found on debt")
	}
	if payment.IsReversed() {
		return nil, shared.NewDomainError(shared.CodeInvalidStateTransition, "Payment has already been reversed")
	}

	payment.MarkReversed(reason)
	d.recomputeFromPayments()

	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	d.AddDomainEvent(NewDebtPaymentReversedEvent(d, payment))

	return payment, nil
}

// recomputeFromPayments rebuilds paid/remaining/status from active payments
func (d *Debt) recomputeFromPayments() {
	paid := decimal.Zero
	for i := range d.Payments {
		if d.Payments[i].IsActive() {
			paid = paid.Add(d.Payments[i].Amount)
		}
	}

	d.PaidAmount = paid
	d.RemainingAmount = d.TotalAmount.Sub(paid)

	switch {
	case d.RemainingAmount.IsZero():
		if d.Status != DebtStatusPaid {
			now := time.Now()
			d.Status = DebtStatusPaid
			d.PaidAt = &now
		}
	case paid.IsPositive():
		d.Status = DebtStatusPartiallyPaid
		d.PaidAt = nil
	default:
		d.Status = DebtStatusPending
		d.PaidAt = nil
	}

	// Re-derive overdue after the balance changed
	if d.DueDate != nil && !d.Status.IsTerminal() && time.Now().After(*d.DueDate) {
		d.Status = DebtStatusOverdue
	}
}

// MarkOverdue transitions an open debt past its due date to OVERDUE.
// It is idempotent and never touches terminal debts.
func (d *Debt) MarkOverdue(asOf time.Time) bool {
	if d.Status.IsTerminal() || d.Status == DebtStatusOverdue {
		return false
	}
	if d.DueDate == nil || !asOf.After(*d.DueDate) {
		return false
	}

	d.Status = DebtStatusOverdue
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	d.AddDomainEvent(NewDebtOverdueEvent(d))

	return true
}

// Cancel cancels the debt. Only allowed while nothing has been paid.
func (d *Debt) Cancel(reason string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, fmt.Sprintf("Cannot cancel debt in %s status", d.Status))
	}
	if d.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Cannot cancel debt with existing payments")
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cancel reason is required")
	}

	now := time.Now()
	d.Status = DebtStatusCancelled
	d.CancelledAt = &now
	d.CancelReason = reason
	d.RemainingAmount = decimal.Zero
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDebtCancelledEvent(d))

	return nil
}

// SetDueDate updates the due date
func (d *Debt) SetDueDate(dueDate *time.Time) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Cannot modify due date for debt in terminal state")
	}

	d.DueDate = dueDate
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// SetContract associates the debt with a contract
func (d *Debt) SetContract(contractID uuid.UUID) {
	d.ContractID = &contractID
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// SetDescription sets the free-form description
func (d *Debt) SetDescription(description string) {
	d.Description = description
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// Helper methods

// GetTotalAmountMoney returns total amount as Money
func (d *Debt) GetTotalAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(d.TotalAmount, d.Currency)
	return m
}

// GetPaidAmountMoney returns paid amount as Money
func (d *Debt) GetPaidAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(d.PaidAmount, d.Currency)
	return m
}

// GetRemainingAmountMoney returns remaining amount as Money
func (d *Debt) GetRemainingAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(d.RemainingAmount, d.Currency)
	return m
}

// FindPayment returns the payment with the given ID, or nil
func (d *Debt) FindPayment(paymentID uuid.UUID) *DebtPayment {
	for i := range d.Payments {
		if d.Payments[i].ID == paymentID {
			return &d.Payments[i]
		}
	}
	return nil
}

// ActivePaymentCount returns the number of payments still counting toward paid amount
func (d *Debt) ActivePaymentCount() int {
	count := 0
	for i := range d.Payments {
		if d.Payments[i].IsActive() {
			count++
		}
	}
	return count
}

// IsPaid returns true if the debt is fully settled
func (d *Debt) IsPaid() bool {
	return d.Status == DebtStatusPaid
}

// IsCancelled returns true if the debt is cancelled
func (d *Debt) IsCancelled() bool {
	return d.Status == DebtStatusCancelled
}

// IsPastDue returns true if the debt is past its due date with an open balance
func (d *Debt) IsPastDue(asOf time.Time) bool {
	if d.Status.IsTerminal() || d.DueDate == nil {
		return false
	}
	return asOf.After(*d.DueDate)
}
