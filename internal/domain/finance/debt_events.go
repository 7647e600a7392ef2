package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// DebtCreatedEvent is raised when a new debt is created
type DebtCreatedEvent struct {
	shared.BaseDomainEvent
	DebtID         uuid.UUID            `json:"debt_id"`
	CounterpartyID uuid.UUID            `json:"counterparty_id"`
	DebtType       DebtType             `json:"debt_type"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Currency       valueobject.Currency `json:"currency"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *DebtCreatedEvent) EventType() string {
	return "DebtCreated"
}

// NewDebtCreatedEvent creates a new DebtCreatedEvent
func NewDebtCreatedEvent(d *Debt) *DebtCreatedEvent {
	return &DebtCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtCreated", "Debt", d.ID, d.CompanyID),
		DebtID:          d.ID,
		CounterpartyID:  d.CounterpartyID,
		DebtType:        d.DebtType,
		TotalAmount:     d.TotalAmount,
		Currency:        d.Currency,
		DueDate:         d.DueDate,
	}
}

// DebtPaymentAppliedEvent is raised when a partial payment is applied to a debt
type DebtPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	DebtID          uuid.UUID       `json:"debt_id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	Method          PaymentMethod   `json:"method"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// EventType returns the event type name
func (e *DebtPaymentAppliedEvent) EventType() string {
	return "DebtPaymentApplied"
}

// NewDebtPaymentAppliedEvent creates a new DebtPaymentAppliedEvent
func NewDebtPaymentAppliedEvent(d *Debt, p *DebtPayment) *DebtPaymentAppliedEvent {
	return &DebtPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPaymentApplied", "Debt", d.ID, d.CompanyID),
		DebtID:          d.ID,
		PaymentID:       p.ID,
		PaymentAmount:   p.Amount,
		Method:          p.Method,
		PaidAmount:      d.PaidAmount,
		RemainingAmount: d.RemainingAmount,
	}
}

// DebtPaidEvent is raised when a debt becomes fully settled
type DebtPaidEvent struct {
	shared.BaseDomainEvent
	DebtID      uuid.UUID       `json:"debt_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAt      time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *DebtPaidEvent) EventType() string {
	return "DebtPaid"
}

// NewDebtPaidEvent creates a new DebtPaidEvent
func NewDebtPaidEvent(d *Debt) *DebtPaidEvent {
	paidAt := time.Now()
	if d.PaidAt != nil {
		paidAt = *d.PaidAt
	}
	return &DebtPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPaid", "Debt", d.ID, d.CompanyID),
		DebtID:          d.ID,
		TotalAmount:     d.TotalAmount,
		PaidAt:          paidAt,
	}
}

// DebtPaymentReversedEvent is raised when a payment on a debt is reversed
type DebtPaymentReversedEvent struct {
	shared.BaseDomainEvent
	DebtID          uuid.UUID       `json:"debt_id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	ReversalReason  string          `json:"reversal_reason"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          DebtStatus      `json:"status"`
}

// EventType returns the event type name
func (e *DebtPaymentReversedEvent) EventType() string {
	return "DebtPaymentReversed"
}

// NewDebtPaymentReversedEvent creates a new DebtPaymentReversedEvent
func NewDebtPaymentReversedEvent(d *Debt, p *DebtPayment) *DebtPaymentReversedEvent {
	return &DebtPaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPaymentReversed", "Debt", d.ID, d.CompanyID),
		DebtID:          d.ID,
		PaymentID:       p.ID,
		PaymentAmount:   p.Amount,
		ReversalReason:  p.ReversalReason,
		PaidAmount:      d.PaidAmount,
		RemainingAmount: d.RemainingAmount,
		Status:          d.Status,
	}
}

// DebtOverdueEvent is raised when an open debt passes its due date
type DebtOverdueEvent struct {
	shared.BaseDomainEvent
	DebtID          uuid.UUID       `json:"debt_id"`
	CounterpartyID  uuid.UUID       `json:"counterparty_id"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *DebtOverdueEvent) EventType() string {
	return "DebtOverdue"
}

// NewDebtOverdueEvent creates a new DebtOverdueEvent
func NewDebtOverdueEvent(d *Debt) *DebtOverdueEvent {
	return &DebtOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtOverdue", "Debt", d.ID, d.CompanyID),
		DebtID:          d.ID,
		CounterpartyID:  d.CounterpartyID,
		RemainingAmount: d.RemainingAmount,
		DueDate:         d.DueDate,
	}
}

// DebtCancelledEvent is raised when a debt is cancelled
type DebtCancelledEvent struct {
	shared.BaseDomainEvent
	DebtID       uuid.UUID       `json:"debt_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CancelReason string          `json:"cancel_reason"`
	CancelledAt  time.Time       `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *DebtCancelledEvent) EventType() string {
	return "DebtCancelled"
}

// NewDebtCancelledEvent creates a new DebtCancelledEvent
func NewDebtCancelledEvent(d *Debt) *DebtCancelledEvent {
	cancelledAt := time.Now()
	if d.CancelledAt != nil {
		cancelledAt = *d.CancelledAt
	}
	return &DebtCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtCancelled", "Debt", d.ID, d.CompanyID),
		DebtID:          d.ID,
		TotalAmount:     d.TotalAmount,
		CancelReason:    d.CancelReason,
		CancelledAt:     cancelledAt,
	}
}
