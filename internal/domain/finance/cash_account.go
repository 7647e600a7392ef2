package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// AccountType classifies a cash account
type AccountType string

const (
	AccountTypeCash  AccountType = "CASH"
	AccountTypeBank  AccountType = "BANK"
	AccountTypeOther AccountType = "OTHER"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	return t == AccountTypeCash || t == AccountTypeBank || t == AccountTypeOther
}

// OverdraftPolicy controls whether an account balance may go negative
type OverdraftPolicy string

const (
	OverdraftPolicyAllow OverdraftPolicy = "ALLOW_OVERDRAFT"
	OverdraftPolicyDeny  OverdraftPolicy = "NO_OVERDRAFT"
)

// IsValid checks if the overdraft policy is valid
func (p OverdraftPolicy) IsValid() bool {
	return p == OverdraftPolicyAllow || p == OverdraftPolicyDeny
}

// CashAccount represents a cash or bank account aggregate root.
// Its balance changes only through Credit and Debit, which the
// transaction registrar drives when posting or voiding transactions.
type CashAccount struct {
	shared.CompanyAggregateRoot
	BranchID        *uuid.UUID           `json:"branch_id,omitempty"`
	AccountName     string               `json:"account_name"`
	AccountType     AccountType          `json:"account_type"`
	Currency        valueobject.Currency `json:"currency"`
	Balance         decimal.Decimal      `json:"balance"`
	OverdraftPolicy OverdraftPolicy      `json:"overdraft_policy"`
}

// NewCashAccount creates a new cash account with a zero balance
func NewCashAccount(
	companyID uuid.UUID,
	accountName string,
	accountType AccountType,
	currency valueobject.Currency,
	policy OverdraftPolicy,
) (*CashAccount, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Company ID cannot be empty")
	}
	if accountName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account name cannot be empty")
	}
	if len(accountName) > 100 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account name cannot exceed 100 characters")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account type is not valid")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if policy == "" {
		policy = OverdraftPolicyDeny
	}
	if !policy.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Overdraft policy is not valid")
	}

	a := &CashAccount{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		AccountName:          accountName,
		AccountType:          accountType,
		Currency:             currency,
		Balance:              decimal.Zero,
		OverdraftPolicy:      policy,
	}

	a.AddDomainEvent(NewCashAccountCreatedEvent(a))

	return a, nil
}

// SetBranch associates the account with a branch
func (a *CashAccount) SetBranch(branchID uuid.UUID) {
	a.BranchID = &branchID
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// Credit increases the balance by the given amount
func (a *CashAccount) Credit(amount valueobject.Money) error {
	if amount.Currency() != a.Currency {
		return shared.NewDomainError(shared.CodeCurrencyMismatch, fmt.Sprintf("Amount currency %s does not match account currency %s", amount.Currency(), a.Currency))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Credit amount must be positive")
	}

	a.Balance = a.Balance.Add(amount.Amount())
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewCashAccountBalanceChangedEvent(a, amount.Amount()))

	return nil
}

// Debit decreases the balance by the given amount.
// Accounts with the NO_OVERDRAFT policy reject debits that would take
// the balance below zero.
func (a *CashAccount) Debit(amount valueobject.Money) error {
	if amount.Currency() != a.Currency {
		return shared.NewDomainError(shared.CodeCurrencyMismatch, fmt.Sprintf("Amount currency %s does not match account currency %s", amount.Currency(), a.Currency))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Debit amount must be positive")
	}

	newBalance := a.Balance.Sub(amount.Amount())
	if a.OverdraftPolicy == OverdraftPolicyDeny && newBalance.IsNegative() {
		return shared.NewDomainError(shared.CodeInsufficientFunds, fmt.Sprintf("Insufficient funds: balance %s, requested %s", a.Balance.StringFixed(2), amount.Amount().StringFixed(2)))
	}

	a.Balance = newBalance
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewCashAccountBalanceChangedEvent(a, amount.Amount().Neg()))

	return nil
}

// ApplyVoid applies the opposite balance change of a voided transaction.
// The overdraft policy is not enforced here: voiding restores a prior
// balance rather than spending funds, so it must always succeed.
func (a *CashAccount) ApplyVoid(amount valueobject.Money, voidedType TransactionType) error {
	if amount.Currency() != a.Currency {
		return shared.NewDomainError(shared.CodeCurrencyMismatch, fmt.Sprintf("Amount currency %s does not match account currency %s", amount.Currency(), a.Currency))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Void amount must be positive")
	}

	delta := amount.Amount()
	if voidedType == TransactionTypeIncome {
		delta = delta.Neg()
	}

	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewCashAccountBalanceChangedEvent(a, delta))

	return nil
}

// Rename changes the account name
func (a *CashAccount) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Account name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Account name cannot exceed 100 characters")
	}

	a.AccountName = name
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// SetOverdraftPolicy changes the overdraft policy. Switching to
// NO_OVERDRAFT is rejected while the balance is already negative.
func (a *CashAccount) SetOverdraftPolicy(policy OverdraftPolicy) error {
	if !policy.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Overdraft policy is not valid")
	}
	if policy == OverdraftPolicyDeny && a.Balance.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Cannot deny overdraft while balance is negative")
	}

	a.OverdraftPolicy = policy
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// GetBalanceMoney returns the balance as Money
func (a *CashAccount) GetBalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(a.Balance, a.Currency)
	return m
}

// CashAccountCreatedEvent is raised when a new cash account is created
type CashAccountCreatedEvent struct {
	shared.BaseDomainEvent
	AccountID   uuid.UUID            `json:"account_id"`
	AccountName string               `json:"account_name"`
	AccountType AccountType          `json:"account_type"`
	Currency    valueobject.Currency `json:"currency"`
}

// EventType returns the event type name
func (e *CashAccountCreatedEvent) EventType() string {
	return "CashAccountCreated"
}

// NewCashAccountCreatedEvent creates a new CashAccountCreatedEvent
func NewCashAccountCreatedEvent(a *CashAccount) *CashAccountCreatedEvent {
	return &CashAccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashAccountCreated", "CashAccount", a.ID, a.CompanyID),
		AccountID:       a.ID,
		AccountName:     a.AccountName,
		AccountType:     a.AccountType,
		Currency:        a.Currency,
	}
}

// CashAccountBalanceChangedEvent is raised whenever the balance moves
type CashAccountBalanceChangedEvent struct {
	shared.BaseDomainEvent
	AccountID  uuid.UUID       `json:"account_id"`
	Delta      decimal.Decimal `json:"delta"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// EventType returns the event type name
func (e *CashAccountBalanceChangedEvent) EventType() string {
	return "CashAccountBalanceChanged"
}

// NewCashAccountBalanceChangedEvent creates a new CashAccountBalanceChangedEvent
func NewCashAccountBalanceChangedEvent(a *CashAccount, delta decimal.Decimal) *CashAccountBalanceChangedEvent {
	return &CashAccountBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashAccountBalanceChanged", "CashAccount", a.ID, a.CompanyID),
		AccountID:       a.ID,
		Delta:           delta,
		NewBalance:      a.Balance,
	}
}
