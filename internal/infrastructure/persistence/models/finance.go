package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// DebtModel is the persistence model for the Debt aggregate root.
// Payments live inside the aggregate and are stored as JSONB.
type DebtModel struct {
	CompanyAggregateModel
	CounterpartyID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	ContractID      *uuid.UUID           `gorm:"type:uuid;index"`
	DebtType        finance.DebtType     `gorm:"type:varchar(20);not null;index"`
	TotalAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	RemainingAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;index"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null"`
	DueDate         *time.Time           `gorm:"index"`
	Status          finance.DebtStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Payments        finance.DebtPayments `gorm:"type:jsonb;default:'[]'"`
	Description     string               `gorm:"type:text"`
	PaidAt          *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (DebtModel) TableName() string {
	return "debts"
}

// ToDomain converts the persistence model to a domain Debt entity.
func (m *DebtModel) ToDomain() *finance.Debt {
	d := &finance.Debt{
		CounterpartyID:  m.CounterpartyID,
		ContractID:      m.ContractID,
		DebtType:        m.DebtType,
		TotalAmount:     m.TotalAmount,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		Currency:        m.Currency,
		DueDate:         m.DueDate,
		Status:          m.Status,
		Payments:        m.Payments,
		Description:     m.Description,
		PaidAt:          m.PaidAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
	}
	m.PopulateCompanyAggregateRoot(&d.CompanyAggregateRoot)
	return d
}

// FromDomain populates the persistence model from a domain Debt entity.
func (m *DebtModel) FromDomain(d *finance.Debt) {
	m.FromDomainCompanyAggregateRoot(d.CompanyAggregateRoot)
	m.CounterpartyID = d.CounterpartyID
	m.ContractID = d.ContractID
	m.DebtType = d.DebtType
	m.TotalAmount = d.TotalAmount
	m.PaidAmount = d.PaidAmount
	m.RemainingAmount = d.RemainingAmount
	m.Currency = d.Currency
	m.DueDate = d.DueDate
	m.Status = d.Status
	m.Payments = d.Payments
	m.Description = d.Description
	m.PaidAt = d.PaidAt
	m.CancelledAt = d.CancelledAt
	m.CancelReason = d.CancelReason
}

// DebtModelFromDomain creates a new persistence model from a domain Debt.
func DebtModelFromDomain(d *finance.Debt) *DebtModel {
	m := &DebtModel{}
	m.FromDomain(d)
	return m
}

// TransactionModel is the persistence model for the Transaction aggregate root.
type TransactionModel struct {
	CompanyAggregateModel
	CashAccountID   uuid.UUID                   `gorm:"type:uuid;not null;index"`
	TransactionType finance.TransactionType     `gorm:"type:varchar(20);not null;index"`
	Category        finance.TransactionCategory `gorm:"type:varchar(30);not null;index"`
	Amount          decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Currency        valueobject.Currency        `gorm:"type:varchar(3);not null"`
	CounterpartyID  *uuid.UUID                  `gorm:"type:uuid;index"`
	ContractID      *uuid.UUID                  `gorm:"type:uuid;index"`
	DebtPaymentID   *uuid.UUID                  `gorm:"type:uuid;index"`
	Description     string                      `gorm:"type:text"`
	TransactionDate time.Time                   `gorm:"not null;index"`
	Status          finance.TransactionStatus   `gorm:"type:varchar(20);not null;default:'POSTED';index"`
	VoidedAt        *time.Time
	VoidReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *TransactionModel) ToDomain() *finance.Transaction {
	t := &finance.Transaction{
		CashAccountID:   m.CashAccountID,
		TransactionType: m.TransactionType,
		Category:        m.Category,
		Amount:          m.Amount,
		Currency:        m.Currency,
		CounterpartyID:  m.CounterpartyID,
		ContractID:      m.ContractID,
		DebtPaymentID:   m.DebtPaymentID,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
		Status:          m.Status,
		VoidedAt:        m.VoidedAt,
		VoidReason:      m.VoidReason,
	}
	m.PopulateCompanyAggregateRoot(&t.CompanyAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *TransactionModel) FromDomain(t *finance.Transaction) {
	m.FromDomainCompanyAggregateRoot(t.CompanyAggregateRoot)
	m.CashAccountID = t.CashAccountID
	m.TransactionType = t.TransactionType
	m.Category = t.Category
	m.Amount = t.Amount
	m.Currency = t.Currency
	m.CounterpartyID = t.CounterpartyID
	m.ContractID = t.ContractID
	m.DebtPaymentID = t.DebtPaymentID
	m.Description = t.Description
	m.TransactionDate = t.TransactionDate
	m.Status = t.Status
	m.VoidedAt = t.VoidedAt
	m.VoidReason = t.VoidReason
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *finance.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// CashAccountModel is the persistence model for the CashAccount aggregate root.
type CashAccountModel struct {
	CompanyAggregateModel
	BranchID        *uuid.UUID              `gorm:"type:uuid;index"`
	AccountName     string                  `gorm:"type:varchar(100);not null;uniqueIndex:idx_cash_account_company_name,priority:2"`
	AccountType     finance.AccountType     `gorm:"type:varchar(20);not null;index"`
	Currency        valueobject.Currency    `gorm:"type:varchar(3);not null"`
	Balance         decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	OverdraftPolicy finance.OverdraftPolicy `gorm:"type:varchar(20);not null;default:'NO_OVERDRAFT'"`
}

// TableName returns the table name for GORM
func (CashAccountModel) TableName() string {
	return "cash_accounts"
}

// ToDomain converts the persistence model to a domain CashAccount entity.
func (m *CashAccountModel) ToDomain() *finance.CashAccount {
	a := &finance.CashAccount{
		BranchID:        m.BranchID,
		AccountName:     m.AccountName,
		AccountType:     m.AccountType,
		Currency:        m.Currency,
		Balance:         m.Balance,
		OverdraftPolicy: m.OverdraftPolicy,
	}
	m.PopulateCompanyAggregateRoot(&a.CompanyAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain CashAccount entity.
func (m *CashAccountModel) FromDomain(a *finance.CashAccount) {
	m.FromDomainCompanyAggregateRoot(a.CompanyAggregateRoot)
	m.BranchID = a.BranchID
	m.AccountName = a.AccountName
	m.AccountType = a.AccountType
	m.Currency = a.Currency
	m.Balance = a.Balance
	m.OverdraftPolicy = a.OverdraftPolicy
}

// CashAccountModelFromDomain creates a new persistence model from a domain CashAccount.
func CashAccountModelFromDomain(a *finance.CashAccount) *CashAccountModel {
	m := &CashAccountModel{}
	m.FromDomain(a)
	return m
}

// ProfitRecordModel is the persistence model for the ProfitRecord aggregate root.
// The unique index backs the one-record-per-period upsert.
type ProfitRecordModel struct {
	CompanyAggregateModel
	PeriodYear   int                  `gorm:"not null;uniqueIndex:idx_profit_company_period,priority:2"`
	PeriodMonth  int                  `gorm:"not null;uniqueIndex:idx_profit_company_period,priority:3"`
	Revenue      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Expenses     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	NetProfit    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ProfitMargin *decimal.Decimal     `gorm:"type:decimal(8,2)"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (ProfitRecordModel) TableName() string {
	return "profit_records"
}

// ToDomain converts the persistence model to a domain ProfitRecord entity.
func (m *ProfitRecordModel) ToDomain() *finance.ProfitRecord {
	r := &finance.ProfitRecord{
		PeriodYear:   m.PeriodYear,
		PeriodMonth:  m.PeriodMonth,
		Revenue:      m.Revenue,
		Expenses:     m.Expenses,
		NetProfit:    m.NetProfit,
		ProfitMargin: m.ProfitMargin,
		Currency:     m.Currency,
	}
	m.PopulateCompanyAggregateRoot(&r.CompanyAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain ProfitRecord entity.
func (m *ProfitRecordModel) FromDomain(r *finance.ProfitRecord) {
	m.FromDomainCompanyAggregateRoot(r.CompanyAggregateRoot)
	m.PeriodYear = r.PeriodYear
	m.PeriodMonth = r.PeriodMonth
	m.Revenue = r.Revenue
	m.Expenses = r.Expenses
	m.NetProfit = r.NetProfit
	m.ProfitMargin = r.ProfitMargin
	m.Currency = r.Currency
}

// ProfitRecordModelFromDomain creates a new persistence model from a domain ProfitRecord.
func ProfitRecordModelFromDomain(r *finance.ProfitRecord) *ProfitRecordModel {
	m := &ProfitRecordModel{}
	m.FromDomain(r)
	return m
}
