package finance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// ProfitRecord represents the cached profit summary for one company and
// calendar month. There is at most one record per (company, year, month);
// the figures are always recomputed from posted transactions, never
// adjusted incrementally.
type ProfitRecord struct {
	shared.CompanyAggregateRoot
	PeriodYear   int                  `json:"period_year"`
	PeriodMonth  int                  `json:"period_month"`
	Revenue      decimal.Decimal      `json:"revenue"`
	Expenses     decimal.Decimal      `json:"expenses"`
	NetProfit    decimal.Decimal      `json:"net_profit"`
	ProfitMargin *decimal.Decimal     `json:"profit_margin,omitempty"` // Percentage, nil when revenue is zero
	Currency     valueobject.Currency `json:"currency"`
}

// NewProfitRecord creates a profit record for the given period with zero figures
func NewProfitRecord(companyID uuid.UUID, year, month int, currency valueobject.Currency) (*ProfitRecord, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Company ID cannot be empty")
	}
	if year < 1900 || year > 9999 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Period year %d is out of range", year))
	}
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Period month %d is out of range", month))
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &ProfitRecord{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		PeriodYear:           year,
		PeriodMonth:          month,
		Revenue:              decimal.Zero,
		Expenses:             decimal.Zero,
		NetProfit:            decimal.Zero,
		Currency:             currency,
	}, nil
}

// SetFigures replaces the record's figures with freshly computed totals.
// Revenue and expenses are magnitudes and must not be negative.
func (p *ProfitRecord) SetFigures(revenue, expenses decimal.Decimal) error {
	if revenue.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Revenue cannot be negative")
	}
	if expenses.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Expenses cannot be negative")
	}

	p.Revenue = revenue
	p.Expenses = expenses
	p.NetProfit = revenue.Sub(expenses)
	p.ProfitMargin = computeMargin(revenue, p.NetProfit)
	p.IncrementVersion()

	return nil
}

// computeMargin returns net profit as a percentage of revenue rounded
// to two decimal places, or nil when revenue is zero.
func computeMargin(revenue, netProfit decimal.Decimal) *decimal.Decimal {
	if revenue.IsZero() {
		return nil
	}
	margin := netProfit.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
	return &margin
}

// PeriodKey returns the period formatted as YYYY-MM
func (p *ProfitRecord) PeriodKey() string {
	return fmt.Sprintf("%04d-%02d", p.PeriodYear, p.PeriodMonth)
}

// GetRevenueMoney returns revenue as Money
func (p *ProfitRecord) GetRevenueMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Revenue, p.Currency)
	return m
}

// GetExpensesMoney returns expenses as Money
func (p *ProfitRecord) GetExpensesMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Expenses, p.Currency)
	return m
}

// GetNetProfitMoney returns net profit as Money
func (p *ProfitRecord) GetNetProfitMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.NetProfit, p.Currency)
	return m
}
