package finance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/shared"
)

// ReconciliationService is a domain service that verifies the ledger's
// cross-aggregate invariants:
// 1. Every debt satisfies totalAmount = paidAmount + remainingAmount,
//    with paidAmount equal to the sum of its active payments
// 2. Each cash account balance equals the signed sum of its posted
//    transactions
// 3. Each profit record matches the totals recomputed from posted
//    transactions in its period
//
// The service only reports discrepancies. It never mutates state;
// correcting a broken ledger is an operator decision.
type ReconciliationService struct{}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{}
}

// Discrepancy describes a single invariant violation found during reconciliation
type Discrepancy struct {
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Field         string          `json:"field"`
	Expected      decimal.Decimal `json:"expected"`
	Actual        decimal.Decimal `json:"actual"`
	Detail        string          `json:"detail"`
}

// ReconciliationReport is the outcome of a reconciliation run
type ReconciliationReport struct {
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// IsClean returns true if no discrepancies were found
func (r *ReconciliationReport) IsClean() bool {
	return len(r.Discrepancies) == 0
}

// Err returns a domain error summarizing the report, or nil when clean
func (r *ReconciliationReport) Err() error {
	if r.IsClean() {
		return nil
	}
	return shared.NewDomainError(shared.CodeReconciliationError,
		fmt.Sprintf("Reconciliation found %d discrepancies", len(r.Discrepancies)))
}

// VerifyDebt checks the internal consistency of a single debt
func (s *ReconciliationService) VerifyDebt(d *Debt, report *ReconciliationReport) {
	activeSum := decimal.Zero
	for i := range d.Payments {
		if d.Payments[i].IsActive() {
			activeSum = activeSum.Add(d.Payments[i].Amount)
		}
	}

	if !d.PaidAmount.Equal(activeSum) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			AggregateType: "Debt",
			AggregateID:   d.ID,
			Field:         "paid_amount",
			Expected:      activeSum,
			Actual:        d.PaidAmount,
			Detail:        "Paid amount does not equal the sum of active payments",
		})
	}

	// A cancelled debt zeroes its remaining amount, so the balance
	// identity only holds for open and paid debts.
	if d.Status != DebtStatusCancelled {
		expectedRemaining := d.TotalAmount.Sub(d.PaidAmount)
		if !d.RemainingAmount.Equal(expectedRemaining) {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				AggregateType: "Debt",
				AggregateID:   d.ID,
				Field:         "remaining_amount",
				Expected:      expectedRemaining,
				Actual:        d.RemainingAmount,
				Detail:        "Remaining amount does not equal total minus paid",
			})
		}

		if d.RemainingAmount.IsZero() && d.Status != DebtStatusPaid {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				AggregateType: "Debt",
				AggregateID:   d.ID,
				Field:         "status",
				Expected:      decimal.Zero,
				Actual:        d.RemainingAmount,
				Detail:        fmt.Sprintf("Debt with zero remaining amount has status %s instead of PAID", d.Status),
			})
		}
		if d.RemainingAmount.IsPositive() && d.Status == DebtStatusPaid {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				AggregateType: "Debt",
				AggregateID:   d.ID,
				Field:         "status",
				Expected:      decimal.Zero,
				Actual:        d.RemainingAmount,
				Detail:        "Debt marked PAID still has a remaining amount",
			})
		}
	}
}

// VerifyAccountBalance checks that an account balance equals the signed
// sum of its posted transactions. Voided transactions are excluded.
func (s *ReconciliationService) VerifyAccountBalance(account *CashAccount, transactions []Transaction, report *ReconciliationReport) {
	expected := decimal.Zero
	for i := range transactions {
		tx := &transactions[i]
		if tx.CashAccountID != account.ID || tx.IsVoided() {
			continue
		}
		expected = expected.Add(tx.SignedAmount())
	}

	if !account.Balance.Equal(expected) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			AggregateType: "CashAccount",
			AggregateID:   account.ID,
			Field:         "balance",
			Expected:      expected,
			Actual:        account.Balance,
			Detail:        "Account balance does not equal the signed sum of posted transactions",
		})
	}
}

// VerifyProfitRecord checks that a profit record matches the totals
// recomputed from posted transactions in its period.
func (s *ReconciliationService) VerifyProfitRecord(record *ProfitRecord, transactions []Transaction, report *ReconciliationReport) {
	revenue, expenses := SummarizePeriod(transactions, record.CompanyID, record.PeriodYear, record.PeriodMonth)

	if !record.Revenue.Equal(revenue) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			AggregateType: "ProfitRecord",
			AggregateID:   record.ID,
			Field:         "revenue",
			Expected:      revenue,
			Actual:        record.Revenue,
			Detail:        fmt.Sprintf("Revenue for %s does not match posted income", record.PeriodKey()),
		})
	}
	if !record.Expenses.Equal(expenses) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			AggregateType: "ProfitRecord",
			AggregateID:   record.ID,
			Field:         "expenses",
			Expected:      expenses,
			Actual:        record.Expenses,
			Detail:        fmt.Sprintf("Expenses for %s do not match posted expenses", record.PeriodKey()),
		})
	}
	if !record.NetProfit.Equal(record.Revenue.Sub(record.Expenses)) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			AggregateType: "ProfitRecord",
			AggregateID:   record.ID,
			Field:         "net_profit",
			Expected:      record.Revenue.Sub(record.Expenses),
			Actual:        record.NetProfit,
			Detail:        "Net profit does not equal revenue minus expenses",
		})
	}
}

// SummarizePeriod totals posted income and expense transactions for a
// company in the given period. Voided transactions are excluded.
func SummarizePeriod(transactions []Transaction, companyID uuid.UUID, year, month int) (revenue, expenses decimal.Decimal) {
	revenue = decimal.Zero
	expenses = decimal.Zero
	for i := range transactions {
		tx := &transactions[i]
		if tx.CompanyID != companyID || tx.IsVoided() {
			continue
		}
		y, m := tx.Period()
		if y != year || m != month {
			continue
		}
		switch tx.TransactionType {
		case TransactionTypeIncome:
			revenue = revenue.Add(tx.Amount)
		case TransactionTypeExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return revenue, expenses
}
