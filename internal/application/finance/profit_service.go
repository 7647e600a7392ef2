package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// ProfitService maintains and serves the cached monthly profit records.
// Records are always recomputed from posted transactions; repeated
// refreshes of the same period are idempotent.
type ProfitService struct {
	scope        TransactionScope
	reconciliser *finance.ReconciliationService
}

// NewProfitService creates a new ProfitService
func NewProfitService(scope TransactionScope) *ProfitService {
	return &ProfitService{
		scope:        scope,
		reconciliser: finance.NewReconciliationService(),
	}
}

// refreshProfitInScope recomputes the profit figures for one period from
// posted transactions and upserts the record. It runs inside an existing
// transaction scope so the refresh commits with the mutation that
// triggered it.
func refreshProfitInScope(ctx context.Context, repos TransactionalRepositories, companyID uuid.UUID, currency valueobject.Currency, year, month int) error {
	revenue, expenses, err := repos.TransactionRepo().SumByPeriod(ctx, companyID, year, month)
	if err != nil {
		return fmt.Errorf("failed to sum period transactions: %w", err)
	}

	record, err := repos.ProfitRecordRepo().FindByPeriod(ctx, companyID, year, month)
	if err != nil {
		return fmt.Errorf("failed to load profit record: %w", err)
	}
	if record == nil {
		record, err = finance.NewProfitRecord(companyID, year, month, currency)
		if err != nil {
			return err
		}
	}
	if err := record.SetFigures(revenue, expenses); err != nil {
		return err
	}

	if err := repos.ProfitRecordRepo().Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert profit record: %w", err)
	}
	return nil
}

// RefreshProfit recomputes the profit record for one company and period
func (s *ProfitService) RefreshProfit(ctx context.Context, companyID uuid.UUID, year, month int, currency valueobject.Currency) (*ProfitSummary, error) {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Period month %d is out of range", month))
	}

	var summary ProfitSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := refreshProfitInScope(ctx, repos, companyID, currency, year, month); err != nil {
			return err
		}
		record, err := repos.ProfitRecordRepo().FindByPeriod(ctx, companyID, year, month)
		if err != nil {
			return err
		}
		if record == nil {
			return shared.NewDomainError(shared.CodeNotFound, "Profit record not found after refresh")
		}
		summary = NewProfitSummary(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetProfit returns the cached profit record for one period
func (s *ProfitService) GetProfit(ctx context.Context, companyID uuid.UUID, year, month int) (*ProfitSummary, error) {
	var summary ProfitSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		record, err := repos.ProfitRecordRepo().FindByPeriod(ctx, companyID, year, month)
		if err != nil {
			return err
		}
		if record == nil {
			return shared.NewDomainError(shared.CodeNotFound, "Profit record not found")
		}
		summary = NewProfitSummary(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListProfits lists profit records for a company
func (s *ProfitService) ListProfits(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]ProfitSummary, error) {
	var summaries []ProfitSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		records, err := repos.ProfitRecordRepo().FindAllForCompany(ctx, companyID, filter)
		if err != nil {
			return err
		}
		summaries = make([]ProfitSummary, 0, len(records))
		for i := range records {
			summaries = append(summaries, NewProfitSummary(&records[i]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profit records: %w", err)
	}
	return summaries, nil
}

// VerifyLedger reconciles the stored state of a company against the
// invariants: debt balance identities, cash account balances versus
// posted transactions, and profit records versus period totals. It
// reports discrepancies without correcting anything.
func (s *ProfitService) VerifyLedger(ctx context.Context, companyID uuid.UUID) (*finance.ReconciliationReport, error) {
	report := &finance.ReconciliationReport{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		debts, err := repos.DebtRepo().FindAllForCompany(ctx, companyID, finance.DebtFilter{Filter: noPagination()})
		if err != nil {
			return fmt.Errorf("failed to load debts: %w", err)
		}
		for i := range debts {
			s.reconciliser.VerifyDebt(&debts[i], report)
		}

		transactions, err := repos.TransactionRepo().FindAllForCompany(ctx, companyID, finance.TransactionFilter{Filter: noPagination()})
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}

		accounts, err := repos.CashAccountRepo().FindAllForCompany(ctx, companyID, finance.CashAccountFilter{Filter: noPagination()})
		if err != nil {
			return fmt.Errorf("failed to load cash accounts: %w", err)
		}
		for i := range accounts {
			s.reconciliser.VerifyAccountBalance(&accounts[i], transactions, report)
		}

		records, err := repos.ProfitRecordRepo().FindAllForCompany(ctx, companyID, noPagination())
		if err != nil {
			return fmt.Errorf("failed to load profit records: %w", err)
		}
		for i := range records {
			s.reconciliser.VerifyProfitRecord(&records[i], transactions, report)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// noPagination returns a filter that loads everything in one page
func noPagination() shared.Filter {
	f := shared.DefaultFilter()
	f.PageSize = 10000
	return f
}
