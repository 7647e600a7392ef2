package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
)

// CashAccountService manages cash accounts. Balance changes are never
// made here directly; they flow through the debt and transaction
// services so every movement has a posted transaction behind it.
type CashAccountService struct {
	scope        TransactionScope
	reconciliser *finance.ReconciliationService
}

// NewCashAccountService creates a new CashAccountService
func NewCashAccountService(scope TransactionScope) *CashAccountService {
	return &CashAccountService{
		scope:        scope,
		reconciliser: finance.NewReconciliationService(),
	}
}

// CreateAccount creates a new cash account
func (s *CashAccountService) CreateAccount(ctx context.Context, req CreateCashAccountRequest) (*finance.CashAccount, error) {
	account, err := finance.NewCashAccount(req.CompanyID, req.AccountName, req.AccountType, req.Currency, req.OverdraftPolicy)
	if err != nil {
		return nil, err
	}
	if req.BranchID != nil {
		account.SetBranch(*req.BranchID)
	}
	if req.CreatedBy != nil {
		account.SetCreatedBy(*req.CreatedBy)
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.CashAccountRepo().ExistsByName(ctx, req.CompanyID, req.AccountName)
		if err != nil {
			return fmt.Errorf("failed to check account name: %w", err)
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Cash account %q already exists", req.AccountName))
		}
		return repos.CashAccountRepo().Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves a cash account by ID for a company
func (s *CashAccountService) GetAccount(ctx context.Context, companyID, accountID uuid.UUID) (*finance.CashAccount, error) {
	var account *finance.CashAccount
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.CashAccountRepo().FindByIDForCompany(ctx, companyID, accountID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cash account: %w", err)
	}
	if account == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
	}
	return account, nil
}

// ListAccounts lists cash accounts for a company
func (s *CashAccountService) ListAccounts(ctx context.Context, companyID uuid.UUID, filter finance.CashAccountFilter) ([]finance.CashAccount, error) {
	var accounts []finance.CashAccount
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		accounts, err = repos.CashAccountRepo().FindAllForCompany(ctx, companyID, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cash accounts: %w", err)
	}
	return accounts, nil
}

// RenameAccount changes the account name
func (s *CashAccountService) RenameAccount(ctx context.Context, companyID, accountID uuid.UUID, name string) (*finance.CashAccount, error) {
	return s.updateAccount(ctx, companyID, accountID, func(account *finance.CashAccount) error {
		return account.Rename(name)
	})
}

// SetOverdraftPolicy changes the account's overdraft policy
func (s *CashAccountService) SetOverdraftPolicy(ctx context.Context, companyID, accountID uuid.UUID, policy finance.OverdraftPolicy) (*finance.CashAccount, error) {
	return s.updateAccount(ctx, companyID, accountID, func(account *finance.CashAccount) error {
		return account.SetOverdraftPolicy(policy)
	})
}

// ReconcileAccount verifies one account's balance against the signed sum
// of its posted transactions. It reports discrepancies without correcting
// anything.
func (s *CashAccountService) ReconcileAccount(ctx context.Context, companyID, accountID uuid.UUID) (*finance.ReconciliationReport, error) {
	report := &finance.ReconciliationReport{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		account, err := repos.CashAccountRepo().FindByIDForCompany(ctx, companyID, accountID)
		if err != nil {
			return fmt.Errorf("failed to load cash account: %w", err)
		}
		if account == nil {
			return shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
		}

		filter := finance.TransactionFilter{Filter: noPagination()}
		filter.CashAccountID = &accountID
		transactions, err := repos.TransactionRepo().FindAllForCompany(ctx, companyID, filter)
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}

		s.reconciliser.VerifyAccountBalance(account, transactions, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *CashAccountService) updateAccount(ctx context.Context, companyID, accountID uuid.UUID, mutate func(*finance.CashAccount) error) (*finance.CashAccount, error) {
	var account *finance.CashAccount
	err := withConflictRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			account, err = repos.CashAccountRepo().FindByIDForCompany(ctx, companyID, accountID)
			if err != nil {
				return fmt.Errorf("failed to load cash account: %w", err)
			}
			if account == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
			}
			if err := mutate(account); err != nil {
				return err
			}
			return repos.CashAccountRepo().SaveWithLock(ctx, account)
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
