package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// DebtService handles the debt lifecycle: creation, payment registration,
// payment reversal, cancellation, and the overdue sweep. Payment
// registration is the reconciliation core: one call atomically updates
// the debt, posts the ledger transaction, moves the cash account
// balance, and refreshes the profit record for the affected period.
type DebtService struct {
	scope       TransactionScope
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewDebtService creates a new DebtService. The idempotency store may be
// nil, in which case duplicate submission protection is disabled.
func NewDebtService(scope TransactionScope, idempotency shared.IdempotencyStore, idemConfig shared.IdempotencyConfig) *DebtService {
	return &DebtService{
		scope:       scope,
		idempotency: idempotency,
		idemConfig:  idemConfig,
	}
}

// CreateDebt creates a new debt obligation
func (s *DebtService) CreateDebt(ctx context.Context, req CreateDebtRequest) (*finance.Debt, error) {
	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, err := valueobject.NewMoney(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	debt, err := finance.NewDebt(req.CompanyID, req.CounterpartyID, req.DebtType, amount, req.DueDate)
	if err != nil {
		return nil, err
	}
	if req.ContractID != nil {
		debt.SetContract(*req.ContractID)
	}
	if req.Description != "" {
		debt.SetDescription(req.Description)
	}
	if req.CreatedBy != nil {
		debt.SetCreatedBy(*req.CreatedBy)
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.DebtRepo().Save(ctx, debt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save debt: %w", err)
	}

	return debt, nil
}

// GetDebt retrieves a debt by ID for a company
func (s *DebtService) GetDebt(ctx context.Context, companyID, debtID uuid.UUID) (*finance.Debt, error) {
	var debt *finance.Debt
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		debt, err = repos.DebtRepo().FindByIDForCompany(ctx, companyID, debtID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	if debt == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Debt not found")
	}
	return debt, nil
}

// ListDebts lists debts for a company with filtering
func (s *DebtService) ListDebts(ctx context.Context, companyID uuid.UUID, filter finance.DebtFilter) (shared.Paginated[finance.Debt], error) {
	var result shared.Paginated[finance.Debt]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		debts, err := repos.DebtRepo().FindAllForCompany(ctx, companyID, filter)
		if err != nil {
			return err
		}
		total, err := repos.DebtRepo().CountForCompany(ctx, companyID, filter)
		if err != nil {
			return err
		}
		page, pageSize := filter.Page, filter.PageSize
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = shared.DefaultFilter().PageSize
		}
		result = shared.NewPaginated(debts, total, page, pageSize)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to list debts: %w", err)
	}
	return result, nil
}

// RegisterPayment applies a payment to a debt and records the matching
// ledger transaction and cash account movement in one atomic unit.
// PAYABLE debts produce an expense that debits the account; RECEIVABLE
// debts produce an income that credits it.
func (s *DebtService) RegisterPayment(ctx context.Context, req RegisterDebtPaymentRequest) (*RegisterDebtPaymentResult, error) {
	if req.IdempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		processed, err := s.idempotency.IsProcessed(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if processed {
			return &RegisterDebtPaymentResult{Duplicate: true}, nil
		}
	}

	var result *RegisterDebtPaymentResult
	err := withConflictRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			debt, err := repos.DebtRepo().FindByIDForCompany(ctx, req.CompanyID, req.DebtID)
			if err != nil {
				return fmt.Errorf("failed to load debt: %w", err)
			}
			if debt == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Debt not found")
			}

			account, err := repos.CashAccountRepo().FindByIDForCompany(ctx, req.CompanyID, req.CashAccountID)
			if err != nil {
				return fmt.Errorf("failed to load cash account: %w", err)
			}
			if account == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
			}

			amount, err := valueobject.NewMoney(req.Amount, debt.Currency)
			if err != nil {
				return err
			}

			payment, err := debt.ApplyPayment(amount, req.PaymentDate, req.Method, req.Notes, req.CreatedBy)
			if err != nil {
				return err
			}

			var txType finance.TransactionType
			if debt.DebtType == finance.DebtTypePayable {
				txType = finance.TransactionTypeExpense
				err = account.Debit(amount)
			} else {
				txType = finance.TransactionTypeIncome
				err = account.Credit(amount)
			}
			if err != nil {
				return err
			}

			category := req.Category
			if category == "" {
				category = finance.CategoryOther
			}
			txDate := req.PaymentDate
			if txDate.IsZero() {
				txDate = time.Now()
			}
			description := req.Notes
			if description == "" {
				description = fmt.Sprintf("Debt payment %s", payment.ID)
			}

			tx, err := finance.NewTransaction(req.CompanyID, account.ID, txType, category, amount, txDate, description)
			if err != nil {
				return err
			}
			tx.SetCounterparty(debt.CounterpartyID)
			tx.SetDebtPayment(payment.ID)
			if debt.ContractID != nil {
				tx.SetContract(*debt.ContractID)
			}
			if req.CreatedBy != nil {
				tx.SetCreatedBy(*req.CreatedBy)
			}

			if err := debt.LinkTransaction(payment.ID, tx.ID); err != nil {
				return err
			}

			if err := repos.DebtRepo().SaveWithLock(ctx, debt); err != nil {
				return err
			}
			if err := repos.CashAccountRepo().SaveWithLock(ctx, account); err != nil {
				return err
			}
			if err := repos.TransactionRepo().Save(ctx, tx); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			year, month := tx.Period()
			if err := refreshProfitInScope(ctx, repos, req.CompanyID, debt.Currency, year, month); err != nil {
				return err
			}

			result = &RegisterDebtPaymentResult{
				Debt:        debt,
				Payment:     payment,
				Transaction: tx,
				NewBalance:  account.Balance,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		// Best effort: a failure here only risks a duplicate-key retry
		// being reprocessed, which the caller sees as a new payment.
		_, _ = s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, s.idemConfig.TTL)
	}

	return result, nil
}

// ReversePayment reverses a debt payment, voids its linked ledger
// transaction, and restores the cash account balance atomically.
func (s *DebtService) ReversePayment(ctx context.Context, req ReverseDebtPaymentRequest) (*ReverseDebtPaymentResult, error) {
	var result *ReverseDebtPaymentResult
	err := withConflictRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			debt, err := repos.DebtRepo().FindByIDForCompany(ctx, req.CompanyID, req.DebtID)
			if err != nil {
				return fmt.Errorf("failed to load debt: %w", err)
			}
			if debt == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Debt not found")
			}

			payment, err := debt.ReversePayment(req.PaymentID, req.Reason)
			if err != nil {
				return err
			}

			var voidedTx *finance.Transaction
			if payment.TransactionID != nil {
				voidedTx, err = repos.TransactionRepo().FindByIDForCompany(ctx, req.CompanyID, *payment.TransactionID)
				if err != nil {
					return fmt.Errorf("failed to load linked transaction: %w", err)
				}
			}
			if voidedTx != nil && !voidedTx.IsVoided() {
				if err := voidedTx.Void(req.Reason); err != nil {
					return err
				}

				account, err := repos.CashAccountRepo().FindByIDForCompany(ctx, req.CompanyID, voidedTx.CashAccountID)
				if err != nil {
					return fmt.Errorf("failed to load cash account: %w", err)
				}
				if account == nil {
					return shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
				}
				if err := account.ApplyVoid(voidedTx.GetAmountMoney(), voidedTx.TransactionType); err != nil {
					return err
				}

				if err := repos.CashAccountRepo().SaveWithLock(ctx, account); err != nil {
					return err
				}
				if err := repos.TransactionRepo().SaveWithLock(ctx, voidedTx); err != nil {
					return err
				}
			}

			if err := repos.DebtRepo().SaveWithLock(ctx, debt); err != nil {
				return err
			}

			if voidedTx != nil {
				year, month := voidedTx.Period()
				if err := refreshProfitInScope(ctx, repos, req.CompanyID, debt.Currency, year, month); err != nil {
					return err
				}
			}

			result = &ReverseDebtPaymentResult{
				Debt:        debt,
				Payment:     payment,
				Transaction: voidedTx,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelDebt cancels a debt that has no payments
func (s *DebtService) CancelDebt(ctx context.Context, companyID, debtID uuid.UUID, reason string) (*finance.Debt, error) {
	var debt *finance.Debt
	err := withConflictRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			debt, err = repos.DebtRepo().FindByIDForCompany(ctx, companyID, debtID)
			if err != nil {
				return fmt.Errorf("failed to load debt: %w", err)
			}
			if debt == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Debt not found")
			}
			if err := debt.Cancel(reason); err != nil {
				return err
			}
			return repos.DebtRepo().SaveWithLock(ctx, debt)
		})
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// MarkOverdueDebts sweeps open debts past their due date and marks them
// overdue. Debts that hit a concurrent update are skipped; the next
// sweep picks them up again. Returns the number of debts marked.
func (s *DebtService) MarkOverdueDebts(ctx context.Context, asOf time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	marked := 0
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		debts, err := repos.DebtRepo().FindOpenPastDue(ctx, asOf, batchSize)
		if err != nil {
			return fmt.Errorf("failed to find past-due debts: %w", err)
		}

		for i := range debts {
			debt := &debts[i]
			if !debt.MarkOverdue(asOf) {
				continue
			}
			if err := repos.DebtRepo().SaveWithLock(ctx, debt); err != nil {
				if shared.IsCode(err, shared.CodeConcurrencyConflict) {
					continue
				}
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return marked, err
	}
	return marked, nil
}
