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

// TransactionService posts and voids standalone ledger transactions.
// Every posting moves the cash account balance and refreshes the profit
// record for the transaction's period inside one database transaction.
type TransactionService struct {
	scope       TransactionScope
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(scope TransactionScope, idempotency shared.IdempotencyStore, idemConfig shared.IdempotencyConfig) *TransactionService {
	return &TransactionService{
		scope:       scope,
		idempotency: idempotency,
		idemConfig:  idemConfig,
	}
}

// RecordTransaction posts a new transaction and applies its balance change
func (s *TransactionService) RecordTransaction(ctx context.Context, req RecordTransactionRequest) (*RecordTransactionResult, error) {
	if req.IdempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		processed, err := s.idempotency.IsProcessed(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if processed {
			return &RecordTransactionResult{Duplicate: true}, nil
		}
	}

	var result *RecordTransactionResult
	err := withConflictRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			account, err := repos.CashAccountRepo().FindByIDForCompany(ctx, req.CompanyID, req.CashAccountID)
			if err != nil {
				return fmt.Errorf("failed to load cash account: %w", err)
			}
			if account == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
			}

			currency := req.Currency
			if currency == "" {
				currency = account.Currency
			}
			if currency != account.Currency {
				return shared.NewDomainError(shared.CodeCurrencyMismatch,
					fmt.Sprintf("Transaction currency %s does not match account currency %s", currency, account.Currency))
			}

			amount, err := valueobject.NewMoney(req.Amount, currency)
			if err != nil {
				return err
			}

			txDate := req.TransactionDate
			if txDate.IsZero() {
				txDate = time.Now()
			}

			tx, err := finance.NewTransaction(req.CompanyID, account.ID, req.TransactionType, req.Category, amount, txDate, req.Description)
			if err != nil {
				return err
			}
			if req.CounterpartyID != nil {
				tx.SetCounterparty(*req.CounterpartyID)
			}
			if req.ContractID != nil {
				tx.SetContract(*req.ContractID)
			}
			if req.CreatedBy != nil {
				tx.SetCreatedBy(*req.CreatedBy)
			}

			if req.TransactionType == finance.TransactionTypeIncome {
				err = account.Credit(amount)
			} else {
				err = account.Debit(amount)
			}
			if err != nil {
				return err
			}

			if err := repos.CashAccountRepo().SaveWithLock(ctx, account); err != nil {
				return err
			}
			if err := repos.TransactionRepo().Save(ctx, tx); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			year, month := tx.Period()
			if err := refreshProfitInScope(ctx, repos, req.CompanyID, account.Currency, year, month); err != nil {
				return err
			}

			result = &RecordTransactionResult{
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
		_, _ = s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, s.idemConfig.TTL)
	}

	return result, nil
}

// VoidTransaction voids a posted transaction and restores the account
// balance. When the transaction settles a debt payment, the payment is
// reversed in the same unit so the debt and the ledger stay in step.
func (s *TransactionService) VoidTransaction(ctx context.Context, req VoidTransactionRequest) (*VoidTransactionResult, error) {
	var result *VoidTransactionResult
	err := withConflictRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			tx, err := repos.TransactionRepo().FindByIDForCompany(ctx, req.CompanyID, req.TransactionID)
			if err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}
			if tx == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Transaction not found")
			}

			if err := tx.Void(req.Reason); err != nil {
				return err
			}

			account, err := repos.CashAccountRepo().FindByIDForCompany(ctx, req.CompanyID, tx.CashAccountID)
			if err != nil {
				return fmt.Errorf("failed to load cash account: %w", err)
			}
			if account == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Cash account not found")
			}
			if err := account.ApplyVoid(tx.GetAmountMoney(), tx.TransactionType); err != nil {
				return err
			}

			var debt *finance.Debt
			if tx.DebtPaymentID != nil {
				debt, err = repos.DebtRepo().FindByPaymentID(ctx, req.CompanyID, *tx.DebtPaymentID)
				if err != nil {
					return fmt.Errorf("failed to load debt for linked payment: %w", err)
				}
				if debt == nil {
					return shared.NewDomainError(shared.CodeNotFound, "Debt for linked payment not found")
				}
				if _, err := debt.ReversePayment(*tx.DebtPaymentID, req.Reason); err != nil {
					return err
				}
			}

			if err := repos.CashAccountRepo().SaveWithLock(ctx, account); err != nil {
				return err
			}
			if err := repos.TransactionRepo().SaveWithLock(ctx, tx); err != nil {
				return err
			}
			if debt != nil {
				if err := repos.DebtRepo().SaveWithLock(ctx, debt); err != nil {
					return err
				}
			}

			year, month := tx.Period()
			if err := refreshProfitInScope(ctx, repos, req.CompanyID, account.Currency, year, month); err != nil {
				return err
			}

			result = &VoidTransactionResult{
				Transaction: tx,
				Debt:        debt,
				NewBalance:  account.Balance,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetTransaction retrieves a transaction by ID for a company
func (s *TransactionService) GetTransaction(ctx context.Context, companyID, transactionID uuid.UUID) (*finance.Transaction, error) {
	var tx *finance.Transaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.TransactionRepo().FindByIDForCompany(ctx, companyID, transactionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Transaction not found")
	}
	return tx, nil
}

// ListTransactions lists transactions for a company with filtering
func (s *TransactionService) ListTransactions(ctx context.Context, companyID uuid.UUID, filter finance.TransactionFilter) (shared.Paginated[finance.Transaction], error) {
	var result shared.Paginated[finance.Transaction]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		txs, err := repos.TransactionRepo().FindAllForCompany(ctx, companyID, filter)
		if err != nil {
			return err
		}
		total, err := repos.TransactionRepo().CountForCompany(ctx, companyID, filter)
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
		result = shared.NewPaginated(txs, total, page, pageSize)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to list transactions: %w", err)
	}
	return result, nil
}
