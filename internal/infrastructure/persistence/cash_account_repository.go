package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
)

// GormCashAccountRepository implements CashAccountRepository using GORM
type GormCashAccountRepository struct {
	db *gorm.DB
}

// NewGormCashAccountRepository creates a new GormCashAccountRepository
func NewGormCashAccountRepository(db *gorm.DB) *GormCashAccountRepository {
	return &GormCashAccountRepository{db: db}
}

// FindByID finds a cash account by its ID. Returns nil when no account exists.
func (r *GormCashAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.CashAccount, error) {
	var model models.CashAccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForCompany finds a cash account by ID for a specific company
func (r *GormCashAccountRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*finance.CashAccount, error) {
	var model models.CashAccountModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany finds all cash accounts for a company with filtering
func (r *GormCashAccountRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter finance.CashAccountFilter) ([]finance.CashAccount, error) {
	var accountModels []models.CashAccountModel
	query := r.db.WithContext(ctx).Model(&models.CashAccountModel{}).
		Where("company_id = ?", companyID)
	query = r.applyAccountFilter(query, filter)

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]finance.CashAccount, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// Save creates or updates a cash account
func (r *GormCashAccountRepository) Save(ctx context.Context, account *finance.CashAccount) error {
	model := models.CashAccountModelFromDomain(account)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Select("*") forces every
// column into the update so a balance back at zero still overwrites
// the stale row.
func (r *GormCashAccountRepository) SaveWithLock(ctx context.Context, account *finance.CashAccount) error {
	model := models.CashAccountModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "The cash account has been modified by another transaction")
	}
	return nil
}

// ExistsByName checks if an account with the given name exists for a company
func (r *GormCashAccountRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CashAccountModel{}).
		Where("company_id = ? AND account_name = ?", companyID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyAccountFilter applies filter options to the query
func (r *GormCashAccountRepository) applyAccountFilter(query *gorm.DB, filter finance.CashAccountFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("account_name ILIKE ?", searchPattern)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.AccountType != nil {
		query = query.Where("account_type = ?", *filter.AccountType)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("account_name ASC")
	}

	return query
}

// Ensure GormCashAccountRepository implements CashAccountRepository
var _ finance.CashAccountRepository = (*GormCashAccountRepository)(nil)
