package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
)

// GormDebtRepository implements DebtRepository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// FindByID finds a debt by its ID. Returns nil when no debt exists.
func (r *GormDebtRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForCompany finds a debt by ID for a specific company
func (r *GormDebtRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*finance.Debt, error) {
	var model models.DebtModel
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

// FindByPaymentID finds the debt whose JSONB payment list contains the
// given payment ID. Used when voiding a payment-linked transaction.
func (r *GormDebtRepository) FindByPaymentID(ctx context.Context, companyID, paymentID uuid.UUID) (*finance.Debt, error) {
	var model models.DebtModel
	criteria := fmt.Sprintf(`[{"id": %q}]`, paymentID.String())
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND payments @> ?", companyID, criteria).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany finds all debts for a company with filtering
func (r *GormDebtRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter finance.DebtFilter) ([]finance.Debt, error) {
	var debtModels []models.DebtModel
	query := r.db.WithContext(ctx).Model(&models.DebtModel{}).
		Where("company_id = ?", companyID)
	query = r.applyDebtFilter(query, filter)

	if err := query.Find(&debtModels).Error; err != nil {
		return nil, err
	}
	debts := make([]finance.Debt, len(debtModels))
	for i, model := range debtModels {
		debts[i] = *model.ToDomain()
	}
	return debts, nil
}

// FindOpenPastDue finds non-terminal debts past their due date that have
// not been marked overdue yet, across all companies. Used by the overdue sweep.
func (r *GormDebtRepository) FindOpenPastDue(ctx context.Context, asOf time.Time, limit int) ([]finance.Debt, error) {
	var debtModels []models.DebtModel
	query := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", asOf,
			[]finance.DebtStatus{finance.DebtStatusPending, finance.DebtStatusPartiallyPaid}).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&debtModels).Error; err != nil {
		return nil, err
	}
	debts := make([]finance.Debt, len(debtModels))
	for i, model := range debtModels {
		debts[i] = *model.ToDomain()
	}
	return debts, nil
}

// Save creates or updates a debt
func (r *GormDebtRepository) Save(ctx context.Context, debt *finance.Debt) error {
	model := models.DebtModelFromDomain(debt)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Select("*") forces every
// column into the update so fields cleared back to nil or zero (PaidAt
// after a reversal, a zeroed remaining amount) overwrite the stale row.
func (r *GormDebtRepository) SaveWithLock(ctx context.Context, debt *finance.Debt) error {
	model := models.DebtModelFromDomain(debt)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Where("id = ? AND version = ?", debt.ID, debt.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "The debt has been modified by another transaction")
	}
	return nil
}

// CountForCompany counts debts for a company
func (r *GormDebtRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter finance.DebtFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.DebtModel{}).
		Where("company_id = ?", companyID)
	query = r.applyDebtFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumRemainingForCompany totals the remaining amount of open debts by type
func (r *GormDebtRepository) SumRemainingForCompany(ctx context.Context, companyID uuid.UUID, debtType finance.DebtType) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DebtModel{}).
		Select("COALESCE(SUM(remaining_amount), 0) as total").
		Where("company_id = ? AND debt_type = ? AND status IN ?", companyID, debtType,
			[]finance.DebtStatus{finance.DebtStatusPending, finance.DebtStatusPartiallyPaid, finance.DebtStatusOverdue}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyDebtFilter applies filter options to the query
func (r *GormDebtRepository) applyDebtFilter(query *gorm.DB, filter finance.DebtFilter) *gorm.DB {
	query = r.applyDebtFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyDebtFilterWithoutPagination applies filter options without pagination
func (r *GormDebtRepository) applyDebtFilterWithoutPagination(query *gorm.DB, filter finance.DebtFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("description ILIKE ?", searchPattern)
	}

	if filter.CounterpartyID != nil {
		query = query.Where("counterparty_id = ?", *filter.CounterpartyID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.DebtType != nil {
		query = query.Where("debt_type = ?", *filter.DebtType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.MinRemaining != nil {
		query = query.Where("remaining_amount >= ?", *filter.MinRemaining)
	}
	if filter.MaxRemaining != nil {
		query = query.Where("remaining_amount <= ?", *filter.MaxRemaining)
	}

	return query
}

// Ensure GormDebtRepository implements DebtRepository
var _ finance.DebtRepository = (*GormDebtRepository)(nil)
