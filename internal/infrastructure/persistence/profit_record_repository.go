package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
)

// GormProfitRecordRepository implements ProfitRecordRepository using GORM
type GormProfitRecordRepository struct {
	db *gorm.DB
}

// NewGormProfitRecordRepository creates a new GormProfitRecordRepository
func NewGormProfitRecordRepository(db *gorm.DB) *GormProfitRecordRepository {
	return &GormProfitRecordRepository{db: db}
}

// FindByID finds a profit record by its ID. Returns nil when no record exists.
func (r *GormProfitRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ProfitRecord, error) {
	var model models.ProfitRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPeriod finds the profit record for a company and calendar month
func (r *GormProfitRecordRepository) FindByPeriod(ctx context.Context, companyID uuid.UUID, year, month int) (*finance.ProfitRecord, error) {
	var model models.ProfitRecordModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND period_year = ? AND period_month = ?", companyID, year, month).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany finds all profit records for a company, newest period first
func (r *GormProfitRecordRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]finance.ProfitRecord, error) {
	var recordModels []models.ProfitRecordModel
	query := r.db.WithContext(ctx).Model(&models.ProfitRecordModel{}).
		Where("company_id = ?", companyID)

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
		query = query.Order("period_year DESC, period_month DESC")
	}

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]finance.ProfitRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Upsert inserts the record or replaces the figures of the existing record
// for the same company and period. The unique index on
// (company_id, period_year, period_month) arbitrates concurrent inserts.
func (r *GormProfitRecordRepository) Upsert(ctx context.Context, record *finance.ProfitRecord) error {
	model := models.ProfitRecordModelFromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}, {Name: "period_year"}, {Name: "period_month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"revenue",
				"expenses",
				"net_profit",
				"profit_margin",
				"currency",
				"version",
				"updated_at",
			}),
		}).
		Create(model).Error
}

// Save creates or updates a profit record
func (r *GormProfitRecordRepository) Save(ctx context.Context, record *finance.ProfitRecord) error {
	model := models.ProfitRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormProfitRecordRepository implements ProfitRecordRepository
var _ finance.ProfitRecordRepository = (*GormProfitRecordRepository)(nil)
