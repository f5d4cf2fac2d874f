package repository

import (
	"context"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockAdjustmentFilter narrows the adjustment history listing.
type StockAdjustmentFilter struct {
	ProductID *uuid.UUID `form:"product_id"`
	Reason    string     `form:"reason"`
	Page      int        `form:"page"`
	Limit     int        `form:"limit"`
}

// StockAdjustmentRepository persists the append-only stock ledger. There is
// deliberately no Update or Delete.
type StockAdjustmentRepository interface {
	CreateTx(tx *gorm.DB, a *model.StockAdjustment) error

	// SumDeltasTx returns the sum of deltas for a (product, reference, reason)
	// triple. Used to cap sale reversals at the originally sold quantity.
	SumDeltasTx(tx *gorm.DB, productID, referenceID uuid.UUID, reason string) (int, error)

	// SumProductDeltas folds the whole ledger for one product — the audit
	// check that must equal products.stock_quantity.
	SumProductDeltas(ctx context.Context, productID uuid.UUID) (int, error)

	List(ctx context.Context, filter StockAdjustmentFilter) ([]model.StockAdjustment, int64, error)
}

type stockAdjustmentRepo struct{ db *gorm.DB }

func NewStockAdjustmentRepository(db *gorm.DB) StockAdjustmentRepository {
	return &stockAdjustmentRepo{db: db}
}

func (r *stockAdjustmentRepo) CreateTx(tx *gorm.DB, a *model.StockAdjustment) error {
	return tx.Create(a).Error
}

func (r *stockAdjustmentRepo) SumDeltasTx(tx *gorm.DB, productID, referenceID uuid.UUID, reason string) (int, error) {
	var sum *int
	err := tx.Model(&model.StockAdjustment{}).
		Select("SUM(delta)").
		Where("product_id = ? AND reference_id = ? AND reason = ?", productID, referenceID, reason).
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

func (r *stockAdjustmentRepo) SumProductDeltas(ctx context.Context, productID uuid.UUID) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).
		Select("SUM(delta)").
		Where("product_id = ?", productID).
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

func (r *stockAdjustmentRepo) List(ctx context.Context, filter StockAdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).Preload("Product")
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var adjustments []model.StockAdjustment
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&adjustments).Error
	return adjustments, total, err
}
