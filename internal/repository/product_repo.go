package repository

import (
	"context"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the data access contract for products. Services depend
// on this interface rather than the concrete GORM implementation so the
// engine can be unit-tested with in-memory stubs.
//
// StockQuantity is only ever written through ApplyStockDeltaTx; every other
// method treats it as read-only.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)

	// ApplyStockDeltaTx applies a signed delta to stock_quantity inside tx.
	// When enforceFloor is true the update is conditional on the result staying
	// non-negative; applied reports whether the row was updated. The check and
	// the write are a single atomic statement, which is what serializes
	// concurrent sales on the same product.
	ApplyStockDeltaTx(tx *gorm.DB, id uuid.UUID, delta int, enforceFloor bool) (newQuantity int, applied bool, err error)

	// StockTx reads the current quantity inside tx (used to report
	// availability after a failed conditional update).
	StockTx(tx *gorm.DB, id uuid.UUID) (int, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ? AND active = true", barcode).First(&p).Error
	return &p, err
}

func (r *productRepo) ApplyStockDeltaTx(tx *gorm.DB, id uuid.UUID, delta int, enforceFloor bool) (int, bool, error) {
	type row struct{ StockQuantity int }
	var res row

	q := `UPDATE products
	        SET stock_quantity = stock_quantity + ?, updated_at = NOW()
	      WHERE id = ?`
	args := []interface{}{delta, id}
	if enforceFloor {
		q += ` AND stock_quantity + ? >= 0`
		args = append(args, delta)
	}
	q += ` RETURNING stock_quantity`

	result := tx.Raw(q, args...).Scan(&res)
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return res.StockQuantity, true, nil
}

func (r *productRepo) StockTx(tx *gorm.DB, id uuid.UUID) (int, error) {
	var p model.Product
	if err := tx.Select("stock_quantity").First(&p, id).Error; err != nil {
		return 0, err
	}
	return p.StockQuantity, nil
}
