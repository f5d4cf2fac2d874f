package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock adjustment reasons.
const (
	ReasonSale         = "sale"
	ReasonSaleReversal = "sale_reversal"
	ReasonPurchase     = "purchase"
	ReasonManual       = "manual"
)

// StockAdjustment is one signed entry in the append-only stock ledger.
// Rows are never updated or deleted; products.stock_quantity is the
// materialized sum of deltas per product.
type StockAdjustment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Delta is positive for entries (purchase, reversal) and negative for sales.
	Delta  int    `gorm:"not null"`
	Reason string `gorm:"type:varchar(20);not null"`
	// ReferenceID points at the sale or purchase that caused the adjustment.
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index"`
	QuantityAfter int        `gorm:"not null"`
	Note          string
	CreatedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (StockAdjustment) TableName() string { return "stock_adjustments" }
