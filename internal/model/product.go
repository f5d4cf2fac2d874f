package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Price and descriptive fields are owned by the
// catalog module; StockQuantity is owned by the stock ledger and must only be
// mutated through StockService.Adjust — never written directly.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode     string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// StockQuantity is the materialized fold of all StockAdjustment deltas.
	StockQuantity     int  `gorm:"not null;default:0"`
	MinimumStockLevel int  `gorm:"not null;default:5"`
	Active            bool `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Product) TableName() string { return "products" }
