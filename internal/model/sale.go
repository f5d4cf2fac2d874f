package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale statuses.
// pending → completed → cancelled
// pending → suspended → (deleted)
// A pending/suspended sale has no stock or cash effects and is deleted, not
// cancelled; cancelled is terminal.
const (
	SalePending   = "pending"
	SaleCompleted = "completed"
	SaleCancelled = "cancelled"
	SaleSuspended = "suspended"
)

// Sale payment statuses.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Sale is one customer transaction. Monetary fields are frozen at
// finalization; corrections are modeled as cancel-and-recreate.
type Sale struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNumber          int        `gorm:"uniqueIndex;not null"`
	CashRegisterSessionID *uuid.UUID `gorm:"type:uuid;index"`
	OperatorID            uuid.UUID  `gorm:"type:uuid;not null"`
	// ClientID is an opaque reference into the clients module.
	ClientID      *uuid.UUID      `gorm:"type:uuid;index"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'unpaid'"`
	CancelReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

// SaleItem is a line of a Sale. Owned exclusively by its sale; immutable once
// the sale reaches completed.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
