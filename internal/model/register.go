package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Register session states.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Cash movement types and categories.
const (
	MovementEntrada = "entrada"
	MovementSaida   = "saida"

	CategoryVenda          = "venda"
	CategoryVendaCancelada = "venda_cancelada"
	CategorySuprimento     = "suprimento" // manual cash in
	CategorySangria        = "sangria"    // manual cash out
)

// CashRegisterSession is one operator shift, open to close. All cash
// movements recorded during its lifetime reference it. Closed exactly once:
// expected = opening_balance + Σ(entrada) − Σ(saida), difference =
// closing_balance − expected.
type CashRegisterSession struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OperatorID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	OpeningBalance decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// ExpectedBalance is computed on close from the movement ledger.
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status          string           `gorm:"type:varchar(20);not null;default:'open'"`
	Notes           *string
	OpenedAt        time.Time
	ClosedAt        *time.Time

	Movements []CashMovement `gorm:"foreignKey:CashRegisterSessionID"`
}

// CashMovement is an immutable entry in the cash ledger. Movements are NEVER
// edited or deleted — a cancellation appends an offsetting saida that
// references the same sale.
type CashMovement struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashRegisterSessionID uuid.UUID  `gorm:"type:uuid;index;not null"`
	SaleID                *uuid.UUID `gorm:"type:uuid;index"`
	// MovementType is "entrada" or "saida"; Amount is always positive.
	MovementType  string          `gorm:"type:varchar(10);not null"`
	Category      string          `gorm:"type:varchar(30);not null"`
	PaymentMethod *string         `gorm:"type:varchar(20)"` // dinheiro | cartao | pix
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description   string          `gorm:"not null"`
	CreatedAt     time.Time
}
