package dto

import "github.com/shopspring/decimal"

// SaleLineRequest is one cart line as sent by the POS front-end.
type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Discount  decimal.Decimal `json:"discount" validate:"min=0"`
}

// PaymentRequest is one payment leg. Method: dinheiro | cartao | pix.
type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=dinheiro cartao pix"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

// FinalizeSaleRequest drives the finalization coordinator. Payments must sum
// exactly to the computed cart total.
type FinalizeSaleRequest struct {
	SessionID   string            `json:"session_id" validate:"required,uuid"`
	ClientID    *string           `json:"client_id" validate:"omitempty,uuid"`
	Items       []SaleLineRequest `json:"items" validate:"required,min=1,dive"`
	Discount    decimal.Decimal   `json:"discount" validate:"min=0"`
	DeliveryFee decimal.Decimal   `json:"delivery_fee" validate:"min=0"`
	Payments    []PaymentRequest  `json:"payments" validate:"required,min=1,dive"`
}

// SaleDraftRequest saves a cart for later. No session or payments yet: both
// arrive when the draft is finalized.
type SaleDraftRequest struct {
	SessionID   string            `json:"session_id" validate:"omitempty,uuid"`
	ClientID    *string           `json:"client_id" validate:"omitempty,uuid"`
	Items       []SaleLineRequest `json:"items" validate:"required,min=1,dive"`
	Discount    decimal.Decimal   `json:"discount" validate:"min=0"`
	DeliveryFee decimal.Decimal   `json:"delivery_fee" validate:"min=0"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// FinalizeDraftRequest pays off a previously saved draft against an open
// register session.
type FinalizeDraftRequest struct {
	SessionID string           `json:"session_id" validate:"required,uuid"`
	Payments  []PaymentRequest `json:"payments" validate:"required,min=1,dive"`
}

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	TicketNumber  int                `json:"ticket_number"`
	SessionID     *string            `json:"session_id,omitempty"`
	ClientID      *string            `json:"client_id,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	DeliveryFee   decimal.Decimal    `json:"delivery_fee"`
	Total         decimal.Decimal    `json:"total"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	CreatedAt     string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
