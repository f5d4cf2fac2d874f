package dto

import "github.com/shopspring/decimal"

type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

type CloseRegisterRequest struct {
	SessionID      string          `json:"session_id" validate:"required,uuid"`
	CountedBalance decimal.Decimal `json:"counted_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type CloseRegisterResponse struct {
	SessionID       string          `json:"session_id"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	CountedBalance  decimal.Decimal `json:"counted_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Status          string          `json:"status"`
}

// ManualMovementRequest records an out-of-sale cash movement
// (suprimento/sangria).
type ManualMovementRequest struct {
	SessionID    string          `json:"session_id" validate:"required,uuid"`
	MovementType string          `json:"movement_type" validate:"required,oneof=entrada saida"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Description  string          `json:"description" validate:"required"`
}

type RegisterSessionResponse struct {
	SessionID       string           `json:"session_id"`
	OperatorID      string           `json:"operator_id"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
	TotalEntrada    decimal.Decimal  `json:"total_entrada"`
	TotalSaida      decimal.Decimal  `json:"total_saida"`
	ExpectedBalance decimal.Decimal  `json:"expected_balance"`
	CountedBalance  *decimal.Decimal `json:"counted_balance,omitempty"`
	Difference      *decimal.Decimal `json:"difference,omitempty"`
	Status          string           `json:"status"`
	Notes           *string          `json:"notes,omitempty"`
	OpenedAt        string           `json:"opened_at"`
	ClosedAt        *string          `json:"closed_at,omitempty"`
}
