package dto

// ManualAdjustmentRequest applies a signed manual correction to one product.
type ManualAdjustmentRequest struct {
	Delta int    `json:"delta" validate:"required"`
	Note  string `json:"note" validate:"required,min=3"`
}

// ReceivePurchaseRequest books received purchase units into stock.
type ReceivePurchaseRequest struct {
	ProductID  string `json:"product_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	PurchaseID string `json:"purchase_id" validate:"required,uuid"`
	Note       string `json:"note"`
}

type AdjustmentResponse struct {
	ProductID   string `json:"product_id"`
	NewQuantity int    `json:"new_quantity"`
	Delta       int    `json:"delta"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// StockVerifyResponse compares the ledger fold with the materialized quantity.
type StockVerifyResponse struct {
	ProductID    string `json:"product_id"`
	LedgerSum    int    `json:"ledger_sum"`
	Materialized int    `json:"materialized"`
	Consistent   bool   `json:"consistent"`
}
