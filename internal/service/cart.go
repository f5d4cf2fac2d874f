package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one line of a cart as the POS front-end sends it. UnitPrice is
// resolved from the catalog at cart-build time; ComputeCart trusts it.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// CartTotals is the result of aggregating a cart.
type CartTotals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// ComputeCart aggregates line items into subtotal and total:
//
//	subtotal = Σ(unit_price*qty − line_discount)
//	total    = subtotal − discount + deliveryFee
//
// Pure and deterministic — no persistence, safe to recompute on every cart
// change. Malformed input (non-positive quantity, negative price/discount/fee,
// negative line or final total) is rejected with ErrInvalidCart.
func ComputeCart(items []CartLine, discount, deliveryFee decimal.Decimal) (CartTotals, error) {
	if len(items) == 0 {
		return CartTotals{}, fmt.Errorf("%w: cart has no items", ErrInvalidCart)
	}
	if discount.IsNegative() {
		return CartTotals{}, fmt.Errorf("%w: negative discount", ErrInvalidCart)
	}
	if deliveryFee.IsNegative() {
		return CartTotals{}, fmt.Errorf("%w: negative delivery fee", ErrInvalidCart)
	}

	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return CartTotals{}, fmt.Errorf("%w: quantity must be positive for product %s", ErrInvalidCart, it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return CartTotals{}, fmt.Errorf("%w: negative unit price for product %s", ErrInvalidCart, it.ProductID)
		}
		if it.Discount.IsNegative() {
			return CartTotals{}, fmt.Errorf("%w: negative line discount for product %s", ErrInvalidCart, it.ProductID)
		}
		line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Sub(it.Discount)
		if line.IsNegative() {
			return CartTotals{}, fmt.Errorf("%w: discount exceeds line value for product %s", ErrInvalidCart, it.ProductID)
		}
		subtotal = subtotal.Add(line)
	}

	total := subtotal.Sub(discount).Add(deliveryFee)
	if total.IsNegative() {
		return CartTotals{}, fmt.Errorf("%w: negative total", ErrInvalidCart)
	}
	return CartTotals{Subtotal: subtotal, Total: total}, nil
}
