package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LowStockAlert is published after an adjustment leaves a product at or below
// its minimum level. The ledger only emits the event; notification delivery
// belongs to the alert worker.
type LowStockAlert struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	MinimumLevel int       `json:"minimum_level"`
}

// StockAlertPublisher decouples the ledger from the notification transport.
type StockAlertPublisher interface {
	PublishLowStock(ctx context.Context, alert LowStockAlert) error
}

// AdjustResult carries the outcome of one ledger adjustment. Alert is non-nil
// when the product ended at or below its minimum level; callers publish it
// only after their transaction commits.
type AdjustResult struct {
	NewQuantity int
	Applied     int
	Alert       *LowStockAlert
}

// StockService owns per-product on-hand quantity. Every stock mutation in the
// system goes through Adjust/AdjustTx, which writes the append-only
// StockAdjustment row and the materialized quantity in one atomic step.
type StockService interface {
	// Adjust applies a signed delta in its own transaction, with bounded retry
	// on transient storage errors.
	Adjust(ctx context.Context, productID uuid.UUID, delta int, reason string, referenceID *uuid.UUID, note string) (int, error)

	// AdjustTx applies a signed delta inside the caller's transaction. The
	// caller is responsible for publishing the returned alert after commit.
	AdjustTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, reason string, referenceID *uuid.UUID, note string) (AdjustResult, error)

	History(ctx context.Context, filter repository.StockAdjustmentFilter) ([]model.StockAdjustment, int64, error)

	// VerifyProduct folds the full ledger for one product and compares it to
	// the materialized quantity (audit endpoint).
	VerifyProduct(ctx context.Context, productID uuid.UUID) (ledgerSum, materialized int, err error)
}

type stockService struct {
	products    repository.ProductRepository
	adjustments repository.StockAdjustmentRepository
	publisher   StockAlertPublisher
}

func NewStockService(
	products repository.ProductRepository,
	adjustments repository.StockAdjustmentRepository,
	publisher StockAlertPublisher,
) StockService {
	return &stockService{products: products, adjustments: adjustments, publisher: publisher}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

const (
	storageRetryAttempts = 3
	storageRetryBackoff  = 100 * time.Millisecond
)

// errInvalidAdjustment marks caller mistakes that must never be retried.
var errInvalidAdjustment = errors.New("invalid stock adjustment")

func (s *stockService) Adjust(ctx context.Context, productID uuid.UUID, delta int, reason string, referenceID *uuid.UUID, note string) (int, error) {
	var result AdjustResult

	var lastErr error
	for attempt := 1; attempt <= storageRetryAttempts; attempt++ {
		err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
			var txErr error
			result, txErr = s.AdjustTx(ctx, tx, productID, delta, reason, referenceID, note)
			return txErr
		})
		if err == nil {
			s.publishAlert(ctx, result.Alert)
			return result.NewQuantity, nil
		}
		if !isTransient(err) {
			return 0, err
		}
		lastErr = err
		log.Warn().Err(err).
			Str("product_id", productID.String()).
			Int("attempt", attempt).
			Msg("stock adjust: transient storage error")
		time.Sleep(storageRetryBackoff * time.Duration(attempt))
	}
	return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, lastErr)
}

func (s *stockService) AdjustTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, reason string, referenceID *uuid.UUID, note string) (AdjustResult, error) {
	applied := delta

	switch reason {
	case model.ReasonSale:
		if delta >= 0 {
			return AdjustResult{}, fmt.Errorf("%w: sale adjustment must be negative, got %d", errInvalidAdjustment, delta)
		}
	case model.ReasonSaleReversal:
		if referenceID == nil {
			return AdjustResult{}, fmt.Errorf("%w: sale reversal requires a reference id", errInvalidAdjustment)
		}
		// Cap the restore at what the referenced sale actually decremented and
		// has not yet been restored. This is what makes reversal retries safe:
		// a delta already committed for this sale+product folds to zero here.
		sold, err := s.adjustments.SumDeltasTx(tx, productID, *referenceID, model.ReasonSale)
		if err != nil {
			return AdjustResult{}, err
		}
		restored, err := s.adjustments.SumDeltasTx(tx, productID, *referenceID, model.ReasonSaleReversal)
		if err != nil {
			return AdjustResult{}, err
		}
		remaining := -sold - restored
		if remaining <= 0 {
			qty, err := s.products.StockTx(tx, productID)
			if err != nil {
				return AdjustResult{}, err
			}
			return AdjustResult{NewQuantity: qty, Applied: 0}, nil
		}
		if applied > remaining {
			applied = remaining
		}
	}

	enforceFloor := reason == model.ReasonSale
	newQty, ok, err := s.products.ApplyStockDeltaTx(tx, productID, applied, enforceFloor)
	if err != nil {
		return AdjustResult{}, err
	}
	if !ok {
		available, readErr := s.products.StockTx(tx, productID)
		if readErr != nil {
			return AdjustResult{}, readErr
		}
		return AdjustResult{}, &InsufficientStockError{
			ProductID: productID,
			Requested: -applied,
			Available: available,
		}
	}

	adj := &model.StockAdjustment{
		ProductID:     productID,
		Delta:         applied,
		Reason:        reason,
		ReferenceID:   referenceID,
		QuantityAfter: newQty,
		Note:          note,
	}
	if err := s.adjustments.CreateTx(tx, adj); err != nil {
		return AdjustResult{}, err
	}

	result := AdjustResult{NewQuantity: newQty, Applied: applied}
	if p, err := s.products.FindByID(ctx, productID); err == nil && newQty <= p.MinimumStockLevel {
		result.Alert = &LowStockAlert{
			ProductID:    productID,
			ProductName:  p.Name,
			Quantity:     newQty,
			MinimumLevel: p.MinimumStockLevel,
		}
	}
	return result, nil
}

func (s *stockService) History(ctx context.Context, filter repository.StockAdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	return s.adjustments.List(ctx, filter)
}

func (s *stockService) VerifyProduct(ctx context.Context, productID uuid.UUID) (int, int, error) {
	sum, err := s.adjustments.SumProductDeltas(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	return sum, p.StockQuantity, nil
}

// publishAlert forwards a low-stock event to the notification queue.
// Best-effort: a dropped alert never fails the adjustment that produced it.
func (s *stockService) publishAlert(ctx context.Context, alert *LowStockAlert) {
	if s.publisher == nil || alert == nil {
		return
	}
	if err := s.publisher.PublishLowStock(ctx, *alert); err != nil {
		log.Error().Err(err).
			Str("product_id", alert.ProductID.String()).
			Msg("failed to publish low stock alert")
	}
}

// isTransient classifies storage errors for the bounded retry loop. Business
// errors and missing rows are final; anything else is assumed retryable.
func isTransient(err error) bool {
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) {
		return false
	}
	if errors.Is(err, errInvalidAdjustment) || errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	return true
}
