package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptQueue is the post-finalization hook for the receipt worker. Enqueue
// failures are logged and ignored — receipts are best-effort and never affect
// the committed sale.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID) error
}

// SaleService is the transactional lifecycle of a sale:
// pending → completed → cancelled, with pending/suspended drafts that carry no
// stock or cash effects. Finalize and Cancel are the only paths that touch
// the stock ledger and the cash ledger, and each leaves both either fully
// applied or fully untouched.
type SaleService interface {
	Finalize(ctx context.Context, operatorID uuid.UUID, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error)
	FinalizeDraft(ctx context.Context, saleID uuid.UUID, sessionID uuid.UUID, payments []dto.PaymentRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, saleID uuid.UUID, reason string) error
	SaveDraft(ctx context.Context, operatorID uuid.UUID, req dto.SaleDraftRequest) (*dto.SaleResponse, error)
	Suspend(ctx context.Context, saleID uuid.UUID) error
	DeleteDraft(ctx context.Context, saleID uuid.UUID) error
	Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter repository.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	sales     repository.SaleRepository
	registers RegisterService
	regRepo   repository.RegisterRepository
	products  repository.ProductRepository
	stock     StockService
	alerts    StockAlertPublisher
	receipts  ReceiptQueue
}

func NewSaleService(
	sales repository.SaleRepository,
	registers RegisterService,
	regRepo repository.RegisterRepository,
	products repository.ProductRepository,
	stock StockService,
	alerts StockAlertPublisher,
	receipts ReceiptQueue,
) SaleService {
	return &saleService{
		sales:     sales,
		registers: registers,
		regRepo:   regRepo,
		products:  products,
		stock:     stock,
		alerts:    alerts,
		receipts:  receipts,
	}
}

type resolvedLine struct {
	productID uuid.UUID
	name      string
	price     decimal.Decimal
	quantity  int
	discount  decimal.Decimal
	subtotal  decimal.Decimal
}

// resolveCart fetches catalog prices and aggregates totals. Validation only:
// no state is mutated here, so every error out of this path needs no
// compensation.
func (s *saleService) resolveCart(ctx context.Context, items []dto.SaleLineRequest, discount, deliveryFee decimal.Decimal) ([]resolvedLine, CartTotals, error) {
	lines := make([]CartLine, 0, len(items))
	resolved := make([]resolvedLine, 0, len(items))

	for _, item := range items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, CartTotals{}, fmt.Errorf("%w: invalid product_id %q", ErrInvalidCart, item.ProductID)
		}
		p, err := s.products.FindByID(ctx, pid)
		if err != nil {
			return nil, CartTotals{}, fmt.Errorf("%w: product %s not found", ErrInvalidCart, item.ProductID)
		}
		if !p.Active {
			return nil, CartTotals{}, fmt.Errorf("%w: product %q is inactive", ErrInvalidCart, p.Name)
		}

		lines = append(lines, CartLine{
			ProductID: pid,
			Quantity:  item.Quantity,
			UnitPrice: p.UnitPrice,
			Discount:  item.Discount,
		})
		lineSubtotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.Discount)
		resolved = append(resolved, resolvedLine{
			productID: pid,
			name:      p.Name,
			price:     p.UnitPrice,
			quantity:  item.Quantity,
			discount:  item.Discount,
			subtotal:  lineSubtotal,
		})
	}

	totals, err := ComputeCart(lines, discount, deliveryFee)
	if err != nil {
		return nil, CartTotals{}, err
	}
	return resolved, totals, nil
}

func sumPayments(payments []dto.PaymentRequest) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Finalize runs the full coordinator:
//  1. open register session                      (precondition, no mutation)
//  2. Σ(payments) == cart total                  (precondition, no mutation)
//  3. sale header + items, status pending
//  4. per-item stock decrement through the ledger
//  5. one entrada cash movement per payment
//  6. status completed, payment_status paid
//
// Steps 3-6 run inside one transaction: any failure — the first
// InsufficientStockError in particular — rolls everything back, so a failed
// finalization leaves no sale, no items, no adjustments and no movements.
func (s *saleService) Finalize(ctx context.Context, operatorID uuid.UUID, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session_id: %w", err)
	}
	if err := s.registers.RequireOpen(ctx, sessionID); err != nil {
		return nil, err
	}

	resolved, totals, err := s.resolveCart(ctx, req.Items, req.Discount, req.DeliveryFee)
	if err != nil {
		return nil, err
	}
	if !sumPayments(req.Payments).Equal(totals.Total) {
		return nil, ErrPaymentMismatch
	}

	var clientID *uuid.UUID
	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		clientID = &cid
	}

	var sale model.Sale
	var alerts []LowStockAlert

	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		ticket, err := s.sales.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}

		sale = model.Sale{
			TicketNumber:          ticket,
			CashRegisterSessionID: &sessionID,
			OperatorID:            operatorID,
			ClientID:              clientID,
			Status:                model.SalePending,
			Subtotal:              totals.Subtotal,
			DiscountValue:         req.Discount,
			DeliveryFee:           req.DeliveryFee,
			Total:                 totals.Total,
			PaymentStatus:         model.PaymentUnpaid,
		}
		for _, r := range resolved {
			sale.Items = append(sale.Items, model.SaleItem{
				ProductID: r.productID,
				Quantity:  r.quantity,
				UnitPrice: r.price,
				Discount:  r.discount,
				Subtotal:  r.subtotal,
			})
		}
		if err := s.sales.CreateTx(tx, &sale); err != nil {
			return err
		}

		collected, err := s.commitEffectsTx(ctx, tx, &sale, req.Payments)
		if err != nil {
			return err
		}
		alerts = collected
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.afterFinalize(ctx, &sale, alerts)

	sale.Status = model.SaleCompleted
	sale.PaymentStatus = model.PaymentPaid
	resp := saleToResponse(&sale)
	for i, r := range resolved {
		resp.Items[i].Product = r.name
	}
	return resp, nil
}

// commitEffectsTx applies steps 4-5 of the coordinator for an already
// persisted sale header: stock decrements item by item, then one entrada
// movement per payment, then the completed/paid flip. Runs inside tx.
func (s *saleService) commitEffectsTx(ctx context.Context, tx *gorm.DB, sale *model.Sale, payments []dto.PaymentRequest) ([]LowStockAlert, error) {
	saleRef := sale.ID
	var alerts []LowStockAlert

	for _, item := range sale.Items {
		res, err := s.stock.AdjustTx(ctx, tx, item.ProductID, -item.Quantity, model.ReasonSale, &saleRef,
			fmt.Sprintf("sale #%d", sale.TicketNumber))
		if err != nil {
			return nil, err
		}
		if res.Alert != nil {
			alerts = append(alerts, *res.Alert)
		}
	}

	for _, p := range payments {
		method := p.Method
		mov := &model.CashMovement{
			CashRegisterSessionID: *sale.CashRegisterSessionID,
			SaleID:                &saleRef,
			MovementType:          model.MovementEntrada,
			Category:              model.CategoryVenda,
			PaymentMethod:         &method,
			Amount:                p.Amount,
			Description:           fmt.Sprintf("sale #%d", sale.TicketNumber),
		}
		if err := s.regRepo.CreateMovementTx(tx, mov); err != nil {
			return nil, err
		}
	}

	return alerts, s.sales.MarkCompletedTx(tx, sale.ID)
}

// afterFinalize runs the post-commit side channel: low-stock alerts and the
// receipt job. Both best-effort.
func (s *saleService) afterFinalize(ctx context.Context, sale *model.Sale, alerts []LowStockAlert) {
	if s.alerts != nil {
		for _, alert := range alerts {
			if err := s.alerts.PublishLowStock(ctx, alert); err != nil {
				log.Error().Err(err).
					Str("product_id", alert.ProductID.String()).
					Msg("failed to publish low stock alert")
			}
		}
	}
	if s.receipts != nil {
		if err := s.receipts.EnqueueReceipt(ctx, sale.ID); err != nil {
			log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("failed to enqueue receipt job")
		}
	}
}

// SaveDraft persists the cart as a pending sale with no stock or cash
// effects. The draft can later be suspended, deleted, or finalized.
func (s *saleService) SaveDraft(ctx context.Context, operatorID uuid.UUID, req dto.SaleDraftRequest) (*dto.SaleResponse, error) {
	resolved, totals, err := s.resolveCart(ctx, req.Items, req.Discount, req.DeliveryFee)
	if err != nil {
		return nil, err
	}

	var sessionID *uuid.UUID
	if req.SessionID != "" {
		sid, err := uuid.Parse(req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("invalid session_id: %w", err)
		}
		sessionID = &sid
	}
	var clientID *uuid.UUID
	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		clientID = &cid
	}

	var sale model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		ticket, err := s.sales.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}
		sale = model.Sale{
			TicketNumber:          ticket,
			CashRegisterSessionID: sessionID,
			OperatorID:            operatorID,
			ClientID:              clientID,
			Status:                model.SalePending,
			Subtotal:              totals.Subtotal,
			DiscountValue:         req.Discount,
			DeliveryFee:           req.DeliveryFee,
			Total:                 totals.Total,
			PaymentStatus:         model.PaymentUnpaid,
		}
		for _, r := range resolved {
			sale.Items = append(sale.Items, model.SaleItem{
				ProductID: r.productID,
				Quantity:  r.quantity,
				UnitPrice: r.price,
				Discount:  r.discount,
				Subtotal:  r.subtotal,
			})
		}
		return s.sales.CreateTx(tx, &sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := saleToResponse(&sale)
	for i, r := range resolved {
		resp.Items[i].Product = r.name
	}
	return resp, nil
}

// FinalizeDraft completes a previously saved pending/suspended sale. Totals
// were frozen when the draft was saved; only stock, cash and status move here.
func (s *saleService) FinalizeDraft(ctx context.Context, saleID, sessionID uuid.UUID, payments []dto.PaymentRequest) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("sale not found: %w", err)
	}
	if sale.Status != model.SalePending && sale.Status != model.SaleSuspended {
		return nil, ErrInvalidStateTransition
	}
	if err := s.registers.RequireOpen(ctx, sessionID); err != nil {
		return nil, err
	}
	if !sumPayments(payments).Equal(sale.Total) {
		return nil, ErrPaymentMismatch
	}

	sale.CashRegisterSessionID = &sessionID
	var alerts []LowStockAlert
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.SetSessionTx(tx, sale.ID, sessionID); err != nil {
			return err
		}
		collected, err := s.commitEffectsTx(ctx, tx, sale, payments)
		if err != nil {
			return err
		}
		alerts = collected
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.afterFinalize(ctx, sale, alerts)
	sale.Status = model.SaleCompleted
	sale.PaymentStatus = model.PaymentPaid
	return saleToResponse(sale), nil
}

// Cancel reverses a completed sale: restores stock item by item through the
// ledger, appends one compensating saida for the original total, then flips
// the status. A second call is a no-op (ErrAlreadyCancelled).
//
// Partial failure while restoring leaves the sale completed and returns
// ErrReversalIncomplete; the caller retries Cancel, and the per-sale reversal
// cap in the stock ledger guarantees already-restored items fold to zero on
// the retry instead of being restored twice.
func (s *saleService) Cancel(ctx context.Context, saleID uuid.UUID, reason string) error {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("sale not found: %w", err)
	}
	switch sale.Status {
	case model.SaleCancelled:
		return ErrAlreadyCancelled
	case model.SaleCompleted:
		// proceed
	default:
		return ErrInvalidStateTransition
	}

	// Session must still accept movements before any stock is touched —
	// precondition errors never require compensation.
	if sale.CashRegisterSessionID == nil {
		return ErrNoOpenRegister
	}
	sessionID := *sale.CashRegisterSessionID
	if err := s.registers.RequireOpen(ctx, sessionID); err != nil {
		return err
	}

	saleRef := sale.ID

	// A cart may carry the same product on more than one line. Restores are
	// aggregated per product so each (product, sale) pair gets exactly one
	// reversal row, which is the invariant the partial unique index on
	// stock_adjustments enforces.
	restore := make(map[uuid.UUID]int, len(sale.Items))
	productOrder := make([]uuid.UUID, 0, len(sale.Items))
	for _, item := range sale.Items {
		if _, seen := restore[item.ProductID]; !seen {
			productOrder = append(productOrder, item.ProductID)
		}
		restore[item.ProductID] += item.Quantity
	}

	var failed []uuid.UUID
	for _, productID := range productOrder {
		// Each restoration commits independently so one flaky product does not
		// roll back the others; Adjust retries transient errors internally.
		_, err := s.stock.Adjust(ctx, productID, restore[productID], model.ReasonSaleReversal, &saleRef,
			fmt.Sprintf("reversal of sale #%d: %s", sale.TicketNumber, reason))
		if err != nil {
			log.Error().Err(err).
				Str("sale_id", sale.ID.String()).
				Str("product_id", productID.String()).
				Msg("sale cancel: stock restore failed")
			failed = append(failed, productID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d product(s) not restored", ErrReversalIncomplete, len(failed))
	}

	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		exists, err := s.regRepo.SaleMovementExistsTx(tx, sale.ID, model.MovementSaida)
		if err != nil {
			return err
		}
		if !exists {
			mov := &model.CashMovement{
				CashRegisterSessionID: sessionID,
				SaleID:                &saleRef,
				MovementType:          model.MovementSaida,
				Category:              model.CategoryVendaCancelada,
				Amount:                sale.Total,
				Description:           fmt.Sprintf("cancellation of sale #%d: %s", sale.TicketNumber, reason),
			}
			if err := s.regRepo.CreateMovementTx(tx, mov); err != nil {
				return err
			}
		}
		return s.sales.SetCancelledTx(tx, sale.ID, reason)
	})
}

func (s *saleService) Suspend(ctx context.Context, saleID uuid.UUID) error {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("sale not found: %w", err)
	}
	if sale.Status != model.SalePending {
		return ErrInvalidStateTransition
	}
	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		return s.sales.UpdateStatusTx(tx, saleID, model.SaleSuspended)
	})
}

// DeleteDraft removes a pending/suspended sale. Drafts have no committed
// stock or cash effects, so deletion — not cancellation — is the right verb.
func (s *saleService) DeleteDraft(ctx context.Context, saleID uuid.UUID) error {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("sale not found: %w", err)
	}
	if sale.Status != model.SalePending && sale.Status != model.SaleSuspended {
		return ErrInvalidStateTransition
	}
	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		return s.sales.DeleteDraftTx(tx, saleID)
	})
}

func (s *saleService) Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("sale not found: %w", err)
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter repository.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID: item.ProductID.String(),
			Product:   name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			Subtotal:  item.Subtotal,
		})
	}

	resp := &dto.SaleResponse{
		ID:            s.ID.String(),
		TicketNumber:  s.TicketNumber,
		Items:         items,
		Subtotal:      s.Subtotal,
		DiscountValue: s.DiscountValue,
		DeliveryFee:   s.DeliveryFee,
		Total:         s.Total,
		Status:        s.Status,
		PaymentStatus: s.PaymentStatus,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if s.CashRegisterSessionID != nil {
		sid := s.CashRegisterSessionID.String()
		resp.SessionID = &sid
	}
	if s.ClientID != nil {
		cid := s.ClientID.String()
		resp.ClientID = &cid
	}
	return resp
}
