package service_test

// In-memory repository stubs. The services open no real transactions here:
// every repo exposes DB() == nil, which makes runTx call straight through
// with a nil *gorm.DB that the stubs ignore.
//
// All stubs are mutex-guarded so tests can drive the services from multiple
// goroutines, and the adjustment stub enforces the same one-reversal-row-per
// (product, sale) constraint the real schema carries as a partial unique
// index.

import (
	"context"
	"errors"
	"sync"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Product stub ──────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	// failDelta simulates a storage outage for specific products.
	failDelta map[uuid.UUID]error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products:  make(map[uuid.UUID]*model.Product),
		failDelta: make(map[uuid.UUID]error),
	}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Barcode == barcode && p.Active {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ApplyStockDeltaTx mirrors the conditional UPDATE: check-and-apply happens
// under one lock, so concurrent sale decrements serialize exactly like rows
// contending on the same product row in Postgres.
func (r *stubProductRepo) ApplyStockDeltaTx(_ *gorm.DB, id uuid.UUID, delta int, enforceFloor bool) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failDelta[id]; ok {
		return 0, false, err
	}
	p, ok := r.products[id]
	if !ok {
		return 0, false, gorm.ErrRecordNotFound
	}
	if enforceFloor && p.StockQuantity+delta < 0 {
		return 0, false, nil
	}
	p.StockQuantity += delta
	return p.StockQuantity, true, nil
}

func (r *stubProductRepo) StockTx(_ *gorm.DB, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return p.StockQuantity, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func seedProduct(r *stubProductRepo, name, barcode string, price float64, stock, minLevel int) *model.Product {
	p := &model.Product{
		ID:                uuid.New(),
		Barcode:           barcode,
		Name:              name,
		UnitPrice:         decimal.NewFromFloat(price),
		StockQuantity:     stock,
		MinimumStockLevel: minLevel,
		Active:            true,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].StockQuantity
}

func (r *stubProductRepo) setActive(id uuid.UUID, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[id].Active = active
}

// ── Stock adjustment stub ─────────────────────────────────────────────────────

type stubAdjustmentRepo struct {
	mu   sync.Mutex
	rows []model.StockAdjustment
}

func (r *stubAdjustmentRepo) CreateTx(_ *gorm.DB, a *model.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Same constraint as uniq_stock_adjustments_sale_reversal in the schema.
	if a.Reason == model.ReasonSaleReversal && a.ReferenceID != nil {
		for _, row := range r.rows {
			if row.Reason == model.ReasonSaleReversal && row.ProductID == a.ProductID &&
				row.ReferenceID != nil && *row.ReferenceID == *a.ReferenceID {
				return errors.New(`duplicate key value violates unique constraint "uniq_stock_adjustments_sale_reversal"`)
			}
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.rows = append(r.rows, *a)
	return nil
}

func (r *stubAdjustmentRepo) SumDeltasTx(_ *gorm.DB, productID, referenceID uuid.UUID, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, a := range r.rows {
		if a.ProductID == productID && a.Reason == reason &&
			a.ReferenceID != nil && *a.ReferenceID == referenceID {
			sum += a.Delta
		}
	}
	return sum, nil
}

func (r *stubAdjustmentRepo) SumProductDeltas(_ context.Context, productID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, a := range r.rows {
		if a.ProductID == productID {
			sum += a.Delta
		}
	}
	return sum, nil
}

func (r *stubAdjustmentRepo) List(_ context.Context, filter repository.StockAdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockAdjustment
	for _, a := range r.rows {
		if filter.ProductID != nil && a.ProductID != *filter.ProductID {
			continue
		}
		if filter.Reason != "" && a.Reason != filter.Reason {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *stubAdjustmentRepo) all() []model.StockAdjustment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StockAdjustment, len(r.rows))
	copy(out, r.rows)
	return out
}

var _ repository.StockAdjustmentRepository = (*stubAdjustmentRepo)(nil)

// ── Sale stub ─────────────────────────────────────────────────────────────────

type stubSaleRepo struct {
	mu        sync.Mutex
	sales     map[uuid.UUID]*model.Sale
	ticketSeq int
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *stubSaleRepo) MarkCompletedTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = model.SaleCompleted
	s.PaymentStatus = model.PaymentPaid
	return nil
}

func (r *stubSaleRepo) SetSessionTx(_ *gorm.DB, id, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sid := sessionID
	s.CashRegisterSessionID = &sid
	return nil
}

func (r *stubSaleRepo) SetCancelledTx(_ *gorm.DB, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = model.SaleCancelled
	s.CancelReason = &reason
	return nil
}

func (r *stubSaleRepo) DeleteDraftTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sales, id)
	return nil
}

func (r *stubSaleRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketSeq++
	return r.ticketSeq, nil
}

func (r *stubSaleRepo) List(_ context.Context, _ repository.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Register stub ─────────────────────────────────────────────────────────────

type stubRegisterRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*model.CashRegisterSession
	movements []model.CashMovement
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{sessions: make(map[uuid.UUID]*model.CashRegisterSession)}
}

func (r *stubRegisterRepo) CreateSession(_ context.Context, s *model.CashRegisterSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubRegisterRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashRegisterSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubRegisterRepo) FindOpenByOperator(_ context.Context, operatorID uuid.UUID) (*model.CashRegisterSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// CloseSession applies the closing fields only while the stored status is
// still open, like the conditional UPDATE in the real repository.
func (r *stubRegisterRepo) CloseSession(_ context.Context, s *model.CashRegisterSession) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[s.ID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if stored.Status != model.SessionOpen {
		return false, nil
	}
	stored.ExpectedBalance = s.ExpectedBalance
	stored.ClosingBalance = s.ClosingBalance
	stored.Difference = s.Difference
	stored.Status = model.SessionClosed
	stored.ClosedAt = s.ClosedAt
	stored.Notes = s.Notes
	return true, nil
}

func (r *stubRegisterRepo) ListClosed(_ context.Context, _, _ int) ([]model.CashRegisterSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashRegisterSession
	for _, s := range r.sessions {
		if s.Status == model.SessionClosed {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubRegisterRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	return r.CreateMovementTx(nil, m)
}

func (r *stubRegisterRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubRegisterRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.CashRegisterSessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubRegisterRepo) SumMovements(_ context.Context, sessionID uuid.UUID) (repository.MovementSums, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := repository.MovementSums{Entrada: decimal.Zero, Saida: decimal.Zero}
	for _, m := range r.movements {
		if m.CashRegisterSessionID != sessionID {
			continue
		}
		switch m.MovementType {
		case model.MovementEntrada:
			sums.Entrada = sums.Entrada.Add(m.Amount)
		case model.MovementSaida:
			sums.Saida = sums.Saida.Add(m.Amount)
		}
	}
	return sums, nil
}

func (r *stubRegisterRepo) SaleMovementExistsTx(_ *gorm.DB, saleID uuid.UUID, movementType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.SaleID != nil && *m.SaleID == saleID && m.MovementType == movementType {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRegisterRepo) allMovements() []model.CashMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.CashMovement, len(r.movements))
	copy(out, r.movements)
	return out
}

func (r *stubRegisterRepo) setSessionStatus(id uuid.UUID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id].Status = status
}

var _ repository.RegisterRepository = (*stubRegisterRepo)(nil)

// ── Side-channel recorders ────────────────────────────────────────────────────

type alertRecorder struct {
	mu     sync.Mutex
	alerts []service.LowStockAlert
}

func (r *alertRecorder) PublishLowStock(_ context.Context, alert service.LowStockAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

type receiptRecorder struct {
	mu      sync.Mutex
	saleIDs []uuid.UUID
}

func (r *receiptRecorder) EnqueueReceipt(_ context.Context, saleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saleIDs = append(r.saleIDs, saleID)
	return nil
}

var errStorageDown = errors.New("connection refused")

// setFailDelta toggles the simulated outage for one product.
func (r *stubProductRepo) setFailDelta(id uuid.UUID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failDelta, id)
		return
	}
	r.failDelta[id] = err
}
