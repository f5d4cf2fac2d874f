package repository

import (
	"context"
	"time"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows the sale listing.
type SaleFilter struct {
	Status string `form:"status"`
	Date   string `form:"date"` // YYYY-MM-DD, defaults to today
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	MarkCompletedTx(tx *gorm.DB, id uuid.UUID) error
	SetSessionTx(tx *gorm.DB, id, sessionID uuid.UUID) error
	SetCancelledTx(tx *gorm.DB, id uuid.UUID, reason string) error
	DeleteDraftTx(tx *gorm.DB, id uuid.UUID) error
	NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepo) MarkCompletedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         model.SaleCompleted,
		"payment_status": model.PaymentPaid,
	}).Error
}

func (r *saleRepo) SetSessionTx(tx *gorm.DB, id, sessionID uuid.UUID) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).
		Update("cash_register_session_id", sessionID).Error
}

func (r *saleRepo) SetCancelledTx(tx *gorm.DB, id uuid.UUID, reason string) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.SaleCancelled,
		"cancel_reason": reason,
	}).Error
}

// DeleteDraftTx removes a pending/suspended sale together with its items.
// Completed sales are never deleted — they are cancelled, keeping the ledger
// trail intact.
func (r *saleRepo) DeleteDraftTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Sale{}, id).Error
}

func (r *saleRepo) NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// PostgreSQL sequence gives gap-free-enough atomic ticket numbers
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_ticket_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		if _, err := time.Parse("2006-01-02", filter.Date); err == nil {
			q = q.Where("DATE(created_at) = ?", filter.Date)
		}
	} else {
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items.Product").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sales).Error
	return sales, total, err
}
