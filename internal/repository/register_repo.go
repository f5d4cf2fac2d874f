package repository

import (
	"context"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementSums holds the per-type totals of one session's cash ledger.
type MovementSums struct {
	Entrada decimal.Decimal
	Saida   decimal.Decimal
}

type RegisterRepository interface {
	CreateSession(ctx context.Context, s *model.CashRegisterSession) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashRegisterSession, error)
	FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*model.CashRegisterSession, error)
	// CloseSession persists the closing fields only while the session is still
	// open. Returns false when another close already won, so close-once holds
	// under concurrent closes.
	CloseSession(ctx context.Context, s *model.CashRegisterSession) (bool, error)
	ListClosed(ctx context.Context, page, limit int) ([]model.CashRegisterSession, error)

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	SumMovements(ctx context.Context, sessionID uuid.UUID) (MovementSums, error)

	// SaleMovementExistsTx reports whether the session ledger already holds a
	// movement of the given type for a sale. Cancellation uses it to append
	// the compensating saida at most once.
	SaleMovementExistsTx(tx *gorm.DB, saleID uuid.UUID, movementType string) (bool, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) CreateSession(ctx context.Context, s *model.CashRegisterSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *registerRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashRegisterSession, error) {
	var s model.CashRegisterSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *registerRepo) FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*model.CashRegisterSession, error) {
	var s model.CashRegisterSession
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) CloseSession(ctx context.Context, s *model.CashRegisterSession) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CashRegisterSession{}).
		Where("id = ? AND status = ?", s.ID, model.SessionOpen).
		Updates(map[string]interface{}{
			"expected_balance": s.ExpectedBalance,
			"closing_balance":  s.ClosingBalance,
			"difference":       s.Difference,
			"status":           model.SessionClosed,
			"closed_at":        s.ClosedAt,
			"notes":            s.Notes,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *registerRepo) ListClosed(ctx context.Context, page, limit int) ([]model.CashRegisterSession, error) {
	var sessions []model.CashRegisterSession
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SessionClosed).
		Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *registerRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *registerRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *registerRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("cash_register_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *registerRepo) SumMovements(ctx context.Context, sessionID uuid.UUID) (MovementSums, error) {
	type row struct {
		MovementType string
		Total        decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select("movement_type, COALESCE(SUM(amount), 0) AS total").
		Where("cash_register_session_id = ?", sessionID).
		Group("movement_type").
		Scan(&rows).Error
	if err != nil {
		return MovementSums{}, err
	}

	sums := MovementSums{Entrada: decimal.Zero, Saida: decimal.Zero}
	for _, rw := range rows {
		switch rw.MovementType {
		case model.MovementEntrada:
			sums.Entrada = rw.Total
		case model.MovementSaida:
			sums.Saida = rw.Total
		}
	}
	return sums, nil
}

func (r *registerRepo) SaleMovementExistsTx(tx *gorm.DB, saleID uuid.UUID, movementType string) (bool, error) {
	var count int64
	err := tx.Model(&model.CashMovement{}).
		Where("sale_id = ? AND movement_type = ?", saleID, movementType).
		Count(&count).Error
	return count > 0, err
}
