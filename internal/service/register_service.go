package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterService manages cash register sessions and their movement ledger.
type RegisterService interface {
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenRegisterRequest) (*dto.RegisterSessionResponse, error)
	Close(ctx context.Context, req dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error)
	RecordMovement(ctx context.Context, req dto.ManualMovementRequest) error
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterSessionResponse, error)
	Current(ctx context.Context, operatorID uuid.UUID) (*dto.RegisterSessionResponse, error)
	History(ctx context.Context, page, limit int) ([]dto.RegisterSessionResponse, error)

	// RequireOpen is called by SaleService before writing sale movements.
	RequireOpen(ctx context.Context, sessionID uuid.UUID) error
}

type registerService struct {
	repo repository.RegisterRepository
}

func NewRegisterService(repo repository.RegisterRepository) RegisterService {
	return &registerService{repo: repo}
}

func (s *registerService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenRegisterRequest) (*dto.RegisterSessionResponse, error) {
	if existing, err := s.repo.FindOpenByOperator(ctx, operatorID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w (%s)", ErrRegisterAlreadyOpen, existing.ID)
	}

	session := &model.CashRegisterSession{
		OperatorID:     operatorID,
		OpeningBalance: req.OpeningBalance,
		Status:         model.SessionOpen,
		OpenedAt:       time.Now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, session)
}

// Close reconciles and closes a session exactly once:
//
//	expected   = opening_balance + Σ(entrada) − Σ(saida)
//	difference = counted_balance − expected
func (s *registerService) Close(ctx context.Context, req dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session_id: %w", err)
	}

	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("register session not found: %w", err)
	}
	if session.Status != model.SessionOpen {
		return nil, ErrSessionClosed
	}

	sums, err := s.repo.SumMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	expected := session.OpeningBalance.Add(sums.Entrada).Sub(sums.Saida)
	difference := req.CountedBalance.Sub(expected)

	now := time.Now()
	counted := req.CountedBalance
	session.ExpectedBalance = &expected
	session.ClosingBalance = &counted
	session.Difference = &difference
	session.Status = model.SessionClosed
	session.ClosedAt = &now
	session.Notes = req.Notes

	// Conditional write: only one concurrent Close can flip open → closed.
	closed, err := s.repo.CloseSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, ErrSessionClosed
	}

	return &dto.CloseRegisterResponse{
		SessionID:       sessionID.String(),
		OpeningBalance:  session.OpeningBalance,
		ExpectedBalance: expected,
		CountedBalance:  counted,
		Difference:      difference,
		Status:          model.SessionClosed,
	}, nil
}

// RecordMovement appends a manual entrada/saida. Movements are immutable —
// there is no update or delete path.
func (s *registerService) RecordMovement(ctx context.Context, req dto.ManualMovementRequest) error {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session_id: %w", err)
	}
	if err := s.RequireOpen(ctx, sessionID); err != nil {
		return err
	}

	category := req.Category
	if category == "" {
		if req.MovementType == model.MovementEntrada {
			category = model.CategorySuprimento
		} else {
			category = model.CategorySangria
		}
	}

	mov := &model.CashMovement{
		CashRegisterSessionID: sessionID,
		MovementType:          req.MovementType,
		Category:              category,
		Amount:                req.Amount,
		Description:           req.Description,
	}
	return s.repo.CreateMovement(ctx, mov)
}

func (s *registerService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterSessionResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("register session not found: %w", err)
	}
	return s.buildResponse(ctx, session)
}

func (s *registerService) Current(ctx context.Context, operatorID uuid.UUID) (*dto.RegisterSessionResponse, error) {
	session, err := s.repo.FindOpenByOperator(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return s.buildResponse(ctx, session)
}

func (s *registerService) History(ctx context.Context, page, limit int) ([]dto.RegisterSessionResponse, error) {
	sessions, err := s.repo.ListClosed(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegisterSessionResponse, 0, len(sessions))
	for i := range sessions {
		resp, err := s.buildResponse(ctx, &sessions[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *registerService) RequireOpen(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return ErrNoOpenRegister
	}
	if session.Status != model.SessionOpen {
		return ErrSessionClosed
	}
	return nil
}

func (s *registerService) buildResponse(ctx context.Context, session *model.CashRegisterSession) (*dto.RegisterSessionResponse, error) {
	sums, err := s.repo.SumMovements(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	expected := session.OpeningBalance.Add(sums.Entrada).Sub(sums.Saida)

	resp := &dto.RegisterSessionResponse{
		SessionID:       session.ID.String(),
		OperatorID:      session.OperatorID.String(),
		OpeningBalance:  session.OpeningBalance,
		TotalEntrada:    sums.Entrada,
		TotalSaida:      sums.Saida,
		ExpectedBalance: expected,
		Status:          session.Status,
		Notes:           session.Notes,
		OpenedAt:        session.OpenedAt.Format(time.RFC3339),
	}
	if session.ClosingBalance != nil {
		resp.CountedBalance = session.ClosingBalance
	}
	if session.Difference != nil {
		resp.Difference = session.Difference
	}
	if session.ClosedAt != nil {
		t := session.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp, nil
}
