package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRegisterSvc() (service.RegisterService, *stubRegisterRepo) {
	repo := newStubRegisterRepo()
	return service.NewRegisterService(repo), repo
}

func openSession(t *testing.T, svc service.RegisterService, operatorID uuid.UUID, opening float64) uuid.UUID {
	t.Helper()
	resp, err := svc.Open(context.Background(), operatorID, dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(opening),
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.SessionID)
}

func TestRegisterOpen(t *testing.T) {
	svc, repo := buildRegisterSvc()
	operatorID := uuid.New()

	sessionID := openSession(t, svc, operatorID, 100)

	session := repo.sessions[sessionID]
	require.NotNil(t, session)
	assert.Equal(t, model.SessionOpen, session.Status)
	assert.Equal(t, "100", session.OpeningBalance.String())
	assert.Equal(t, operatorID, session.OperatorID)
}

func TestRegisterOpen_OnePerOperator(t *testing.T) {
	svc, _ := buildRegisterSvc()
	operatorID := uuid.New()

	openSession(t, svc, operatorID, 100)
	_, err := svc.Open(context.Background(), operatorID, dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(50),
	})
	assert.ErrorIs(t, err, service.ErrRegisterAlreadyOpen)

	// a different operator is unaffected
	openSession(t, svc, uuid.New(), 50)
}

func movement(sessionID uuid.UUID, movementType, category string, amount float64) dto.ManualMovementRequest {
	return dto.ManualMovementRequest{
		SessionID:    sessionID.String(),
		MovementType: movementType,
		Category:     category,
		Amount:       decimal.NewFromFloat(amount),
		Description:  "test movement",
	}
}

func TestRegisterClose_Reconciliation(t *testing.T) {
	svc, _ := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 100)

	// expected = 100 + 50 − 10 = 140
	require.NoError(t, svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementEntrada, model.CategorySuprimento, 50)))
	require.NoError(t, svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementSaida, model.CategorySangria, 10)))

	resp, err := svc.Close(context.Background(), dto.CloseRegisterRequest{
		SessionID:      sessionID.String(),
		CountedBalance: decimal.NewFromFloat(140),
	})
	require.NoError(t, err)

	assert.Equal(t, "140", resp.ExpectedBalance.String())
	assert.Equal(t, "140", resp.CountedBalance.String())
	assert.True(t, resp.Difference.IsZero())
	assert.Equal(t, model.SessionClosed, resp.Status)
}

func TestRegisterClose_ReportsShortfall(t *testing.T) {
	svc, _ := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 200)

	resp, err := svc.Close(context.Background(), dto.CloseRegisterRequest{
		SessionID:      sessionID.String(),
		CountedBalance: decimal.NewFromFloat(185.50),
	})
	require.NoError(t, err)

	// difference = counted − expected, negative when the drawer is short
	assert.Equal(t, "-14.5", resp.Difference.String())
}

func TestRegisterClose_ClosesExactlyOnce(t *testing.T) {
	svc, _ := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 100)

	req := dto.CloseRegisterRequest{
		SessionID:      sessionID.String(),
		CountedBalance: decimal.NewFromFloat(100),
	}
	_, err := svc.Close(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestRegisterClose_ConcurrentClosesOneWinner(t *testing.T) {
	svc, _ := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 100)

	req := dto.CloseRegisterRequest{
		SessionID:      sessionID.String(),
		CountedBalance: decimal.NewFromFloat(100),
	}

	var wg sync.WaitGroup
	var closed, alreadyClosed int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Close(context.Background(), req)
			switch {
			case err == nil:
				atomic.AddInt64(&closed, 1)
			case errors.Is(err, service.ErrSessionClosed):
				atomic.AddInt64(&alreadyClosed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), closed)
	assert.Equal(t, int64(7), alreadyClosed)
}

func TestRecordMovement_DefaultCategories(t *testing.T) {
	svc, repo := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 0)

	require.NoError(t, svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementEntrada, "", 30)))
	require.NoError(t, svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementSaida, "", 5)))

	require.Len(t, repo.movements, 2)
	assert.Equal(t, model.CategorySuprimento, repo.movements[0].Category)
	assert.Equal(t, model.CategorySangria, repo.movements[1].Category)
}

func TestRecordMovement_RejectsClosedSession(t *testing.T) {
	svc, repo := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 100)
	repo.sessions[sessionID].Status = model.SessionClosed

	err := svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementEntrada, model.CategorySuprimento, 30))
	assert.ErrorIs(t, err, service.ErrSessionClosed)
	assert.Empty(t, repo.movements)
}

func TestRequireOpen(t *testing.T) {
	svc, repo := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 100)

	assert.NoError(t, svc.RequireOpen(context.Background(), sessionID))
	assert.ErrorIs(t, svc.RequireOpen(context.Background(), uuid.New()), service.ErrNoOpenRegister)

	repo.sessions[sessionID].Status = model.SessionClosed
	assert.ErrorIs(t, svc.RequireOpen(context.Background(), sessionID), service.ErrSessionClosed)
}

func TestRegisterReport_RunningBalance(t *testing.T) {
	svc, _ := buildRegisterSvc()
	sessionID := openSession(t, svc, uuid.New(), 100)

	require.NoError(t, svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementEntrada, model.CategorySuprimento, 75.25)))
	require.NoError(t, svc.RecordMovement(context.Background(),
		movement(sessionID, model.MovementSaida, model.CategorySangria, 20)))

	resp, err := svc.Report(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "75.25", resp.TotalEntrada.String())
	assert.Equal(t, "20", resp.TotalSaida.String())
	assert.Equal(t, "155.25", resp.ExpectedBalance.String())
	assert.Equal(t, model.SessionOpen, resp.Status)
}

func TestRegisterCurrent(t *testing.T) {
	svc, _ := buildRegisterSvc()
	operatorID := uuid.New()

	// nothing open yet
	resp, err := svc.Current(context.Background(), operatorID)
	require.NoError(t, err)
	assert.Nil(t, resp)

	sessionID := openSession(t, svc, operatorID, 100)
	resp, err = svc.Current(context.Background(), operatorID)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, sessionID.String(), resp.SessionID)
}

func TestRegisterHistory_ListsClosedOnly(t *testing.T) {
	svc, _ := buildRegisterSvc()

	closedID := openSession(t, svc, uuid.New(), 100)
	_, err := svc.Close(context.Background(), dto.CloseRegisterRequest{
		SessionID:      closedID.String(),
		CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	openSession(t, svc, uuid.New(), 50) // still open, excluded

	history, err := svc.History(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, closedID.String(), history[0].SessionID)
	assert.Equal(t, model.SessionClosed, history[0].Status)
}
