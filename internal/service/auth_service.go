package service

import (
	"context"
	"errors"
	"time"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/config"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the trust boundary for the engine: it turns credentials into
// the operator identity that sales and register sessions record. The engine
// itself performs no authorization beyond role gating at the routes.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	repo repository.OperatorRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.OperatorRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	op, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.generateToken(op)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		Operator: dto.OperatorResponse{
			ID:       op.ID.String(),
			Username: op.Username,
			Name:     op.Name,
			Role:     op.Role,
		},
	}, nil
}

func (s *authService) generateToken(op *model.Operator) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"operator_id": op.ID.String(),
		"username":    op.Username,
		"role":        op.Role,
		"iat":         now.Unix(),
		"exp":         now.Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
