package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
)

// TokenService issues HS256 session tokens that name an account, and resolves
// them back into a session using the account as currently stored. Role
// changes and deletions therefore apply to tokens already handed out.
type TokenService struct {
	repo     ports.AccountRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewTokenService(repo ports.AccountRepository, secret string, tokenTTL time.Duration) *TokenService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &TokenService{repo: repo, secret: []byte(secret), tokenTTL: tokenTTL}
}

func (s *TokenService) Issue(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   account.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *TokenService) Resolve(ctx context.Context, token string) (domain.Session, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	account, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrUnauthenticated
		}
		return domain.Session{}, fmt.Errorf("resolve session: %w", err)
	}

	return domain.SessionFor(account), nil
}
