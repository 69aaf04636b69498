package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/logbook/logbook-service/internal/core/access"
	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/metrics"
)

// AccountService implements registration, login and admin account management.
type AccountService struct {
	repo   ports.AccountRepository
	claims ports.Claimer
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, claims ports.Claimer, tokens ports.TokenIssuer, log zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, claims: claims, tokens: tokens, log: log}
}

// Register creates an account. The first account ever created becomes Admin;
// all later ones are User. Whoever wins the first-admin claim is the first
// account; if its insert fails the claim is handed back for the next one.
func (s *AccountService) Register(ctx context.Context, username, password, fullName string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if fullName == "" {
		fullName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	first, err := s.claims.Claim(ctx, ports.ClaimFirstAdmin)
	if err != nil {
		return nil, fmt.Errorf("claim first admin: %w", err)
	}
	role := domain.RoleUser
	if first {
		role = domain.RoleAdmin
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if first {
			s.releaseFirstAdmin(ctx)
		}
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	metrics.AccountsRegisteredTotal.WithLabelValues(string(role)).Inc()
	s.log.Info().Str("username", username).Str("role", string(role)).Msg("account registered")
	return account, nil
}

func (s *AccountService) releaseFirstAdmin(ctx context.Context) {
	if err := s.claims.Release(context.WithoutCancel(ctx), ports.ClaimFirstAdmin); err != nil {
		s.log.Error().Err(err).Msg("failed to release first admin claim")
	}
}

// Authenticate checks the credentials and issues a session token. The username
// must match exactly, case included, even though registration rejects names
// that differ only by case.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (string, *domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, account, nil
}

func (s *AccountService) List(ctx context.Context, session domain.Session) ([]*domain.Account, error) {
	if !access.CanManageAccounts(session) {
		return nil, domain.ErrAccessDenied
	}
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// AdminAdd registers an account on behalf of an admin.
func (s *AccountService) AdminAdd(ctx context.Context, session domain.Session, username, password, fullName string) (*domain.Account, error) {
	if !access.CanManageAccounts(session) {
		return nil, domain.ErrAccessDenied
	}
	return s.Register(ctx, username, password, fullName)
}

// Update applies the fields present in patch to the target account.
func (s *AccountService) Update(ctx context.Context, session domain.Session, target string, patch domain.AccountPatch) error {
	if !access.CanManageAccounts(session) {
		return domain.ErrAccessDenied
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return fmt.Errorf("%w: role must be Admin or User", domain.ErrValidation)
	}

	account, err := s.repo.FindByUsername(ctx, target)
	if err != nil {
		return err
	}

	if patch.Password != nil && *patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}
	if patch.Role != nil {
		account.Role = *patch.Role
	}
	if patch.FullName != nil {
		if name := strings.TrimSpace(*patch.FullName); name != "" {
			account.FullName = name
		}
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	s.log.Info().Str("username", target).Str("by", session.Username).Msg("account updated")
	return nil
}

// Delete removes the target account. An admin cannot delete itself.
func (s *AccountService) Delete(ctx context.Context, session domain.Session, target string) error {
	if !access.CanDeleteAccount(session, target) {
		return domain.ErrAccessDenied
	}
	if err := s.repo.Delete(ctx, target); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info().Str("username", target).Str("by", session.Username).Msg("account deleted")
	return nil
}
