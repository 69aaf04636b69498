package ports

import (
	"context"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// AccountRepository persists accounts.
type AccountRepository interface {
	// Create inserts a new account. It returns domain.ErrDuplicateAccount when
	// the username collides with an existing one ignoring case.
	Create(ctx context.Context, account *domain.Account) error
	// FindByUsername is an exact, case-sensitive lookup.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, username string) error
}
