package ports

import (
	"context"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// EntryRepository is the table abstraction behind the record store. Entries are
// addressed by their allocated id; All returns them in insertion order.
type EntryRepository interface {
	Append(ctx context.Context, entry *domain.Entry) error
	All(ctx context.Context) ([]*domain.Entry, error)
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	Update(ctx context.Context, entry *domain.Entry) error
	Delete(ctx context.Context, id int64) error
}
