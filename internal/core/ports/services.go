package ports

import (
	"context"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// TokenIssuer turns an authenticated account into a bearer token and back.
type TokenIssuer interface {
	Issue(account *domain.Account) (string, error)
	// Resolve verifies the token and returns the session of the account it
	// names, as currently stored.
	Resolve(ctx context.Context, token string) (domain.Session, error)
}

// AccountService is the account directory.
type AccountService interface {
	Register(ctx context.Context, username, password, fullName string) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (string, *domain.Account, error)
	List(ctx context.Context, session domain.Session) ([]*domain.Account, error)
	AdminAdd(ctx context.Context, session domain.Session, username, password, fullName string) (*domain.Account, error)
	Update(ctx context.Context, session domain.Session, target string, patch domain.AccountPatch) error
	Delete(ctx context.Context, session domain.Session, target string) error
}

// ImageInput is an optional attachment payload as sent by the client.
type ImageInput struct {
	Payload  string // data URL or bare base64
	MimeType string
}

// EntryInput carries the writable fields of an entry.
type EntryInput struct {
	Timestamp   string
	Title       string
	Description string
	Image       *ImageInput
}

// EntryView is an entry as returned by a read.
type EntryView struct {
	domain.Entry
	DisplayOwner string `json:"display_owner"`
}

// EntryService is the record store.
type EntryService interface {
	Create(ctx context.Context, session domain.Session, input EntryInput) (int64, error)
	Read(ctx context.Context, session domain.Session) ([]EntryView, error)
	Update(ctx context.Context, session domain.Session, id int64, input EntryInput) error
	Delete(ctx context.Context, session domain.Session, id int64) error
}

// AttachmentService manages the blob lifecycle of entry attachments.
type AttachmentService interface {
	Store(ctx context.Context, image ImageInput, hint string) (domain.Attachment, error)
	// Replace stores image, runs commit with the new attachment, and only
	// then discards oldRef. If commit fails the new blob is discarded instead.
	Replace(ctx context.Context, oldRef string, image ImageInput, hint string, commit func(domain.Attachment) error) (domain.Attachment, error)
	Discard(ctx context.Context, ref string)
}
