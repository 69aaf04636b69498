package ports

import (
	"context"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// BlobObject is the content handed to a BlobStore.
type BlobObject struct {
	Name     string
	MimeType string
	Data     []byte
}

// BlobStore is the external binary store attachments live in.
type BlobStore interface {
	// Put writes a new blob readable by anyone holding its URL and returns its
	// store-assigned reference. Existing blobs are never touched.
	Put(ctx context.Context, obj BlobObject) (domain.Attachment, error)
	// Trash moves the blob out of the public area. Trashing an unknown ref
	// returns an error.
	Trash(ctx context.Context, ref string) error
}

// BlobTrasher schedules blobs for trashing. Implementations log failures
// themselves; callers never see them.
type BlobTrasher interface {
	Trash(ctx context.Context, ref string)
}
