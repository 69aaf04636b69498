package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/metrics"
)

// AttachmentService stores, replaces and discards entry attachments.
type AttachmentService struct {
	store   ports.BlobStore
	trasher ports.BlobTrasher
	log     zerolog.Logger
}

func NewAttachmentService(store ports.BlobStore, trasher ports.BlobTrasher, log zerolog.Logger) *AttachmentService {
	return &AttachmentService{store: store, trasher: trasher, log: log}
}

// Store decodes the image and writes it as a new public blob.
func (s *AttachmentService) Store(ctx context.Context, image ports.ImageInput, hint string) (domain.Attachment, error) {
	data, mimeType, err := decodeImage(image)
	if err != nil {
		return domain.Attachment{}, err
	}

	att, err := s.store.Put(ctx, ports.BlobObject{Name: hint, MimeType: mimeType, Data: data})
	if err != nil {
		metrics.AttachmentsStoredTotal.WithLabelValues("failed").Inc()
		return domain.Attachment{}, fmt.Errorf("store attachment: %w", err)
	}

	metrics.AttachmentsStoredTotal.WithLabelValues("stored").Inc()
	s.log.Debug().Str("ref", att.Ref).Str("mime", mimeType).Int("bytes", len(data)).Msg("attachment stored")
	return att, nil
}

// Replace stores the new image, hands it to commit, and only then discards
// oldRef. When commit fails the new blob is discarded instead and oldRef stays
// live, so the owner never points at a trashed blob. A nil commit always
// succeeds.
func (s *AttachmentService) Replace(ctx context.Context, oldRef string, image ports.ImageInput, hint string, commit func(domain.Attachment) error) (domain.Attachment, error) {
	att, err := s.Store(ctx, image, hint)
	if err != nil {
		return domain.Attachment{}, err
	}

	if commit != nil {
		if err := commit(att); err != nil {
			s.Discard(ctx, att.Ref)
			return domain.Attachment{}, err
		}
	}

	if oldRef != att.Ref {
		s.Discard(ctx, oldRef)
	}
	return att, nil
}

// Discard trashes ref if it is set. Failures are logged by the trasher and
// never reach the caller.
func (s *AttachmentService) Discard(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	s.trasher.Trash(ctx, ref)
}

// DirectTrasher trashes blobs inline on the calling goroutine.
type DirectTrasher struct {
	store ports.BlobStore
	log   zerolog.Logger
}

func NewDirectTrasher(store ports.BlobStore, log zerolog.Logger) *DirectTrasher {
	return &DirectTrasher{store: store, log: log}
}

func (t *DirectTrasher) Trash(ctx context.Context, ref string) {
	if err := t.store.Trash(ctx, ref); err != nil {
		metrics.AttachmentsTrashTotal.WithLabelValues("suppressed").Inc()
		t.log.Warn().Err(err).Str("ref", ref).Msg("failed to trash attachment, ignoring")
		return
	}
	metrics.AttachmentsTrashTotal.WithLabelValues("trashed").Inc()
	t.log.Debug().Str("ref", ref).Msg("attachment trashed")
}

// decodeImage accepts a data URL (data:image/png;base64,....) or bare base64
// and returns the bytes with the best known MIME type.
func decodeImage(image ports.ImageInput) ([]byte, string, error) {
	payload := strings.TrimSpace(image.Payload)
	mimeType := strings.TrimSpace(image.MimeType)

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("%w: image is not a valid data URL", domain.ErrValidation)
		}
		if mimeType == "" {
			mimeType, _, _ = strings.Cut(header, ";")
		}
		payload = body
	} else if _, body, found := strings.Cut(payload, ","); found {
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: image is not valid base64", domain.ErrValidation)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
