package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/access"
	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/metrics"
)

// EntryService is the record store: entry CRUD with owner-scoped visibility.
type EntryService struct {
	repo        ports.EntryRepository
	seq         ports.SequenceAllocator
	locker      ports.RecordLocker
	attachments ports.AttachmentService
	logger      zerolog.Logger
	now         func() time.Time
}

func NewEntryService(
	repo ports.EntryRepository,
	seq ports.SequenceAllocator,
	locker ports.RecordLocker,
	attachments ports.AttachmentService,
	logger zerolog.Logger,
) *EntryService {
	return &EntryService{
		repo:        repo,
		seq:         seq,
		locker:      locker,
		attachments: attachments,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new entry owned by the session and returns its id.
func (s *EntryService) Create(ctx context.Context, session domain.Session, input ports.EntryInput) (int64, error) {
	if session.Username == "" {
		return 0, domain.ErrUnauthenticated
	}
	input, err := normalizeInput(input)
	if err != nil {
		return 0, err
	}

	now := s.now()
	var att domain.Attachment
	if input.Image != nil {
		hint := fmt.Sprintf("img_%s_%d", session.Username, now.UnixMilli())
		if att, err = s.attachments.Store(ctx, *input.Image, hint); err != nil {
			return 0, err
		}
	}

	id, err := s.seq.Next(ctx, ports.SequenceEntries)
	if err != nil {
		s.attachments.Discard(ctx, att.Ref)
		return 0, fmt.Errorf("allocate entry id: %w", err)
	}

	entry := &domain.Entry{
		ID:               id,
		Timestamp:        input.Timestamp,
		Title:            input.Title,
		Description:      input.Description,
		AttachmentRef:    att.Ref,
		AttachmentURL:    att.URL,
		OwnerUsername:    session.Username,
		OwnerDisplayName: session.DisplayName(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.attachments.Discard(ctx, att.Ref)
		s.logger.Error().Err(err).Int64("id", id).Msg("failed to create entry")
		return 0, fmt.Errorf("append entry: %w", err)
	}

	metrics.EntriesCreatedTotal.Inc()
	s.logger.Info().Int64("id", id).Str("owner", session.Username).Bool("attachment", att.Ref != "").Msg("entry created")
	return id, nil
}

// Read returns the entries visible to the session, most recently created first.
func (s *EntryService) Read(ctx context.Context, session domain.Session) ([]ports.EntryView, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	views := make([]ports.EntryView, 0, len(all))
	for _, e := range all {
		if !access.CanReadEntry(session, e) {
			continue
		}
		views = append(views, ports.EntryView{Entry: *e, DisplayOwner: e.DisplayOwner()})
	}

	// ids are allocated monotonically, so descending id is reverse insertion.
	slices.SortFunc(views, func(a, b ports.EntryView) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return views, nil
}

// Update overwrites the entry's timestamp, title and description and, when an
// image is given, swaps its attachment.
func (s *EntryService) Update(ctx context.Context, session domain.Session, id int64, input ports.EntryInput) error {
	input, err := normalizeInput(input)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	entry, err := s.authorizedEntry(ctx, session, id)
	if err != nil {
		return err
	}

	entry.Timestamp = input.Timestamp
	entry.Title = input.Title
	entry.Description = input.Description
	entry.UpdatedAt = s.now()

	if input.Image == nil {
		if err := s.repo.Update(ctx, entry); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
	} else {
		hint := fmt.Sprintf("img_%d", id)
		_, err := s.attachments.Replace(ctx, entry.AttachmentRef, *input.Image, hint, func(att domain.Attachment) error {
			entry.AttachmentRef = att.Ref
			entry.AttachmentURL = att.URL
			if err := s.repo.Update(ctx, entry); err != nil {
				return fmt.Errorf("update entry: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.logger.Info().Int64("id", id).Str("by", session.Username).Bool("image", input.Image != nil).Msg("entry updated")
	return nil
}

// Delete removes the entry and trashes its attachment.
func (s *EntryService) Delete(ctx context.Context, session domain.Session, id int64) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	entry, err := s.authorizedEntry(ctx, session, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.attachments.Discard(ctx, entry.AttachmentRef)

	s.logger.Info().Int64("id", id).Str("by", session.Username).Msg("entry deleted")
	return nil
}

// authorizedEntry loads the entry and checks that the session may mutate it.
func (s *EntryService) authorizedEntry(ctx context.Context, session domain.Session, id int64) (*domain.Entry, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateEntry(session, entry) {
		return nil, domain.ErrAccessDenied
	}
	return entry, nil
}

func normalizeInput(in ports.EntryInput) (ports.EntryInput, error) {
	in.Timestamp = strings.TrimSpace(in.Timestamp)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	var missing []string
	if in.Timestamp == "" {
		missing = append(missing, "waktu")
	}
	if in.Title == "" {
		missing = append(missing, "judul")
	}
	if in.Description == "" {
		missing = append(missing, "deskripsi")
	}
	if len(missing) > 0 {
		return in, fmt.Errorf("%w: %s is required", domain.ErrValidation, strings.Join(missing, ", "))
	}

	if in.Image != nil && strings.TrimSpace(in.Image.Payload) == "" {
		in.Image = nil
	}
	return in, nil
}
