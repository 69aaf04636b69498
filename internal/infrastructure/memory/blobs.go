package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
)

// BlobStore keeps blobs in memory, split into a public and a trash area.
type BlobStore struct {
	mu      sync.RWMutex
	baseURL string
	live    map[string]ports.BlobObject
	trashed map[string]ports.BlobObject
}

// NewBlobStore returns a store whose view URLs are baseURL/<ref>.
func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		live:    make(map[string]ports.BlobObject),
		trashed: make(map[string]ports.BlobObject),
	}
}

func (b *BlobStore) Put(_ context.Context, obj ports.BlobObject) (domain.Attachment, error) {
	ref := uuid.NewString()
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	obj.Data = data

	b.mu.Lock()
	b.live[ref] = obj
	b.mu.Unlock()

	return domain.Attachment{Ref: ref, URL: b.baseURL + "/" + ref}, nil
}

func (b *BlobStore) Trash(_ context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.live[ref]
	if !ok {
		return fmt.Errorf("blob %s: %w", ref, domain.ErrNotFound)
	}
	delete(b.live, ref)
	b.trashed[ref] = obj
	return nil
}

// Get returns a live blob.
func (b *BlobStore) Get(ref string) (ports.BlobObject, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.live[ref]
	return obj, ok
}

// LiveRefs lists the refs in the public area.
func (b *BlobStore) LiveRefs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	refs := make([]string, 0, len(b.live))
	for ref := range b.live {
		refs = append(refs, ref)
	}
	return refs
}

// TrashedRefs lists the refs moved to the trash area.
func (b *BlobStore) TrashedRefs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	refs := make([]string, 0, len(b.trashed))
	for ref := range b.trashed {
		refs = append(refs, ref)
	}
	return refs
}
