package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubAccountRepo struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account // keyed by folded username
	createErr   error
	updateErr   error
	createDelay time.Duration
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) error {
	time.Sleep(r.createDelay)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	key := domain.FoldUsername(a.Username)
	if _, exists := r.accounts[key]; exists {
		return domain.ErrDuplicateAccount
	}
	r.accounts[key] = cloneAccount(a)
	return nil
}

// FindByUsername mirrors the real repositories: exact, case-sensitive match.
func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[domain.FoldUsername(username)]
	if !ok || a.Username != username {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) List(_ context.Context) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

func (r *stubAccountRepo) Update(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	key := domain.FoldUsername(a.Username)
	if _, ok := r.accounts[key]; !ok {
		return domain.ErrNotFound
	}
	r.accounts[key] = cloneAccount(a)
	return nil
}

func (r *stubAccountRepo) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.FoldUsername(username)
	a, ok := r.accounts[key]
	if !ok || a.Username != username {
		return domain.ErrNotFound
	}
	delete(r.accounts, key)
	return nil
}

type stubSequence struct {
	mu      sync.Mutex
	next    map[string]int64
	nextErr error
}

func newStubSequence() *stubSequence {
	return &stubSequence{next: make(map[string]int64)}
}

func (s *stubSequence) Next(_ context.Context, name string) (int64, error) {
	if s.nextErr != nil {
		return 0, s.nextErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[name]++
	return s.next[name], nil
}

type stubClaims struct {
	mu       sync.Mutex
	held     map[string]bool
	claimErr error
	released []string
}

func newStubClaims() *stubClaims {
	return &stubClaims{held: make(map[string]bool)}
}

func (c *stubClaims) Claim(_ context.Context, name string) (bool, error) {
	if c.claimErr != nil {
		return false, c.claimErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[name] {
		return false, nil
	}
	c.held[name] = true
	return true, nil
}

func (c *stubClaims) Release(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, name)
	c.released = append(c.released, name)
	return nil
}

type stubTokens struct {
	issued []string
}

func (t *stubTokens) Issue(a *domain.Account) (string, error) {
	t.issued = append(t.issued, a.Username)
	return "token-" + a.Username, nil
}

func (t *stubTokens) Resolve(_ context.Context, token string) (domain.Session, error) {
	return domain.Session{}, domain.ErrUnauthenticated
}

type stubEntryRepo struct {
	entries   map[int64]*domain.Entry
	order     []int64
	appendErr error
	updateErr error
	deleteErr error
}

func newStubEntryRepo() *stubEntryRepo {
	return &stubEntryRepo{entries: make(map[int64]*domain.Entry)}
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	clone := *e
	return &clone
}

func (r *stubEntryRepo) Append(_ context.Context, e *domain.Entry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries[e.ID] = cloneEntry(e)
	r.order = append(r.order, e.ID)
	return nil
}

func (r *stubEntryRepo) All(_ context.Context) ([]*domain.Entry, error) {
	out := make([]*domain.Entry, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.entries[id]; ok {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (r *stubEntryRepo) Get(_ context.Context, id int64) (*domain.Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *stubEntryRepo) Update(_ context.Context, e *domain.Entry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.entries[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.entries[e.ID] = cloneEntry(e)
	return nil
}

func (r *stubEntryRepo) Delete(_ context.Context, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.entries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

type stubLocker struct {
	lockErr error
	locked  []int64
	held    map[int64]bool
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[int64]bool)}
}

func (l *stubLocker) Lock(_ context.Context, id int64) (func(), error) {
	if l.lockErr != nil {
		return nil, l.lockErr
	}
	l.locked = append(l.locked, id)
	l.held[id] = true
	return func() { l.held[id] = false }, nil
}

// stubBlobStore keeps live and trashed blobs apart so tests can assert on the
// exact set of reachable blobs.
type stubBlobStore struct {
	live     map[string]ports.BlobObject
	trashed  map[string]ports.BlobObject
	seq      int
	putErr   error
	trashErr error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{
		live:    make(map[string]ports.BlobObject),
		trashed: make(map[string]ports.BlobObject),
	}
}

func (b *stubBlobStore) Put(_ context.Context, obj ports.BlobObject) (domain.Attachment, error) {
	if b.putErr != nil {
		return domain.Attachment{}, b.putErr
	}
	b.seq++
	ref := fmt.Sprintf("blob-%d", b.seq)
	b.live[ref] = obj
	return domain.Attachment{Ref: ref, URL: "https://blobs.test/" + ref}, nil
}

func (b *stubBlobStore) Trash(_ context.Context, ref string) error {
	if b.trashErr != nil {
		return b.trashErr
	}
	obj, ok := b.live[ref]
	if !ok {
		return errors.New("no such blob: " + ref)
	}
	delete(b.live, ref)
	b.trashed[ref] = obj
	return nil
}

func (b *stubBlobStore) liveRefs() string {
	refs := make([]string, 0, len(b.live))
	for ref := range b.live {
		refs = append(refs, ref)
	}
	return strings.Join(refs, ",")
}
