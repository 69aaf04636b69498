package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// Sequence implements ports.SequenceAllocator with a mutex-guarded map.
type Sequence struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewSequence() *Sequence {
	return &Sequence{values: make(map[string]int64)}
}

func (s *Sequence) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name]++
	return s.values[name], nil
}

// Claims implements ports.Claimer with a mutex-guarded set.
type Claims struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewClaims() *Claims {
	return &Claims{held: make(map[string]bool)}
}

func (c *Claims) Claim(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[name] {
		return false, nil
	}
	c.held[name] = true
	return true, nil
}

func (c *Claims) Release(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, name)
	return nil
}

// lockSlot is the per-id semaphore. refs counts holders plus waiters; the
// slot is dropped from the map once it reaches zero.
type lockSlot struct {
	ch   chan struct{}
	refs int
}

// EntryLocker implements ports.RecordLocker with one buffered channel per id
// so waiters can give up when ctx ends.
type EntryLocker struct {
	mu    sync.Mutex
	slots map[int64]*lockSlot
	wait  time.Duration
}

// NewEntryLocker returns a locker whose waiters give up after wait, or when
// their ctx ends if wait is zero.
func NewEntryLocker(wait time.Duration) *EntryLocker {
	return &EntryLocker{slots: make(map[int64]*lockSlot), wait: wait}
}

func (l *EntryLocker) Lock(ctx context.Context, id int64) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	slot := l.acquire(id)
	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(id)
			})
		}, nil
	case <-ctx.Done():
		l.release(id)
		return nil, fmt.Errorf("%w: entry %d", domain.ErrLockTimeout, id)
	}
}

func (l *EntryLocker) acquire(id int64) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	return slot
}

func (l *EntryLocker) release(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
}

// size reports how many ids currently have a slot.
func (l *EntryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
