package ports

import "context"

// SequenceEntries names the entry id sequence used with SequenceAllocator.
const SequenceEntries = "entries"

// ClaimFirstAdmin names the claim that makes an account the first Admin.
const ClaimFirstAdmin = "first_admin"

// SequenceAllocator issues strictly increasing numbers per named sequence.
// Next never returns the same value twice for a name, even under concurrency.
type SequenceAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Claimer hands out named one-time claims. Claim reports true for exactly one
// caller until that caller releases it; every other caller gets false.
type Claimer interface {
	Claim(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// RecordLocker provides mutual exclusion per entry id. Lock blocks until the
// lock is held or ctx ends; the returned func releases it.
type RecordLocker interface {
	Lock(ctx context.Context, id int64) (unlock func(), err error)
}
