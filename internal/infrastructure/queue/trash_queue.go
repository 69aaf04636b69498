// Package queue runs blob trashing off the request path.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	trashTimeout   = 30 * time.Second
)

// TrashQueue implements ports.BlobTrasher by routing refs to a fixed set of
// workers using hashing on the ref, so repeated trashes of one ref run in
// order on the same worker. Once closed it trashes inline on the caller.
type TrashQueue struct {
	workers []chan string
	next    ports.BlobTrasher
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu is held for reading while sending so Close never closes a channel
	// under an in-flight send.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewTrashQueue creates a TrashQueue with numWorkers sharded workers that hand
// each ref to next. If numWorkers <= 0, defaultWorkers is used.
func NewTrashQueue(numWorkers int, next ports.BlobTrasher, log zerolog.Logger) *TrashQueue {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	q := &TrashQueue{
		workers: make([]chan string, numWorkers),
		next:    next,
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range q.workers {
		q.workers[i] = make(chan string, channelBuffer)
	}
	return q
}

// Start launches all worker goroutines. Cancelling ctx closes the queue: the
// workers finish what is buffered and later refs are trashed inline.
func (q *TrashQueue) Start(ctx context.Context) {
	for i, ch := range q.workers {
		q.wg.Add(1)
		go q.runWorker(i, ch)
	}
	go func() {
		select {
		case <-ctx.Done():
			q.log.Debug().Msg("trash queue context cancelled, closing")
			q.Close()
		case <-q.done:
		}
	}()
}

// Trash enqueues ref. The request ctx is not carried over since the work
// outlives the request. Blocks while the worker's buffer is full.
func (q *TrashQueue) Trash(ctx context.Context, ref string) {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.log.Debug().Str("ref", ref).Msg("trash queue closed, trashing inline")
		q.next.Trash(ctx, ref)
		return
	}
	defer q.mu.RUnlock()

	idx := q.shardIndex(ref)
	q.workers[idx] <- ref
	metrics.TrashQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
}

// Close stops accepting refs and waits for the workers to drain. It is safe
// to call more than once.
func (q *TrashQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.done)
		for _, ch := range q.workers {
			close(ch)
		}
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// shardIndex maps a ref deterministically to a worker index.
func (q *TrashQueue) shardIndex(ref string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ref))
	return int(h.Sum32() % uint32(len(q.workers)))
}

func (q *TrashQueue) runWorker(id int, ch <-chan string) {
	defer q.wg.Done()
	depth := metrics.TrashQueueDepth.WithLabelValues(strconv.Itoa(id))
	for ref := range ch {
		depth.Dec()
		q.trash(ref)
	}
	q.log.Debug().Int("worker_id", id).Msg("trash worker stopped")
}

func (q *TrashQueue) trash(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()
	q.next.Trash(ctx, ref)
}
