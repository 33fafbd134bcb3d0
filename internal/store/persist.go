package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/observe"
)

type opKind string

const (
	opUpsert opKind = "upsert"
	opDelete opKind = "delete"
)

type persistOp struct {
	kind  opKind
	id    string
	entry model.Entry
}

// persistQueue applies mutations to a Persister on a single background
// goroutine. Enqueue never blocks; failures are logged and dropped.
type persistQueue struct {
	p       Persister
	obs     *observe.Observer
	timeout time.Duration

	mu      sync.Mutex
	pending []persistOp
	closed  bool

	inflight sync.WaitGroup
	wake     chan struct{}
	done     chan struct{}
}

func newPersistQueue(p Persister, obs *observe.Observer, timeout time.Duration) *persistQueue {
	q := &persistQueue{
		p:       p,
		obs:     obs,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *persistQueue) upsert(e *model.Entry) {
	q.enqueue(persistOp{kind: opUpsert, id: e.ID, entry: *e.Clone()})
}

func (q *persistQueue) delete(id string) {
	q.enqueue(persistOp{kind: opDelete, id: id})
}

func (q *persistQueue) enqueue(op persistOp) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.obs.Log().Warn().Str("op", string(op.kind)).Str("id", op.id).Msg("persist queue closed, dropping write")
		return
	}
	q.inflight.Add(1)
	q.pending = append(q.pending, op)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *persistQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, op := range batch {
			q.apply(op)
			q.inflight.Done()
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

func (q *persistQueue) apply(op persistOp) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	ctx, span := q.obs.StartSpan(ctx, "memory.persist."+string(op.kind))
	defer span.End()
	span.SetAttributes(attribute.String("memory.id", op.id))

	var err error
	switch op.kind {
	case opUpsert:
		err = q.p.Upsert(ctx, op.entry)
	case opDelete:
		err = q.p.Delete(ctx, op.id)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		q.obs.Log().Warn().Str("op", string(op.kind)).Str("id", op.id).Err(err).Msg("persist failed")
	}
}

// flush waits until every queued op has been applied.
func (q *persistQueue) flush() {
	q.inflight.Wait()
}

// close drains the queue and stops the worker.
func (q *persistQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}
