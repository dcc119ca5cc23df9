package reconciler

import (
	"context"
	"sync"
	"time"
)

// ruleQueue orders reconcile requests per rule group key
// (tenant/namespace/group).
//
// The newest change event for a key always wins. It replaces a request that
// is still queued, waits behind a reconcile of the same key that is already
// running, and cancels a retry that is waiting out its backoff. A retry is
// only accepted for the newest event of its key, so a failed upsert is never
// replayed after the delete that followed it.
type ruleQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	// order holds the queued keys, oldest first
	order []string

	entries map[string]*queueEntry

	shuttingDown bool
}

// queueEntry is the queue state of one key. It is dropped once the key is
// neither queued, running nor waiting to retry.
type queueEntry struct {
	// generation counts the change events seen for the key
	generation uint64
	// served is the generation of the request handed out by the last Get
	served uint64

	// next is handed out by the following Get
	next ReconcileRequest

	queued  bool
	running bool
	// parked means next arrived while the key was running
	parked bool

	retry    *time.Timer
	retrying ReconcileRequest
}

func (e *queueEntry) idle() bool {
	return !e.queued && !e.running && !e.parked && e.retry == nil
}

func newRuleQueue() *ruleQueue {
	q := &ruleQueue{
		entries: make(map[string]*queueEntry),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *ruleQueue) entry(key string) *queueEntry {
	e, ok := q.entries[key]
	if !ok {
		e = &queueEntry{}
		q.entries[key] = e
	}
	return e
}

// Add queues the request of a new change event. When it replaces an older
// request for the same key, queued, parked or waiting to retry, that request
// is returned with true.
func (q *ruleQueue) Add(req ReconcileRequest) (ReconcileRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shuttingDown {
		return ReconcileRequest{}, false
	}

	key := req.Key()
	e := q.entry(key)
	e.generation++

	var superseded ReconcileRequest
	replaced := false

	if e.retry != nil {
		e.retry.Stop()
		e.retry = nil
		superseded, replaced = e.retrying, true
		e.retrying = ReconcileRequest{}
	}
	if e.queued || e.parked {
		superseded, replaced = e.next, true
	}

	q.put(key, e, req)
	return superseded, replaced
}

// put makes req the next request of key. Caller holds mu.
func (q *ruleQueue) put(key string, e *queueEntry, req ReconcileRequest) {
	e.next = req
	switch {
	case e.running:
		e.parked = true
	case !e.queued:
		e.queued = true
		q.order = append(q.order, key)
		q.cond.Signal()
	}
}

// Retry schedules req to run again after delay and reports whether it did.
// The retry is refused when a newer event for the key arrived after req was
// handed out, and cancelled by Add if one arrives while it waits.
func (q *ruleQueue) Retry(req ReconcileRequest, delay time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shuttingDown {
		return false
	}

	key := req.Key()
	e := q.entry(key)
	if e.generation != e.served || e.queued || e.parked {
		q.release(key, e)
		return false
	}

	if e.retry != nil {
		e.retry.Stop()
	}

	generation := e.generation
	e.retrying = req

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		if q.shuttingDown || q.entries[key] != e || e.retry != timer || e.generation != generation {
			return
		}
		e.retry = nil
		q.put(key, e, e.retrying)
		e.retrying = ReconcileRequest{}
	})
	e.retry = timer

	return true
}

// Current reports whether req is still the newest request of its key, that
// is no change event arrived since it was handed out by Get.
func (q *ruleQueue) Current(req ReconcileRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[req.Key()]
	return ok && e.generation == e.served && !e.parked
}

// Get blocks until a request is queued and hands it out. It returns false
// once ctx is done, or once the queue is shut down and drained.
func (q *ruleQueue) Get(ctx context.Context) (ReconcileRequest, bool) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.order) == 0 {
		if q.shuttingDown || ctx.Err() != nil {
			return ReconcileRequest{}, false
		}
		q.cond.Wait()
	}

	key := q.order[0]
	q.order = q.order[1:]

	e := q.entries[key]
	e.queued = false
	e.running = true
	e.served = e.generation

	req := e.next
	e.next = ReconcileRequest{}
	return req, true
}

// Done ends the run of req. A request parked behind it is queued.
func (q *ruleQueue) Done(req ReconcileRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := req.Key()
	e, ok := q.entries[key]
	if !ok {
		return
	}

	e.running = false
	if e.parked {
		e.parked = false
		e.queued = true
		q.order = append(q.order, key)
		q.cond.Signal()
	}
	q.release(key, e)
}

// release forgets an idle key. Caller holds mu.
func (q *ruleQueue) release(key string, e *queueEntry) {
	if e.idle() {
		delete(q.entries, key)
	}
}

// Len returns the number of queued requests. Running requests and pending
// retries are not counted.
func (q *ruleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Retrying returns the number of keys waiting out a retry backoff.
func (q *ruleQueue) Retrying() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, e := range q.entries {
		if e.retry != nil {
			n++
		}
	}
	return n
}

// Shutdown cancels pending retries and wakes up blocked Get calls. Requests
// already queued can still be drained.
func (q *ruleQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.shuttingDown = true
	for _, e := range q.entries {
		if e.retry != nil {
			e.retry.Stop()
			e.retry = nil
		}
	}
	q.cond.Broadcast()
}
