package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	potel "github.com/Strob0t/Principal/internal/adapter/otel"
	"github.com/Strob0t/Principal/internal/config"
	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/logger"
	"github.com/Strob0t/Principal/internal/port/broadcast"
	"github.com/Strob0t/Principal/internal/port/cache"
)

// EventDispatchStatus is broadcast on every dispatch state change.
const EventDispatchStatus = "dispatch.status"

const resultKeyPrefix = "dispatch"

// Processor runs one request to completion.
type Processor interface {
	Process(ctx context.Context, req *request.Request) (*response.Response, error)
}

// Router is implemented by processors that can tell up front whether a
// request type has anyone to handle it. Submit uses it to refuse requests
// that could only fail.
type Router interface {
	Routable(t request.Type) error
}

// task is one submitted request. Fields are guarded by DispatchQueue.mu.
type task struct {
	status response.DispatchStatus
	req    *request.Request
	cancel context.CancelFunc // set while running
}

// DispatchQueue accepts requests for out-of-band processing. It holds at
// most Capacity queued requests; Submit never blocks. In-flight tasks live
// in memory, finished ones in the result cache until they expire.
type DispatchQueue struct {
	proc     Processor
	cfg      config.Queue
	capacity int
	results  *cache.Typed[response.DispatchStatus]
	hub      broadcast.Broadcaster
	metrics  *potel.Metrics

	mu        sync.Mutex
	ready     *sync.Cond        // signalled when pending grows or the queue closes
	pending   []*task           // FIFO of queued tasks; a cancelled task leaves it at once
	slots     map[string]*task  // processing id -> in-flight task
	byRequest map[string]string // request id -> processing id, in-flight only
	running   int
	closed    bool

	workers sync.WaitGroup
	stop    context.CancelFunc

	newID func() string
	now   func() time.Time
}

// NewDispatchQueue creates a queue feeding proc. Finished statuses are kept
// in results for cfg.ResultTTL.
func NewDispatchQueue(proc Processor, results cache.Cache, cfg config.Queue) *DispatchQueue {
	q := &DispatchQueue{
		proc:      proc,
		cfg:       cfg,
		capacity:  max(cfg.Capacity, 1),
		results:   cache.NewTyped[response.DispatchStatus](results, resultKeyPrefix),
		slots:     make(map[string]*task),
		byRequest: make(map[string]string),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// SetBroadcaster sets the live event hub.
func (q *DispatchQueue) SetBroadcaster(b broadcast.Broadcaster) { q.hub = b }

// SetMetrics sets the metric instruments.
func (q *DispatchQueue) SetMetrics(m *potel.Metrics) { q.metrics = m }

// Start launches the workers. They run until Stop.
func (q *DispatchQueue) Start(ctx context.Context) {
	ctx, q.stop = context.WithCancel(context.WithoutCancel(ctx))
	workers := max(q.cfg.Workers, 1)
	for range workers {
		q.workers.Add(1)
		go func() {
			defer q.workers.Done()
			for {
				t, ok := q.next()
				if !ok {
					return
				}
				q.run(ctx, t)
			}
		}()
	}
	slog.Info("dispatch queue started", "workers", workers, "capacity", q.capacity)
}

// next blocks until a task is pending and pops it. It reports false once
// the queue is closed and empty.
func (q *DispatchQueue) next() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.closed {
		q.ready.Wait()
	}
	if len(q.pending) == 0 {
		return nil, false
	}
	t := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return t, true
}

// Stop refuses new submissions and lets the workers finish what is queued.
// If ctx ends first, running requests are cancelled and ctx.Err() returned.
func (q *DispatchQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.ready.Broadcast()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		if q.stop != nil {
			q.stop()
		}
		return nil
	case <-ctx.Done():
		if q.stop != nil {
			q.stop()
		}
		<-done
		return ctx.Err()
	}
}

// Submit validates req and enqueues it without blocking. A full queue
// returns domain.ErrQueueSaturated and enqueues nothing; a request id that
// is already queued or running returns domain.ErrDuplicateRequest. When the
// processor is a Router, a type nobody handles returns
// domain.ErrUnknownDomain.
func (q *DispatchQueue) Submit(ctx context.Context, req *request.Request) (response.Ack, error) {
	accepted, err := req.Accept(q.now())
	if err != nil {
		return response.Ack{}, err
	}
	if r, ok := q.proc.(Router); ok {
		if err := r.Routable(accepted.Type); err != nil {
			return response.Ack{}, err
		}
	}

	t := &task{
		req: accepted,
		status: response.DispatchStatus{
			ProcessingID: q.newID(),
			RequestID:    accepted.ID,
			State:        response.DispatchQueued,
			SubmittedAt:  accepted.AcceptedAt,
		},
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return response.Ack{}, fmt.Errorf("%w: queue is shutting down", domain.ErrQueueSaturated)
	}
	if pid, ok := q.byRequest[accepted.ID]; ok {
		q.mu.Unlock()
		return response.Ack{}, fmt.Errorf("%w: %s is being processed as %s", domain.ErrDuplicateRequest, accepted.ID, pid)
	}
	if len(q.pending) >= q.capacity {
		q.mu.Unlock()
		if q.metrics != nil {
			q.metrics.QueueSaturated.Add(ctx, 1)
		}
		slog.Warn("dispatch queue saturated", append(logger.Attrs(ctx), "req_id", accepted.ID, "capacity", q.capacity)...)
		return response.Ack{}, fmt.Errorf("%w: capacity %d reached", domain.ErrQueueSaturated, q.capacity)
	}
	q.pending = append(q.pending, t)
	q.slots[t.status.ProcessingID] = t
	q.byRequest[accepted.ID] = t.status.ProcessingID
	q.ready.Signal()
	st := t.status
	q.mu.Unlock()

	slog.Info("request queued", append(logger.Attrs(ctx), "req_id", st.RequestID, "processing_id", st.ProcessingID)...)
	q.broadcast(ctx, st)
	return response.Ack{
		RequestID:    st.RequestID,
		Status:       "accepted",
		Message:      "Request accepted for processing",
		Timestamp:    st.SubmittedAt,
		ProcessingID: st.ProcessingID,
	}, nil
}

// run processes one task popped from pending.
func (q *DispatchQueue) run(ctx context.Context, t *task) {
	q.mu.Lock()
	if t.status.State != response.DispatchQueued {
		// cancelled between pop and start
		q.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	started := q.now()
	t.status.State = response.DispatchRunning
	t.status.StartedAt = &started
	t.cancel = cancel
	q.running++
	st := t.status
	q.mu.Unlock()

	ctx = logger.WithProcessingID(ctx, st.ProcessingID)
	q.broadcast(ctx, st)

	resp, err := q.proc.Process(ctx, t.req)

	q.mu.Lock()
	q.running--
	completed := q.now()
	t.status.CompletedAt = &completed
	switch {
	case t.status.State == response.DispatchCancelled:
		// late result of a cancelled task is discarded
	case err != nil:
		t.status.State = response.DispatchFailed
		t.status.Error = err.Error()
	default:
		t.status.State = response.DispatchCompleted
		t.status.Response = resp
	}
	st = t.status
	q.mu.Unlock()

	if err != nil && st.State == response.DispatchFailed {
		slog.Error("dispatched request failed", append(logger.Attrs(ctx), "req_id", st.RequestID, "error", err)...)
	}
	q.finish(ctx, st)
}

// finish stores a terminal status and frees the in-flight slot. The status
// is cached before the slot is dropped so a concurrent Poll always finds it.
func (q *DispatchQueue) finish(ctx context.Context, st response.DispatchStatus) {
	if err := q.results.Put(context.WithoutCancel(ctx), st.ProcessingID, st, q.cfg.ResultTTL); err != nil {
		slog.Error("store dispatch result failed", "processing_id", st.ProcessingID, "error", err)
	}

	q.mu.Lock()
	delete(q.slots, st.ProcessingID)
	if q.byRequest[st.RequestID] == st.ProcessingID {
		delete(q.byRequest, st.RequestID)
	}
	q.mu.Unlock()

	q.broadcast(ctx, summaryOf(st))
}

// Poll returns the status of processingID: the live slot while in flight,
// then the cached terminal status. Unknown or expired ids return
// domain.ErrNotFound.
func (q *DispatchQueue) Poll(ctx context.Context, processingID string) (response.DispatchStatus, error) {
	q.mu.Lock()
	if t, ok := q.slots[processingID]; ok {
		st := t.status
		q.mu.Unlock()
		return st, nil
	}
	q.mu.Unlock()

	st, ok, err := q.results.Get(ctx, processingID)
	if err != nil {
		return response.DispatchStatus{}, fmt.Errorf("poll %s: %w", processingID, err)
	}
	if !ok {
		return response.DispatchStatus{}, fmt.Errorf("processing id %s: %w", processingID, domain.ErrNotFound)
	}
	return st, nil
}

// Cancel stops processingID. A queued task never runs; a running task has
// its context cancelled and its result discarded. Finished tasks return
// domain.ErrConflict.
func (q *DispatchQueue) Cancel(ctx context.Context, processingID string) (response.DispatchStatus, error) {
	q.mu.Lock()
	t, ok := q.slots[processingID]
	if !ok {
		q.mu.Unlock()
		st, err := q.Poll(ctx, processingID)
		if err != nil {
			return st, err
		}
		return st, fmt.Errorf("%w: processing id %s is already %s", domain.ErrConflict, processingID, st.State)
	}
	if t.status.State == response.DispatchCancelled {
		st := t.status
		q.mu.Unlock()
		return st, fmt.Errorf("%w: processing id %s is already cancelled", domain.ErrConflict, processingID)
	}

	wasQueued := t.status.State == response.DispatchQueued
	t.status.State = response.DispatchCancelled
	if wasQueued {
		q.pending = slices.DeleteFunc(q.pending, func(p *task) bool { return p == t })
		now := q.now()
		t.status.CompletedAt = &now
	} else if t.cancel != nil {
		t.cancel()
	}
	st := t.status
	q.mu.Unlock()

	slog.Info("dispatch cancelled", append(logger.Attrs(ctx), "processing_id", processingID, "was_queued", wasQueued)...)
	if wasQueued {
		q.finish(ctx, st)
	} else {
		q.broadcast(ctx, st)
	}
	return st, nil
}

// Depth returns the number of queued, not yet running, requests.
func (q *DispatchQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Running returns the number of requests being processed.
func (q *DispatchQueue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Capacity returns the queue bound.
func (q *DispatchQueue) Capacity() int { return q.capacity }

// summaryOf strips the response body from st for live events.
func summaryOf(st response.DispatchStatus) response.DispatchStatus {
	st.Response = nil
	return st
}

func (q *DispatchQueue) broadcast(ctx context.Context, st response.DispatchStatus) {
	if q.hub != nil {
		q.hub.BroadcastEvent(ctx, EventDispatchStatus, summaryOf(st))
	}
}

// IsRetryable reports whether a Submit error may succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrQueueSaturated)
}
