package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	potel "github.com/Strob0t/Principal/internal/adapter/otel"
	"github.com/Strob0t/Principal/internal/assess"
	"github.com/Strob0t/Principal/internal/config"
	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/logger"
	"github.com/Strob0t/Principal/internal/port/broadcast"
	"github.com/Strob0t/Principal/internal/port/recorder"
	"github.com/Strob0t/Principal/internal/port/specialist"
	"github.com/Strob0t/Principal/internal/resilience"
	"github.com/Strob0t/Principal/internal/workpool"
)

// Event types broadcast after a request is processed.
const (
	EventResponsePublished = "response.published"
	EventResponseRejected  = "response.rejected"
	EventSpecialistAdded   = "specialist.added"
	EventSpecialistRemoved = "specialist.removed"
)

const (
	recordTimeout = 10 * time.Second
	initTimeout   = 30 * time.Second
	recentLimit   = 5
)

var errEmptyResult = errors.New("specialist returned an empty result")

// panicError carries a recovered specialist panic.
type panicError struct{ value any }

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// outcome is one specialist call's result or failure.
type outcome struct {
	res  *analysis.Result
	fail *analysis.Failure
}

// PrincipalService routes requests to specialists, gates each result on its
// quality report, synthesizes the approved results and decides publication.
type PrincipalService struct {
	registry *specialist.Registry
	cfg      config.Orchestrator
	settings assess.Settings
	policy   quality.Policy
	synth    Synthesizer
	breakers *resilience.Set
	pool     *workpool.Pool

	recorder   recorder.Recorder
	recBreaker *resilience.Breaker
	hub        broadcast.Broadcaster
	metrics    *potel.Metrics

	initialized atomic.Bool
	recordings  sync.WaitGroup

	mu        sync.Mutex // guards history and counters
	history   []response.Summary
	processed int64
	published int64
	partial   int64
	rejected  int64

	now func() time.Time // for testing
}

// NewPrincipalService creates the orchestrator. pool may be shared with other
// callers; a nil pool leaves specialist calls unbounded process-wide.
func NewPrincipalService(
	registry *specialist.Registry,
	orchCfg config.Orchestrator,
	qualityCfg config.Quality,
	breakerCfg config.Breaker,
	pool *workpool.Pool,
) *PrincipalService {
	return &PrincipalService{
		registry:   registry,
		cfg:        orchCfg,
		settings:   assess.SettingsFromConfig(qualityCfg),
		policy:     quality.Policy{MaxIssues: qualityCfg.MaxIssues, MetricFloor: qualityCfg.MetricFloor},
		breakers:   resilience.NewSet(breakerCfg.MaxFailures, breakerCfg.Timeout, callerGaveUp),
		pool:       pool,
		recBreaker: resilience.NewBreaker(breakerCfg.MaxFailures, breakerCfg.Timeout),
		now:        time.Now,
	}
}

// callerGaveUp reports errors caused by the caller abandoning the request.
// They say nothing about the specialist's health.
func callerGaveUp(err error) bool {
	return errors.Is(err, context.Canceled)
}

// SetRecorder sets the output collaborator that receives every response.
func (s *PrincipalService) SetRecorder(r recorder.Recorder) { s.recorder = r }

// SetBroadcaster sets the live event hub.
func (s *PrincipalService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetMetrics sets the metric instruments.
func (s *PrincipalService) SetMetrics(m *potel.Metrics) { s.metrics = m }

// Registry returns the live specialist registry.
func (s *PrincipalService) Registry() *specialist.Registry { return s.registry }

// Initialize runs Init on every specialist that needs it and marks the
// service ready. A failing specialist leaves the service uninitialized.
func (s *PrincipalService) Initialize(ctx context.Context) error {
	var errs []error
	for _, sp := range s.registry.Pending() {
		if err := s.initSpecialist(ctx, sp); err != nil {
			errs = append(errs, err)
			continue
		}
		s.registry.MarkInitialized(sp.Name())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("initialize specialists: %w", err)
	}
	s.initialized.Store(true)
	slog.Info("principal initialized", "name", s.cfg.Name, "specialists", len(s.registry.Members()))
	return nil
}

func (s *PrincipalService) initSpecialist(ctx context.Context, sp specialist.Specialist) error {
	in, ok := sp.(specialist.Initializer)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := in.Init(ctx); err != nil {
		return fmt.Errorf("init %s: %w", sp.Name(), err)
	}
	return nil
}

// Routable reports ErrUnknownDomain when no registered specialist can
// handle requests of type t.
func (s *PrincipalService) Routable(t request.Type) error {
	_, err := s.registry.Select(t)
	return err
}

// Initialized reports whether Initialize has completed.
func (s *PrincipalService) Initialized() bool { return s.initialized.Load() }

// AddSpecialist creates the named specialist from the catalog, initializes
// it and adds it to the registry.
func (s *PrincipalService) AddSpecialist(ctx context.Context, name string, opts map[string]string) (specialist.Member, error) {
	sp, err := specialist.New(name, opts)
	if err != nil {
		return specialist.Member{}, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	if err := s.initSpecialist(ctx, sp); err != nil {
		return specialist.Member{}, err
	}
	if err := s.registry.Add(sp); err != nil {
		return specialist.Member{}, err
	}
	s.registry.MarkInitialized(sp.Name())

	m := specialist.Member{Name: sp.Name(), RequestType: sp.RequestType(), Initialized: true}
	slog.Info("specialist added", "specialist", m.Name, "request_type", m.RequestType)
	s.broadcast(ctx, EventSpecialistAdded, m)
	return m, nil
}

// RemoveSpecialist removes the named specialist. Requests already past
// routing keep their reference and finish normally.
func (s *PrincipalService) RemoveSpecialist(ctx context.Context, name string) error {
	if err := s.registry.Remove(name); err != nil {
		return err
	}
	s.breakers.Forget(name)
	slog.Info("specialist removed", "specialist", name)
	s.broadcast(ctx, EventSpecialistRemoved, map[string]string{"name": name})
	return nil
}

// Process runs req through routing, analysis, scoring, synthesis and the
// publication decision. Specialist failures are recorded on the response;
// only validation, routing, initialization and cancellation fail the call.
func (s *PrincipalService) Process(ctx context.Context, req *request.Request) (*response.Response, error) {
	if !s.initialized.Load() {
		return nil, domain.ErrNotInitialized
	}
	accepted, err := req.Accept(s.now())
	if err != nil {
		return nil, err
	}

	ctx, span := potel.StartProcessSpan(ctx, accepted.ID, string(accepted.Type))
	defer span.End()

	selected, err := s.registry.Select(accepted.Type)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	names := make([]string, len(selected))
	for i, sp := range selected {
		names[i] = sp.Name()
	}
	slog.Info("dispatching request", append(logger.Attrs(ctx),
		"req_id", accepted.ID, "request_type", accepted.Type, "specialists", names)...)

	outcomes := s.dispatch(ctx, accepted, selected)
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}

	resp := s.assemble(ctx, accepted, selected, outcomes)
	span.SetAttributes(
		attribute.String("publication.status", string(resp.PublicationStatus)),
		attribute.Int("specialists.failed", len(resp.FailedExperts)),
	)
	s.finish(ctx, resp)
	return resp, nil
}

// dispatch calls every selected specialist concurrently, at most
// MaxParallel at a time, and waits for all of them.
func (s *PrincipalService) dispatch(ctx context.Context, req *request.Request, selected []specialist.Specialist) []outcome {
	outcomes := make([]outcome, len(selected))
	var g errgroup.Group
	if s.cfg.MaxParallel > 0 {
		g.SetLimit(s.cfg.MaxParallel)
	}
	for i, sp := range selected {
		g.Go(func() error {
			outcomes[i] = s.call(ctx, req, sp)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// call runs one specialist under its timeout, the shared work pool and its
// circuit breaker, and classifies any failure.
func (s *PrincipalService) call(ctx context.Context, req *request.Request, sp specialist.Specialist) outcome {
	name := sp.Name()
	ctx, span := potel.StartSpecialistSpan(ctx, name)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SpecialistTimeout)
	defer cancel()

	var res *analysis.Result
	err := s.breakers.Get(name).Execute(func() error {
		return s.pool.Run(callCtx, func() error {
			r, err := invoke(callCtx, sp, req)
			if err != nil {
				return err
			}
			if r.Empty() {
				return errEmptyResult
			}
			res = r
			return nil
		})
	})
	if err == nil {
		if res.Domain != name {
			own := *res
			own.Domain = name
			res = &own
		}
		return outcome{res: res}
	}

	fail := &analysis.Failure{Domain: name, Reason: classify(ctx, err), Err: err}
	span.SetStatus(codes.Error, fail.Reason)
	slog.Warn("specialist failed", append(logger.Attrs(ctx),
		"req_id", req.ID, "specialist", name, "reason", fail.Reason, "error", err)...)
	if s.metrics != nil {
		s.metrics.SpecialistFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("specialist", name),
			attribute.String("reason", fail.Reason),
		))
	}
	return outcome{fail: fail}
}

// invoke calls Analyze on its own goroutine so a specialist that ignores
// ctx cannot hold the request past its timeout. A late result is dropped.
func invoke(ctx context.Context, sp specialist.Specialist, req *request.Request) (*analysis.Result, error) {
	type result struct {
		res *analysis.Result
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: &panicError{value: p}}
			}
		}()
		r, err := sp.Analyze(ctx, req)
		ch <- result{res: r, err: err}
	}()

	select {
	case out := <-ch:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classify maps a call error to a failure reason. parent is the request
// context, used to tell a caller cancel apart from the per-call timeout.
func classify(parent context.Context, err error) string {
	var pe *panicError
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return analysis.ReasonCircuitOpen
	case errors.As(err, &pe):
		return analysis.ReasonPanic
	case errors.Is(err, errEmptyResult):
		return analysis.ReasonEmpty
	case parent.Err() != nil || errors.Is(err, context.Canceled):
		return analysis.ReasonCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return analysis.ReasonTimeout
	default:
		return analysis.ReasonError
	}
}

// assemble scores each result, synthesizes the approved ones and builds the
// response with its verdict.
func (s *PrincipalService) assemble(ctx context.Context, req *request.Request, selected []specialist.Specialist, outcomes []outcome) *response.Response {
	resp := &response.Response{
		RequestID:          req.ID,
		RequestType:        req.Type,
		UserID:             req.UserID,
		PrincipalAgent:     s.cfg.Name,
		Dispatched:         make([]string, len(selected)),
		ExpertResults:      make(map[string]*analysis.Result),
		QualityAssessments: make(map[string]*quality.Report),
		FailedExperts:      make(map[string]string),
	}

	approved := make(map[string]*analysis.Result)
	var failed []string
	for i, sp := range selected {
		name := sp.Name()
		resp.Dispatched[i] = name
		o := outcomes[i]
		if o.fail != nil {
			resp.FailedExperts[name] = o.fail.Reason
			failed = append(failed, name)
			continue
		}

		rep := s.settings.Assessor(sp.Rubric()).Assess(name, req.ID, o.res.Content(req))
		if s.policy.Apply(rep) {
			slog.Info("specialist result downgraded", "req_id", req.ID, "specialist", name, "reason", rep.Downgrades)
		}
		resp.ExpertResults[name] = o.res
		resp.QualityAssessments[name] = rep
		s.recordScore(ctx, name, rep)
		if rep.ApprovedForPublication {
			approved[name] = o.res
		}
	}

	if len(approved) > 0 {
		sctx, span := potel.StartSynthesisSpan(ctx, len(approved))
		syn, err := s.synth.Synthesize(req, approved, resp.QualityAssessments, failed)
		if err == nil {
			final := s.settings.Assessor(assess.SynthesisRubric()).Assess(s.cfg.Name, req.ID, syn.Content(req))
			s.policy.Apply(final)
			s.recordScore(sctx, assess.SynthesisRubricName, final)
			resp.Synthesis = syn
			resp.FinalQualityReport = final
			resp.ApprovedForPublication = final.ApprovedForPublication
		}
		span.End()
	}

	resp.PublicationStatus = response.Verdict(resp.ApprovedForPublication, len(approved), len(selected))
	resp.CreatedAt = s.now()
	resp.ProcessingTime = resp.CreatedAt.Sub(req.AcceptedAt)
	return resp
}

func (s *PrincipalService) recordScore(ctx context.Context, subject string, rep *quality.Report) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("subject", subject))
	s.metrics.QualityScore.Record(ctx, rep.OverallScore, attrs)
	if rep.ApprovedForPublication && subject != assess.SynthesisRubricName {
		s.metrics.Approvals.Add(ctx, 1, attrs)
	}
}

// finish updates history and counters, emits metrics and the live event,
// and hands resp to the recorder.
func (s *PrincipalService) finish(ctx context.Context, resp *response.Response) {
	sum := resp.Summarize()

	s.mu.Lock()
	s.history = append(s.history, sum)
	if limit := s.cfg.HistorySize; limit > 0 && len(s.history) > limit {
		s.history = slices.Delete(s.history, 0, len(s.history)-limit)
	}
	s.processed++
	switch resp.PublicationStatus {
	case response.StatusPublished:
		s.published++
	case response.StatusPartial:
		s.partial++
	default:
		s.rejected++
	}
	s.mu.Unlock()

	if s.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("request_type", string(resp.RequestType)),
			attribute.String("status", string(resp.PublicationStatus)),
		)
		s.metrics.RequestsProcessed.Add(ctx, 1, attrs)
		s.metrics.ProcessDuration.Record(ctx, resp.ProcessingTime.Seconds(), attrs)
		if resp.ApprovedForPublication {
			s.metrics.RequestsPublished.Add(ctx, 1, attrs)
		} else {
			s.metrics.RequestsRejected.Add(ctx, 1, attrs)
		}
	}

	slog.Info("request processed", append(logger.Attrs(ctx),
		"req_id", resp.RequestID,
		"status", resp.PublicationStatus,
		"final_score", sum.FinalScore,
		"failed", len(resp.FailedExperts),
		"duration_ms", resp.ProcessingTime.Milliseconds(),
	)...)

	event := EventResponseRejected
	if resp.ApprovedForPublication {
		event = EventResponsePublished
	}
	s.broadcast(ctx, event, sum)
	s.record(ctx, resp)
}

// record hands resp to the recorder without waiting for it.
func (s *PrincipalService) record(ctx context.Context, resp *response.Response) {
	if s.recorder == nil {
		return
	}
	attrs := logger.Attrs(ctx)
	rctx := context.WithoutCancel(ctx)

	s.recordings.Add(1)
	go func() {
		defer s.recordings.Done()
		rctx, cancel := context.WithTimeout(rctx, recordTimeout)
		defer cancel()
		err := s.recBreaker.Execute(func() error {
			return s.recorder.Record(rctx, resp)
		})
		if err != nil {
			slog.Error("record response failed", append(attrs, "req_id", resp.RequestID, "error", err)...)
		}
	}()
}

func (s *PrincipalService) broadcast(ctx context.Context, event string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, event, payload)
	}
}

// Drain waits for outstanding recordings to finish or ctx to end.
func (s *PrincipalService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.recordings.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueStats is the dispatch queue view included in status reports.
type QueueStats interface {
	Depth() int
	Running() int
	Capacity() int
}

// SpecialistStatus is one registry member with its circuit state.
type SpecialistStatus struct {
	specialist.Member
	Threshold float64          `json:"threshold"`
	Circuit   resilience.State `json:"circuit"`
}

// QueueStatus is the dispatch queue load.
type QueueStatus struct {
	Depth    int `json:"depth"`
	Running  int `json:"running"`
	Capacity int `json:"capacity"`
}

// Status is the orchestrator's health and activity snapshot.
type Status struct {
	Name         string             `json:"name"`
	Initialized  bool               `json:"initialized"`
	Specialists  []SpecialistStatus `json:"specialists"`
	Available    []string           `json:"available"`
	Queue        *QueueStatus       `json:"queue,omitempty"`
	Processed    int64              `json:"processed"`
	Published    int64              `json:"published"`
	Partial      int64              `json:"partial"`
	Rejected     int64              `json:"rejected"`
	HistoryCount int                `json:"workflow_history_count"`
	Recent       []response.Summary `json:"recent_workflows"`
}

// Status returns a snapshot. q may be nil.
func (s *PrincipalService) Status(q QueueStats) Status {
	circuits := s.breakers.States()
	members := s.registry.Members()
	st := Status{
		Name:        s.cfg.Name,
		Initialized: s.initialized.Load(),
		Specialists: make([]SpecialistStatus, 0, len(members)),
		Available:   specialist.Available(),
	}
	for _, m := range members {
		ss := SpecialistStatus{Member: m, Circuit: resilience.StateClosed}
		if c, ok := circuits[m.Name]; ok {
			ss.Circuit = c
		}
		if sp, ok := s.registry.Get(m.Name); ok {
			ss.Threshold = s.settings.Apply(sp.Rubric()).Threshold
		}
		st.Specialists = append(st.Specialists, ss)
	}
	if q != nil {
		st.Queue = &QueueStatus{Depth: q.Depth(), Running: q.Running(), Capacity: q.Capacity()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Processed, st.Published, st.Partial, st.Rejected = s.processed, s.published, s.partial, s.rejected
	st.HistoryCount = len(s.history)
	n := min(recentLimit, len(s.history))
	st.Recent = slices.Clone(s.history[len(s.history)-n:])
	return st
}
