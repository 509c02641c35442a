package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrzones/internal/analysis"
	"hrzones/internal/observability"
	"hrzones/internal/source"
)

// State is the lifecycle state of the current aggregation request
type State int

const (
	StateIdle State = iota
	StatePending
	StateFulfilled
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateFulfilled:
		return "fulfilled"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a copy of the orchestrator state at one point in time
type Snapshot struct {
	State     State
	Loading   bool
	Error     string // user-facing, set only when Rejected
	Report    *ZoneReport
	Period    analysis.TimePeriod
	RequestID string
	Seq       uint64
	UpdatedAt time.Time
}

// Ticket identifies one issued request. Only the most recently issued
// ticket may change the orchestrator's result.
type Ticket struct {
	Seq       uint64
	RequestID string
	Period    analysis.TimePeriod

	ctx context.Context // canceled when a newer ticket is issued
}

// Orchestrator owns the request lifecycle of zone aggregation for one
// session: Idle, then Pending, then Fulfilled or Rejected, and back to
// Pending on the next request. Responses are applied in issuance order.
type Orchestrator struct {
	pipeline *Pipeline
	logger   *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  Snapshot
}

// NewOrchestrator creates an orchestrator in the Idle state
func NewOrchestrator(pipeline *Pipeline, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		pipeline: pipeline,
		logger:   logger,
		state:    Snapshot{State: StateIdle},
	}
}

// Snapshot returns the current state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin issues a new request for period and enters Pending. Any request
// still in flight is canceled and its result will be discarded.
func (o *Orchestrator) Begin(period analysis.TimePeriod) Ticket {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.seq++
	t := Ticket{
		Seq:       o.seq,
		RequestID: uuid.NewString(),
		Period:    period,
		ctx:       ctx,
	}

	// The previous report stays visible while loading
	o.state.State = StatePending
	o.state.Loading = true
	o.state.Error = ""
	o.state.Period = period
	o.state.RequestID = t.RequestID
	o.state.Seq = t.Seq
	o.state.UpdatedAt = time.Now()

	o.logger.Debug("aggregation requested", "request_id", t.RequestID, "seq", t.Seq, "period", period.Label)
	return t
}

// Run executes the request identified by t and returns the resulting state.
// If a newer ticket was issued meanwhile, the result is dropped and the
// returned snapshot reflects the newer request.
func (o *Orchestrator) Run(ctx context.Context, t Ticket) Snapshot {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if t.ctx != nil {
		stop := context.AfterFunc(t.ctx, cancel)
		defer stop()
	}

	report, err := o.pipeline.Run(runCtx, t.Period)

	o.mu.Lock()
	defer o.mu.Unlock()

	if t.Seq != o.seq {
		observability.RecordAggregation(observability.OutcomeSuperseded)
		o.logger.Debug("discarding superseded aggregation",
			"request_id", t.RequestID, "seq", t.Seq, "latest_seq", o.seq)
		return o.state
	}

	o.state.Loading = false
	o.state.UpdatedAt = time.Now()
	if err != nil {
		o.state.State = StateRejected
		o.state.Error = UserMessage(err)
		o.state.Report = nil
		observability.RecordAggregation(observability.OutcomeRejected)
		o.logger.Warn("aggregation failed",
			"request_id", t.RequestID, "period", t.Period.Label, "err", err)
		return o.state
	}

	o.state.State = StateFulfilled
	o.state.Error = ""
	o.state.Report = report
	observability.RecordAggregation(observability.OutcomeFulfilled)
	o.logger.Info("aggregation complete",
		"request_id", t.RequestID,
		"period", t.Period.Label,
		"activities", report.ActivityCount,
		"classified", report.ClassifiedSeconds,
		"unclassified", report.UnclassifiedSamples)
	return o.state
}

// Request issues and runs a request synchronously
func (o *Orchestrator) Request(ctx context.Context, period analysis.TimePeriod) Snapshot {
	return o.Run(ctx, o.Begin(period))
}

// Pipeline returns the pipeline the orchestrator runs
func (o *Orchestrator) Pipeline() *Pipeline {
	return o.pipeline
}

// UserMessage translates a pipeline failure into text for the user
func UserMessage(err error) string {
	var methodErr *analysis.MethodError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetchTimeout):
		return MsgFetchTimeout
	case errors.Is(err, analysis.ErrUnsupportedZoneMethod):
		if errors.As(err, &methodErr) {
			return fmt.Sprintf(MsgUnsupportedMethod, methodErr.Method)
		}
		return fmt.Sprintf(MsgUnsupportedMethod, "unknown")
	case errors.Is(err, source.ErrMalformedActivity):
		return MsgMalformedData
	case errors.Is(err, source.ErrFetchFailed):
		return MsgFetchFailed
	default:
		return MsgCalculationFailed
	}
}
