package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/c360studio/eventpilot/cache"
)

// maxSteps bounds the drive loop. The longest legal path is five stages;
// anything beyond that is a routing fault.
const maxSteps = 8

// unsafePatterns reject request text that smells like injection rather
// than an event description.
var unsafePatterns = []string{"<script", "javascript:", "onerror="}

// Orchestrator drives requests through the stage sequence and caches
// completed results.
type Orchestrator struct {
	executors map[Stage]Executor
	cache     *cache.Cache
	limits    Limits
	logger    *slog.Logger
	newID     func() string
}

// NewOrchestrator wires the executors. The cache may be nil to disable
// result caching.
func NewOrchestrator(executors []Executor, resultCache *cache.Cache, limits Limits, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byStage := make(map[Stage]Executor, len(executors))
	for _, ex := range executors {
		if _, dup := byStage[ex.Stage()]; dup {
			return nil, fmt.Errorf("duplicate executor for stage %s", ex.Stage())
		}
		byStage[ex.Stage()] = ex
	}
	for _, required := range []Stage{StageParse, StageValidate, StagePlan, StageVenueSearch, StageError} {
		if _, ok := byStage[required]; !ok {
			return nil, fmt.Errorf("no executor registered for stage %s", required)
		}
	}

	return &Orchestrator{
		executors: byStage,
		cache:     resultCache,
		limits:    limits,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}, nil
}

// Plan runs a fresh request. Identical (normalization-equivalent) request
// text within the cache TTL returns the cached result.
func (o *Orchestrator) Plan(ctx context.Context, rawText string) (*Result, error) {
	return o.run(ctx, rawText, "")
}

// Refine re-runs a request with additional requirements. Refinements never
// read the cache: the point is a different answer for the same base text.
func (o *Orchestrator) Refine(ctx context.Context, rawText, refinementText string) (*Result, error) {
	refinementText = strings.TrimSpace(refinementText)
	if refinementText == "" {
		return nil, fmt.Errorf("refinement text is empty")
	}
	return o.run(ctx, rawText, refinementText)
}

func (o *Orchestrator) run(ctx context.Context, rawText, refinementText string) (*Result, error) {
	requestID := o.newID()

	if err := o.checkInput(rawText); err != nil {
		// Rejected input never enters the pipeline; the caller still
		// gets a failure envelope, not a transport error.
		st := NewState(rawText, refinementText)
		st.AddError("validation failed: " + err.Error())
		st.Failure = Summarize(st.Errors)
		st.Succeeded = false
		return BuildResult(requestID, st, nil, time.Now()), nil
	}

	logger := o.logger.With("request_id", requestID)
	isRefinement := refinementText != ""

	var key string
	if o.cache != nil && !isRefinement {
		key = cache.Key(rawText)
		if cached, ok := o.cache.Get(key); ok {
			if result, ok := cached.(*Result); ok {
				logger.Info("cache hit")
				return cachedCopy(result, requestID), nil
			}
		}
	}

	st := NewState(rawText, refinementText)
	st, timings := o.drive(ctx, logger, st)

	result := BuildResult(requestID, st, timings, time.Now())

	if o.cache != nil && !isRefinement && st.Succeeded {
		o.cache.Set(key, stripRunFields(result))
	}

	logger.Info("run complete",
		"succeeded", result.Succeeded,
		"stages", len(timings),
		"warnings", len(result.Warnings))
	return result, nil
}

// drive walks the stage sequence until Done, validating every transition
// the executors choose.
func (o *Orchestrator) drive(ctx context.Context, logger *slog.Logger, st *State) (*State, []StageTiming) {
	var timings []StageTiming
	current := StageParse

	for step := 0; step < maxSteps; step++ {
		if current == StageDone {
			return st, timings
		}

		executor, ok := o.executors[current]
		if !ok {
			st = st.Clone()
			st.AddError(fmt.Sprintf("internal error: no executor for stage %s", current))
			st.Next = StageError
			current = StageError
			continue
		}

		started := time.Now()
		st = o.executeSafe(ctx, logger, executor, st)
		timings = append(timings, StageTiming{Stage: current, Duration: time.Since(started)})

		st = Route(current, st)
		logger.Debug("stage complete", "stage", current, "next", st.Next)
		current = st.Next
	}

	// Exceeding maxSteps means the transition table has been violated in a
	// way routing could not repair.
	st = st.Clone()
	st.AddError("internal error: pipeline exceeded the maximum step count")
	st.Failure = Summarize(st.Errors)
	st.Succeeded = false
	return st, timings
}

// executeSafe shields the loop from a panicking executor. A panic becomes
// a system error routed to the Error stage, or a terminal failure if the
// Error stage itself panicked.
func (o *Orchestrator) executeSafe(ctx context.Context, logger *slog.Logger, ex Executor, st *State) (out *State) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Error("stage panicked", "stage", ex.Stage(), "panic", r)
		recovered := st.Clone()
		recovered.AddError(fmt.Sprintf("internal error: stage %s panicked: %v", ex.Stage(), r))
		if ex.Stage() == StageError {
			recovered.Failure = Summarize(recovered.Errors)
			recovered.Succeeded = false
			recovered.Next = StageDone
		} else {
			recovered.Next = StageError
		}
		out = recovered
	}()

	return ex.Execute(ctx, st)
}

// checkInput enforces request text bounds before any stage runs.
func (o *Orchestrator) checkInput(rawText string) error {
	trimmed := strings.TrimSpace(rawText)
	length := utf8.RuneCountInString(trimmed)
	if length < o.limits.MinInputLength {
		return fmt.Errorf("request text too short: %d runes, minimum %d", length, o.limits.MinInputLength)
	}
	if length > o.limits.MaxInputLength {
		return fmt.Errorf("request text too long: %d runes, maximum %d", length, o.limits.MaxInputLength)
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range unsafePatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("request text contains a disallowed pattern")
		}
	}
	return nil
}

// stripRunFields copies a result without its run-scoped identity and
// timing fields, which a later cache hit stamps fresh.
func stripRunFields(result *Result) *Result {
	cp := *result
	cp.RequestID = ""
	cp.Timings = nil
	cp.ElapsedMs = 0
	return &cp
}

// cachedCopy returns a shallow copy of a cached result stamped with the
// new request's identity. The cached original stays untouched.
func cachedCopy(result *Result, requestID string) *Result {
	cp := *result
	cp.RequestID = requestID
	cp.CacheHit = true
	cp.CompletedAt = time.Now().UTC()
	return &cp
}
