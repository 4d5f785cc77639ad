package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/eventpilot/cache"
	"github.com/c360studio/eventpilot/venues"
)

// futureDate returns a weekday-agnostic valid event date.
func futureDate() string {
	return time.Now().AddDate(0, 2, 0).Format("2006-01-02")
}

func testEvent() *EventData {
	e := validEvent()
	e.Date = futureDate()
	return e
}

func newTestOrchestrator(t *testing.T, extractor Extractor, drafter Drafter, resultCache *cache.Cache) *Orchestrator {
	t.Helper()

	executors := []Executor{
		NewParseStage(extractor, nil),
		NewValidateStage(DefaultLimits(), nil),
		NewPlanStage(drafter, nil),
		NewVenueSearchStage(nil, venues.NewDefaultTable(), nil, nil),
		NewErrorStage(nil),
	}
	orch, err := NewOrchestrator(executors, resultCache, DefaultLimits(), nil)
	require.NoError(t, err)
	return orch
}

const trainingRequest = "Corporate training for 50 people in Bangalore with a budget of 500000"

func TestOrchestrator_HappyPath(t *testing.T) {
	orch := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{text: "## Budget Breakdown\n\n## Itinerary\n\nplan"}, nil)

	result, err := orch.Plan(context.Background(), trainingRequest)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.NotEmpty(t, result.RequestID)
	assert.False(t, result.CacheHit)
	assert.Nil(t, result.Failure)
	require.NotNil(t, result.Plan)
	assert.NotEmpty(t, result.Venues)

	// Parse, validate, plan, venue search, no error stage.
	require.Len(t, result.Timings, 4)
	assert.Equal(t, StageParse, result.Timings[0].Stage)
	assert.Equal(t, StageVenueSearch, result.Timings[3].Stage)
}

func TestOrchestrator_InputTooShort(t *testing.T) {
	orch := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{text: "plan"}, nil)

	result, err := orch.Plan(context.Background(), "hi!!!")

	require.NoError(t, err, "rejection is an envelope, not an error")
	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailureValidation, result.Failure.Category)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "too short")
	assert.Empty(t, result.Timings, "no stage executors run for rejected input")
}

func TestOrchestrator_InputTooLong(t *testing.T) {
	orch := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{text: "plan"}, nil)

	result, err := orch.Plan(context.Background(), strings.Repeat("a", 5001))

	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "too long")
}

func TestOrchestrator_UnsafeInputRejected(t *testing.T) {
	for _, input := range []string{
		"plan an event <script>alert(1)</script> in Pune",
		"event javascript:void(0) for 100 people",
		"conference <img onerror=alert(1)> in Delhi",
	} {
		result, err := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{text: "plan"}, nil).
			Plan(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, result.Succeeded, "input %q should be rejected", input)
		require.NotEmpty(t, result.Errors)
		assert.Contains(t, result.Errors[0], "disallowed pattern")
		assert.Empty(t, result.Timings)
	}
}

func TestOrchestrator_ValidationFailureEnvelope(t *testing.T) {
	event := testEvent()
	event.BudgetMinorUnits = 100 // below the floor
	orch := newTestOrchestrator(t, &stubExtractor{data: event}, &stubDrafter{text: "plan"}, nil)

	result, err := orch.Plan(context.Background(), trainingRequest)

	require.NoError(t, err, "pipeline failures are results, not errors")
	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailureValidation, result.Failure.Category)
	assert.True(t, result.Failure.Recoverable)
	assert.Nil(t, result.Plan)
}

func TestOrchestrator_DraftingFailureStillSucceeds(t *testing.T) {
	orch := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{err: fmt.Errorf("model down")}, nil)

	result, err := orch.Plan(context.Background(), trainingRequest)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	require.NotNil(t, result.Plan)
	assert.True(t, result.Plan.Meta.Fallback)
	assert.Contains(t, result.Plan.Text, "## Budget Breakdown")
}

func TestOrchestrator_CacheHitOnRewordedInput(t *testing.T) {
	resultCache := cache.New(16, time.Minute, 0, nil)
	orch := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{text: "plan"}, resultCache)

	first, err := orch.Plan(context.Background(), trainingRequest)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	// Same request, different punctuation and casing.
	second, err := orch.Plan(context.Background(), strings.ToUpper(trainingRequest)+"!!!")
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.NotEqual(t, first.RequestID, second.RequestID, "cache hits get their own request ID")
	assert.Equal(t, first.Plan, second.Plan)
	assert.Empty(t, second.Timings, "cached results drop the original run's timings")
	assert.Zero(t, second.ElapsedMs)
}

func TestOrchestrator_FailedRunsNotCached(t *testing.T) {
	event := testEvent()
	event.BudgetMinorUnits = 100
	resultCache := cache.New(16, time.Minute, 0, nil)
	orch := newTestOrchestrator(t, &stubExtractor{data: event}, &stubDrafter{text: "plan"}, resultCache)

	_, err := orch.Plan(context.Background(), trainingRequest)
	require.NoError(t, err)

	assert.Equal(t, 0, resultCache.Len())
}

func TestOrchestrator_RefinementBypassesCache(t *testing.T) {
	resultCache := cache.New(16, time.Minute, 0, nil)
	extractor := &stubExtractor{data: testEvent()}
	orch := newTestOrchestrator(t, extractor, &stubDrafter{text: "plan"}, resultCache)

	_, err := orch.Plan(context.Background(), trainingRequest)
	require.NoError(t, err)

	refined, err := orch.Refine(context.Background(), trainingRequest, "make it outdoor")
	require.NoError(t, err)

	assert.False(t, refined.CacheHit, "refinements always re-run the pipeline")
	assert.True(t, refined.IsRefinement)
	assert.Contains(t, refined.Event.Tags, "outdoor")
	assert.Equal(t, 1, resultCache.Len(), "refined results are not cached")
}

func TestOrchestrator_RefineRequiresText(t *testing.T) {
	orch := newTestOrchestrator(t, &stubExtractor{data: testEvent()}, &stubDrafter{text: "plan"}, nil)

	_, err := orch.Refine(context.Background(), trainingRequest, "   ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "refinement text is empty")
}

// panickingStage blows up on execution.
type panickingStage struct{ stage Stage }

func (p *panickingStage) Stage() Stage { return p.stage }
func (p *panickingStage) Execute(context.Context, *State) *State {
	panic("boom")
}

func TestOrchestrator_StagePanicBecomesSystemFailure(t *testing.T) {
	executors := []Executor{
		NewParseStage(&stubExtractor{data: testEvent()}, nil),
		NewValidateStage(DefaultLimits(), nil),
		&panickingStage{stage: StagePlan},
		NewVenueSearchStage(nil, venues.NewDefaultTable(), nil, nil),
		NewErrorStage(nil),
	}
	orch, err := NewOrchestrator(executors, nil, DefaultLimits(), nil)
	require.NoError(t, err)

	result, err := orch.Plan(context.Background(), trainingRequest)

	require.NoError(t, err, "a panicking stage must not crash the service")
	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailureSystem, result.Failure.Category)
	assert.False(t, result.Failure.Recoverable)
}

func TestNewOrchestrator_RejectsIncompleteWiring(t *testing.T) {
	_, err := NewOrchestrator([]Executor{NewErrorStage(nil)}, nil, DefaultLimits(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no executor registered")
}

func TestNewOrchestrator_RejectsDuplicateStage(t *testing.T) {
	executors := []Executor{
		NewErrorStage(nil),
		NewErrorStage(nil),
	}
	_, err := NewOrchestrator(executors, nil, DefaultLimits(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate executor")
}
