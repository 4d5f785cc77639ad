package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/eventpilot/venues"
)

func successfulState() *State {
	st := NewState("corporate training for 50 people in Bangalore", "")
	st.Event = validEvent()
	st.Plan = &DraftPlan{
		Text: "# Plan\n\n## Budget Breakdown\n\n" + strings.Repeat("detail ", 200) + "\n\n## Itinerary\n\nschedule",
		Meta: PlanMeta{GeneratedAt: time.Now().UTC()},
	}
	st.Venues = []venues.Venue{{Name: "Hall A", Score: 0.9}, {Name: "Hall B", Score: 0.7}}
	st.VenueMeta = &VenueMeta{Query: "training venues"}
	st.Succeeded = true
	st.Next = StageDone
	return st
}

func TestBuildResult_SuccessEnvelope(t *testing.T) {
	st := successfulState()
	timings := []StageTiming{{Stage: StageParse, Duration: 10 * time.Millisecond}}

	result := BuildResult("req-1", st, timings, time.Now())

	assert.Equal(t, "req-1", result.RequestID)
	assert.True(t, result.Succeeded)
	assert.False(t, result.CacheHit)
	assert.Nil(t, result.Failure)
	assert.Equal(t, st.Venues, result.Venues)
	assert.Equal(t, timings, result.Timings)
	assert.Equal(t, int64(10), result.ElapsedMs)
	assert.Empty(t, result.RefinementText)
}

func TestBuildResult_RefinementProvenance(t *testing.T) {
	st := successfulState()
	st.Input.RefinementText = "make it outdoor"
	st.Plan.Meta.IsRefinement = true

	result := BuildResult("req-4", st, nil, time.Now())

	assert.True(t, result.IsRefinement)
	assert.Equal(t, "make it outdoor", result.RefinementText)
}

func TestBuildResult_FailureEnvelope(t *testing.T) {
	st := NewState("corporate training for 50 people", "")
	st.AddError("validation failed: budget too low")
	st.Failure = Summarize(st.Errors)
	st.Next = StageDone

	result := BuildResult("req-2", st, nil, time.Now())

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Failure)
	assert.Equal(t, FailureValidation, result.Failure.Category)
	assert.Equal(t, []string{"validation failed: budget too low"}, result.Errors)
	assert.Zero(t, result.Quality.ExecutionEfficiency)
}

func TestScoreCompleteness(t *testing.T) {
	assert.Equal(t, 0, scoreCompleteness(nil))
	assert.Equal(t, 25, scoreCompleteness(validEvent()))

	partial := validEvent()
	partial.Date = ""
	partial.BudgetMinorUnits = 0
	assert.Equal(t, 15, scoreCompleteness(partial))
}

func TestScoreRichness(t *testing.T) {
	assert.Equal(t, 0, scoreRichness(nil))
	assert.Equal(t, 0, scoreRichness(&DraftPlan{}))

	// Short plan with both headers: 5 + 5 + 5
	short := &DraftPlan{Text: "## Budget Breakdown\n## Itinerary\n" + strings.Repeat("x", 200)}
	assert.Equal(t, 15, scoreRichness(short))

	// Long plan with both headers: 15 + 5 + 5, capped at 25
	long := &DraftPlan{Text: "## Budget Breakdown\n## Itinerary\n" + strings.Repeat("x", 1300)}
	assert.Equal(t, 25, scoreRichness(long))

	// Long plan with no headers
	bare := &DraftPlan{Text: strings.Repeat("x", 1300)}
	assert.Equal(t, 15, scoreRichness(bare))
}

func TestScoreVenues(t *testing.T) {
	assert.Equal(t, 0, scoreVenues(nil))

	perfect := []venues.Venue{{Score: 1.0}, {Score: 1.0}}
	assert.Equal(t, 25, scoreVenues(perfect))

	mixed := []venues.Venue{{Score: 0.9}, {Score: 0.7}}
	assert.Equal(t, 20, scoreVenues(mixed)) // avg 0.8 * 25

	generic := []venues.Venue{{Score: 0.4}, {Score: 0.35}}
	assert.Equal(t, 9, scoreVenues(generic))
}

func TestScoreEfficiency(t *testing.T) {
	st := successfulState()
	assert.Equal(t, 25, scoreEfficiency(st), "clean run earns full marks")

	st.Plan.Meta.Fallback = true
	assert.Equal(t, 20, scoreEfficiency(st), "any fallback forfeits the clean-run bonus")

	st.VenueMeta.Fallback = true
	assert.Equal(t, 20, scoreEfficiency(st))

	st.Succeeded = false
	assert.Equal(t, 0, scoreEfficiency(st))
}

func TestBuildResult_QualityOnFullRun(t *testing.T) {
	result := BuildResult("req-3", successfulState(), nil, time.Now())

	assert.Equal(t, 25, result.Quality.DataCompleteness)
	assert.Equal(t, 25, result.Quality.PlanRichness)
	assert.Equal(t, 20, result.Quality.VenueRelevance)
	assert.Equal(t, 25, result.Quality.ExecutionEfficiency)
}
