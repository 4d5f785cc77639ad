package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow pins validation date checks to a known day.
var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestValidateStage() *ValidateStage {
	stage := NewValidateStage(DefaultLimits(), nil)
	stage.now = func() time.Time { return fixedNow }
	return stage
}

func validatedInput(event *EventData) *State {
	st := NewState("corporate training for 50 people in Bangalore", "")
	st.Event = event
	st.Next = StageValidate
	return st
}

func TestValidateStage_ValidEventAdvances(t *testing.T) {
	event := validEvent()
	event.Date = "2026-09-15"

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	assert.Equal(t, StagePlan, st.Next)
	assert.Empty(t, st.Errors)
}

func TestValidateStage_NoEventData(t *testing.T) {
	st := NewState("corporate training for 50 people", "")
	st.Next = StageValidate

	out := newTestValidateStage().Execute(context.Background(), st)

	assert.Equal(t, StageError, out.Next)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "no structured event data")
}

func TestValidateStage_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EventData)
		errPart string
	}{
		{"zero attendees", func(e *EventData) { e.AttendeeCount = 0 }, "attendee count"},
		{"too many attendees", func(e *EventData) { e.AttendeeCount = 10001 }, "attendee count"},
		{"short location", func(e *EventData) { e.Location = "X" }, "location"},
		{"missing date", func(e *EventData) { e.Date = "" }, "date is missing"},
		{"garbage date", func(e *EventData) { e.Date = "next tuesday" }, "not a valid ISO"},
		{"past date", func(e *EventData) { e.Date = "2025-01-01" }, "in the past"},
		{"far future date", func(e *EventData) { e.Date = "2029-01-01" }, "years ahead"},
		{"budget below floor", func(e *EventData) { e.BudgetMinorUnits = 500 }, "budget"},
		{"zero duration", func(e *EventData) { e.DurationHours = 0 }, "duration"},
		{"marathon duration", func(e *EventData) { e.DurationHours = 13 }, "duration"},
		{"bad event type", func(e *EventData) { e.EventType = "party" }, "unknown event type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			event.Date = "2026-09-15"
			tt.mutate(event)

			st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

			assert.Equal(t, StageError, st.Next)
			require.NotEmpty(t, st.Errors)
			assert.Contains(t, strings.Join(st.Errors, "\n"), tt.errPart)
		})
	}
}

func TestValidateStage_MultipleSchemaErrorsAllReported(t *testing.T) {
	event := validEvent()
	event.Date = "2026-09-15"
	event.AttendeeCount = 0
	event.BudgetMinorUnits = 0
	event.DurationHours = 0

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	assert.Equal(t, StageError, st.Next)
	assert.Len(t, st.Errors, 3)
}

func TestValidateStage_BusinessRulesWarnButAdvance(t *testing.T) {
	event := validEvent()
	event.Date = "2026-09-15" // a Tuesday
	event.EventType = EventTeamBuilding
	event.AttendeeCount = 100
	event.BudgetMinorUnits = 50000 // 500 per head, below the team-building floor
	event.DurationHours = 1        // below the typical window

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	assert.Equal(t, StagePlan, st.Next, "business rules never block")
	assert.Empty(t, st.Errors)
	joined := strings.Join(st.Warnings, "\n")
	assert.Contains(t, joined, "per attendee is low")
	assert.Contains(t, joined, "hours is unusual")
	assert.Contains(t, joined, "weekends work better")
}

func TestValidateStage_WeekendWarningForWeekdayTypes(t *testing.T) {
	event := validEvent()
	event.EventType = EventConference
	event.Date = "2026-09-19" // a Saturday

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	assert.Equal(t, StagePlan, st.Next)
	assert.Contains(t, strings.Join(st.Warnings, "\n"), "weekdays work better")
}

func TestValidateStage_LargeEventSmallCityWarning(t *testing.T) {
	event := validEvent()
	event.Date = "2026-09-15"
	event.Location = "Mysore"
	event.AttendeeCount = 800
	event.BudgetMinorUnits = 5000000

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	assert.Equal(t, StagePlan, st.Next)
	assert.Contains(t, strings.Join(st.Warnings, "\n"), "limited venues")
}

func TestValidateStage_Sanitization(t *testing.T) {
	event := validEvent()
	event.Date = "2026-09-15"
	event.Location = "  new   york  "
	event.Tags = []string{" Catering ", "catering", "AV Equipment", "", "parking"}

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	require.Equal(t, StagePlan, st.Next)
	assert.Equal(t, "New York", st.Event.Location)
	assert.Equal(t, []string{"catering", "av equipment", "parking"}, st.Event.Tags)
}

func TestValidateStage_TagsCapped(t *testing.T) {
	event := validEvent()
	event.Date = "2026-09-15"
	event.Tags = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}

	st := newTestValidateStage().Execute(context.Background(), validatedInput(event))

	assert.Len(t, st.Event.Tags, maxTags)
}
