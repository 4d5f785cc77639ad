package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalTransition(t *testing.T) {
	tests := []struct {
		executed Stage
		chosen   Stage
		want     bool
	}{
		// Forward edges
		{StageParse, StageValidate, true},
		{StageValidate, StagePlan, true},
		{StagePlan, StageVenueSearch, true},
		{StageVenueSearch, StageDone, true},
		{StageError, StageDone, true},

		// Error edges
		{StageParse, StageError, true},
		{StageValidate, StageError, true},
		{StagePlan, StageError, true},
		{StageVenueSearch, StageError, true},

		// Illegal: skipping, reversing, error-to-error
		{StageParse, StagePlan, false},
		{StageParse, StageDone, false},
		{StageValidate, StageParse, false},
		{StagePlan, StageValidate, false},
		{StageError, StageError, false},
		{StageError, StageParse, false},
		{StageDone, StageParse, false},
		{StageDone, StageDone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.executed)+"_to_"+string(tt.chosen), func(t *testing.T) {
			assert.Equal(t, tt.want, LegalTransition(tt.executed, tt.chosen))
		})
	}
}

func TestForwardTarget(t *testing.T) {
	target, ok := ForwardTarget(StageParse)
	require.True(t, ok)
	assert.Equal(t, StageValidate, target)

	_, ok = ForwardTarget(StageDone)
	assert.False(t, ok, "done is terminal and has no forward edge")
}

func TestParseEventType(t *testing.T) {
	tests := []struct {
		input string
		want  EventType
		ok    bool
	}{
		{"conference", EventConference, true},
		{"Conference", EventConference, true},
		{"  summit  ", EventConference, true},
		{"team building", EventTeamBuilding, true},
		{"team-building", EventTeamBuilding, true},
		{"offsite", EventTeamBuilding, true},
		{"bootcamp", EventTraining, true},
		{"product launch", EventProductLaunch, true},
		{"webinar", EventSeminar, true},
		{"birthday party", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseEventType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventTypeIsValid(t *testing.T) {
	for _, valid := range []EventType{
		EventConference, EventWorkshop, EventSeminar,
		EventTraining, EventTeamBuilding, EventProductLaunch,
	} {
		assert.True(t, valid.IsValid(), "%s should be valid", valid)
	}
	assert.False(t, EventType("party").IsValid())
	assert.False(t, EventType("").IsValid())
}

func TestStateClone_DeepCopy(t *testing.T) {
	original := NewState("annual conference in Pune", "")
	original.Event = &EventData{
		EventType:     EventConference,
		AttendeeCount: 100,
		Location:      "Pune",
		Tags:          []string{"catering"},
	}
	original.AddError("first error")
	original.AddWarning("first warning")

	clone := original.Clone()
	clone.Event.Location = "Mumbai"
	clone.Event.Tags = append(clone.Event.Tags, "outdoor")
	clone.AddError("second error")
	clone.AddWarning("second warning")

	assert.Equal(t, "Pune", original.Event.Location)
	assert.Equal(t, []string{"catering"}, original.Event.Tags)
	assert.Len(t, original.Errors, 1)
	assert.Len(t, original.Warnings, 1)
	assert.Len(t, clone.Errors, 2)
}

func TestStateClone_NilFields(t *testing.T) {
	st := NewState("something to plan", "")
	clone := st.Clone()

	assert.Nil(t, clone.Event)
	assert.Nil(t, clone.Plan)
	assert.Nil(t, clone.Failure)
	assert.Equal(t, st.Input, clone.Input)
}

func TestIsRefinement(t *testing.T) {
	assert.False(t, NewState("plain request text", "").IsRefinement())
	assert.True(t, NewState("plain request text", "make it outdoor").IsRefinement())
	assert.False(t, NewState("plain request text", "   ").IsRefinement(), "whitespace-only refinement is trimmed away")
}
