package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_LegalTransitionPassesThrough(t *testing.T) {
	st := NewState("quarterly planning workshop", "")
	st.Next = StageValidate

	routed := Route(StageParse, st)

	assert.Same(t, st, routed, "legal transitions return the state unchanged")
	assert.Empty(t, routed.Errors)
}

func TestRoute_IllegalTransitionGoesToError(t *testing.T) {
	st := NewState("quarterly planning workshop", "")
	st.Next = StageDone // parse may not skip to done

	routed := Route(StageParse, st)

	require.NotSame(t, st, routed)
	assert.Equal(t, StageError, routed.Next)
	require.Len(t, routed.Errors, 1)
	assert.Contains(t, routed.Errors[0], "illegal transition")
}

func TestRoute_ErrorStageIllegalChoiceForcesDone(t *testing.T) {
	st := NewState("quarterly planning workshop", "")
	st.AddError("parsing failed: extraction produced no structured data")
	st.Next = StageParse // error may only route to done

	routed := Route(StageError, st)

	assert.Equal(t, StageDone, routed.Next)
	assert.False(t, routed.Succeeded)
}

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()
	assert.Equal(t, 10, limits.MinInputLength)
	assert.Equal(t, 5000, limits.MaxInputLength)
	assert.Equal(t, 10000, limits.MaxAttendees)
	assert.Equal(t, 1000, limits.BudgetFloor)
}
