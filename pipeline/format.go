package pipeline

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/c360studio/eventpilot/venues"
)

// QualityScore breaks the result's quality into four 0-25 sub-scores.
type QualityScore struct {
	DataCompleteness    int `json:"data_completeness"`
	PlanRichness        int `json:"plan_richness"`
	VenueRelevance      int `json:"venue_relevance"`
	ExecutionEfficiency int `json:"execution_efficiency"`
}

// StageTiming records how long one stage ran.
type StageTiming struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Result is the envelope a completed run produces, whether the run
// succeeded or failed.
type Result struct {
	RequestID string `json:"request_id"`
	Succeeded bool   `json:"succeeded"`
	CacheHit  bool   `json:"cache_hit"`

	// IsRefinement and RefinementText carry provenance so a caller can
	// chain further refinements against the same original text.
	IsRefinement   bool   `json:"is_refinement"`
	RefinementText string `json:"refinement_text,omitempty"`

	Event     *EventData      `json:"event,omitempty"`
	Plan      *DraftPlan      `json:"plan,omitempty"`
	Venues    []venues.Venue  `json:"venues,omitempty"`
	VenueMeta *VenueMeta      `json:"venue_meta,omitempty"`
	Failure   *FailureSummary `json:"failure,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`

	Quality     QualityScore  `json:"quality"`
	Timings     []StageTiming `json:"timings,omitempty"`
	ElapsedMs   int64         `json:"elapsed_ms"`
	CompletedAt time.Time     `json:"completed_at"`
}

// planHeaders are the sections a rich plan is expected to carry.
var planHeaders = []string{"## Budget Breakdown", "## Itinerary"}

// BuildResult assembles the envelope from a final state.
func BuildResult(requestID string, st *State, timings []StageTiming, completedAt time.Time) *Result {
	r := &Result{
		RequestID:    requestID,
		Succeeded:    st.Succeeded,
		IsRefinement: st.IsRefinement(),
		Event:        st.Event,
		Plan:         st.Plan,
		Venues:       st.Venues,
		VenueMeta:    st.VenueMeta,
		Failure:      st.Failure,
		Errors:       st.Errors,
		Warnings:     st.Warnings,
		Timings:      timings,
		CompletedAt:  completedAt.UTC(),
	}
	if r.IsRefinement {
		r.RefinementText = st.Input.RefinementText
	}
	for _, t := range timings {
		r.ElapsedMs += t.Duration.Milliseconds()
	}
	r.Quality = scoreQuality(st)
	return r
}

// scoreQuality computes the four sub-scores from the final state. A failed
// run scores whatever it got through before failing.
func scoreQuality(st *State) QualityScore {
	return QualityScore{
		DataCompleteness:    scoreCompleteness(st.Event),
		PlanRichness:        scoreRichness(st.Plan),
		VenueRelevance:      scoreVenues(st.Venues),
		ExecutionEfficiency: scoreEfficiency(st),
	}
}

// scoreCompleteness grants 5 points per populated core field.
func scoreCompleteness(event *EventData) int {
	if event == nil {
		return 0
	}
	score := 0
	if event.EventType.IsValid() {
		score += 5
	}
	if event.AttendeeCount > 0 {
		score += 5
	}
	if event.Location != "" {
		score += 5
	}
	if event.Date != "" {
		score += 5
	}
	if event.BudgetMinorUnits > 0 {
		score += 5
	}
	return score
}

// scoreRichness rewards plan length and the presence of expected sections.
func scoreRichness(plan *DraftPlan) int {
	if plan == nil || plan.Text == "" {
		return 0
	}

	score := 0
	switch length := utf8.RuneCountInString(plan.Text); {
	case length >= 1200:
		score += 15
	case length >= 600:
		score += 10
	case length >= 200:
		score += 5
	}
	for _, header := range planHeaders {
		if strings.Contains(plan.Text, header) {
			score += 5
		}
	}

	if score > 25 {
		score = 25
	}
	return score
}

// scoreVenues scales the average venue score into 0-25.
func scoreVenues(found []venues.Venue) int {
	if len(found) == 0 {
		return 0
	}
	var sum float64
	for _, v := range found {
		sum += v.Score
	}
	score := int(sum / float64(len(found)) * 25)
	if score > 25 {
		score = 25
	}
	return score
}

// scoreEfficiency rewards a clean pass: base 15, +5 when no fallback fired
// anywhere in the run, +5 when every forward stage completed. Failed runs
// score zero.
func scoreEfficiency(st *State) int {
	if !st.Succeeded {
		return 0
	}
	score := 15 + 5 // success implies the full forward path ran
	planFallback := st.Plan != nil && st.Plan.Meta.Fallback
	venueFallback := st.VenueMeta != nil && st.VenueMeta.Fallback
	if !planFallback && !venueFallback {
		score += 5
	}
	return score
}
