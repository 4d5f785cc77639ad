// Package pipeline implements the event-planning pipeline: a fixed sequence
// of stages (parse, validate, plan, venue search) threaded by a single state
// record, with stage-local fallbacks and a terminal error aggregator.
package pipeline

import (
	"strings"
	"time"

	"github.com/c360studio/eventpilot/venues"
)

// Stage identifies one step of the pipeline.
type Stage string

// Pipeline stages. Parse is the unique entry point; Done is terminal.
const (
	StageParse       Stage = "parse"
	StageValidate    Stage = "validate"
	StagePlan        Stage = "plan"
	StageVenueSearch Stage = "venue_search"
	StageError       Stage = "error"
	StageDone        Stage = "done"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// forwardEdges is the fixed transition table. Every non-terminal stage has
// exactly one forward edge; every stage except Error may also route to Error.
var forwardEdges = map[Stage]Stage{
	StageParse:       StageValidate,
	StageValidate:    StagePlan,
	StagePlan:        StageVenueSearch,
	StageVenueSearch: StageDone,
	StageError:       StageDone,
}

// ForwardTarget returns the forward-success destination for a stage.
func ForwardTarget(s Stage) (Stage, bool) {
	t, ok := forwardEdges[s]
	return t, ok
}

// LegalTransition reports whether moving from executed to chosen is allowed
// by the transition table.
func LegalTransition(executed, chosen Stage) bool {
	forward, ok := forwardEdges[executed]
	if !ok {
		return false
	}
	if chosen == forward {
		return true
	}
	// Every stage except Error may bail out to Error.
	return chosen == StageError && executed != StageError
}

// EventType classifies the corporate event being planned.
type EventType string

// The six supported event types.
const (
	EventConference    EventType = "conference"
	EventWorkshop      EventType = "workshop"
	EventSeminar       EventType = "seminar"
	EventTraining      EventType = "training"
	EventTeamBuilding  EventType = "team_building"
	EventProductLaunch EventType = "product_launch"
)

// eventTypeSynonyms maps extraction output variants onto canonical types.
var eventTypeSynonyms = map[string]EventType{
	"conference":      EventConference,
	"summit":          EventConference,
	"convention":      EventConference,
	"workshop":        EventWorkshop,
	"seminar":         EventSeminar,
	"webinar":         EventSeminar,
	"training":        EventTraining,
	"corporate training": EventTraining,
	"bootcamp":        EventTraining,
	"team building":   EventTeamBuilding,
	"team_building":   EventTeamBuilding,
	"team-building":   EventTeamBuilding,
	"offsite":         EventTeamBuilding,
	"team outing":     EventTeamBuilding,
	"retreat":         EventTeamBuilding,
	"product launch":  EventProductLaunch,
	"product_launch":  EventProductLaunch,
	"launch":          EventProductLaunch,
}

// ParseEventType normalizes a free-form event type string.
// Returns false if the value maps to no known type.
func ParseEventType(s string) (EventType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if t, ok := eventTypeSynonyms[key]; ok {
		return t, true
	}
	return "", false
}

// IsValid reports whether the event type is one of the six canonical values.
func (t EventType) IsValid() bool {
	switch t {
	case EventConference, EventWorkshop, EventSeminar, EventTraining, EventTeamBuilding, EventProductLaunch:
		return true
	}
	return false
}

// EventData is the structured event description produced by the parse stage.
type EventData struct {
	EventType        EventType `json:"event_type"`
	AttendeeCount    int       `json:"attendee_count"`
	Location         string    `json:"location"`
	Date             string    `json:"date"` // ISO calendar date, 2006-01-02
	BudgetMinorUnits int       `json:"budget_minor_units"`
	DurationHours    int       `json:"duration_hours"`
	Tags             []string  `json:"tags,omitempty"`
}

// Clone returns a deep copy.
func (e *EventData) Clone() *EventData {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Tags = append([]string(nil), e.Tags...)
	return &cp
}

// PlanMeta describes how a draft plan was produced.
type PlanMeta struct {
	GeneratedAt       time.Time `json:"generated_at"`
	IsRefinement      bool      `json:"is_refinement"`
	BudgetPerAttendee int       `json:"budget_per_attendee"`
	Fallback          bool      `json:"fallback"`
}

// DraftPlan is the generated plan text plus its provenance.
type DraftPlan struct {
	Text string   `json:"text"`
	Meta PlanMeta `json:"meta"`
}

// Clone returns a deep copy.
func (p *DraftPlan) Clone() *DraftPlan {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// VenueMeta describes a venue search run.
type VenueMeta struct {
	SearchedAt time.Time `json:"searched_at"`
	Query      string    `json:"query"`
	Fallback   bool      `json:"fallback"`
}

// UserInput is the immutable request text captured at pipeline start.
type UserInput struct {
	RawText        string `json:"raw_text"`
	RefinementText string `json:"refinement_text,omitempty"`
}

// State is the single record threaded through all stages. Executors never
// mutate the state they receive; each returns a modified clone.
type State struct {
	Input     UserInput
	Event     *EventData
	Plan      *DraftPlan
	Venues    []venues.Venue
	VenueMeta *VenueMeta
	Failure   *FailureSummary
	Errors    []string
	Warnings  []string
	Next      Stage
	Succeeded bool
}

// NewState builds the initial state for a request.
func NewState(rawText, refinementText string) *State {
	return &State{
		Input: UserInput{
			RawText:        strings.TrimSpace(rawText),
			RefinementText: strings.TrimSpace(refinementText),
		},
		Next: StageParse,
	}
}

// IsRefinement reports whether this run carries refinement text.
func (s *State) IsRefinement() bool {
	return s.Input.RefinementText != ""
}

// Clone returns a deep copy. Stage executors start from a clone so the
// incoming state stays untouched.
func (s *State) Clone() *State {
	cp := &State{
		Input:     s.Input,
		Event:     s.Event.Clone(),
		Plan:      s.Plan.Clone(),
		Next:      s.Next,
		Succeeded: s.Succeeded,
	}
	if s.VenueMeta != nil {
		vm := *s.VenueMeta
		cp.VenueMeta = &vm
	}
	if s.Failure != nil {
		f := *s.Failure
		f.Suggestions = append([]string(nil), s.Failure.Suggestions...)
		cp.Failure = &f
	}
	if len(s.Venues) > 0 {
		cp.Venues = make([]venues.Venue, len(s.Venues))
		copy(cp.Venues, s.Venues)
		for i := range cp.Venues {
			cp.Venues[i].Features = append([]string(nil), s.Venues[i].Features...)
		}
	}
	cp.Errors = append([]string(nil), s.Errors...)
	cp.Warnings = append([]string(nil), s.Warnings...)
	return cp
}

// AddError appends a failure description. Errors are append-only and are
// never cleared by later stages.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// AddWarning appends a non-fatal advisory.
func (s *State) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
