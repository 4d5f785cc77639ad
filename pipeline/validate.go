package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// maxFutureYears bounds how far ahead an event may be scheduled.
const maxFutureYears = 2

// maxTags caps the free-form tag list.
const maxTags = 10

// ValidateStage checks structured event data in two layers: schema-shape
// checks that block the pipeline, then business rules that only warn.
// It also sanitizes strings before writing the data back.
type ValidateStage struct {
	limits Limits
	logger *slog.Logger
	now    func() time.Time
}

// NewValidateStage creates the validation executor.
func NewValidateStage(limits Limits, logger *slog.Logger) *ValidateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateStage{limits: limits, logger: logger, now: time.Now}
}

// Stage implements Executor.
func (v *ValidateStage) Stage() Stage {
	return StageValidate
}

// Execute implements Executor.
func (v *ValidateStage) Execute(_ context.Context, st *State) *State {
	next := st.Clone()

	if next.Event == nil {
		next.AddError("validation failed: no structured event data to validate")
		next.Next = StageError
		return next
	}

	event := next.Event
	sanitize(event)

	// Layer 1: schema-shape checks. Any violation is unrecoverable.
	schemaErrs := v.checkSchema(event)
	if len(schemaErrs) > 0 {
		for _, e := range schemaErrs {
			next.AddError(e)
		}
		next.Next = StageError
		return next
	}

	// Layer 2: business rules. Violations never block progress.
	for _, w := range v.checkBusinessRules(event) {
		next.AddWarning(w)
	}

	next.Next = StagePlan
	return next
}

// checkSchema returns blocking validation errors.
func (v *ValidateStage) checkSchema(event *EventData) []string {
	var errs []string

	if !event.EventType.IsValid() {
		errs = append(errs, fmt.Sprintf("validation failed: unknown event type %q", event.EventType))
	}
	if event.AttendeeCount < 1 || event.AttendeeCount > v.limits.MaxAttendees {
		errs = append(errs, fmt.Sprintf("validation failed: attendee count %d outside 1..%d",
			event.AttendeeCount, v.limits.MaxAttendees))
	}
	if len(event.Location) < 2 {
		errs = append(errs, "validation failed: location must be at least 2 characters")
	}
	if msg := v.checkDate(event.Date); msg != "" {
		errs = append(errs, msg)
	}
	if event.BudgetMinorUnits < v.limits.BudgetFloor {
		errs = append(errs, fmt.Sprintf("validation failed: budget %d below the minimum of %d",
			event.BudgetMinorUnits, v.limits.BudgetFloor))
	}
	if event.DurationHours < 1 || event.DurationHours > 12 {
		errs = append(errs, fmt.Sprintf("validation failed: duration %d hours outside 1..12", event.DurationHours))
	}

	return errs
}

// checkDate validates the ISO date and the scheduling window.
func (v *ValidateStage) checkDate(date string) string {
	if date == "" {
		return "validation failed: event date is missing"
	}

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Sprintf("validation failed: date %q is not a valid ISO calendar date", date)
	}

	today := v.now().Truncate(24 * time.Hour)
	if parsed.Before(today) {
		return fmt.Sprintf("validation failed: date %s is in the past", date)
	}
	if parsed.After(today.AddDate(maxFutureYears, 0, 0)) {
		return fmt.Sprintf("validation failed: date %s is more than %d years ahead", date, maxFutureYears)
	}

	return ""
}

// perHeadMinimums is the advisory budget-per-attendee floor per event type,
// in minor currency units.
var perHeadMinimums = map[EventType]int{
	EventConference:    2000,
	EventWorkshop:      1500,
	EventSeminar:       1000,
	EventTraining:      1500,
	EventTeamBuilding:  2500,
	EventProductLaunch: 3000,
}

// durationWindows is the typical duration range per event type, in hours.
var durationWindows = map[EventType][2]int{
	EventConference:    {6, 12},
	EventWorkshop:      {2, 8},
	EventSeminar:       {1, 4},
	EventTraining:      {2, 8},
	EventTeamBuilding:  {3, 10},
	EventProductLaunch: {2, 6},
}

// weekendTypes lean toward weekend scheduling; all other types lean weekday.
var weekendTypes = map[EventType]bool{
	EventTeamBuilding: true,
}

// tierOneCities get higher budget expectations and can absorb large headcounts.
var tierOneCities = map[string]bool{
	"bangalore": true,
	"mumbai":    true,
	"delhi":     true,
	"hyderabad": true,
	"chennai":   true,
	"pune":      true,
	"london":    true,
	"new york":  true,
	"singapore": true,
}

// checkBusinessRules returns advisory warnings. These are deliberately
// non-blocking: a questionable plan is still a plan.
func (v *ValidateStage) checkBusinessRules(event *EventData) []string {
	var warnings []string

	perHead := event.BudgetMinorUnits / event.AttendeeCount
	if minPerHead, ok := perHeadMinimums[event.EventType]; ok && perHead < minPerHead {
		warnings = append(warnings, fmt.Sprintf(
			"budget of %d per attendee is low for a %s; %d or more is typical",
			perHead, event.EventType, minPerHead))
	}

	if window, ok := durationWindows[event.EventType]; ok {
		if event.DurationHours < window[0] || event.DurationHours > window[1] {
			warnings = append(warnings, fmt.Sprintf(
				"a %s usually runs %d-%d hours; %d hours is unusual",
				event.EventType, window[0], window[1], event.DurationHours))
		}
	}

	if parsed, err := time.Parse("2006-01-02", event.Date); err == nil {
		isWeekend := parsed.Weekday() == time.Saturday || parsed.Weekday() == time.Sunday
		if weekendTypes[event.EventType] && !isWeekend {
			warnings = append(warnings, fmt.Sprintf(
				"a %s on a %s may see lower turnout; weekends work better",
				event.EventType, parsed.Weekday()))
		}
		if !weekendTypes[event.EventType] && isWeekend {
			warnings = append(warnings, fmt.Sprintf(
				"a %s on a %s may see lower turnout; weekdays work better",
				event.EventType, parsed.Weekday()))
		}
	}

	city := strings.ToLower(event.Location)
	if tierOneCities[city] && perHead < 1000 {
		warnings = append(warnings, fmt.Sprintf(
			"venues in %s are expensive; the current budget may only cover basic options", event.Location))
	}
	if !tierOneCities[city] && event.AttendeeCount > 500 {
		warnings = append(warnings, fmt.Sprintf(
			"%s may have limited venues for %d attendees; consider a larger city",
			event.Location, event.AttendeeCount))
	}

	return warnings
}

// sanitize normalizes strings in place: trimmed, whitespace-collapsed,
// per-word capitalized location, lower-cased deduplicated tags.
func sanitize(event *EventData) {
	event.Location = titleCase(collapseSpaces(event.Location))
	event.Date = strings.TrimSpace(event.Date)

	seen := make(map[string]bool, len(event.Tags))
	tags := make([]string, 0, len(event.Tags))
	for _, t := range event.Tags {
		t = strings.ToLower(collapseSpaces(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	event.Tags = tags
}

// collapseSpaces trims and collapses internal whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titleCase capitalizes the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
