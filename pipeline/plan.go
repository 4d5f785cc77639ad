package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// budgetSplits is the fixed allocation used by the fallback plan, in
// percentage points. The order matters for deterministic output.
var budgetSplits = []struct {
	Label   string
	Percent int
}{
	{"Venue", 40},
	{"Catering", 30},
	{"Equipment & AV", 15},
	{"Decoration & Setup", 10},
	{"Contingency", 5},
}

// PlanStage turns validated event data into a draft plan. It asks the
// drafting model first and falls back to a deterministic template when
// drafting fails, so a validated event always yields a plan.
type PlanStage struct {
	drafter Drafter
	logger  *slog.Logger
	now     func() time.Time
}

// NewPlanStage creates the planning executor.
func NewPlanStage(drafter Drafter, logger *slog.Logger) *PlanStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanStage{drafter: drafter, logger: logger, now: time.Now}
}

// Stage implements Executor.
func (p *PlanStage) Stage() Stage {
	return StagePlan
}

// Execute implements Executor.
func (p *PlanStage) Execute(ctx context.Context, st *State) *State {
	next := st.Clone()

	if next.Event == nil {
		next.AddError("planning failed: no validated event data")
		next.Next = StageError
		return next
	}

	meta := PlanMeta{
		GeneratedAt:       p.now().UTC(),
		IsRefinement:      next.IsRefinement(),
		BudgetPerAttendee: next.Event.BudgetMinorUnits / next.Event.AttendeeCount,
	}

	text, err := p.drafter.Draft(ctx, next.Event, next.Input.RefinementText)
	if err != nil {
		p.logger.Warn("drafting failed, using template plan", "error", err)
		next.AddWarning(fmt.Sprintf("plan drafting degraded to a template: %v", err))
		text = p.templatePlan(next.Event)
		meta.Fallback = true
	}

	next.Plan = &DraftPlan{Text: text, Meta: meta}
	next.Next = StageVenueSearch
	return next
}

// templatePlan builds the deterministic fallback plan. It carries the
// same two section headers the drafting prompt mandates so downstream
// scoring treats both paths alike.
func (p *PlanStage) templatePlan(event *EventData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Plan: %s\n\n", titleCase(string(event.EventType)), event.Location)
	fmt.Fprintf(&b, "A %d-hour %s for %d attendees in %s on %s.\n\n",
		event.DurationHours, event.EventType, event.AttendeeCount, event.Location, event.Date)

	b.WriteString("## Budget Breakdown\n\n")
	fmt.Fprintf(&b, "Total budget: %d\n\n", event.BudgetMinorUnits)
	for _, split := range budgetSplits {
		amount := event.BudgetMinorUnits * split.Percent / 100
		fmt.Fprintf(&b, "- %s (%d%%): %d\n", split.Label, split.Percent, amount)
	}
	b.WriteString("\n")

	b.WriteString("## Itinerary\n\n")
	for _, slot := range itinerarySlots(event.DurationHours) {
		fmt.Fprintf(&b, "- Hour %s: %s\n", slot.hours, slot.activity)
	}

	if len(event.Tags) > 0 {
		fmt.Fprintf(&b, "\nRequirements to arrange: %s.\n", strings.Join(event.Tags, ", "))
	}

	return b.String()
}

type itinerarySlot struct {
	hours    string
	activity string
}

// itinerarySlots lays out a generic schedule scaled to the duration.
func itinerarySlots(hours int) []itinerarySlot {
	slots := []itinerarySlot{{"1", "Registration and welcome"}}

	switch {
	case hours <= 2:
		slots = append(slots, itinerarySlot{"2", "Main session and wrap-up"})
	case hours <= 4:
		slots = append(slots,
			itinerarySlot{"2-3", "Main sessions"},
			itinerarySlot{fmt.Sprint(hours), "Closing remarks and networking"})
	default:
		mid := hours / 2
		slots = append(slots,
			itinerarySlot{fmt.Sprintf("2-%d", mid), "Morning sessions"},
			itinerarySlot{fmt.Sprint(mid + 1), "Lunch break"},
			itinerarySlot{fmt.Sprintf("%d-%d", mid+2, hours-1), "Afternoon sessions"},
			itinerarySlot{fmt.Sprint(hours), "Closing remarks and networking"})
	}

	return slots
}
