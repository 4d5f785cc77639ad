package pipeline

import (
	"fmt"
	"strings"
)

// extractionSystemPrompt instructs the model to emit only the event JSON.
const extractionSystemPrompt = `You extract structured corporate event details from free text.
Respond with ONLY a JSON object, no prose, in this exact shape:
{
  "event_type": "conference|workshop|seminar|training|team_building|product_launch",
  "attendee_count": <integer>,
  "location": "<city name>",
  "date": "<YYYY-MM-DD>",
  "budget_minor_units": <integer, in the smallest currency unit>,
  "duration_hours": <integer 1-12>,
  "tags": ["<short free-form requirement>", ...]
}
Omit a field only if the text gives no basis for it. Never invent a date.`

// draftingSystemPrompt frames the plan-writing task.
const draftingSystemPrompt = `You are a corporate event planner. Write a complete, practical event plan
in markdown. Always include a "## Budget Breakdown" section with line items
and a "## Itinerary" section with a timed schedule. Be specific and concise.`

// draftingUserPrompt composes the drafting request from structured data.
func draftingUserPrompt(event *EventData, refinement string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan a %s for %d attendees in %s on %s.\n",
		strings.ReplaceAll(string(event.EventType), "_", " "),
		event.AttendeeCount, event.Location, event.Date)
	fmt.Fprintf(&b, "Total budget: %d (minor currency units). Duration: %d hours.\n",
		event.BudgetMinorUnits, event.DurationHours)

	if len(event.Tags) > 0 {
		fmt.Fprintf(&b, "Requirements: %s.\n", strings.Join(event.Tags, ", "))
	}
	if refinement != "" {
		fmt.Fprintf(&b, "The client refined an earlier plan with: %q. Honor this refinement.\n", refinement)
	}

	b.WriteString("Include venue setup, catering, equipment and a contingency buffer in the budget breakdown.")
	return b.String()
}
