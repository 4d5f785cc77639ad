package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/eventpilot/llm"
	"github.com/c360studio/eventpilot/model"
)

// LLMExtractor implements Extractor over the LLM client.
type LLMExtractor struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewLLMExtractor creates the LLM-backed extraction capability.
func NewLLMExtractor(completer llm.Completer, logger *slog.Logger) *LLMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{completer: completer, logger: logger}
}

// extractionWire is the JSON shape the extraction prompt requests.
type extractionWire struct {
	EventType        string   `json:"event_type"`
	AttendeeCount    int      `json:"attendee_count"`
	Location         string   `json:"location"`
	Date             string   `json:"date"`
	BudgetMinorUnits int      `json:"budget_minor_units"`
	DurationHours    int      `json:"duration_hours"`
	Tags             []string `json:"tags"`
}

// Extract runs the extraction capability and maps its JSON onto EventData.
// Malformed or empty output is an error; the parse stage treats any error
// as unrecoverable.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (*EventData, error) {
	temperature := 0.0
	resp, err := e.completer.Complete(ctx, llm.Request{
		Capability: model.CapabilityForStage(StageParse.String()).String(),
		Messages: []llm.Message{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	raw := llm.ExtractJSON(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("extraction returned no JSON object")
	}

	var wire extractionWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("extraction returned malformed JSON: %w", err)
	}

	eventType, ok := ParseEventType(wire.EventType)
	if !ok {
		// Unknown labels degrade to the most generic type rather than failing
		// the whole run over taxonomy.
		e.logger.Debug("Unknown event type from extraction, defaulting", "value", wire.EventType)
		eventType = EventConference
	}

	data := &EventData{
		EventType:        eventType,
		AttendeeCount:    wire.AttendeeCount,
		Location:         strings.TrimSpace(wire.Location),
		Date:             strings.TrimSpace(wire.Date),
		BudgetMinorUnits: wire.BudgetMinorUnits,
		DurationHours:    wire.DurationHours,
		Tags:             wire.Tags,
	}

	if data.DurationHours == 0 {
		data.DurationHours = 8 // full-day default when the text is silent
	}

	return data, nil
}

// Drafter is the plan-text generation capability consumed by the plan stage.
type Drafter interface {
	Draft(ctx context.Context, event *EventData, refinement string) (string, error)
}

// LLMDrafter implements Drafter over the LLM client.
type LLMDrafter struct {
	completer   llm.Completer
	logger      *slog.Logger
	temperature *float64
}

// DrafterOption configures an LLMDrafter.
type DrafterOption func(*LLMDrafter)

// WithDraftTemperature sets the sampling temperature for plan drafts. When
// unset, the provider's default applies. Extraction always runs at zero;
// only drafting benefits from a little variety.
func WithDraftTemperature(t float64) DrafterOption {
	return func(d *LLMDrafter) { d.temperature = &t }
}

// NewLLMDrafter creates the LLM-backed drafting capability.
func NewLLMDrafter(completer llm.Completer, logger *slog.Logger, opts ...DrafterOption) *LLMDrafter {
	if logger == nil {
		logger = slog.Default()
	}
	d := &LLMDrafter{completer: completer, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Draft produces long-form plan text. No structure is guaranteed; the plan
// stage scores richness lower when the expected headers are missing.
func (d *LLMDrafter) Draft(ctx context.Context, event *EventData, refinement string) (string, error) {
	resp, err := d.completer.Complete(ctx, llm.Request{
		Capability: model.CapabilityForStage(StagePlan.String()).String(),
		Messages: []llm.Message{
			{Role: "system", Content: draftingSystemPrompt},
			{Role: "user", Content: draftingUserPrompt(event, refinement)},
		},
		Temperature: d.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("drafting call: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("drafting returned empty plan")
	}

	return text, nil
}
