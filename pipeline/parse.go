package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// refinementSeparator joins original and refinement text for extraction.
const refinementSeparator = "\n\nAdditional requirements: "

// Extractor is the natural-language-to-fields capability consumed by the
// parse stage. Implementations may be slow or unavailable; any error is
// treated as a failed extraction.
type Extractor interface {
	Extract(ctx context.Context, text string) (*EventData, error)
}

// ParseStage turns free text into structured event data. Extraction yielding
// nothing usable is unrecoverable: there is no offline substitute for
// understanding the request.
type ParseStage struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewParseStage creates the parse executor.
func NewParseStage(extractor Extractor, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{extractor: extractor, logger: logger}
}

// Stage implements Executor.
func (p *ParseStage) Stage() Stage {
	return StageParse
}

// Execute implements Executor.
func (p *ParseStage) Execute(ctx context.Context, st *State) *State {
	next := st.Clone()

	text := st.Input.RawText
	if st.IsRefinement() {
		text += refinementSeparator + st.Input.RefinementText
	}

	data, err := p.extractor.Extract(ctx, text)
	if err != nil {
		p.logger.Warn("Extraction failed", "error", err)
		next.AddError(fmt.Sprintf("parsing failed: extraction produced no structured data: %v", err))
		next.Next = StageError
		return next
	}
	if data == nil {
		next.AddError("parsing failed: extraction produced no structured data")
		next.Next = StageError
		return next
	}

	if st.IsRefinement() {
		// The extraction capability is refinement-unaware; deterministic
		// adjustments make the refinement text influence structured fields.
		applyRefinement(data, st.Input.RefinementText)
	}

	next.Event = data
	next.Next = StageValidate
	return next
}

// durationKeywords maps refinement phrases to absolute durations in hours.
// Ordered so the first matching phrase wins when a refinement mentions more
// than one.
var durationKeywords = []struct {
	phrase string
	hours  int
}{
	{"half day", 4},
	{"half-day", 4},
	{"full day", 8},
	{"whole day", 8},
	{"all day", 8},
}

// requirementTags are appended to the tag list when the refinement mentions them.
var requirementTags = []string{
	"outdoor",
	"indoor",
	"catering",
	"av equipment",
	"accommodation",
	"parking",
	"transport",
	"wheelchair accessible",
}

// premiumKeywords trigger the premium budget multiplier.
var premiumKeywords = []string{"premium", "luxury", "upscale", "high-end"}

// applyRefinement adjusts extracted fields from refinement phrasing:
// duration keywords, requirement tags, and a 1.3x premium budget multiplier.
func applyRefinement(data *EventData, refinement string) {
	lower := strings.ToLower(refinement)

	for _, kw := range durationKeywords {
		if strings.Contains(lower, kw.phrase) {
			data.DurationHours = kw.hours
			break
		}
	}
	if strings.Contains(lower, "longer") || strings.Contains(lower, "extend") {
		data.DurationHours = min(data.DurationHours+2, 12)
	}
	if strings.Contains(lower, "shorter") {
		data.DurationHours = max(data.DurationHours-2, 1)
	}

	for _, tag := range requirementTags {
		// "wheelchair accessible" should match plain "wheelchair" too.
		probe := strings.SplitN(tag, " ", 2)[0]
		if strings.Contains(lower, probe) {
			data.Tags = appendTag(data.Tags, tag)
		}
	}

	for _, kw := range premiumKeywords {
		if strings.Contains(lower, kw) {
			data.BudgetMinorUnits = data.BudgetMinorUnits * 13 / 10
			data.Tags = appendTag(data.Tags, "premium")
			break
		}
	}
}

// appendTag adds a tag if not already present, keeping the list deduplicated.
func appendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return tags
		}
	}
	return append(tags, tag)
}
