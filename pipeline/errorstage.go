package pipeline

import (
	"context"
	"log/slog"
	"strings"
)

// FailureCategory classifies why a run failed.
type FailureCategory string

const (
	FailureValidation FailureCategory = "validation"
	FailureParsing    FailureCategory = "parsing"
	FailureExternal   FailureCategory = "external"
	FailureSystem     FailureCategory = "system"
	FailureUnknown    FailureCategory = "unknown"
)

// FailureSummary is the structured account of a failed run.
type FailureSummary struct {
	Category    FailureCategory `json:"category"`
	Message     string          `json:"message"`
	Recoverable bool            `json:"recoverable"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// categoryPriority orders categories most-specific first: when a run
// accumulates mixed errors, the summary reports the one the user can act
// on most directly.
var categoryPriority = []FailureCategory{
	FailureValidation, FailureParsing, FailureExternal, FailureSystem,
}

// categoryKeywords map error-message substrings to categories.
var categoryKeywords = map[FailureCategory][]string{
	FailureValidation: {"validation failed"},
	FailureParsing:    {"parsing failed", "invalid json", "no structured"},
	FailureExternal:   {"timeout", "connection", "unavailable", "rate limit", "all endpoints", "search failed"},
	FailureSystem:     {"internal error", "panic", "illegal transition"},
}

// categorySuggestions offer the user a next step per failure class.
var categorySuggestions = map[FailureCategory][]string{
	FailureValidation: {
		"Review the highlighted fields and adjust the event details.",
		"Budgets, dates, and attendee counts have documented limits.",
	},
	FailureParsing: {
		"Rephrase the event description with explicit details: type, city, date, headcount, and budget.",
		"Shorter, concrete sentences extract more reliably.",
	},
	FailureExternal: {
		"An upstream service was unavailable; retrying the same request usually succeeds.",
	},
	FailureSystem: {
		"This looks like an internal fault; report it with the request ID.",
	},
	FailureUnknown: {
		"Retry the request; if it keeps failing, report it with the request ID.",
	},
}

// ErrorStage converts accumulated errors into a FailureSummary and closes
// out the run. It is terminal by construction: it always routes to Done.
type ErrorStage struct {
	logger *slog.Logger
}

// NewErrorStage creates the error-handling executor.
func NewErrorStage(logger *slog.Logger) *ErrorStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorStage{logger: logger}
}

// Stage implements Executor.
func (e *ErrorStage) Stage() Stage {
	return StageError
}

// Execute implements Executor.
func (e *ErrorStage) Execute(_ context.Context, st *State) *State {
	next := st.Clone()

	next.Failure = Summarize(next.Errors)
	next.Succeeded = false
	next.Next = StageDone

	e.logger.Info("run failed",
		"category", next.Failure.Category,
		"recoverable", next.Failure.Recoverable,
		"errors", len(next.Errors))

	return next
}

// Summarize classifies the error list into a single failure summary.
func Summarize(errs []string) *FailureSummary {
	if len(errs) == 0 {
		return &FailureSummary{
			Category:    FailureUnknown,
			Message:     "the run failed without a recorded error",
			Recoverable: true,
			Suggestions: categorySuggestions[FailureUnknown],
		}
	}

	present := make(map[FailureCategory]bool)
	firstIn := make(map[FailureCategory]string)
	for _, msg := range errs {
		c := classify(msg)
		present[c] = true
		if _, seen := firstIn[c]; !seen {
			firstIn[c] = msg
		}
	}

	category := FailureUnknown
	for _, c := range categoryPriority {
		if present[c] {
			category = c
			break
		}
	}

	// The message must come from the winning category, not simply be the
	// oldest error on the list.
	message, ok := firstIn[category]
	if !ok {
		message = errs[0]
	}

	return &FailureSummary{
		Category:    category,
		Message:     message,
		Recoverable: recoverable(present),
		Suggestions: categorySuggestions[category],
	}
}

// classify assigns one error message to a category by keyword.
func classify(msg string) FailureCategory {
	lower := strings.ToLower(msg)
	for _, c := range categoryPriority {
		for _, kw := range categoryKeywords[c] {
			if strings.Contains(lower, kw) {
				return c
			}
		}
	}
	return FailureUnknown
}

// recoverable reports whether the user can fix the failure themselves:
// input problems (validation, parsing) always can, and a purely external
// failure clears on retry. System faults and unknowns are not theirs to fix.
// recoverable reports whether a retry or a reworded request could plausibly
// succeed. Failures confined to validation or parsing are recoverable, as is
// a purely external outage. A mix of input-side and external errors is not:
// fixing the input alone leaves the outage, and vice versa.
func recoverable(present map[FailureCategory]bool) bool {
	if present[FailureSystem] || present[FailureUnknown] {
		return false
	}
	inputSide := present[FailureValidation] || present[FailureParsing]
	if present[FailureExternal] {
		return !inputSide
	}
	return inputSide
}
