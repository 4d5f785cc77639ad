package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/eventpilot/search"
	"github.com/c360studio/eventpilot/venues"
)

const (
	maxVenueResults   = 5
	maxTitleLen       = 100
	maxURLLen         = 200
	maxDescriptionLen = 200
	maxSnippetLen     = 150

	// defaultSearchLimit is how many raw results to request per query
	// when the configuration does not say otherwise.
	defaultSearchLimit = maxVenueResults * 4
)

// excludedKeywords filter out social-media and aggregator noise by hostname
// or title match.
var excludedKeywords = []string{
	"facebook", "instagram", "twitter", "x.com", "youtube",
	"linkedin", "pinterest", "tiktok", "reddit",
}

// venueKeywords mark a result as plausibly venue-related.
var venueKeywords = []string{
	"venue", "hall", "hotel", "banquet", "conference",
	"resort", "space", "center", "centre", "auditorium",
}

// Describer builds a richer description from a venue's page.
type Describer interface {
	Describe(ctx context.Context, pageURL string) (string, error)
}

// VenueSearchStage finds candidate venues for the planned event. It runs
// a web search, filters and scores the hits, and falls back to the local
// venue table (and finally to generic suggestions) when the search yields
// nothing usable.
type VenueSearchStage struct {
	searcher       search.Client
	table          *venues.Table
	allowedDomains []string
	describer      Describer
	searchLimit    int
	logger         *slog.Logger
	now            func() time.Time
}

// VenueSearchOption configures a VenueSearchStage.
type VenueSearchOption func(*VenueSearchStage)

// WithDescriber enables page-content enrichment of accepted venues.
func WithDescriber(d Describer) VenueSearchOption {
	return func(v *VenueSearchStage) {
		v.describer = d
	}
}

// WithSearchLimit overrides how many raw results each query requests.
func WithSearchLimit(n int) VenueSearchOption {
	return func(v *VenueSearchStage) {
		if n > 0 {
			v.searchLimit = n
		}
	}
}

// NewVenueSearchStage creates the venue search executor. The searcher may
// be nil, in which case the stage goes straight to the local table.
func NewVenueSearchStage(searcher search.Client, table *venues.Table, allowedDomains []string, logger *slog.Logger, opts ...VenueSearchOption) *VenueSearchStage {
	if logger == nil {
		logger = slog.Default()
	}
	v := &VenueSearchStage{
		searcher:       searcher,
		table:          table,
		allowedDomains: allowedDomains,
		searchLimit:    defaultSearchLimit,
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Stage implements Executor.
func (v *VenueSearchStage) Stage() Stage {
	return StageVenueSearch
}

// Execute implements Executor.
func (v *VenueSearchStage) Execute(ctx context.Context, st *State) *State {
	next := st.Clone()

	if next.Event == nil {
		next.AddError("venue search failed: no event data")
		next.Next = StageError
		return next
	}

	query := buildQuery(next.Event)
	meta := &VenueMeta{SearchedAt: v.now().UTC(), Query: query}

	found := v.searchWeb(ctx, next, query)
	if len(found) == 0 {
		found = v.localFallback(next)
		meta.Fallback = true
	} else {
		v.enrich(ctx, found)
	}

	next.Venues = found
	next.VenueMeta = meta
	next.Succeeded = true
	next.Next = StageDone
	return next
}

// buildQuery composes the search query from the event shape.
func buildQuery(event *EventData) string {
	parts := []string{
		string(event.EventType), "venues", "in", event.Location,
		"for", fmt.Sprint(event.AttendeeCount), "people",
	}
	return strings.Join(parts, " ")
}

// searchWeb runs the query and filters results. Failures degrade to nil
// with a warning; the caller picks a fallback.
func (v *VenueSearchStage) searchWeb(ctx context.Context, st *State, query string) []venues.Venue {
	if v.searcher == nil {
		return nil
	}

	results, err := v.searcher.Search(ctx, query, v.searchLimit)
	if err != nil {
		v.logger.Warn("web search failed", "query", query, "error", err)
		st.AddWarning(fmt.Sprintf("venue search degraded to local data: %v", err))
		return nil
	}

	filtered := make([]venues.Venue, 0, maxVenueResults)
	for _, r := range results {
		venue, ok := v.filterResult(r)
		if !ok {
			continue
		}
		filtered = append(filtered, venue)
		if len(filtered) == maxVenueResults {
			break
		}
	}

	if len(filtered) == 0 && len(results) > 0 {
		st.AddWarning("web search returned no venue-relevant results; using local data")
	}
	return filtered
}

// filterResult applies the exclusion list, the domain allow-list, and the
// venue-keyword check, then converts the hit into a scored venue. A
// configured allow-list is a hard restriction: hosts matching no pattern
// are dropped, not demoted. An empty list allows every host.
func (v *VenueSearchStage) filterResult(r search.Result) (venues.Venue, bool) {
	parsed, err := url.Parse(r.URL)
	if err != nil || parsed.Hostname() == "" {
		return venues.Venue{}, false
	}
	host := strings.ToLower(parsed.Hostname())
	title := strings.ToLower(r.Title)

	for _, kw := range excludedKeywords {
		if strings.Contains(host, kw) || strings.Contains(title, kw) {
			return venues.Venue{}, false
		}
	}

	if len(v.allowedDomains) > 0 && !v.hostAllowed(host) {
		return venues.Venue{}, false
	}

	relevant := false
	haystack := title + " " + strings.ToLower(r.Content)
	for _, kw := range venueKeywords {
		if strings.Contains(haystack, kw) {
			relevant = true
			break
		}
	}
	if !relevant {
		return venues.Venue{}, false
	}

	score := 0.6
	if len(v.allowedDomains) > 0 {
		// Survived the vendor allow-list.
		score += 0.3
	}
	if strings.Contains(title, "venue") || strings.Contains(title, "hall") {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}

	return venues.Venue{
		Name:        truncate(r.Title, maxTitleLen),
		URL:         truncate(r.URL, maxURLLen),
		Description: truncate(collapseSpaces(r.Content), maxSnippetLen),
		Score:       score,
	}, true
}

// hostAllowed reports whether the host matches any allow-list pattern.
func (v *VenueSearchStage) hostAllowed(host string) bool {
	for _, pattern := range v.allowedDomains {
		if ok, _ := doublestar.Match(pattern, host); ok {
			return true
		}
	}
	return false
}

// enrich replaces thin search snippets with descriptions extracted from
// the venue pages themselves. Failures leave the snippet in place.
func (v *VenueSearchStage) enrich(ctx context.Context, found []venues.Venue) {
	if v.describer == nil {
		return
	}
	for i := range found {
		desc, err := v.describer.Describe(ctx, found[i].URL)
		if err != nil {
			v.logger.Debug("venue enrichment failed", "url", found[i].URL, "error", err)
			continue
		}
		if desc != "" {
			found[i].Description = truncate(collapseSpaces(desc), maxDescriptionLen)
		}
	}
}

// localFallback consults the built-in table, then generic suggestions.
func (v *VenueSearchStage) localFallback(st *State) []venues.Venue {
	if v.table != nil {
		if local := v.table.Lookup(st.Event.Location); len(local) > 0 {
			st.AddWarning("venue suggestions come from local data, not a live search")
			return local
		}
	}
	st.AddWarning(fmt.Sprintf("no venue data for %s; suggestions are generic", st.Event.Location))
	return venues.Generic(st.Event.Location)
}

// truncate trims s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
