package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

const (
	// maxPageSize caps fetched venue pages.
	maxPageSize = 1 * 1024 * 1024 // 1MB

	// enrichUserAgent identifies enrichment fetches.
	enrichUserAgent = "eventpilot/0.1 (+venue enrichment)"
)

// Enricher fetches an accepted venue page and produces readable
// description text from its main content.
type Enricher struct {
	httpClient *http.Client
	converter  *md.Converter
	logger     *slog.Logger
}

// NewEnricher creates a page enricher with the given fetch timeout.
func NewEnricher(timeout time.Duration, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Enricher{
		httpClient: &http.Client{Timeout: timeout},
		converter:  converter,
		logger:     logger,
	}
}

// Describe fetches pageURL and returns a readable plain-markdown description.
// Any failure returns an error; callers keep the original snippet in that case.
func (e *Enricher) Describe(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("unsupported page URL: %s", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("User-Agent", enrichUserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		// Readability can choke on sparse pages; fall back to the title only.
		if title := extractHTMLTitle(body); title != "" {
			return title, nil
		}
		return "", fmt.Errorf("extract readable content: %w", err)
	}

	markdown, err := e.converter.ConvertString(article.Content)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	return cleanMarkdown(markdown), nil
}

// extractHTMLTitle extracts the <title> from raw HTML.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			walk(c)
		}
	}
	walk(doc)

	return title
}

// cleanMarkdown trims trailing whitespace and collapses blank-line runs.
func cleanMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blanks++
			if blanks > 2 {
				continue
			}
		} else {
			blanks = 0
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
