// Package venues provides venue candidate types and the static per-city
// fallback table used when live lookup fails or returns nothing.
package venues

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Venue is a single venue candidate.
type Venue struct {
	Name        string   `json:"name" yaml:"name"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Score       float64  `json:"score,omitempty" yaml:"score,omitempty"`
	CostRange   string   `json:"cost_range,omitempty" yaml:"cost_range,omitempty"`
	Features    []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// Table holds per-city fallback venue lists. Lookups are case-insensitive.
// Safe for concurrent use; Reload swaps the whole table atomically.
type Table struct {
	mu     sync.RWMutex
	cities map[string][]Venue
}

// tableFile is the yaml shape of a venue table file.
type tableFile struct {
	Cities map[string][]Venue `yaml:"cities"`
}

// NewDefaultTable returns the built-in fallback table.
func NewDefaultTable() *Table {
	return &Table{cities: defaultCities()}
}

// LoadTable reads a yaml venue table file.
func LoadTable(path string) (*Table, error) {
	t := &Table{cities: make(map[string][]Venue)}
	if err := t.loadFile(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload replaces the table contents from the given file.
func (t *Table) Reload(path string) error {
	return t.loadFile(path)
}

func (t *Table) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read venue table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse venue table: %w", err)
	}
	if len(f.Cities) == 0 {
		return fmt.Errorf("venue table %s contains no cities", path)
	}

	normalized := make(map[string][]Venue, len(f.Cities))
	for city, list := range f.Cities {
		normalized[strings.ToLower(strings.TrimSpace(city))] = list
	}

	t.mu.Lock()
	t.cities = normalized
	t.mu.Unlock()
	return nil
}

// Lookup returns the fallback venues for a city, or nil if the city is unknown.
func (t *Table) Lookup(city string) []Venue {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list, ok := t.cities[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return nil
	}

	out := make([]Venue, len(list))
	copy(out, list)
	return out
}

// Cities returns the known city names.
func (t *Table) Cities() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.cities))
	for c := range t.cities {
		names = append(names, c)
	}
	return names
}

// Generic returns templated suggestions for a city with no table entry.
// The pipeline uses these as the last fallback tier.
func Generic(city string) []Venue {
	label := strings.TrimSpace(city)
	if label == "" {
		label = "your city"
	}
	return []Venue{
		{
			Name:        fmt.Sprintf("Business hotels in %s", label),
			Description: fmt.Sprintf("Most business hotels in %s offer conference halls with catering and AV equipment for corporate events.", label),
			Score:       0.4,
			Features:    []string{"conference hall", "catering", "av equipment"},
		},
		{
			Name:        fmt.Sprintf("Coworking event spaces in %s", label),
			Description: fmt.Sprintf("Coworking providers in %s rent event and training spaces by the hour or day.", label),
			Score:       0.35,
			Features:    []string{"flexible layout", "wifi", "projector"},
		},
	}
}

// defaultCities is the built-in venue table covering cities the service
// sees most. A yaml file via config overrides it entirely.
func defaultCities() map[string][]Venue {
	return map[string][]Venue{
		"bangalore": {
			{Name: "The Lalit Ashok", URL: "https://www.thelalit.com/the-lalit-ashok-bangalore", Description: "Five-star hotel with large convention halls and lawns for corporate events.", Score: 0.9, CostRange: "premium", Features: []string{"convention hall", "catering", "parking"}},
			{Name: "Taj MG Road", URL: "https://www.tajhotels.com", Description: "Central business hotel with boardrooms and banquet space.", Score: 0.85, CostRange: "premium", Features: []string{"banquet", "boardroom", "catering"}},
			{Name: "IISc Conference Centre", Description: "Academic conference centre suited to seminars and training programs.", Score: 0.75, CostRange: "moderate", Features: []string{"auditorium", "av equipment"}},
		},
		"mumbai": {
			{Name: "Jio World Convention Centre", URL: "https://www.jioworldconvention.com", Description: "Large-format convention centre in BKC for conferences and launches.", Score: 0.9, CostRange: "premium", Features: []string{"exhibition hall", "catering", "parking"}},
			{Name: "Trident Nariman Point", URL: "https://www.tridenthotels.com", Description: "Sea-facing hotel with banquet and meeting rooms.", Score: 0.8, CostRange: "premium", Features: []string{"banquet", "catering"}},
		},
		"delhi": {
			{Name: "India Habitat Centre", URL: "https://www.indiahabitat.org", Description: "Conference venues and amphitheatre in central Delhi.", Score: 0.85, CostRange: "moderate", Features: []string{"auditorium", "catering"}},
			{Name: "The Leela Ambience Gurugram", Description: "Hotel convention space on the Delhi-Gurugram border.", Score: 0.8, CostRange: "premium", Features: []string{"convention hall", "catering", "parking"}},
		},
		"hyderabad": {
			{Name: "HICC Novotel", URL: "https://www.hicc.com", Description: "Purpose-built international convention centre.", Score: 0.9, CostRange: "premium", Features: []string{"convention hall", "catering", "parking"}},
			{Name: "Taj Krishna", Description: "Banasthali banquet halls in Banjara Hills.", Score: 0.75, CostRange: "premium", Features: []string{"banquet", "catering"}},
		},
		"pune": {
			{Name: "Hyatt Regency Pune", Description: "Business hotel with flexible conference space.", Score: 0.8, CostRange: "moderate", Features: []string{"conference hall", "catering"}},
			{Name: "MCCIA Trade Tower", Description: "Chamber-of-commerce halls for seminars and trainings.", Score: 0.7, CostRange: "budget", Features: []string{"seminar hall", "av equipment"}},
		},
		"chennai": {
			{Name: "ITC Grand Chola", Description: "Large luxury hotel with extensive convention facilities.", Score: 0.85, CostRange: "premium", Features: []string{"convention hall", "catering", "parking"}},
			{Name: "Chennai Trade Centre", Description: "Exhibition and convention complex in Nandambakkam.", Score: 0.75, CostRange: "moderate", Features: []string{"exhibition hall", "parking"}},
		},
	}
}
