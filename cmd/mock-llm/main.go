// Package main implements a mock LLM server for development and testing.
// It serves OpenAI-compatible /v1/chat/completions responses from JSON fixture
// files, routing by the "model" field in the request. This eliminates the need
// for a real LLM while exercising the planning pipeline end to end.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434
//
// Fixture files are named by model (e.g., "mock-extractor.json" maps to model
// "mock-extractor"). The file content is returned as the assistant message.
//
// Sequential fixtures: if numbered files exist (e.g., "mock-drafter.1.json",
// "mock-drafter.2.json"), the Nth call to that model returns the Nth fixture,
// with the base file as a repeating fallback once they are exhausted. This
// makes refinement flows testable: the second call answers differently.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Server ---

type server struct {
	fixtures map[string][]string // model name → ordered fixture contents
	calls    atomic.Int64

	modelCalls   map[string]*atomic.Int64
	modelCallsMu sync.Mutex // protects lazy init of modelCalls entries
}

func newServer(fixtures map[string][]string) *server {
	return &server{
		fixtures:   fixtures,
		modelCalls: make(map[string]*atomic.Int64),
	}
}

func (s *server) getModelCounter(model string) *atomic.Int64 {
	s.modelCallsMu.Lock()
	defer s.modelCallsMu.Unlock()
	if c, ok := s.modelCalls[model]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.modelCalls[model] = c
	return c
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sequence, ok := s.fixtures[req.Model]
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	callIndex := int(s.getModelCounter(req.Model).Add(1))
	s.calls.Add(1)

	// The Nth call gets the Nth fixture; past the end, the last repeats.
	content := sequence[len(sequence)-1]
	if callIndex <= len(sequence) {
		content = sequence[callIndex-1]
	}

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", s.calls.Load()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: chatUsage{
			PromptTokens:     len(req.Messages) * 50,
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(req.Messages)*50 + len(content)/4,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls": s.calls.Load(),
		"models":      len(s.fixtures),
	})
}

// numberedFixture matches "name.N.json" sequential fixture files.
var numberedFixture = regexp.MustCompile(`^(.+)\.(\d+)\.json$`)

// loadFixtures reads every *.json file in dir, grouping numbered sequences
// in call order with the base file last as the repeating fallback.
func loadFixtures(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixtures dir: %w", err)
	}

	type numbered struct {
		index   int
		content string
	}
	sequences := make(map[string][]numbered)
	base := make(map[string]string)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", name, err)
		}

		if m := numberedFixture.FindStringSubmatch(name); m != nil {
			idx, _ := strconv.Atoi(m[2])
			sequences[m[1]] = append(sequences[m[1]], numbered{index: idx, content: string(data)})
			continue
		}
		base[strings.TrimSuffix(name, ".json")] = string(data)
	}

	fixtures := make(map[string][]string)
	for model, content := range base {
		fixtures[model] = []string{content}
	}
	for model, seq := range sequences {
		sort.Slice(seq, func(i, j int) bool { return seq[i].index < seq[j].index })
		ordered := make([]string, 0, len(seq)+1)
		for _, n := range seq {
			ordered = append(ordered, n.content)
		}
		if b, ok := base[model]; ok {
			ordered = append(ordered, b)
		}
		fixtures[model] = ordered
	}

	return fixtures, nil
}

func main() {
	fixturesDir := flag.String("fixtures", "fixtures", "Directory of JSON fixture files")
	port := flag.Int("port", 11434, "Listen port")
	flag.Parse()

	fixtures, err := loadFixtures(*fixturesDir)
	if err != nil {
		log.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		log.Fatalf("no fixtures found in %s", *fixturesDir)
	}

	srv := newServer(fixtures)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", srv.handleChat)
	mux.HandleFunc("/stats", srv.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock-llm listening on %s with %d model(s)", addr, len(fixtures))
	log.Fatal(http.ListenAndServe(addr, mux))
}
