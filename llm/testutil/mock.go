// Package testutil provides test utilities for the llm package.
// It includes mock implementations for testing LLM client interactions.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/eventpilot/llm"
)

// MockCompleter is a thread-safe mock LLM completer for testing.
// It captures requests passed to Complete() and returns configured responses.
//
// Usage:
//
//	// Single response mock
//	mock := &MockCompleter{
//	    Responses: []*llm.Response{
//	        {Content: `{"result": "success"}`, Model: "test-model"},
//	    },
//	}
//
//	// Error response
//	mock := &MockCompleter{
//	    Err: errors.New("connection failed"),
//	}
type MockCompleter struct {
	mu            sync.Mutex
	Responses     []*llm.Response // Responses to return in sequence
	Err           error           // Error to return (takes precedence over Responses)
	requests      []llm.Request
	responseIndex int
}

// Complete implements llm.Completer.
// Returns the next response from Responses slice, or Err if set.
func (m *MockCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.Err != nil {
		return nil, m.Err
	}

	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}

	// Default response if no responses configured
	return &llm.Response{Content: "", Model: "test-model"}, nil
}

// Requests returns a copy of all requests passed to Complete().
func (m *MockCompleter) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of times Complete() was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reset resets the mock's state (captured requests and response index).
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.responseIndex = 0
}
