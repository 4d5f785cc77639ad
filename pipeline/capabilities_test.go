package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/eventpilot/llm"
	"github.com/c360studio/eventpilot/llm/testutil"
)

func TestLLMExtractor_RequestShape(t *testing.T) {
	mock := &testutil.MockCompleter{
		Responses: []*llm.Response{
			{Content: `{"event_type":"training","attendee_count":20,"location":"Bangalore","date":"2026-10-01","budget_minor_units":150000,"duration_hours":8}`},
		},
	}
	extractor := NewLLMExtractor(mock, nil)

	_, err := extractor.Extract(context.Background(), "corporate training for 20 people")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "extraction", reqs[0].Capability)
	require.NotNil(t, reqs[0].Temperature, "extraction pins temperature")
	assert.Zero(t, *reqs[0].Temperature)
}

func TestLLMDrafter_Temperature(t *testing.T) {
	mock := &testutil.MockCompleter{
		Responses: []*llm.Response{{Content: "## Overview\nA fine plan."}},
	}
	drafter := NewLLMDrafter(mock, nil, WithDraftTemperature(0.7))

	_, err := drafter.Draft(context.Background(), validEvent(), "")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "drafting", reqs[0].Capability)
	require.NotNil(t, reqs[0].Temperature)
	assert.InDelta(t, 0.7, *reqs[0].Temperature, 1e-9)
}

func TestLLMDrafter_DefaultTemperature(t *testing.T) {
	mock := &testutil.MockCompleter{
		Responses: []*llm.Response{{Content: "## Overview\nA fine plan."}},
	}
	drafter := NewLLMDrafter(mock, nil)

	_, err := drafter.Draft(context.Background(), validEvent(), "")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].Temperature, "unset temperature leaves the provider default in place")
}
