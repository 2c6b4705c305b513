package dispatch

import (
	"testing"

	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestAccumulator(t *testing.T) {
	var acc Accumulator

	text, changed := acc.Accumulate(llm.TextFragment("Hel"))
	assert.True(t, changed)
	assert.Equal(t, "Hel", text)

	text, changed = acc.Accumulate(llm.Fragment{ToolCalls: []llm.ToolCallDelta{{Index: 0, Name: "x"}}})
	assert.False(t, changed)
	assert.Equal(t, "Hel", text)

	text, changed = acc.Accumulate(llm.Fragment{})
	assert.False(t, changed)
	assert.Equal(t, "Hel", text)

	text, changed = acc.Accumulate(llm.TextFragment("lo"))
	assert.True(t, changed)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, "Hello", acc.Text())
}

func TestFrameTracker(t *testing.T) {
	tr := NewFrameTracker()

	assert.Equal(t, 0, tr.Observe(llm.ToolCallDelta{Index: 3, ID: "call_a", Name: "list_stocks", Arguments: `{"st`}))
	assert.Equal(t, 1, tr.Observe(llm.ToolCallDelta{Index: 1, Name: "get_events"}))
	assert.Equal(t, 0, tr.Observe(llm.ToolCallDelta{Index: 3, Name: "ignored", Arguments: `ocks":[]}`}))
	assert.Equal(t, 1, tr.Observe(llm.ToolCallDelta{Index: 1, ID: "call_b", Arguments: `{"query":"x"}`}))

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []Frame{
		{Index: 3, ID: "call_a", Name: "list_stocks", Arguments: `{"stocks":[]}`},
		{Index: 1, ID: "call_b", Name: "get_events", Arguments: `{"query":"x"}`},
	}, tr.Snapshot())
}
