package dispatch

import (
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/llm"
)

// Frame is one tool call being assembled from deltas
type Frame struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

type frame struct {
	index int
	pos   int
	id    string
	name  string
	args  strings.Builder
}

// FrameTracker groups tool-call deltas by index. Frames are reported in the
// order their index was first seen.
type FrameTracker struct {
	byIndex map[int]*frame
	order   []*frame
}

func NewFrameTracker() *FrameTracker {
	return &FrameTracker{byIndex: make(map[int]*frame)}
}

// Observe applies a delta and returns the position of its frame
func (t *FrameTracker) Observe(d llm.ToolCallDelta) int {
	f, ok := t.byIndex[d.Index]
	if !ok {
		f = &frame{index: d.Index, pos: len(t.order)}
		t.byIndex[d.Index] = f
		t.order = append(t.order, f)
	}
	if f.name == "" && d.Name != "" {
		f.name = d.Name
	}
	if f.id == "" && d.ID != "" {
		f.id = d.ID
	}
	f.args.WriteString(d.Arguments)
	return f.pos
}

func (t *FrameTracker) Len() int {
	return len(t.order)
}

func (t *FrameTracker) Snapshot() []Frame {
	out := make([]Frame, 0, len(t.order))
	for _, f := range t.order {
		out = append(out, Frame{
			Index:     f.index,
			ID:        f.id,
			Name:      f.name,
			Arguments: f.args.String(),
		})
	}
	return out
}
