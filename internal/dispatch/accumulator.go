package dispatch

import (
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/llm"
)

// Accumulator keeps the running text of a streamed reply
type Accumulator struct {
	buf strings.Builder
}

// Accumulate appends the fragment's text, if any, and returns the full text
// so far. changed is false when the fragment carried no text.
func (a *Accumulator) Accumulate(f llm.Fragment) (string, bool) {
	if f.Text == nil || *f.Text == "" {
		return a.buf.String(), false
	}
	a.buf.WriteString(*f.Text)
	return a.buf.String(), true
}

func (a *Accumulator) Text() string {
	return a.buf.String()
}
