package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/stretchr/testify/assert"
)

func TestPrinterKeepsRegionOrder(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Handle(events.UIEvent{Region: "a", Rendered: "thinking"})
	p.Handle(events.UIEvent{Region: "b", Rendered: "card", Sealed: true})
	assert.Empty(t, buf.String())

	p.Handle(events.UIEvent{Region: "a", Rendered: "hello", Sealed: true})
	assert.Equal(t, "hello\ncard\n", buf.String())
}

func TestPrinterRun(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan events.Event, 4)
	ch <- events.UIEvent{Region: "a", Rendered: "partial"}
	ch <- &events.ErrorEvent{Error: errors.New("boom")}
	ch <- events.UIEvent{Region: "b", Rendered: "", Sealed: true}
	close(ch)

	err := New(&buf).Run(ch)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, "partial\n", buf.String())
}
