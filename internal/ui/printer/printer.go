// Package printer writes a turn's UI regions to a plain terminal. Regions are
// printed once sealed, in the order they were opened.
package printer

import (
	"fmt"
	"io"

	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/Ocada-ai-biz/agentx/internal/ui/theme"
)

type region struct {
	rendered string
	sealed   bool
}

type Printer struct {
	w       io.Writer
	order   []string
	regions map[string]*region
	next    int
	err     error
}

func New(w io.Writer) *Printer {
	return &Printer{w: w, regions: make(map[string]*region)}
}

// Handle consumes one event
func (p *Printer) Handle(ev events.Event) {
	switch e := ev.(type) {
	case events.UIEvent:
		r, ok := p.regions[e.Region]
		if !ok {
			r = &region{}
			p.regions[e.Region] = r
			p.order = append(p.order, e.Region)
		}
		r.rendered = e.Rendered
		r.sealed = e.Sealed
		p.flush()
	case *events.ErrorEvent:
		p.err = e.Error
	case events.TurnDoneEvent:
		p.Flush()
	}
}

// Run consumes events until the channel closes and returns the turn error, if any
func (p *Printer) Run(evs <-chan events.Event) error {
	for ev := range evs {
		p.Handle(ev)
	}
	p.Flush()
	return p.err
}

// flush prints every sealed region up to the first open one
func (p *Printer) flush() {
	for p.next < len(p.order) {
		r := p.regions[p.order[p.next]]
		if !r.sealed {
			return
		}
		p.print(r)
		p.next++
	}
}

// Flush prints whatever is left, sealed or not
func (p *Printer) Flush() {
	for p.next < len(p.order) {
		p.print(p.regions[p.order[p.next]])
		p.next++
	}
}

func (p *Printer) print(r *region) {
	if r.rendered == "" {
		return
	}
	fmt.Fprintln(p.w, r.rendered)
}

// Error renders a turn error the way the chat shows it
func Error(err error) string {
	return theme.Default.ErrorStyle.Render("✗ " + err.Error())
}
