package llm

import (
	"context"
	"io"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
)

// LoremProvider streams placeholder text word by word. It never calls tools.
type LoremProvider struct {
	generator *loremgen.Lorem
	delay     time.Duration
}

func NewLoremProvider(delay time.Duration) *LoremProvider {
	return &LoremProvider{generator: loremgen.New(), delay: delay}
}

func (p *LoremProvider) Name() string {
	return "lorem"
}

func (p *LoremProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	text := p.generator.Sentence(5, 15) + " " + p.generator.Paragraph(1, 3)
	return &loremStream{words: strings.Fields(text), delay: p.delay}, nil
}

type loremStream struct {
	words []string
	pos   int
	delay time.Duration
}

func (s *loremStream) Next(ctx context.Context) (Fragment, error) {
	if s.pos >= len(s.words) {
		return Fragment{}, io.EOF
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Fragment{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return Fragment{}, err
	}

	word := s.words[s.pos]
	if s.pos > 0 {
		word = " " + word
	}
	s.pos++
	return TextFragment(word), nil
}

func (s *loremStream) Close() error {
	return nil
}
