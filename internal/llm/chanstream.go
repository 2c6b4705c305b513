package llm

import (
	"context"
	"io"
	"sync"
)

// chanStream turns a push-style producer into a Stream. The producer goroutine
// sends fragments and finishes with finish(err).
type chanStream struct {
	frags  chan Fragment
	done   chan struct{}
	cancel context.CancelFunc

	once sync.Once
	err  error
}

func newChanStream(cancel context.CancelFunc) *chanStream {
	return &chanStream{
		frags:  make(chan Fragment),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// send blocks until the consumer takes the fragment or the producer is cancelled
func (s *chanStream) send(ctx context.Context, f Fragment) error {
	select {
	case s.frags <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chanStream) finish(err error) {
	s.once.Do(func() {
		if err == nil {
			err = io.EOF
		}
		s.err = err
		close(s.done)
	})
}

func (s *chanStream) Next(ctx context.Context) (Fragment, error) {
	select {
	case f := <-s.frags:
		return f, nil
	case <-s.done:
		// drain anything sent before finish
		select {
		case f := <-s.frags:
			return f, nil
		default:
		}
		return Fragment{}, s.err
	case <-ctx.Done():
		return Fragment{}, ctx.Err()
	}
}

func (s *chanStream) Close() error {
	s.cancel()
	return nil
}
