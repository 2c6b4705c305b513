// Package ledger keeps the committed turns of one conversation. Writers stage
// turns with Append and publish them atomically with Commit; readers only
// ever see committed snapshots.
package ledger

import (
	"sync"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
)

// Snapshot is an immutable view of the ledger at a version
type Snapshot struct {
	Version int
	Turns   []domain.Turn
}

// CommitHook receives the new snapshot and the turns that were just published
type CommitHook func(s Snapshot, added []domain.Turn)

type Ledger struct {
	mu        sync.Mutex
	committed Snapshot
	staged    []domain.Turn
	hooks     []CommitHook
}

type Option func(*Ledger)

// WithCommitHook registers a hook that runs after every non-empty commit.
// Hooks are called outside the ledger lock.
func WithCommitHook(h CommitHook) Option {
	return func(l *Ledger) {
		l.hooks = append(l.hooks, h)
	}
}

func New(opts ...Option) *Ledger {
	return NewFromTurns(nil, opts...)
}

// NewFromTurns seeds a ledger at version 0 with already persisted turns
func NewFromTurns(turns []domain.Turn, opts ...Option) *Ledger {
	l := &Ledger{}
	if len(turns) > 0 {
		l.committed.Turns = clip(append([]domain.Turn(nil), turns...))
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Read returns the latest committed snapshot. The slice must not be modified.
func (l *Ledger) Read() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed
}

// Append stages a turn for the next commit
func (l *Ledger) Append(t domain.Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staged = append(l.staged, t)
}

// Staged returns a copy of the turns waiting for commit
func (l *Ledger) Staged() []domain.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Turn(nil), l.staged...)
}

// Commit publishes the staged turns as a new version and returns it.
// With nothing staged the current version is returned unchanged.
func (l *Ledger) Commit() int {
	l.mu.Lock()
	if len(l.staged) == 0 {
		v := l.committed.Version
		l.mu.Unlock()
		return v
	}
	added := l.staged
	l.staged = nil

	turns := make([]domain.Turn, 0, len(l.committed.Turns)+len(added))
	turns = append(turns, l.committed.Turns...)
	turns = append(turns, added...)
	l.committed = Snapshot{Version: l.committed.Version + 1, Turns: clip(turns)}
	snap := l.committed
	hooks := l.hooks
	l.mu.Unlock()

	for _, h := range hooks {
		h(snap, added)
	}
	return snap.Version
}

// Rollback drops staged turns and returns how many were discarded
func (l *Ledger) Rollback() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.staged)
	l.staged = nil
	return n
}

// clip caps capacity so appends by readers never write into shared storage
func clip(t []domain.Turn) []domain.Turn {
	return t[:len(t):len(t)]
}
