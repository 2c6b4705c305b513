package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/dispatch"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/ledger"
	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/Ocada-ai-biz/agentx/internal/prompt"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/repository"
	"github.com/Ocada-ai-biz/agentx/internal/task"
	"github.com/google/uuid"
)

// SystemPrompt is the name the system template is registered under
const SystemPrompt = "system"

const (
	titleLength     = 60
	persistTimeout  = 10 * time.Second
	defaultStepTime = time.Second
)

// ErrTurnInProgress is returned when a conversation already has a message in flight
var ErrTurnInProgress = errors.New("a message is already being processed for this conversation")

type Options struct {
	Conversations repository.ConversationRepository
	History       *HistoryRecorder
	Provider      llm.Provider
	Registry      *registry.Registry
	Prompts       *prompt.Manager
	Tasks         *task.Supervisor
	TurnTimeout   time.Duration
	// PurchaseStep is the pause between the stages of a confirmed purchase
	PurchaseStep time.Duration
	Logger       *slog.Logger
}

// Agent runs conversation turns: it feeds the model the committed history,
// dispatches the streamed reply and persists what gets committed.
type Agent struct {
	conversations repository.ConversationRepository
	history       *HistoryRecorder
	provider      llm.Provider
	registry      *registry.Registry
	dispatcher    *dispatch.Dispatcher
	prompts       *prompt.Manager
	tasks         *task.Supervisor
	purchaseStep  time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// session is the in-memory state of one conversation
type session struct {
	id     uuid.UUID
	title  string
	ledger *ledger.Ledger
	// busy is held for the whole of a turn or a purchase confirmation
	busy sync.Mutex
}

// New creates an Agent. The registry must be frozen.
func New(opts Options) (*Agent, error) {
	if opts.Conversations == nil || opts.Provider == nil || opts.Registry == nil || opts.Prompts == nil {
		return nil, errors.New("agent: conversations, provider, registry and prompts are required")
	}
	if !opts.Registry.Frozen() {
		return nil, errors.New("agent: registry must be frozen before the first turn")
	}
	if _, err := opts.Prompts.LoadTemplate(SystemPrompt); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tasks := opts.Tasks
	if tasks == nil {
		tasks = task.New(task.WithLogger(logger))
	}
	step := opts.PurchaseStep
	if step <= 0 {
		step = defaultStepTime
	}

	return &Agent{
		conversations: opts.Conversations,
		history:       opts.History,
		provider:      opts.Provider,
		registry:      opts.Registry,
		dispatcher:    dispatch.New(opts.Registry, dispatch.Options{Timeout: opts.TurnTimeout, Logger: logger}),
		prompts:       opts.Prompts,
		tasks:         tasks,
		purchaseStep:  step,
		logger:        logger,
		sessions:      make(map[uuid.UUID]*session),
	}, nil
}

// Tools lists what the model can call
func (a *Agent) Tools() []domain.Tool {
	return a.registry.Declarations()
}

// Shutdown waits for background work (history writes, purchases) to finish
func (a *Agent) Shutdown() {
	a.tasks.Shutdown()
}

// session returns the cached session for id, loading its committed turns on
// first use.
func (a *Agent) session(ctx context.Context, id uuid.UUID) (*session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[id]; ok {
		return s, nil
	}

	conv, err := a.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	s := &session{id: id, title: conv.Title}
	s.ledger = ledger.NewFromTurns(conv.Turns, ledger.WithCommitHook(a.persist(id)))
	a.sessions[id] = s
	return s, nil
}

// persist writes newly committed turns. It runs in the committing goroutine,
// which holds the session's busy lock, so writes for one conversation stay
// in commit order.
func (a *Agent) persist(id uuid.UUID) ledger.CommitHook {
	return func(s ledger.Snapshot, added []domain.Turn) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := a.conversations.AppendTurns(ctx, id, added); err != nil {
			a.logger.Error("failed to persist turns", "conversation", id, "version", s.Version, "error", err)
		}
	}
}

// ensureTitle names an untitled conversation after its first message
func (a *Agent) ensureTitle(ctx context.Context, s *session, content string) {
	if s.title != "" {
		return
	}
	title := strings.Join(strings.Fields(content), " ")
	if r := []rune(title); len(r) > titleLength {
		title = string(r[:titleLength-1]) + "…"
	}
	if err := a.conversations.SetTitle(ctx, s.id, title); err != nil {
		a.logger.Warn("failed to set conversation title", "conversation", s.id, "error", err)
		return
	}
	s.title = title
}

// Snapshot returns the committed state of a conversation
func (a *Agent) Snapshot(ctx context.Context, id uuid.UUID) (ledger.Snapshot, error) {
	s, err := a.session(ctx, id)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return s.ledger.Read(), nil
}
