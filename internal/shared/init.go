package shared

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/appState"
	"github.com/Ocada-ai-biz/agentx/internal/config"
	internal "github.com/Ocada-ai-biz/agentx/internal/internalService"
	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/Ocada-ai-biz/agentx/internal/prompt"
	"github.com/Ocada-ai-biz/agentx/internal/provider"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/repository/sqlite"
	"github.com/Ocada-ai-biz/agentx/internal/task"
	"github.com/Ocada-ai-biz/agentx/internal/tools"
)

const taskTimeout = 30 * time.Second

// Runtime is everything a command needs to talk to the assistant
type Runtime struct {
	Agent   *agent.Agent
	Store   *sqlite.Store
	History *agent.HistoryRecorder
	Config  *config.ConfigSchema
}

// Close waits for background work and releases the database
func (r *Runtime) Close() error {
	r.Agent.Shutdown()
	return r.Store.Close()
}

// InitializeStore opens the database only, for commands that never talk to a model
func InitializeStore() (*sqlite.Store, error) {
	cfg := appState.Get().Config
	store, err := sqlite.Initialize(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// InitializeAgent wires config, storage, providers and tools into an Agent
func InitializeAgent(ctx context.Context) (*Runtime, error) {
	app := appState.Get()
	cfg := app.Config
	logger := app.Logger

	store, err := InitializeStore()
	if err != nil {
		return nil, err
	}

	stream, err := llm.NewProvider(cfg.Active())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create model provider: %w", err)
	}

	tasks := task.New(task.WithLogger(logger), task.WithTimeout(taskTimeout))
	history := agent.NewHistoryRecorder(store.History, tasks)

	reg := registry.New()
	if err := tools.Register(reg, buildDeps(ctx, cfg, history, logger)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	reg.Freeze()

	prompts := prompt.NewManager()
	if err := prompts.AddTemplate(agent.SystemPrompt, cfg.Prompts.System); err != nil {
		_ = store.Close()
		return nil, err
	}

	a, err := agent.New(agent.Options{
		Conversations: store.Conversations,
		History:       history,
		Provider:      stream,
		Registry:      reg,
		Prompts:       prompts,
		Tasks:         tasks,
		TurnTimeout:   cfg.Turn.Timeout,
		PurchaseStep:  cfg.Purchase.StepDelay,
		Logger:        logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Runtime{Agent: a, Store: store, History: history, Config: cfg}, nil
}

// buildDeps creates the data providers. Missing credentials disable the
// tools that need them instead of failing startup.
func buildDeps(ctx context.Context, cfg *config.ConfigSchema, history *agent.HistoryRecorder, logger *slog.Logger) tools.Deps {
	hc := &http.Client{}
	deps := tools.Deps{
		Prices:  provider.NewCoinGecko(cfg.Providers.CoinGecko, hc),
		Search:  provider.NewTavily(cfg.Providers.Tavily, hc),
		Wallets: provider.NewBird(cfg.Providers.Bird, hc),
		History: history,
	}

	embedder, err := llm.NewEmbedder(cfg.Embedding.Model)
	if err != nil {
		logger.Warn("embeddings unavailable, address lookup falls back to prefix matching", "error", err)
		deps.Addresses = provider.NewSolanaDirectory(cfg.Solana.Addresses, nil)
	} else {
		deps.Addresses = provider.NewSolanaDirectory(cfg.Solana.Addresses, embedder)
	}

	if preset, ok := cfg.Models[cfg.Internal.Model]; ok {
		summarizer, err := llm.NewSummarizer(ctx, preset)
		if err != nil {
			logger.Warn("summarizer unavailable, wallet tools disabled", "model", cfg.Internal.Model, "error", err)
		} else {
			deps.Summarizer = summarizer
		}
	}
	return deps
}

// InitializeInternalService builds the helper used for one-off completions
// such as conversation titles, backed by the internal model preset.
func InitializeInternalService(ctx context.Context) (*internal.InternalService, error) {
	cfg := appState.Get().Config
	preset, ok := cfg.Models[cfg.Internal.Model]
	if !ok {
		return nil, fmt.Errorf("model %s not found in configuration", cfg.Internal.Model)
	}
	summarizer, err := llm.NewSummarizer(ctx, preset)
	if err != nil {
		return nil, fmt.Errorf("failed to create internal model: %w", err)
	}
	return internal.NewInternalService(summarizer, cfg.Internal), nil
}
