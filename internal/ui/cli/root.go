package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/appState"
	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/ui/cli/chat"
	configCmd "github.com/Ocada-ai-biz/agentx/internal/ui/cli/config"
	"github.com/Ocada-ai-biz/agentx/internal/ui/cli/history"
	"github.com/Ocada-ai-biz/agentx/internal/ui/cli/msg"
	"github.com/Ocada-ai-biz/agentx/internal/ui/cli/thread"
	toolsCmd "github.com/Ocada-ai-biz/agentx/internal/ui/cli/tools"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logFile  string
	model    string
	dbPath   string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:               "agentx",
	Short:             "Chat about crypto prices, buy tokens and inspect wallets",
	Long:              `A conversational crypto assistant with live price cards, a mock purchase flow and wallet lookups`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Set up the root command to use this context
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set logging level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (defaults to stderr)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model preset to use")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path of the SQLite database")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Bound on a single turn, e.g. 45s")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		overrides := &config.RuntimeOverrides{}
		if logLevel != "" {
			overrides.LogLevel = &logLevel
		}
		if logFile != "" {
			overrides.LogFile = &logFile
		}
		if model != "" {
			overrides.ActiveModel = &model
		}
		if dbPath != "" {
			overrides.DBPath = &dbPath
		}
		if timeout > 0 {
			overrides.Timeout = &timeout
		}
		return appState.Initialize(overrides)
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return appState.Cleanup()
	}

	// Remove "completions" command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		configCmd.ConfigCmd,
		msg.MsgCmd,
		thread.ThreadCmd,
		history.HistoryCmd,
		toolsCmd.ToolsCmd,
		chat.ChatCmd,
	)
}
