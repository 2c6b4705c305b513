package config

import (
	"fmt"
	"os"

	"github.com/Ocada-ai-biz/agentx/internal/appState"
	"github.com/spf13/cobra"
)

var (
	includeSources bool

	ConfigCmd = &cobra.Command{
		Use:   "config [prefix]",
		Short: "View configuration",
		Long:  "Read configuration. If prefix is included, only show configuration under that path as YAML. E.g. agentx config models.openai",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appState.Get().Config

			if len(args) == 0 {
				cfg.PrintConfig(os.Stdout, includeSources)
				return nil
			}

			out, err := cfg.YAML(args[0])
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
)

func init() {
	ConfigCmd.Flags().BoolVarP(&includeSources, "include-sources", "s", false, "Show source file for each configuration value")
}
