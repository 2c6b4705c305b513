package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Ocada-ai-biz/agentx/internal/shared"
	"github.com/spf13/cobra"
)

var schemaFlag bool

var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the assistant can call",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := shared.InitializeAgent(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		decls := rt.Agent.Tools()
		if schemaFlag {
			out, err := json.MarshalIndent(decls, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Name\tDescription")
		for _, d := range decls {
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Description)
		}
		return w.Flush()
	},
}

func init() {
	ToolsCmd.Flags().BoolVar(&schemaFlag, "schema", false, "Print the JSON schema of every tool")
}
