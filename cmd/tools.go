package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolsCmdJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the server exposes",
	Long: "Registers the tools exactly like the start command does and lists them.\n" +
		"In static mode this fetches the endpoints from the engine.",
	Args: cobra.NoArgs,
	RunE: runListTools,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "2",
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsCmdJSON, "json", false, "print the tools as JSON, input schemas included")
	rootCmd.AddCommand(toolsCmd)
}

func runListTools(cmd *cobra.Command, args []string) error {
	svc, done, err := localTools(cmd)
	defer done()
	if err != nil {
		return err
	}

	list, err := svc.ListTools()
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	if toolsCmdJSON {
		out, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tools: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	if len(list) == 0 {
		cmd.Println("There are no tools to expose")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tENDPOINT")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Kind, t.Endpoint)
	}
	return w.Flush()
}
