package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var callCmdInput string

var callCmd = &cobra.Command{
	Use:   "call <name>",
	Short: "Call a tool and print its result",
	Long: "Calls a tool in process, without an MCP client.\n" +
		"The arguments are validated against the input schema of the tool, exactly like calls made over MCP.\n" +
		"The call is recorded in the journal when --journal-dsn is set.",
	Args: cobra.ExactArgs(1),
	RunE: runCallTool,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "4",
	},
}

func init() {
	callCmd.Flags().StringVar(&callCmdInput, "input", "{}", "arguments of the tool, as a JSON object")
	rootCmd.AddCommand(callCmd)
}

func runCallTool(cmd *cobra.Command, args []string) error {
	var input map[string]any
	if err := json.Unmarshal([]byte(callCmdInput), &input); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	svc, done, err := localTools(cmd)
	defer done()
	if err != nil {
		return err
	}

	result, err := svc.InvokeTool(cmd.Context(), args[0], input)
	if err != nil {
		return fmt.Errorf("failed to call tool %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	for _, c := range result.Content {
		if c["type"] == "text" {
			fmt.Fprintln(out, c["text"])
			continue
		}
		serialized, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal content: %w", err)
		}
		fmt.Fprintln(out, string(serialized))
	}

	if result.IsError {
		return errors.New("the tool returned an error")
	}
	return nil
}
