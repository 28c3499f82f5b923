package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage <name>",
	Short: "Get usage information for a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetToolUsage,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "3",
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runGetToolUsage(cmd *cobra.Command, args []string) error {
	svc, done, err := localTools(cmd)
	defer done()
	if err != nil {
		return err
	}

	t, err := svc.GetTool(args[0])
	if err != nil {
		return fmt.Errorf("failed to get tool '%s': %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, t.Name)
	fmt.Fprintln(out, t.Description)

	properties, _ := t.InputSchema["properties"].(map[string]any)
	if len(properties) == 0 {
		fmt.Fprintln(out, "This tool does not require any input parameters.")
		return nil
	}
	required := requiredParams(t.InputSchema)

	names := make([]string, 0, len(properties))
	for k := range properties {
		names = append(names, k)
	}
	slices.Sort(names)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Input Parameters:")
	for _, k := range names {
		requiredOrOptional := "optional"
		if slices.Contains(required, k) {
			requiredOrOptional = "required"
		}

		boundary := strings.Repeat("=", len(k)+len(requiredOrOptional)+20)

		fmt.Fprintln(out, boundary)
		fmt.Fprintf(out, "%s (%s)\n", k, requiredOrOptional)

		j, err := json.MarshalIndent(properties[k], "", "  ")
		if err != nil {
			// Simply print the raw object if we fail to marshal it
			fmt.Fprintln(out, properties[k])
		} else {
			fmt.Fprintln(out, string(j))
		}
		fmt.Fprintln(out, boundary)

		fmt.Fprintln(out)
	}

	if len(t.Annotations) > 0 {
		keys := make([]string, 0, len(t.Annotations))
		for k := range t.Annotations {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fmt.Fprintln(out, "Annotations:")
		for _, k := range keys {
			fmt.Fprintf(out, "* %s = %v\n", k, t.Annotations[k])
		}
	}

	return nil
}

// requiredParams reads the required list of a decoded JSON schema.
func requiredParams(s map[string]any) []string {
	var names []string
	switch r := s["required"].(type) {
	case []string:
		names = r
	case []any:
		for _, v := range r {
			if name, ok := v.(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}
