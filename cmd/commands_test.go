package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/testhelpers"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandAnnotations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		got   map[string]string
		group subCommandGroup
		order string
	}{
		{"start", startServerCmd.Annotations, subCommandGroupBasic, "1"},
		{"tools", toolsCmd.Annotations, subCommandGroupBasic, "2"},
		{"usage", usageCmd.Annotations, subCommandGroupBasic, "3"},
		{"call", callCmd.Annotations, subCommandGroupBasic, "4"},
		{"history", historyCmd.Annotations, subCommandGroupAdvanced, "1"},
		{"version", versionCmd.Annotations, subCommandGroupAdvanced, "2"},
		{"history purge", historyPurgeCmd.Annotations, subCommandGroupBasic, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testhelpers.TestCommandAnnotations(t, tt.got, []testhelpers.CommandAnnotationTest{
				{Key: "group", Expected: string(tt.group)},
				{Key: "order", Expected: tt.order},
			})
		})
	}
}

func TestStartCommandStructure(t *testing.T) {
	t.Parallel()

	testhelpers.AssertEqual(t, "start", startServerCmd.Use)
	testhelpers.AssertNotNil(t, startServerCmd.RunE)
	testhelpers.AssertTrue(t, len(startServerCmd.Long) > 0, "Long description should not be empty")

	for _, name := range []string{"port", "telemetry"} {
		f := startServerCmd.Flags().Lookup(name)
		testhelpers.AssertNotNil(t, f)
		testhelpers.AssertTrue(t, len(f.Usage) > 0, "flag "+name+" should have a usage description")
	}
}

func TestStartRejectsInvalidPort(t *testing.T) {
	_, err := execute(t, "start", "--test-mode", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'70000'")
}

func TestToolsCommand(t *testing.T) {
	out, err := execute(t, "tools", "--test-mode", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "system_list_databases")
	assert.Contains(t, out, "raw_query")
	assert.Contains(t, out, "query_test")
	assert.Contains(t, out, "query_create_user")
	assert.NotContains(t, out, "call_endpoint")
}

func TestToolsCommandJSON(t *testing.T) {
	out, err := execute(t, "tools", "--test-mode", "--log-level", "error", "--json",
		"--dynamic-endpoints", "--disable-tools", "raw_query")
	require.NoError(t, err)

	var list []types.Tool
	require.NoError(t, json.Unmarshal([]byte(out), &list))

	var names []string
	for _, tool := range list {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "call_endpoint")
	assert.Contains(t, names, "system_get_endpoints")
	assert.NotContains(t, names, "raw_query")
	assert.NotContains(t, names, "query_test")
}

func TestToolsCommandPrefix(t *testing.T) {
	out, err := execute(t, "tools", "--test-mode", "--log-level", "error", "--tool-prefix", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "shop_query_test")
	assert.Contains(t, out, "system_list_databases")
}

func TestUsageCommand(t *testing.T) {
	out, err := execute(t, "usage", "query_create_user", "--test-mode", "--log-level", "error")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "query_create_user\n"))
	assert.Contains(t, out, "Input Parameters:")
	assert.Contains(t, out, "name (required)")
	assert.Contains(t, out, `"type": "string"`)
	assert.Contains(t, out, "Annotations:")
}

func TestUsageCommandNoParameters(t *testing.T) {
	out, err := execute(t, "usage", "system_list_databases", "--test-mode", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "This tool does not require any input parameters.")
}

func TestUsageCommandUnknownTool(t *testing.T) {
	_, err := execute(t, "usage", "nope", "--test-mode", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get tool 'nope'")
}

func TestCallCommand(t *testing.T) {
	out, err := execute(t, "call", "query_create_user", "--test-mode", "--log-level", "error",
		"--input", `{"name": "ada"}`)
	require.NoError(t, err)

	var echoed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &echoed))
	assert.Equal(t, "create_user", echoed["path"])
	assert.Equal(t, map[string]any{"name": "ada"}, echoed["parameters"])
}

func TestCallCommandInvalidArguments(t *testing.T) {
	out, err := execute(t, "call", "query_create_user", "--test-mode", "--log-level", "error",
		"--input", `{"name": 5}`)
	require.Error(t, err)
	assert.Contains(t, out, "invalid arguments for tool query_create_user")
}

func TestCallCommandInvalidInput(t *testing.T) {
	_, err := execute(t, "call", "query_test", "--test-mode", "--input", "{")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
}

func TestHistoryCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "journal.db")
	common := []string{"--test-mode", "--log-level", "error", "--journal-dsn", dsn}

	out, err := execute(t, append([]string{"history"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No tool calls recorded")

	_, err = execute(t, append([]string{"call", "query_test"}, common...)...)
	require.NoError(t, err)
	_, err = execute(t, append([]string{"call", "query_create_user", "--input", `{}`}, common...)...)
	require.Error(t, err)

	out, err = execute(t, append([]string{"history"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "query_test")
	assert.Contains(t, out, "query_create_user")

	out, err = execute(t, append([]string{"history", "--failed"}, common...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, "query_test")
	assert.Contains(t, out, "invalid_arguments")

	out, err = execute(t, append([]string{"history", "purge", "--older-than", "1h"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 tool calls")
}

func TestHistoryCommandErrors(t *testing.T) {
	_, err := execute(t, "history", "--test-mode")
	require.ErrorIs(t, err, errNoJournal)

	_, err = execute(t, "history", "--test-mode", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid limit")

	_, err = execute(t, "history", "purge", "--test-mode", "--older-than=-1h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.GetVersion()+"\n", out)
}
