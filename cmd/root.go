// Package cmd implements the neurelo-mcp command line.
package cmd

import (
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type subCommandGroup string

const (
	subCommandGroupBasic    subCommandGroup = "basic"
	subCommandGroupAdvanced subCommandGroup = "advanced"
)

// flags shared by every command that needs to talk to the engine
var (
	rootCmdConfigFile           string
	rootCmdServerName           string
	rootCmdBasePath             string
	rootCmdAPIKey               string
	rootCmdToolPrefix           string
	rootCmdDynamicEndpoints     bool
	rootCmdDisabledTools        string
	rootCmdSkipInvalidEndpoints bool
	rootCmdTestMode             bool
	rootCmdLogLevel             string
	rootCmdJournalDSN           string
)

var rootCmd = &cobra.Command{
	Use:   "neurelo-mcp",
	Short: "MCP server exposing the Neurelo engine API as tools",
	Long: "neurelo-mcp serves the databases and endpoints of a Neurelo engine as MCP tools.\n\n" +
		"Every endpoint of the engine becomes a schema-validated tool named query_<path>, next to a\n" +
		"fixed set of built-in tools to list databases, inspect schemas and run raw queries.\n" +
		"Settings are read from flags, environment variables, a .env file and an optional YAML config file.",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootCmdConfigFile, "config", "", "path to a YAML config file")
	flags.StringVar(&rootCmdServerName, "name", "",
		"display name of the MCP server (overrides env var "+config.ServerNameEnvVar+")")
	flags.StringVar(&rootCmdBasePath, "base-path", "",
		"base URL of the engine API (overrides env var "+config.BasePathEnvVar+")")
	flags.StringVar(&rootCmdAPIKey, "api-key", "",
		"API key of the engine (overrides env vars "+config.APIKeyEnvVar+" and "+config.APIKeyEnvVar+"_FILE)")
	flags.StringVar(&rootCmdToolPrefix, "tool-prefix", "",
		"prefix added to the name of every endpoint tool (overrides env var "+config.ToolPrefixEnvVar+")")
	flags.BoolVar(&rootCmdDynamicEndpoints, "dynamic-endpoints", false,
		"expose the generic system_get_endpoints and call_endpoint tools instead of one tool per endpoint")
	flags.StringVar(&rootCmdDisabledTools, "disable-tools", "",
		"comma-separated list of tools (or endpoint paths) not to register")
	flags.BoolVar(&rootCmdSkipInvalidEndpoints, "skip-invalid-endpoints", false,
		"skip endpoints whose parameter schemas cannot be compiled instead of failing")
	flags.BoolVar(&rootCmdTestMode, "test-mode", false,
		"serve a deterministic in-memory mock engine instead of calling the engine API")
	flags.StringVar(&rootCmdLogLevel, "log-level", "",
		"log level: debug, info, warn or error (default \""+config.LogLevelDefault+"\")")
	flags.StringVar(&rootCmdJournalDSN, "journal-dsn", "",
		"record tool calls in this database, a postgres:// URL or a SQLite file path")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	cobra.AddTemplateFunc("commandsInGroup", commandsInGroup)
	rootCmd.SetUsageTemplate(usageTemplate)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the configuration from the .env file, the environment, the config file and
// the flags explicitly set on the command line.
func loadConfig(cmd *cobra.Command, extra func(*config.Overrides)) (*config.Config, error) {
	_ = godotenv.Load()

	o := &config.Overrides{}
	flags := cmd.Flags()
	setString := func(name string, v string, dst **string) {
		if flags.Changed(name) {
			*dst = &v
		}
	}
	setBool := func(name string, v bool, dst **bool) {
		if flags.Changed(name) {
			*dst = &v
		}
	}
	setString("name", rootCmdServerName, &o.ServerName)
	setString("base-path", rootCmdBasePath, &o.BasePath)
	setString("api-key", rootCmdAPIKey, &o.APIKey)
	setString("tool-prefix", rootCmdToolPrefix, &o.ToolPrefix)
	setBool("dynamic-endpoints", rootCmdDynamicEndpoints, &o.DynamicEndpoints)
	setString("disable-tools", rootCmdDisabledTools, &o.DisabledTools)
	setBool("skip-invalid-endpoints", rootCmdSkipInvalidEndpoints, &o.SkipInvalidEndpoints)
	setBool("test-mode", rootCmdTestMode, &o.TestMode)
	setString("log-level", rootCmdLogLevel, &o.LogLevel)
	setString("journal-dsn", rootCmdJournalDSN, &o.JournalDSN)
	if extra != nil {
		extra(o)
	}

	return config.NewLoader().Load(rootCmdConfigFile, o)
}

// commandsInGroup returns the available subcommands of a group, sorted by their order annotation.
func commandsInGroup(cmd *cobra.Command, group string) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Annotations["group"] == group {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *cobra.Command) int {
		return commandOrder(a) - commandOrder(b)
	})
	return out
}

func commandOrder(c *cobra.Command) int {
	n, err := strconv.Atoi(c.Annotations["order"])
	if err != nil {
		return 1 << 10
	}
	return n
}

// resetFlags restores the default value of every flag of cmd and its subcommands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasAvailableSubCommands}}{{if commandsInGroup . "basic"}}

Basic Commands:{{range commandsInGroup . "basic"}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{if commandsInGroup . "advanced"}}

Advanced Commands:{{range commandsInGroup . "advanced"}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
