// Package config loads the server configuration from a YAML file, environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	BasePathEnvVar             = "NEURELO_API_BASE_PATH"
	APIKeyEnvVar               = "NEURELO_API_KEY"
	ServerNameEnvVar           = "NEURELO_MCP_SERVER_NAME"
	ToolPrefixEnvVar           = "NEURELO_MCP_TOOL_PREFIX"
	DynamicEndpointsEnvVar     = "NEURELO_MCP_DYNAMIC_ENDPOINTS"
	DisabledToolsEnvVar        = "NEURELO_MCP_DISABLED_TOOLS"
	PortEnvVar                 = "NEURELO_MCP_PORT"
	TestModeEnvVar             = "NEURELO_MCP_TEST_MODE"
	SkipInvalidEndpointsEnvVar = "NEURELO_MCP_SKIP_INVALID_ENDPOINTS"
	LogLevelEnvVar             = "NEURELO_MCP_LOG_LEVEL"
	JournalDSNEnvVar           = "NEURELO_MCP_JOURNAL_DSN"
	TelemetryEnabledEnvVar     = "OTEL_ENABLED"
)

const (
	ServerNameDefault = "neurelo-mcp-server"
	LogLevelDefault   = "info"
)

// Config is the complete server configuration.
type Config struct {
	ServerName string `yaml:"server_name"`

	// BasePath is the base URL of the engine API.
	BasePath string `yaml:"base_path"`
	APIKey   string `yaml:"api_key"`

	ToolPrefix           string   `yaml:"tool_prefix"`
	DynamicEndpoints     bool     `yaml:"dynamic_endpoints"`
	DisabledTools        []string `yaml:"disabled_tools"`
	SkipInvalidEndpoints bool     `yaml:"skip_invalid_endpoints"`

	// Port selects the HTTP transport. The stdio transport is used when it is empty.
	Port string `yaml:"port"`

	// TestMode replaces the engine by a deterministic in-memory mock.
	TestMode bool `yaml:"test_mode"`

	LogLevel string `yaml:"log_level"`

	// JournalDSN enables the call journal. It is either a postgres:// URL or a SQLite file path.
	JournalDSN string `yaml:"journal_dsn"`

	Telemetry bool `yaml:"telemetry"`
}

// Overrides holds the values given on the command line.
// Only non-nil fields override the file and environment.
type Overrides struct {
	ServerName           *string
	BasePath             *string
	APIKey               *string
	ToolPrefix           *string
	DynamicEndpoints     *bool
	DisabledTools        *string
	SkipInvalidEndpoints *bool
	Port                 *string
	TestMode             *bool
	LogLevel             *string
	JournalDSN           *string
	Telemetry            *bool
}

// Loader reads the configuration sources.
type Loader struct {
	// Fs is the filesystem config files and secret files are read from.
	Fs afero.Fs
	// Getenv looks up environment variables.
	Getenv func(string) string
}

// NewLoader returns a Loader reading from the OS filesystem and environment.
func NewLoader() *Loader {
	return &Loader{Fs: afero.NewOsFs(), Getenv: os.Getenv}
}

// Load builds the configuration.
// precedence: command line flag > environment variable > config file > default
func (l *Loader) Load(path string, o *Overrides) (*Config, error) {
	c := &Config{
		ServerName: ServerNameDefault,
		LogLevel:   LogLevelDefault,
	}

	if path != "" {
		if err := l.loadFile(path, c); err != nil {
			return nil, err
		}
	}
	if err := l.applyEnv(c); err != nil {
		return nil, err
	}
	if o != nil {
		o.apply(c)
	}

	c.DisabledTools = normalizeList(c.DisabledTools)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Loader) loadFile(path string, c *Config) error {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (l *Loader) applyEnv(c *Config) error {
	setString := func(envVar string, dst *string) {
		if v := strings.TrimSpace(l.Getenv(envVar)); v != "" {
			*dst = v
		}
	}
	setString(ServerNameEnvVar, &c.ServerName)
	setString(BasePathEnvVar, &c.BasePath)
	setString(ToolPrefixEnvVar, &c.ToolPrefix)
	setString(PortEnvVar, &c.Port)
	setString(LogLevelEnvVar, &c.LogLevel)
	setString(JournalDSNEnvVar, &c.JournalDSN)

	apiKey, err := l.getEnvOrFile(APIKeyEnvVar)
	if err != nil {
		return err
	}
	if apiKey != "" {
		c.APIKey = apiKey
	}

	if v := l.Getenv(DisabledToolsEnvVar); v != "" {
		c.DisabledTools = splitList(v)
	}

	bools := []struct {
		envVar string
		dst    *bool
	}{
		{DynamicEndpointsEnvVar, &c.DynamicEndpoints},
		{TestModeEnvVar, &c.TestMode},
		{SkipInvalidEndpointsEnvVar, &c.SkipInvalidEndpoints},
		{TelemetryEnabledEnvVar, &c.Telemetry},
	}
	for _, b := range bools {
		set, value, err := l.getEnvBool(b.envVar)
		if err != nil {
			return err
		}
		if set {
			*b.dst = value
		}
	}
	return nil
}

// getEnvBool parses a boolean environment variable. set is false when the variable is empty.
func (l *Loader) getEnvBool(envVar string) (set bool, value bool, err error) {
	v := strings.ToLower(strings.TrimSpace(l.Getenv(envVar)))
	switch v {
	case "":
		return false, false, nil
	case "true", "1":
		return true, true, nil
	case "false", "0":
		return true, false, nil
	default:
		return false, false, fmt.Errorf(
			"invalid value for %s environment variable: '%s', valid values are 'true' or 'false'",
			envVar, v,
		)
	}
}

// getEnvOrFile returns the value of the given environment variable.
// If the environment variable is not set, it checks for a corresponding
// _FILE environment variable and reads the value from the file if it exists.
// If both are set, the value of the original environment variable takes precedence.
func (l *Loader) getEnvOrFile(envVar string) (string, error) {
	if val := l.Getenv(envVar); val != "" {
		return val, nil
	}

	fileEnvVar := envVar + "_FILE"
	filePath := l.Getenv(fileEnvVar)
	if filePath != "" {
		data, err := afero.ReadFile(l.Fs, filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", fileEnvVar, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return "", nil
}

func (o *Overrides) apply(c *Config) {
	if o.ServerName != nil {
		c.ServerName = *o.ServerName
	}
	if o.BasePath != nil {
		c.BasePath = *o.BasePath
	}
	if o.APIKey != nil {
		c.APIKey = *o.APIKey
	}
	if o.ToolPrefix != nil {
		c.ToolPrefix = *o.ToolPrefix
	}
	if o.DynamicEndpoints != nil {
		c.DynamicEndpoints = *o.DynamicEndpoints
	}
	if o.DisabledTools != nil {
		c.DisabledTools = splitList(*o.DisabledTools)
	}
	if o.SkipInvalidEndpoints != nil {
		c.SkipInvalidEndpoints = *o.SkipInvalidEndpoints
	}
	if o.Port != nil {
		c.Port = *o.Port
	}
	if o.TestMode != nil {
		c.TestMode = *o.TestMode
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.JournalDSN != nil {
		c.JournalDSN = *o.JournalDSN
	}
	if o.Telemetry != nil {
		c.Telemetry = *o.Telemetry
	}
}

// Validate checks the configuration. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ServerName) == "" {
		errs = append(errs, errors.New("server name must not be empty"))
	}
	if !c.TestMode {
		if c.BasePath == "" {
			errs = append(errs, fmt.Errorf("the engine base path is required, set %s or --base-path", BasePathEnvVar))
		}
		if c.APIKey == "" {
			errs = append(errs, fmt.Errorf("the engine API key is required, set %s or --api-key", APIKeyEnvVar))
		}
	}
	if c.Port != "" {
		p, err := strconv.Atoi(c.Port)
		if err != nil || p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("invalid port: '%s', must be an integer between 1 and 65535", c.Port))
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: '%s', valid values are debug, info, warn and error", c.LogLevel))
	}
	return errors.Join(errs...)
}

// UsesHTTP reports whether the server should serve the HTTP transport instead of stdio.
func (c *Config) UsesHTTP() bool {
	return c.Port != ""
}

// splitList splits a comma-separated list, dropping blanks and surrounding spaces.
func splitList(s string) []string {
	return normalizeList(strings.Split(s, ","))
}

func normalizeList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
