package version

import (
	"strings"
	"testing"
)

func TestGetVersionOverride(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	if got := GetVersion(); got != "v1.2.3" {
		t.Errorf("GetVersion() = %q, want %q", got, "v1.2.3")
	}
	if got := UserAgent(); got != "neurelo-connect-mcp/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestUserAgentPrefix(t *testing.T) {
	if !strings.HasPrefix(UserAgent(), "neurelo-connect-mcp/") {
		t.Errorf("unexpected user agent %q", UserAgent())
	}
}
