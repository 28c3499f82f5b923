package tools

import (
	"testing"
)

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty means no prefix", "", false},
		{"valid prefix", "crm", false},
		{"valid underscore", "crm_prod", false},
		{"valid hyphen", "crm-prod", false},
		{"trailing underscore", "crm_", true},
		{"only underscore", "_", true},
		{"invalid slash", "crm/prod", true},
		{"invalid space", "crm prod", true},
		{"invalid special char", "crm$", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrefix(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrefix(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestEndpointToolName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"test", "query_test"},
		{"create_user", "query_create_user"},
		{"/users/by-id/", "query_users_by-id"},
		{"a.b", "query_a_b"},
		{"find users", "query_find_users"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := EndpointToolName(tt.path); got != tt.want {
				t.Errorf("EndpointToolName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestWithPrefix(t *testing.T) {
	if got := withPrefix("", "query_test"); got != "query_test" {
		t.Errorf("Expected no prefix, got %q", got)
	}
	if got := withPrefix("crm", "query_test"); got != "crm_query_test" {
		t.Errorf("Expected crm_query_test, got %q", got)
	}
}

func TestDisabledSet(t *testing.T) {
	d := newDisabledSet([]string{" raw_query ", "test"})
	if !d.has("raw_query") {
		t.Error("Expected raw_query to be disabled")
	}
	if !d.has("query_test", "test") {
		t.Error("Expected a match on any of the names")
	}
	if d.has("system_get_status") {
		t.Error("Expected system_get_status to be enabled")
	}
}
