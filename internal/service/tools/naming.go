package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// endpointToolPrefix is prepended to the path of an endpoint to form its tool name.
const endpointToolPrefix = "query_"

// Only allow letters, numbers, hyphens, and underscores
var validToolPrefix = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var invalidToolNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ValidatePrefix checks that a tool prefix only contains characters allowed in tool names.
// An empty prefix is valid and means no prefix.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if !validToolPrefix.MatchString(prefix) {
		return fmt.Errorf("invalid tool prefix: '%s' must follow the regular expression %s", prefix, validToolPrefix)
	}
	if strings.HasSuffix(prefix, "_") {
		// the prefix is joined with an underscore already, avoid `abc__query_x`
		return fmt.Errorf("invalid tool prefix: '%s' must not end with an underscore", prefix)
	}
	return nil
}

// EndpointToolName returns the unprefixed tool name of an endpoint, eg- "query_get_users".
// Characters that are not allowed in tool names are replaced by underscores.
func EndpointToolName(path string) string {
	return endpointToolPrefix + invalidToolNameChars.ReplaceAllString(strings.Trim(path, "/"), "_")
}

// withPrefix namespaces a tool name with the configured prefix.
func withPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// disabledSet is the set of names suppressed at registration.
type disabledSet map[string]struct{}

func newDisabledSet(names []string) disabledSet {
	d := make(disabledSet, len(names))
	for _, n := range names {
		d[strings.TrimSpace(n)] = struct{}{}
	}
	return d
}

// has reports whether any of the given names is disabled.
func (d disabledSet) has(names ...string) bool {
	for _, n := range names {
		if _, ok := d[n]; ok {
			return true
		}
	}
	return false
}
