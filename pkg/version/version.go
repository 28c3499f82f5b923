// Package version exposes the build version of the binary.
package version

import "runtime/debug"

// Version is overridden at build time with
// -ldflags "-X github.com/neurelo-connect/neurelo-connect-mcp/pkg/version.Version=v1.2.3"
var Version = "dev"

// GetVersion returns the version set at build time, falling back to the module version
// recorded by the go toolchain when the binary was installed with go install.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// UserAgent is the value of the User-Agent header sent to the engine.
func UserAgent() string {
	return "neurelo-connect-mcp/" + GetVersion()
}
