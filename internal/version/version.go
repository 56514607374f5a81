// Package version resolves the dexd build version from linker flags or,
// failing that, from the module build info embedded by the Go toolchain.
package version

import (
	"runtime/debug"
	"strings"
)

const defaultModule = "github.com/trainerhq/dexd"

// buildVersion is set via -ldflags "-X github.com/trainerhq/dexd/internal/version.buildVersion=...".
var buildVersion = ""

// Current returns the best available version string.
func Current() string {
	if strings.TrimSpace(buildVersion) != "" {
		return buildVersion
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
	}
	return "v0.0.0-dev"
}

// Module returns the module path from build info when available.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}
