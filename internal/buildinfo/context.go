// Package buildinfo holds build-time metadata injected with -ldflags
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not set at build time
const UnknownValue = "unknown"

// Context contains build-time metadata that is not user-configurable
type Context struct {
	version   string
	buildDate string
	commit    string
}

// NewContext creates a Context. An empty commit is filled from the VCS
// stamp embedded by the Go toolchain when available.
func NewContext(version, buildDate, commit string) *Context {
	if commit == "" {
		commit = vcsRevision()
	}
	return &Context{version: version, buildDate: buildDate, commit: commit}
}

// Version returns the release version
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the time the binary was built
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Commit returns the source revision, shortened to 12 characters
func (c *Context) Commit() string {
	if c == nil || c.commit == "" {
		return UnknownValue
	}
	if len(c.commit) > 12 {
		return c.commit[:12]
	}
	return c.commit
}

// VersionOr returns the version, or fallback when none was set
func (c *Context) VersionOr(fallback string) string {
	if v := c.Version(); v != UnknownValue {
		return v
	}
	return fallback
}

// String formats the metadata for the version command
func (c *Context) String() string {
	return fmt.Sprintf("voicedetect %s (commit %s, built %s)", c.Version(), c.Commit(), c.BuildDate())
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
