// Package version reports which nescore build is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X nescore/internal/version.Version=..."; left alone
// they fall back to the VCS stamp the go tool embeds.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// BuildInfo identifies a build in session logs.
type BuildInfo struct {
	Version  string
	Commit   string
	Modified bool
	Go       string
}

// GetBuildInfo combines the ldflags values with the embedded VCS settings.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version, Commit: GitCommit, Go: runtime.Version()}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "unknown" {
					info.Commit = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	return info
}

// String formats the build as "nescore <version> (<commit>[+dirty]) <go>".
func (b BuildInfo) String() string {
	commit := b.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if b.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("nescore %s (%s) %s", b.Version, commit, b.Go)
}
