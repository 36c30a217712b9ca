// Package version reports which katfod build is running.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version and Commit are stamped by the release build:
//
//	go build -ldflags="-X github.com/gingus/katfod/internal/version.Version=v0.3.0 \
//	                   -X github.com/gingus/katfod/internal/version.Commit=1a2b3c4"
//
// Local builds fall back to the VCS stamp the Go toolchain embeds, and
// finally to a dated "dev" version.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whatever ldflags left empty from the embedded VCS
// settings.
func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	vcs := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}

	if rev := vcs["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if vcs["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	// Tags are not part of build info, so a dev build is named after its
	// commit date.
	if Version == "" {
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the version with its commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is sent with every feeder request so firmware logs can tell
// app builds apart.
func UserAgent() string {
	return "katfod/" + Version
}
