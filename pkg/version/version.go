// Package version reports build and version information for photosync.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is overridden via ldflags at release time. Commit and Date may
// be set the same way; when they are not, Get falls back to the VCS
// metadata the Go toolchain stamps into the binary.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is structured version information for JSON output.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get resolves the build information for the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if info.Commit == "" || info.Date == "" {
		rev, at := vcsStamp()
		if info.Commit == "" {
			info.Commit = rev
		}
		if info.Date == "" {
			info.Date = at
		}
	}
	return info
}

// String formats the full build information on one line.
func (i Info) String() string {
	return fmt.Sprintf("photosync %s (commit: %s, built: %s, go: %s)",
		i.Version, i.Commit, i.Date, i.GoVersion)
}

// vcsStamp reads the commit hash and time recorded by the toolchain.
// Both default to "unknown" for binaries built outside a checkout.
func vcsStamp() (rev, at string) {
	rev, at = "unknown", "unknown"
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return rev, at
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 12 {
				rev = s.Value[:12]
			} else if s.Value != "" {
				rev = s.Value
			}
		case "vcs.time":
			if s.Value != "" {
				at = s.Value
			}
		}
	}
	return rev, at
}
