// Package buildinfo resolves the version of the qualitychecker binary,
// from -ldflags when the release pipeline injected them and from the
// module's VCS settings otherwise.
package buildinfo

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Info holds the resolved build metadata.
type Info struct {
	Version  string // version (e.g. "v1.2.3"), or "dev"
	Commit   string // full git commit hash, or "unknown"
	Date     string // build date in RFC3339, or "unknown"
	Modified bool   // true if the working tree had uncommitted changes
	GoVer    string // Go version used for the build
}

var (
	// These are populated by Set() from main packages using ldflags.
	ldflagsVersion string
	ldflagsCommit  string
	ldflagsDate    string

	once   sync.Once
	cached Info
)

// Set stores the values injected into main with -ldflags, e.g.
//
//	go build -ldflags "-X main.version=v1.2.3 -X main.commit=$(git rev-parse HEAD)" ./cmd/qualitychecker
func Set(version, commit, date string) {
	ldflagsVersion = version
	ldflagsCommit = commit
	ldflagsDate = date
}

// Get returns the resolved build info, computed once.
func Get() Info {
	once.Do(func() {
		cached = resolve()
	})
	return cached
}

func resolve() Info {
	bi, _ := debug.ReadBuildInfo()
	return fromBuildInfo(bi)
}

// fromBuildInfo reads the VCS settings embedded in bi, which may be nil,
// and applies the ldflags on top.
func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{
		Version: "dev",
		Commit:  "unknown",
		Date:    "unknown",
	}
	if bi != nil {
		info.GoVer = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.time":
				info.Date = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}

	// ldflags win over VCS settings.
	if ldflagsVersion != "" {
		info.Version = ldflagsVersion
	}
	if ldflagsCommit != "" {
		info.Commit = ldflagsCommit
	}
	if ldflagsDate != "" {
		info.Date = ldflagsDate
	}
	return info
}

// ShortCommit is the first 12 characters of the commit, suffixed with
// "-dirty" for a modified tree.
func (i Info) ShortCommit() string {
	commit := i.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if i.Modified {
		commit += "-dirty"
	}
	return commit
}

// String renders the info on one line, e.g.
// "qualitychecker v1.2.3 (abc123, 2026-02-25T00:00:00Z, go1.26.1)".
func (i Info) String() string {
	return fmt.Sprintf("qualitychecker %s (%s, %s, %s)", i.Version, i.ShortCommit(), i.Date, i.GoVer)
}

// LogValue groups the info under one slog attribute so the audit log
// records which binary produced a report.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("version", i.Version),
		slog.String("commit", i.ShortCommit()),
		slog.String("go", i.GoVer),
	)
}

// Labels are the labels of the build_info gauge.
func (i Info) Labels() map[string]string {
	return map[string]string{
		"version":    i.Version,
		"commit":     i.ShortCommit(),
		"go_version": i.GoVer,
	}
}
