// Package version identifies the running tagsense binary.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Version is the release of the tagsense binary and MCP server
const Version = "0.2.0"

// Stamped by release builds:
//
//	go build -ldflags "-X github.com/standardbeagle/tagsense/internal/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	GitCommit = ""
	BuildDate = ""
)

type buildInfo struct {
	commit   string
	date     string
	modified bool
	id       string
}

var (
	once    sync.Once
	current buildInfo
)

func load() buildInfo {
	once.Do(func() { current = readBuildInfo(debug.ReadBuildInfo()) })
	return current
}

// readBuildInfo prefers ldflags stamps and falls back to the VCS settings
// the go command embeds
func readBuildInfo(info *debug.BuildInfo, ok bool) buildInfo {
	b := buildInfo{commit: GitCommit, date: BuildDate}
	h := xxhash.New()
	h.WriteString(Version)
	if ok {
		h.WriteString(info.GoVersion)
		h.WriteString(info.Main.Path)
		h.WriteString(info.Main.Version)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.commit == "" {
					b.commit = s.Value
				}
			case "vcs.time":
				if b.date == "" {
					b.date = s.Value
				}
			case "vcs.modified":
				b.modified = s.Value == "true"
			default:
				continue
			}
			h.WriteString(s.Key + "=" + s.Value)
		}
	}
	h.WriteString(b.commit)
	if b.commit == "" {
		b.commit = "unknown"
	}
	if b.date == "" {
		b.date = "development"
	}
	b.id = fmt.Sprintf("%016x", h.Sum64())
	return b
}

// FullInfo describes the build, e.g. "tagsense 0.2.0 (commit: 1a2b3c, built: development)"
func FullInfo() string {
	b := load()
	commit := b.commit
	if b.modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("tagsense %s (commit: %s, built: %s)", Version, commit, b.date)
}

// BuildID fingerprints the binary so MCP clients notice a restart onto a new build
func BuildID() string { return load().id }
