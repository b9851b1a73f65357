package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	assert.True(t, strings.HasPrefix(FullInfo(), "tagsense "+Version+" (commit: "))

	id := BuildID()
	assert.Len(t, id, 16)
	assert.Equal(t, id, BuildID())
}

func TestReadBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		GoVersion: "go1.24.0",
		Main:      debug.Module{Path: "github.com/standardbeagle/tagsense", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "linux"},
		},
	}

	b := readBuildInfo(info, true)
	assert.Equal(t, "abc123", b.commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", b.date)
	assert.True(t, b.modified)

	other := *info
	other.Settings = append([]debug.BuildSetting{{Key: "vcs.revision", Value: "def456"}}, info.Settings[1:]...)
	assert.NotEqual(t, b.id, readBuildInfo(&other, true).id, "a new revision changes the id")

	bare := readBuildInfo(nil, false)
	assert.Equal(t, "unknown", bare.commit)
	assert.Equal(t, "development", bare.date)
	assert.Len(t, bare.id, 16)
}

func TestReadBuildInfo_Stamped(t *testing.T) {
	prevCommit, prevDate := GitCommit, BuildDate
	t.Cleanup(func() { GitCommit, BuildDate = prevCommit, prevDate })
	GitCommit, BuildDate = "release1", "2026-10-01"

	b := readBuildInfo(&debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}}}, true)
	assert.Equal(t, "release1", b.commit, "ldflags win over VCS settings")
	assert.Equal(t, "2026-10-01", b.date)
}
