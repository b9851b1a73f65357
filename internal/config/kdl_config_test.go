package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/tagsense/internal/types"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"**/*.xsd"}, cfg.Schemas.Include)
	assert.Contains(t, cfg.Schemas.Exclude, "**/.git/**")
	assert.Equal(t, int64(types.DefaultMaxFileSize), cfg.Schemas.MaxFileSize)
	assert.True(t, cfg.Completion.Fuzzy)
	assert.Equal(t, 0.7, cfg.Completion.FuzzyThreshold)
	assert.True(t, cfg.Completion.StripFileSuffix)
	assert.False(t, cfg.Completion.StrictLookup)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 300, cfg.Watch.DebounceMs)
}

func TestParseKDL_AllSections(t *testing.T) {
	kdlContent := `
version 1
project {
    root "src"
    name "demo"
}
schemas {
    include "schemas/**/*.xsd" "extra/*.xsd"
    exclude "**/old/**"
    catalog "catalog.yaml"
    tagdir "tags"
    tagdir "widgets"
    max_file_size "2MB"
    max_files 50
    respect_gitignore false
}
completion {
    fuzzy false
    fuzzy_threshold 0.85
    max_results 25
    strict_lookup true
    strip_file_suffix false
    closing_tag_prefix true
}
watch {
    enabled false
    debounce_ms 150
}
server {
    metrics_addr ":9464"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "src", cfg.Project.Root)
	assert.Equal(t, "demo", cfg.Project.Name)

	assert.Equal(t, []string{"schemas/**/*.xsd", "extra/*.xsd"}, cfg.Schemas.Include)
	assert.Equal(t, []string{"**/old/**"}, cfg.Schemas.Exclude, "exclude replaces the defaults")
	assert.Equal(t, "catalog.yaml", cfg.Schemas.Catalog)
	assert.Equal(t, []string{"tags", "widgets"}, cfg.Schemas.TagDirs)
	assert.Equal(t, int64(2*1024*1024), cfg.Schemas.MaxFileSize)
	assert.Equal(t, 50, cfg.Schemas.MaxFiles)
	assert.False(t, cfg.Schemas.RespectGitignore)

	assert.False(t, cfg.Completion.Fuzzy)
	assert.Equal(t, 0.85, cfg.Completion.FuzzyThreshold)
	assert.Equal(t, 25, cfg.Completion.MaxResults)
	assert.True(t, cfg.Completion.StrictLookup)
	assert.False(t, cfg.Completion.StripFileSuffix)
	assert.True(t, cfg.Completion.ClosingTagPrefix)

	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 150, cfg.Watch.DebounceMs)
	assert.Equal(t, ":9464", cfg.Server.MetricsAddr)
}

func TestParseKDL_IncludeBlock(t *testing.T) {
	kdlContent := `
schemas {
    include {
        "a/*.xsd"
        "b/**/*.xsd"
    }
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/*.xsd", "b/**/*.xsd"}, cfg.Schemas.Include)
}

func TestParseKDL_Invalid(t *testing.T) {
	_, err := parseKDL(`schemas { include "unterminated }`)
	assert.Error(t, err)
}

func TestLoadKDL(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg, "missing file yields no config")

	content := "project {\n    root \"sub\"\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte(content), 0o644))

	cfg, err = LoadKDL(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.Join(abs, "sub"), cfg.Project.Root)
	assert.Equal(t, "sub", cfg.Project.Name)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10", 10, false},
		{"512B", 512, false},
		{"4kb", 4096, false},
		{"2MB", 2 * 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
