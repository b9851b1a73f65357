package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser handles parsing and matching .gitignore files
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
}

// NewGitignoreParser creates a new gitignore parser
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{
		patterns: make([]GitignorePattern, 0),
	}
}

// LoadGitignore loads patterns from a .gitignore file
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		// .gitignore file doesn't exist, which is fine
		return nil
	}
	defer file.Close()

	return gp.Parse(file)
}

// Parse reads patterns line by line, skipping blanks and comments
func (gp *GitignoreParser) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.AddPattern(line)
	}
	return scanner.Err()
}

// AddPattern adds a single pattern to the parser
func (gp *GitignoreParser) AddPattern(line string) {
	var p GitignorePattern
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line
	gp.patterns = append(gp.patterns, p)
}

// Patterns returns the parsed patterns in file order
func (gp *GitignoreParser) Patterns() []GitignorePattern { return gp.patterns }

// ShouldIgnore checks if a slash-separated path relative to the root is
// ignored. The last matching pattern wins, so negations re-include.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	ignored := false
	for _, p := range gp.patterns {
		if p.matches(path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (p GitignorePattern) matches(path string, isDir bool) bool {
	glob := p.Pattern
	// A pattern without a slash matches at any depth
	if !p.Absolute && !strings.Contains(glob, "/") {
		glob = "**/" + glob
	}

	if !p.Directory || isDir {
		if ok, _ := doublestar.Match(glob, path); ok {
			return true
		}
	}
	// Anything below a matched directory is ignored too
	ok, _ := doublestar.Match(glob+"/**/*", path)
	return ok
}

// GetExclusionPatterns converts the non-negated patterns to doublestar
// exclusion globs relative to the root
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, p := range gp.patterns {
		if p.Negate {
			continue
		}
		glob := p.Pattern
		if !p.Absolute {
			glob = "**/" + glob
		}
		if p.Directory {
			glob += "/**"
		}
		exclusions = append(exclusions, glob)
	}
	return exclusions
}
