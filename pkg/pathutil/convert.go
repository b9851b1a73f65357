// Package pathutil provides utilities for converting between absolute and relative paths.
//
// Documents and schema files are keyed by absolute path inside the workspace.
// User-facing output uses paths relative to the project root; this package
// converts between the two.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/schemas/a.xsd", "/home/user/project") → "schemas/a.xsd"
//   - ToRelative("/other/location/b.xsd", "/home/user/project") → "/other/location/b.xsd" (outside root)
//   - ToRelative("page.xml", "/home/user/project") → "page.xml" (already relative)
func ToRelative(absPath, rootDir string) string {
	// Handle empty inputs
	if absPath == "" || rootDir == "" {
		return absPath
	}

	// If path is already relative, return as-is
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	// Clean both paths to normalize separators and remove redundant elements
	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	// Try to make relative
	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// If the relative path starts with ".." it means the file is outside the root
	// In this case, return the absolute path as it's clearer
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToAbsolute resolves a possibly relative path against rootDir.
// Absolute paths and empty inputs are returned cleaned but otherwise unchanged.
//
// Examples:
//   - ToAbsolute("schemas/a.xsd", "/home/user/project") → "/home/user/project/schemas/a.xsd"
//   - ToAbsolute("/abs/a.xsd", "/home/user/project") → "/abs/a.xsd"
func ToAbsolute(path, rootDir string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) || rootDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(rootDir, path)
}

// ToRelativeAll converts every path in paths, returning a new slice.
//
// Used at output boundaries listing schema files:
//   - CLI info output
//   - MCP info tool
func ToRelativeAll(paths []string, rootDir string) []string {
	if len(paths) == 0 {
		return paths
	}
	converted := make([]string, len(paths))
	for i, p := range paths {
		converted[i] = ToRelative(p, rootDir)
	}
	return converted
}
