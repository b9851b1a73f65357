package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/workspace"
	"github.com/urfave/cli/v2"
)

// openAt reads FILE from disk and parses the POSITION argument after it.
// A position is a byte offset ("120") or a 1-based line and column ("4:12").
func openAt(c *cli.Context, ws *workspace.Workspace, usage string) (string, int, error) {
	if c.NArg() < 2 {
		return "", 0, fmt.Errorf("usage: tagsense %s", usage)
	}
	file := c.Args().Get(0)
	doc, err := ws.Open(context.Background(), file)
	if err != nil {
		return "", 0, err
	}
	text := doc.Text()
	offset, err := parsePosition(c.Args().Get(1), text)
	if err != nil {
		return "", 0, err
	}
	return file, offset, nil
}

func parsePosition(pos, text string) (int, error) {
	line, col, hasCol := strings.Cut(pos, ":")
	if !hasCol {
		offset, err := strconv.Atoi(pos)
		if err != nil {
			return 0, fmt.Errorf("invalid position %q: want OFFSET or LINE:COLUMN", pos)
		}
		return offset, nil
	}

	l, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("invalid line in position %q", pos)
	}
	cn, err := strconv.Atoi(col)
	if err != nil {
		return 0, fmt.Errorf("invalid column in position %q", pos)
	}
	offset, ok := types.OffsetAt(types.LineOffsets(text), len(text), types.LineColumn{Line: l, Column: cn})
	if !ok {
		return 0, fmt.Errorf("position %s is outside the document", pos)
	}
	return offset, nil
}
