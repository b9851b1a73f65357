package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/standardbeagle/tagsense/internal/display"
	"github.com/standardbeagle/tagsense/internal/workspace"
	"github.com/standardbeagle/tagsense/pkg/pathutil"
	"github.com/urfave/cli/v2"
)

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func completeCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "complete FILE POSITION")
	if err != nil {
		return err
	}

	result, err := ws.Complete(context.Background(), file, offset, c.String("typed"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, result)
	}
	if len(result.Variants) == 0 {
		fmt.Fprintln(c.App.Writer, "No completions")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 2, 2, ' ', 0)
	for _, v := range result.Variants {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Text, v.TypeText, v.Tail)
	}
	return tw.Flush()
}

func resolveCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "resolve FILE POSITION")
	if err != nil {
		return err
	}

	loc, err := ws.Resolve(context.Background(), file, offset)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, map[string]interface{}{"resolved": loc != nil, "location": loc})
	}
	if loc == nil {
		fmt.Fprintln(c.App.Writer, "Unresolved")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%s:%d:%d %s (%s)\n",
		pathutil.ToRelative(loc.Path, ws.Config().Project.Root), loc.Position.Line, loc.Position.Column, loc.Description, loc.Kind)
	return nil
}

func renameCommand(c *cli.Context) error {
	if c.NArg() < 3 {
		return errors.New("usage: tagsense rename FILE POSITION NEW_NAME")
	}
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "rename FILE POSITION NEW_NAME")
	if err != nil {
		return err
	}

	edit, err := ws.Rename(context.Background(), file, offset, c.Args().Get(2))
	if err != nil {
		return err
	}
	return applyEdit(c, edit)
}

func bindCommand(c *cli.Context) error {
	if c.NArg() < 3 {
		return errors.New("usage: tagsense bind FILE POSITION TARGET [--element NAME]")
	}
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "bind FILE POSITION TARGET")
	if err != nil {
		return err
	}

	edit, err := ws.Bind(context.Background(), file, offset, c.Args().Get(2), c.String("element"))
	if err != nil {
		return err
	}
	return applyEdit(c, edit)
}

// applyEdit writes the edited text back with --write, else prints it
func applyEdit(c *cli.Context, edit *workspace.Edit) error {
	written := false
	if c.Bool("write") && edit.Changed {
		if err := os.WriteFile(edit.Path, []byte(edit.Text), 0o644); err != nil {
			return err
		}
		written = true
	}

	if c.Bool("json") {
		return printJSON(c, map[string]interface{}{"edit": edit, "written": written})
	}
	switch {
	case !edit.Changed:
		fmt.Fprintf(c.App.ErrWriter, "%s already named %s\n", edit.Path, edit.NewName)
	case written:
		fmt.Fprintf(c.App.ErrWriter, "%s: %s -> %s\n", edit.Path, edit.OldName, edit.NewName)
	default:
		fmt.Fprint(c.App.Writer, edit.Text)
	}
	return nil
}

func tagsCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "tags FILE POSITION")
	if err != nil {
		return err
	}

	tags, err := ws.AvailableTags(context.Background(), file, offset)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, tags)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 2, 2, ' ', 0)
	for _, tag := range tags {
		fmt.Fprintf(tw, "%s\t%s\n", tag.Name, tag.Namespace)
	}
	return tw.Flush()
}

func namespacesCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "namespaces FILE POSITION")
	if err != nil {
		return err
	}

	namespaces, err := ws.Namespaces(context.Background(), file, offset, c.String("prefix"), c.String("tag"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, namespaces)
	}
	for _, ns := range namespaces {
		if ns == "" {
			ns = "(no namespace)"
		}
		fmt.Fprintln(c.App.Writer, ns)
	}
	return nil
}

func usagesCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "usages FILE POSITION")
	if err != nil {
		return err
	}

	usages, err := ws.Usages(context.Background(), file, offset)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, usages)
	}
	if len(usages) == 0 {
		fmt.Fprintln(c.App.Writer, "Unresolved")
		return nil
	}
	for _, u := range usages {
		fmt.Fprintf(c.App.Writer, "%d:%d %s\n", u.Position.Line, u.Position.Column, u.Description)
	}
	return nil
}

func matchCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file, offset, err := openAt(c, ws, "match FILE POSITION")
	if err != nil {
		return err
	}

	match, err := ws.MatchBrace(context.Background(), file, offset)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, match)
	}
	if match == nil {
		fmt.Fprintln(c.App.Writer, "No partner")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%d %s\n", match.Partner.Start, match.Kind)
	return nil
}

func treeCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tagsense tree FILE")
	}
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file := c.Args().First()
	if _, err := ws.Open(context.Background(), file); err != nil {
		return err
	}

	tree, err := ws.Tree(context.Background(), file)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, tree)
	}

	format := "text"
	if c.Bool("compact") {
		format = "compact"
	}
	formatter := display.NewTreeFormatter(display.FormatterOptions{
		Format:    format,
		ShowLines: c.Bool("show-lines"),
		MaxDepth:  c.Int("max-depth"),
		Indent:    "  ",
	})
	fmt.Fprintln(c.App.Writer, strings.TrimRight(formatter.Format(tree), "\n"))
	return nil
}

func checkCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tagsense check FILE")
	}
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	file := c.Args().First()
	if _, err := ws.Open(context.Background(), file); err != nil {
		return err
	}

	problems, err := ws.Diagnostics(context.Background(), file)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		messages := make([]string, 0, len(problems))
		for _, p := range problems {
			messages = append(messages, p.Error())
		}
		return printJSON(c, map[string]interface{}{"file": file, "problems": messages})
	}
	for _, p := range problems {
		fmt.Fprintf(c.App.Writer, "%s: %v\n", file, p)
	}
	if len(problems) > 0 {
		return cli.Exit(fmt.Sprintf("%d problems", len(problems)), 1)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	status := ws.Status()
	if c.Bool("json") {
		return printJSON(c, status)
	}

	cfg := ws.Config()
	fmt.Fprintf(c.App.Writer, "Project: %s (%s)\n", cfg.Project.Name, cfg.Project.Root)
	fmt.Fprintf(c.App.Writer, "Schema files: %d\n", len(status.Files))
	for _, f := range pathutil.ToRelativeAll(status.Files, cfg.Project.Root) {
		fmt.Fprintf(c.App.Writer, "  %s\n", f)
	}
	fmt.Fprintf(c.App.Writer, "Tag directories: %d\n", len(status.TagDirs))
	for _, d := range pathutil.ToRelativeAll(status.TagDirs, cfg.Project.Root) {
		fmt.Fprintf(c.App.Writer, "  %s\n", d)
	}
	fmt.Fprintf(c.App.Writer, "Namespaces: %d\n", len(status.Namespaces))
	for _, ns := range status.Namespaces {
		fmt.Fprintf(c.App.Writer, "  %s\n", ns)
	}
	return nil
}
