package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/standardbeagle/tagsense/internal/config"
	"github.com/standardbeagle/tagsense/internal/debug"
	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/schema"
)

// SchemaStatus summarizes the loaded schema set
type SchemaStatus struct {
	Files      []string `json:"files"`
	Namespaces []string `json:"namespaces"`
	TagDirs    []string `json:"tag_dirs"`
	Truncated  bool     `json:"truncated"`       // MaxFiles cut the file list
	Problems   []string `json:"problems,omitempty"`
}

// LoadSchemas discovers and loads the configured schema files, catalog and
// tag directories. Broken schema files are reported in the returned
// MultiError while the rest of the set stays usable; the status is always
// returned.
func (w *Workspace) LoadSchemas(ctx context.Context) (*SchemaStatus, error) {
	return w.loadSchemas(ctx, "manual")
}

// ReloadSchemas is LoadSchemas for callers reacting to file changes
func (w *Workspace) ReloadSchemas(ctx context.Context) (*SchemaStatus, error) {
	return w.loadSchemas(ctx, "watch")
}

func (w *Workspace) loadSchemas(ctx context.Context, trigger string) (status *SchemaStatus, err error) {
	w.schemaMu.Lock()
	defer w.schemaMu.Unlock()

	done := w.metrics.Track("load_schemas")
	defer func() {
		done(status != nil && len(status.Files) > 0, err)
		w.metrics.RecordReload(trigger, err)
	}()

	files, truncated, err := config.SchemaFiles(w.cfg)
	if err != nil {
		return nil, fmt.Errorf("discovering schemas: %w", err)
	}
	if truncated {
		log.Printf("Warning: schema file limit %d reached, remaining files skipped", w.cfg.Schemas.MaxFiles)
	}

	var problems []error
	if path := config.CatalogPath(w.cfg); path != "" {
		catalog, err := schema.LoadCatalog(path)
		if err != nil {
			problems = append(problems, err)
		} else {
			w.xsd.SetCatalog(catalog)
			files = appendMissing(files, catalog.Locations())
		}
	}

	if err := w.xsd.Load(ctx, files); err != nil {
		var multi *tagerrors.MultiError
		if !errors.As(err, &multi) {
			return nil, err
		}
		problems = append(problems, multi.Errors...)
	}

	w.tagDirs.Reset()
	for _, dir := range config.TagDirs(w.cfg) {
		if _, err := w.tagDirs.AddDir(dir); err != nil {
			problems = append(problems, tagerrors.NewFileError("scan", dir, err))
		}
	}

	w.schemaFiles = w.xsd.Files()
	w.metrics.SetSchemaFiles(len(w.schemaFiles))
	debug.LogSchema("loaded %d schema files, %d tag dirs, %d problems\n",
		len(w.schemaFiles), len(w.tagDirs.Roots()), len(problems))

	status = w.statusLocked(truncated, problems)
	return status, tagerrors.NewMultiError(problems).ErrorOrNil()
}

func appendMissing(files, extra []string) []string {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f] = true
	}
	for _, f := range extra {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// Status describes the schema set loaded last
func (w *Workspace) Status() *SchemaStatus {
	w.schemaMu.Lock()
	defer w.schemaMu.Unlock()
	return w.statusLocked(false, nil)
}

func (w *Workspace) statusLocked(truncated bool, problems []error) *SchemaStatus {
	s := &SchemaStatus{
		Files:      append([]string(nil), w.schemaFiles...),
		Namespaces: w.registry.AvailableNamespaces(nil, ""),
		TagDirs:    w.tagDirs.Roots(),
		Truncated:  truncated,
	}
	for _, p := range problems {
		s.Problems = append(s.Problems, p.Error())
	}
	return s
}
