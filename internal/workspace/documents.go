package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/tagsense/internal/debug"
	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/xmltree"
	"github.com/standardbeagle/tagsense/pkg/pathutil"
)

type cachedDoc struct {
	hash uint64 // xxhash of the source text
	doc  *xmltree.Document
}

// Open parses the file at path, reusing the cached document when the file
// content is unchanged
func (w *Workspace) Open(ctx context.Context, path string) (*xmltree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = w.absPath(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, tagerrors.NewFileError("stat", path, err)
	}
	if limit := w.cfg.Schemas.MaxFileSize; limit > 0 && info.Size() > limit {
		return nil, tagerrors.NewFileTooLargeError(path, info.Size(), limit)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tagerrors.NewFileError("read", path, err)
	}
	return w.OpenSource(path, string(data)), nil
}

// OpenSource parses src as the content of path and caches the result. Callers
// holding unsaved editor content use it in place of Open.
func (w *Workspace) OpenSource(path, src string) *xmltree.Document {
	path = w.absPath(path)
	hash := xxhash.Sum64String(src)

	w.mu.RLock()
	cached, ok := w.docs[path]
	w.mu.RUnlock()
	if ok && cached.hash == hash {
		return cached.doc
	}

	doc := w.parse(path, src)

	w.mu.Lock()
	w.docs[path] = &cachedDoc{hash: hash, doc: doc}
	n := len(w.docs)
	w.mu.Unlock()

	w.metrics.SetDocuments(n)
	debug.Log("WORKSPACE", "parsed %s (%d bytes, %d diagnostics)\n", path, len(src), len(doc.Diagnostics()))
	return doc
}

// Close drops the cached document of path
func (w *Workspace) Close(path string) {
	w.mu.Lock()
	delete(w.docs, w.absPath(path))
	n := len(w.docs)
	w.mu.Unlock()
	w.metrics.SetDocuments(n)
}

// Documents returns the paths of the cached documents
func (w *Workspace) Documents() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.docs))
	for p := range w.docs {
		out = append(out, p)
	}
	return out
}

// Document returns the cached document of path, opening it from disk when
// it is not cached
func (w *Workspace) Document(ctx context.Context, path string) (*xmltree.Document, error) {
	w.mu.RLock()
	cached, ok := w.docs[w.absPath(path)]
	w.mu.RUnlock()
	if ok {
		return cached.doc, nil
	}
	return w.Open(ctx, path)
}

// parse builds an uncached document wired to the schema registry
func (w *Workspace) parse(path, src string) *xmltree.Document {
	doc := xmltree.Parse(path, src)
	doc.SetDescriptorResolver(w.registry)
	return doc
}

func (w *Workspace) absPath(path string) string {
	return pathutil.ToAbsolute(filepath.FromSlash(path), w.cfg.Project.Root)
}
