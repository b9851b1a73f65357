package workspace

import (
	"context"
	"strings"

	"github.com/standardbeagle/tagsense/internal/completion"
	"github.com/standardbeagle/tagsense/internal/debug"
	"github.com/standardbeagle/tagsense/internal/extension"
	"github.com/standardbeagle/tagsense/internal/types"
)

// DummyIdentifier is inserted at the caret before completing so that a
// bare "<" or "</" still yields a tag name token
const DummyIdentifier = "tagsenseDummyIdent"

// CompletionResult lists the tag name variants at an offset
type CompletionResult struct {
	Variants []completion.Variant `json:"variants"`
	Typed    string               `json:"typed"`   // Local name text before the caret
	Replace  types.TextRange      `json:"replace"` // Range a chosen variant replaces
	EndTag   bool                 `json:"end_tag"`
}

// Complete returns the tag name variants for the caret at offset. An empty
// typed is taken from the tag name before the caret. Start tag variants are
// ranked against typed; end tag variants are returned as is.
func (w *Workspace) Complete(ctx context.Context, path string, offset int, typed string) (result *CompletionResult, err error) {
	done := w.metrics.Track("complete")
	defer func() { done(result != nil && len(result.Variants) > 0, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	src := doc.Text()
	if offset < 0 || offset > len(src) {
		return nil, errOffset(offset, len(src))
	}

	patched := w.parse(doc.File().Path, src[:offset]+DummyIdentifier+src[offset:])
	ref := extension.ReferenceAt(w.extensions, patched, offset)
	if ref == nil {
		debug.LogComplete("no tag name at %s:%d\n", path, offset)
		return &CompletionResult{}, nil
	}

	// Map the name range back to the unpatched text
	r := ref.AbsoluteRange()
	replace := r.Shift(-len(DummyIdentifier))
	if offset >= r.Start {
		replace = types.NewTextRange(r.Start, r.End-len(DummyIdentifier))
	}
	if typed == "" && offset >= r.Start {
		typed = patched.Text()[r.Start:offset]
	}
	typed = localPart(typed)

	variants := ref.Variants()
	if ref.IsStartTag() {
		variants = w.fuzzy.Rank(variants, typed, w.cfg.Completion.MaxResults)
	} else if limit := w.cfg.Completion.MaxResults; limit > 0 && len(variants) > limit {
		variants = variants[:limit]
	}

	debug.LogComplete("%s:%d typed=%q -> %d variants\n", path, offset, typed, len(variants))
	return &CompletionResult{
		Variants: variants,
		Typed:    typed,
		Replace:  replace,
		EndTag:   !ref.IsStartTag(),
	}, nil
}

func localPart(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
