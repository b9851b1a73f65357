package workspace

import (
	"context"
	"fmt"

	"github.com/standardbeagle/tagsense/internal/completion"
	"github.com/standardbeagle/tagsense/internal/display"
	"github.com/standardbeagle/tagsense/internal/extension"
	"github.com/standardbeagle/tagsense/internal/reference"
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// Location is where a tag name resolves to
type Location struct {
	Path        string           `json:"path"`
	Range       types.TextRange  `json:"range"`
	Position    types.LineColumn `json:"position"`
	Description string           `json:"description"`
	Kind        string           `json:"kind"` // "declaration", "file", "self", "prefix" or "usage"
}

// Edit is the outcome of a rename or bind
type Edit struct {
	Path    string `json:"path"`
	Text    string `json:"text"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
	Changed bool   `json:"changed"`
}

// BraceMatch is the partner of a tag delimiter
type BraceMatch struct {
	Offset  int             `json:"offset"`
	Partner types.TextRange `json:"partner"`
	Kind    string          `json:"kind"`
}

func errOffset(offset, size int) error {
	return fmt.Errorf("offset %d outside document of %d bytes", offset, size)
}

func (w *Workspace) referenceAt(doc *xmltree.Document, offset int) (*reference.TagNameReference, error) {
	if n := len(doc.Text()); offset < 0 || offset > n {
		return nil, errOffset(offset, n)
	}
	return extension.ReferenceAt(w.extensions, doc, offset), nil
}

// Resolve returns the declaration the tag name at offset refers to, or nil
// when the name is unresolved
func (w *Workspace) Resolve(ctx context.Context, path string, offset int) (loc *Location, err error) {
	done := w.metrics.Track("resolve")
	defer func() { done(loc != nil, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	ref, err := w.referenceAt(doc, offset)
	if err != nil || ref == nil {
		return nil, err
	}
	if loc := w.prefixAt(doc, ref, offset); loc != nil {
		return loc, nil
	}
	return locate(ref, ref.Resolve()), nil
}

// prefixAt locates the xmlns declaration of the prefix when offset is on the
// prefix part of the tag name
func (w *Workspace) prefixAt(doc *xmltree.Document, ref *reference.TagNameReference, offset int) *Location {
	tag := ref.Tag()
	if tag == nil {
		return nil
	}
	prefix := tag.NamespacePrefix()
	start := ref.NameNode().StartOffset()
	if prefix == "" || offset < start || offset >= start+len(prefix) {
		return nil
	}
	ext := extension.ExtensionFor(w.extensions, doc.File())
	if ext == nil {
		return nil
	}
	decl := ext.PrefixDeclaration(tag, prefix)
	if decl == nil {
		return nil
	}
	r := decl.AbsoluteRange()
	return &Location{
		Path:        doc.File().Path,
		Range:       r,
		Position:    types.LineColumnAt(types.LineOffsets(doc.Text()), r.Start),
		Description: decl.Attribute.Describe(),
		Kind:        "prefix",
	}
}

// Usages lists the start tags of the document at path that resolve to the
// same declaration as the tag name at offset. Nil means the name at offset
// is unresolved.
func (w *Workspace) Usages(ctx context.Context, path string, offset int) (usages []Location, err error) {
	done := w.metrics.Track("usages")
	defer func() { done(len(usages) > 0, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	ref, err := w.referenceAt(doc, offset)
	if err != nil || ref == nil {
		return nil, err
	}
	target := ref.Resolve()
	if target == nil {
		return nil, nil
	}
	ext := extension.ExtensionFor(w.extensions, doc.File())
	lines := types.LineOffsets(doc.Text())
	for _, tag := range doc.AllTags() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := tag.StartNameNode()
		if node == nil {
			continue
		}
		if !ext.CreateTagNameReference(doc, node, true).IsReferenceTo(target) {
			continue
		}
		r := node.TextRange()
		usages = append(usages, Location{
			Path:        doc.File().Path,
			Range:       r,
			Position:    types.LineColumnAt(lines, r.Start),
			Description: tag.Describe(),
			Kind:        "usage",
		})
	}
	return usages, nil
}

func locate(ref *reference.TagNameReference, target xmltree.Target) *Location {
	switch t := target.(type) {
	case *xmltree.Tag:
		kind := "declaration"
		if t == ref.Tag() {
			kind = "self"
		}
		tdoc := t.Document()
		r := t.Range()
		if n := t.StartNameNode(); n != nil {
			r = n.TextRange()
		}
		return &Location{
			Path:        tdoc.File().Path,
			Range:       r,
			Position:    types.LineColumnAt(types.LineOffsets(tdoc.Text()), r.Start),
			Description: t.Describe(),
			Kind:        kind,
		}
	case *xmltree.File:
		return &Location{
			Path:        t.Path,
			Position:    types.LineColumn{Line: 1, Column: 1},
			Description: t.Describe(),
			Kind:        "file",
		}
	case nil:
		return nil
	default:
		return &Location{Description: t.Describe(), Kind: "declaration"}
	}
}

// Rename renames the tag at offset as if its declaration had been renamed to
// newName. The document text after the edit is returned; the cache is
// updated with it.
func (w *Workspace) Rename(ctx context.Context, path string, offset int, newName string) (edit *Edit, err error) {
	done := w.metrics.Track("rename")
	defer func() { done(edit != nil && edit.Changed, err) }()

	return w.edit(ctx, path, offset, func(ref *reference.TagNameReference) (*xmltree.Tag, error) {
		return ref.HandleElementRename(newName)
	})
}

// Bind makes the tag at offset refer to a declaration. With an element name
// the target is that element's declaration in the schema file targetPath;
// without one the target is the file itself.
func (w *Workspace) Bind(ctx context.Context, path string, offset int, targetPath, element string) (edit *Edit, err error) {
	done := w.metrics.Track("bind")
	defer func() { done(edit != nil && edit.Changed, err) }()

	target, err := w.bindTarget(targetPath, element)
	if err != nil {
		return nil, err
	}
	return w.edit(ctx, path, offset, func(ref *reference.TagNameReference) (*xmltree.Tag, error) {
		return ref.BindToElement(target)
	})
}

func (w *Workspace) bindTarget(targetPath, element string) (xmltree.Target, error) {
	abs := w.absPath(targetPath)
	if element == "" {
		return xmltree.NewFile(abs), nil
	}
	if decl := w.declarationTag(abs, element); decl != nil {
		return decl, nil
	}
	return nil, fmt.Errorf("element %q is not declared in %s", element, targetPath)
}

// declarationTag finds the xs:element tag declaring element in the loaded
// schema file at path
func (w *Workspace) declarationTag(path, element string) *xmltree.Tag {
	for _, ns := range w.xsd.AvailableNamespaces(nil, "") {
		nsd := w.xsd.Namespace(ns)
		if nsd == nil {
			continue
		}
		for _, doc := range nsd.Documents() {
			if doc.File().Path != path {
				continue
			}
			for _, tag := range doc.AllTags() {
				if md := tag.MetaData(); md != nil && md.DefaultName() == element {
					return tag
				}
			}
		}
	}
	return nil
}

// edit applies change to a private copy of the document so that readers of
// the cached tree never observe a half-done mutation
func (w *Workspace) edit(ctx context.Context, path string, offset int, change func(*reference.TagNameReference) (*xmltree.Tag, error)) (*Edit, error) {
	cached, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	doc := w.parse(cached.File().Path, cached.Text())
	ref, err := w.referenceAt(doc, offset)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, ErrNoReference
	}

	oldName := ref.CanonicalText()
	tag, err := change(ref)
	if err != nil {
		return nil, err
	}

	e := &Edit{Path: doc.File().Path, Text: doc.Text(), OldName: oldName, NewName: oldName}
	if tag != nil {
		e.NewName = tag.Name()
	}
	e.Changed = e.Text != cached.Text()
	if e.Changed {
		w.OpenSource(e.Path, e.Text)
	}
	return e, nil
}

// AvailableTags lists the tag names that may appear inside the tag at offset
func (w *Workspace) AvailableTags(ctx context.Context, path string, offset int) (tags []extension.TagName, err error) {
	done := w.metrics.Track("available_tags")
	defer func() { done(len(tags) > 0, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	scope := w.contextTag(doc, offset)
	if scope == nil {
		return nil, nil
	}
	ext := extension.ExtensionFor(w.extensions, doc.File())
	if ext == nil {
		return nil, nil
	}
	return ext.AvailableTagNames(doc.File(), scope), nil
}

// Namespaces lists the namespaces a tag written at offset with prefix may
// belong to. A non-empty tagName keeps only the namespaces declaring an
// element of that name.
func (w *Workspace) Namespaces(ctx context.Context, path string, offset int, prefix, tagName string) (namespaces []string, err error) {
	done := w.metrics.Track("namespaces")
	defer func() { done(len(namespaces) > 0, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	scope := w.contextTag(doc, offset)
	if scope == nil {
		return nil, nil
	}
	namespaces = completion.CollectNamespaces(scope, prefix)
	if ext := extension.ExtensionFor(w.extensions, doc.File()); ext != nil {
		namespaces = ext.FilterNamespaces(namespaces, tagName, doc.File())
	}
	return namespaces, nil
}

func (w *Workspace) contextTag(doc *xmltree.Document, offset int) *xmltree.Tag {
	if tag := doc.TagAt(offset); tag != nil {
		return tag
	}
	return doc.RootTag()
}

// MatchBrace finds the partner of the tag delimiter at offset
func (w *Workspace) MatchBrace(ctx context.Context, path string, offset int) (match *BraceMatch, err error) {
	done := w.metrics.Track("match")
	defer func() { done(match != nil, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	partner, ok := syntax.MatchBrace(doc.Root(), offset)
	if !ok {
		return nil, nil
	}
	return &BraceMatch{Offset: offset, Partner: partner.TextRange(), Kind: partner.Kind().String()}, nil
}

// Tree outlines the tags of the document at path
func (w *Workspace) Tree(ctx context.Context, path string) (tree *display.TagTree, err error) {
	done := w.metrics.Track("tree")
	defer func() { done(tree != nil && tree.Root != nil, err) }()

	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	return display.BuildTree(doc), nil
}

// Diagnostics returns the parse problems of the document at path
func (w *Workspace) Diagnostics(ctx context.Context, path string) ([]error, error) {
	doc, err := w.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]error, 0, len(doc.Diagnostics()))
	for _, d := range doc.Diagnostics() {
		out = append(out, d)
	}
	return out, nil
}
