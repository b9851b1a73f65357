// Package reference binds the name token of a tag to the element
// declaration it stands for, and renames or rebinds it.
package reference

import (
	"strings"

	"github.com/standardbeagle/tagsense/internal/completion"
	"github.com/standardbeagle/tagsense/internal/debug"
	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/resolve"
	"github.com/standardbeagle/tagsense/internal/schema"
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// ClosingTail is appended after an accepted closing-tag variant
const ClosingTail = ">"

// TagNameReference is the reference held by the name token of a start or end tag
type TagNameReference struct {
	doc       *xmltree.Document
	nameNode  *syntax.Node
	startTag  bool
	providers []completion.TagNameProvider
	state     resolve.State
}

// Option configures a TagNameReference
type Option func(*TagNameReference)

// WithProviders sets the tag name providers asked for start tag variants, in order
func WithProviders(providers ...completion.TagNameProvider) Option {
	return func(r *TagNameReference) { r.providers = providers }
}

// WithState sets the resolve options
func WithState(s resolve.State) Option {
	return func(r *TagNameReference) { r.state = s }
}

// New creates the reference for nameNode inside doc. Without options the
// default tag name provider and the standard resolve defaults are used.
func New(doc *xmltree.Document, nameNode *syntax.Node, startTag bool, opts ...Option) *TagNameReference {
	r := &TagNameReference{
		doc:       doc,
		nameNode:  nameNode,
		startTag:  startTag,
		providers: []completion.TagNameProvider{completion.DefaultTagNameProvider{}},
		state:     resolve.Initial(resolve.StandardDefaults()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TagNameReference) NameNode() *syntax.Node { return r.nameNode }
func (r *TagNameReference) IsStartTag() bool       { return r.startTag }
func (r *TagNameReference) IsSoft() bool           { return false }

// Valid reports whether the name token is still part of the document
func (r *TagNameReference) Valid() bool {
	return r.nameNode != nil && r.nameNode.Valid()
}

// Element returns the tag node owning the name token, or the token itself
// when it is not inside a tag
func (r *TagNameReference) Element() *syntax.Node {
	if r.nameNode == nil {
		return nil
	}
	if p := r.nameNode.Parent(); p != nil && p.Kind() == syntax.KindTag {
		return p
	}
	return r.nameNode
}

// Tag returns the tag owning the name token, or nil
func (r *TagNameReference) Tag() *xmltree.Tag {
	el := r.Element()
	if el == nil || el == r.nameNode {
		return nil
	}
	return r.doc.TagFor(el)
}

// RangeInElement returns the range of the local name relative to the start
// of Element. The prefix and colon are excluded. End tag ranges are measured
// back from the end of the element.
func (r *TagNameReference) RangeInElement() types.TextRange {
	if !r.Valid() {
		return types.EmptyRange
	}
	name := r.nameNode
	colon := strings.IndexByte(name.Text(), ':') + 1

	if r.startTag {
		off := name.StartOffsetInParent()
		return types.NewTextRange(off+colon, off+name.TextLength())
	}

	el := r.Element()
	if el == name {
		return types.NewTextRange(colon, name.TextLength())
	}
	nameEnd := el.TextLength() - syntax.OffsetFromEnd(el, name)
	return types.NewTextRange(nameEnd-name.TextLength()+colon, nameEnd)
}

// AbsoluteRange returns RangeInElement as a document offset range
func (r *TagNameReference) AbsoluteRange() types.TextRange {
	if !r.Valid() {
		return types.EmptyRange
	}
	return r.RangeInElement().Shift(r.Element().StartOffset())
}

// CanonicalText returns the full name token text, prefix included
func (r *TagNameReference) CanonicalText() string {
	if r.nameNode == nil {
		return ""
	}
	return r.nameNode.Text()
}

func (r *TagNameReference) descriptor(tag *xmltree.Tag) xmltree.ElementDescriptor {
	if d := tag.Descriptor(); d != nil {
		return d
	}
	if resolve.Get(r.state, resolve.StrictLookup) {
		return nil
	}
	if nsd := r.doc.DefaultNSDescriptor(tag.Namespace(), false); nsd != nil {
		return nsd.ElementDescriptor(tag)
	}
	return nil
}

// Resolve returns the declaration the tag name refers to. Tags matched by
// a wildcard resolve to themselves. A nil result means unresolved.
func (r *TagNameReference) Resolve() xmltree.Target {
	if !r.Valid() {
		return nil
	}
	tag := r.Tag()
	if tag == nil {
		return nil
	}
	d := r.descriptor(tag)
	if d == nil {
		debug.LogResolve("descriptor for tag %s is nil\n", tag.Name())
		return nil
	}
	debug.LogResolve("descriptor for tag %s is %v (%T)\n", tag.Name(), d, d)
	if _, ok := d.(*schema.AnyElementDescriptor); ok {
		return tag
	}
	return d.Declaration()
}

// IsReferenceTo reports whether the reference resolves to target
func (r *TagNameReference) IsReferenceTo(target xmltree.Target) bool {
	return SameTarget(r.Resolve(), target)
}

// SameTarget compares resolution targets. Files are equal when their paths are.
func SameTarget(a, b xmltree.Target) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := a.(*xmltree.File); ok {
		fb, ok := b.(*xmltree.File)
		return ok && fa.Path == fb.Path
	}
	return a == b
}

func prependPrefix(name, prefix string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

// HandleElementRename renames the tag after its declaration was renamed to
// newName. Only start tag references rename; end tag references return the
// tag unchanged. An unprefixed newName keeps the tag's current prefix, and
// loses its file suffix when the tag resolves to a file.
func (r *TagNameReference) HandleElementRename(newName string) (*xmltree.Tag, error) {
	if !r.Valid() {
		return nil, nil
	}
	tag := r.Tag()
	if tag == nil || !r.startTag {
		return tag, nil
	}

	if !strings.Contains(newName, ":") {
		prefix := tag.NamespacePrefix()
		if dot := strings.LastIndexByte(newName, '.'); dot != -1 && resolve.Get(r.state, resolve.StripFileSuffix) {
			if _, isFile := r.Resolve().(*xmltree.File); isFile {
				newName = newName[:dot]
			}
		}
		newName = prependPrefix(newName, prefix)
	}
	return tag.SetName(newName)
}

// BindToElement makes the tag name refer to target. A declaration carrying
// an element descriptor renames the tag to the descriptor's name; a file
// renames it to the file name without suffix under the current prefix.
// Any other target fails with an UnsupportedBindError.
func (r *TagNameReference) BindToElement(target xmltree.Target) (*xmltree.Tag, error) {
	var metaData xmltree.ElementDescriptor

	switch t := target.(type) {
	case xmltree.MetaOwner:
		metaData = t.MetaData()
		if metaData != nil {
			tag := r.Tag()
			if tag == nil {
				return nil, nil
			}
			return tag.SetName(metaData.Name(tag))
		}
	case *xmltree.File:
		tag := r.Tag()
		if tag == nil || !r.startTag {
			return tag, nil
		}
		name := t.Name()
		if dot := strings.LastIndexByte(name, '.'); dot != -1 {
			name = name[:dot]
		}
		return tag.SetName(prependPrefix(name, tag.NamespacePrefix()))
	}

	described := "<nil>"
	if target != nil {
		described = target.Describe()
	}
	meta := ""
	if metaData != nil {
		meta = metaData.DefaultName()
	}
	return nil, tagerrors.NewUnsupportedBindError(described, meta)
}

// Variants lists completions for the name token. An end tag offers exactly
// one closing variant for its start tag; a start tag offers whatever the
// tag name providers contribute, in provider order.
func (r *TagNameReference) Variants() []completion.Variant {
	if !r.Valid() {
		return nil
	}
	tag := r.Tag()
	if tag == nil {
		return nil
	}
	if !r.startTag {
		return []completion.Variant{r.ClosingTagVariant(tag, resolve.Get(r.state, resolve.ClosingTagPrefix))}
	}
	return completion.Collect(r.providers, tag, tag.NamespacePrefix())
}

// ClosingTagVariant completes the end tag of tag. The full name is offered
// unless a colon was already typed, in which case only the local name is.
func (r *TagNameReference) ClosingTagVariant(tag *xmltree.Tag, includePrefix bool) completion.Variant {
	text := tag.LocalName()
	if includePrefix || !strings.Contains(r.CanonicalText(), ":") {
		text = tag.Name()
	}
	return completion.Variant{Text: text, Tail: ClosingTail}
}
