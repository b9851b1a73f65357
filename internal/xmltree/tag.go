package xmltree

import (
	"errors"
	"strings"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/types"
)

// ErrNameless is returned when renaming a tag that has no start name token
var ErrNameless = errors.New("tag has no name token")

// NamespaceDeclaration is one xmlns or xmlns:prefix attribute
type NamespaceDeclaration struct {
	Prefix string
	URI    string
}

// Tag is an element of a document
type Tag struct {
	node *syntax.Node
	doc  *Document
	meta ElementDescriptor
}

func (t *Tag) Node() *syntax.Node     { return t.node }
func (t *Tag) Document() *Document    { return t.doc }
func (t *Tag) Valid() bool            { return t.node.Valid() }
func (t *Tag) Range() types.TextRange { return t.node.TextRange() }

// StartNameNode returns the name token of the start tag
func (t *Tag) StartNameNode() *syntax.Node {
	first := t.node.FirstChild()
	if first == nil || first.Kind() != syntax.KindStartTagStart {
		return nil
	}
	if n := first.NextSibling(); n != nil && n.Kind() == syntax.KindName {
		return n
	}
	return nil
}

// EndNameNode returns the name token of the end tag, if the tag has one
func (t *Tag) EndNameNode() *syntax.Node {
	if et := t.EndTagStartNode(); et != nil {
		if n := et.NextSibling(); n != nil && n.Kind() == syntax.KindName {
			return n
		}
	}
	return nil
}

// EndTagStartNode returns the "</" token, if the tag has an end tag
func (t *Tag) EndTagStartNode() *syntax.Node {
	for c := t.node.LastChild(); c != nil; c = c.PrevSibling() {
		switch c.Kind() {
		case syntax.KindEndTagStart:
			return c
		case syntax.KindTag, syntax.KindStartTagStart:
			return nil
		}
	}
	return nil
}

// IsEmpty reports whether the tag is written as <name/>
func (t *Tag) IsEmpty() bool {
	last := t.node.LastChild()
	return last != nil && last.Kind() == syntax.KindEmptyTagEnd
}

// Name returns the qualified tag name
func (t *Tag) Name() string {
	if n := t.StartNameNode(); n != nil {
		return n.Text()
	}
	return ""
}

func (t *Tag) NamespacePrefix() string {
	prefix, _ := syntax.SplitName(t.Name())
	return prefix
}

func (t *Tag) LocalName() string {
	_, local := syntax.SplitName(t.Name())
	return local
}

// ParentTag returns the enclosing tag, or nil for the document element
func (t *Tag) ParentTag() *Tag {
	for p := t.node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == syntax.KindTag {
			return t.doc.TagFor(p)
		}
	}
	return nil
}

// SubTags returns the direct child tags
func (t *Tag) SubTags() []*Tag {
	var out []*Tag
	for _, c := range t.node.Children() {
		if c.Kind() == syntax.KindTag {
			out = append(out, t.doc.TagFor(c))
		}
	}
	return out
}

// Attributes returns the attributes of the start tag in source order
func (t *Tag) Attributes() []*Attribute {
	var out []*Attribute
	for _, c := range t.node.Children() {
		if c.Kind() == syntax.KindAttribute {
			out = append(out, &Attribute{node: c, tag: t})
		}
	}
	return out
}

// Attribute returns the attribute with the given qualified name
func (t *Tag) Attribute(name string) *Attribute {
	for _, a := range t.Attributes() {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// AttributeValue returns the value of the named attribute, or "" when absent
func (t *Tag) AttributeValue(name string) string {
	if a := t.Attribute(name); a != nil {
		return a.Value()
	}
	return ""
}

// NamespaceDeclarations returns the xmlns attributes declared on this tag
func (t *Tag) NamespaceDeclarations() []NamespaceDeclaration {
	var out []NamespaceDeclaration
	for _, a := range t.Attributes() {
		name := a.Name()
		switch {
		case name == "xmlns":
			out = append(out, NamespaceDeclaration{URI: a.Value()})
		case strings.HasPrefix(name, "xmlns:"):
			out = append(out, NamespaceDeclaration{Prefix: name[len("xmlns:"):], URI: a.Value()})
		}
	}
	return out
}

func (t *Tag) HasNamespaceDeclarations() bool {
	return len(t.NamespaceDeclarations()) > 0
}

// NamespaceByPrefix resolves prefix in the scope of this tag. The empty
// prefix resolves the default namespace.
func (t *Tag) NamespaceByPrefix(prefix string) string {
	switch prefix {
	case "xml":
		return XMLNamespace
	case "xmlns":
		return XMLNSNamespace
	}
	for c := t; c != nil; c = c.ParentTag() {
		for _, decl := range c.NamespaceDeclarations() {
			if decl.Prefix == prefix {
				return decl.URI
			}
		}
	}
	return EmptyURI
}

// Namespace returns the namespace URI of the tag itself
func (t *Tag) Namespace() string {
	return t.NamespaceByPrefix(t.NamespacePrefix())
}

// PrefixByNamespace finds a prefix bound to namespace in scope. Declarations
// shadowed by a nearer declaration of the same prefix do not count.
func (t *Tag) PrefixByNamespace(namespace string) (string, bool) {
	if namespace == XMLNamespace {
		return "xml", true
	}
	for c := t; c != nil; c = c.ParentTag() {
		for _, decl := range c.NamespaceDeclarations() {
			if decl.URI == namespace && t.NamespaceByPrefix(decl.Prefix) == namespace {
				return decl.Prefix, true
			}
		}
	}
	return "", false
}

// KnownNamespaces returns the namespace URIs declared on this tag and its
// ancestors, nearest first, without duplicates
func (t *Tag) KnownNamespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for c := t; c != nil; c = c.ParentTag() {
		for _, decl := range c.NamespaceDeclarations() {
			if decl.URI == EmptyURI || seen[decl.URI] {
				continue
			}
			seen[decl.URI] = true
			out = append(out, decl.URI)
		}
	}
	return out
}

// SetName renames the tag, updating the end tag name when there is one.
// The receiver stays valid and is returned.
func (t *Tag) SetName(qname string) (*Tag, error) {
	if !syntax.IsValidName(qname) {
		return nil, tagerrors.NewInvalidNameError(qname)
	}
	start := t.StartNameNode()
	if start == nil {
		return nil, ErrNameless
	}
	end := t.EndNameNode()
	if err := t.node.ReplaceChild(start, syntax.NewLeaf(syntax.KindName, qname)); err != nil {
		return nil, err
	}
	if end != nil {
		if err := t.node.ReplaceChild(end, syntax.NewLeaf(syntax.KindName, qname)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Descriptor computes the element descriptor of the tag. Each ancestor's
// descriptor is asked for its child first; the namespace descriptor is the
// fallback when a parent has none or does not know the child.
func (t *Tag) Descriptor() ElementDescriptor {
	var chain []*Tag
	for c := t; c != nil; c = c.ParentTag() {
		chain = append(chain, c)
	}

	var desc ElementDescriptor
	var parent *Tag
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		var d ElementDescriptor
		if desc != nil {
			d = desc.ElementDescriptor(c, parent)
		}
		if d == nil {
			if nsd := t.doc.NSDescriptor(c.Namespace()); nsd != nil {
				d = nsd.ElementDescriptor(c)
			}
		}
		desc, parent = d, c
	}
	return desc
}

// MetaData returns the descriptor this tag declares, for tags inside schema documents
func (t *Tag) MetaData() ElementDescriptor { return t.meta }

// SetMetaData attaches the descriptor declared by this tag
func (t *Tag) SetMetaData(d ElementDescriptor) { t.meta = d }

func (t *Tag) Describe() string {
	return "tag <" + t.Name() + ">"
}

// Attribute is a name="value" pair inside a start tag
type Attribute struct {
	node *syntax.Node
	tag  *Tag
}

func (a *Attribute) Node() *syntax.Node { return a.node }
func (a *Attribute) Tag() *Tag          { return a.tag }

// Name returns the qualified attribute name
func (a *Attribute) Name() string {
	if n := a.node.FirstChild(); n != nil && n.Kind() == syntax.KindName {
		return n.Text()
	}
	return ""
}

func (a *Attribute) NamespacePrefix() string {
	prefix, _ := syntax.SplitName(a.Name())
	return prefix
}

func (a *Attribute) LocalName() string {
	_, local := syntax.SplitName(a.Name())
	return local
}

// ValueNode returns the quoted value token
func (a *Attribute) ValueNode() *syntax.Node {
	if n := a.node.LastChild(); n != nil && n.Kind() == syntax.KindAttributeValue {
		return n
	}
	return nil
}

// Value returns the attribute value without quotes
func (a *Attribute) Value() string {
	n := a.ValueNode()
	if n == nil {
		return ""
	}
	v := n.Text()
	if len(v) > 0 && (v[0] == '"' || v[0] == '\'') {
		v = v[1:]
		if len(v) > 0 && (v[len(v)-1] == '"' || v[len(v)-1] == '\'') {
			v = v[:len(v)-1]
		}
	}
	return v
}

// Range returns the absolute range of the whole attribute
func (a *Attribute) Range() types.TextRange { return a.node.TextRange() }

func (a *Attribute) Describe() string {
	return "attribute " + a.Name()
}
