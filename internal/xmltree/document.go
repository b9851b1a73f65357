package xmltree

import (
	"path/filepath"
	"sync"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/syntax"
)

// File is a source file, optionally backed by a parsed document
type File struct {
	Path string
	doc  *Document
}

// NewFile creates a file reference without a parsed document
func NewFile(path string) *File {
	return &File{Path: path}
}

// Name returns the base name of the file
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

func (f *File) Document() *Document { return f.doc }

func (f *File) Describe() string {
	return "file " + f.Path
}

// Document is a parsed XML document
type Document struct {
	file     *File
	root     *syntax.Node
	diags    []*tagerrors.ParseError
	resolver DescriptorResolver

	mu   sync.Mutex
	tags map[*syntax.Node]*Tag
}

// Parse parses src into a document attached to a new File at path
func Parse(path, src string) *Document {
	root, diags := syntax.Parse(path, src)
	f := &File{Path: path}
	doc := &Document{
		file:  f,
		root:  root,
		diags: diags,
		tags:  make(map[*syntax.Node]*Tag),
	}
	f.doc = doc
	return doc
}

func (d *Document) File() *File                          { return d.file }
func (d *Document) Root() *syntax.Node                   { return d.root }
func (d *Document) Diagnostics() []*tagerrors.ParseError { return d.diags }
func (d *Document) Text() string                         { return d.root.Text() }

// SetDescriptorResolver installs the source of namespace descriptors
func (d *Document) SetDescriptorResolver(r DescriptorResolver) {
	d.resolver = r
}

func (d *Document) DescriptorResolver() DescriptorResolver { return d.resolver }

// TagFor returns the tag wrapping node. Wrappers are cached so repeated
// lookups return the same *Tag.
func (d *Document) TagFor(node *syntax.Node) *Tag {
	if node == nil || node.Kind() != syntax.KindTag {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tags[node]; ok {
		return t
	}
	t := &Tag{node: node, doc: d}
	d.tags[node] = t
	return t
}

// RootTag returns the document element, or nil for a document without one
func (d *Document) RootTag() *Tag {
	for _, c := range d.root.Children() {
		if c.Kind() == syntax.KindTag {
			return d.TagFor(c)
		}
	}
	return nil
}

// TagAt returns the innermost tag covering offset
func (d *Document) TagAt(offset int) *Tag {
	leaf := syntax.LeafAt(d.root, offset)
	if leaf == nil {
		return nil
	}
	return d.TagFor(syntax.AncestorOfKind(leaf, syntax.KindTag))
}

// AllTags returns every tag in document order
func (d *Document) AllTags() []*Tag {
	var out []*Tag
	syntax.Walk(d.root, func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindTag {
			out = append(out, d.TagFor(n))
		}
		return true
	})
	return out
}

// NSDescriptor asks the installed resolver for the descriptor of namespace
func (d *Document) NSDescriptor(namespace string) NSDescriptor {
	if d.resolver == nil {
		return nil
	}
	return d.resolver.NSDescriptor(namespace, d.file)
}

// RootTagNSDescriptor returns the descriptor of the document element's namespace
func (d *Document) RootTagNSDescriptor() NSDescriptor {
	root := d.RootTag()
	if root == nil {
		return nil
	}
	return d.NSDescriptor(root.Namespace())
}

// DefaultNSDescriptor returns the descriptor for namespace. Unless strict, a
// missing descriptor falls back to the document element's namespace.
func (d *Document) DefaultNSDescriptor(namespace string, strict bool) NSDescriptor {
	if nsd := d.NSDescriptor(namespace); nsd != nil || strict {
		return nsd
	}
	return d.RootTagNSDescriptor()
}
