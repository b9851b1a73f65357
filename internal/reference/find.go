package reference

import (
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// NameNodeAt returns the tag name token touching offset and whether it
// belongs to the start tag. A caret directly after a name still finds it.
func NameNodeAt(doc *xmltree.Document, offset int) (*syntax.Node, bool) {
	for _, off := range []int{offset, offset - 1} {
		leaf := syntax.LeafAt(doc.Root(), off)
		if leaf == nil || leaf.Kind() != syntax.KindName {
			continue
		}
		tag := doc.TagFor(leaf.Parent())
		if tag == nil {
			continue // attribute name
		}
		return leaf, leaf == tag.StartNameNode()
	}
	return nil, false
}

// At creates the reference for the tag name at offset, or returns nil when
// offset is not on a tag name
func At(doc *xmltree.Document, offset int, opts ...Option) *TagNameReference {
	node, start := NameNodeAt(doc, offset)
	if node == nil {
		return nil
	}
	return New(doc, node, start, opts...)
}
