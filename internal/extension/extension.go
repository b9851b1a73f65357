// Package extension groups the per-file strategies used for tag names:
// which names are available, where prefixes are declared and how tag name
// references are created.
package extension

import (
	"github.com/standardbeagle/tagsense/internal/reference"
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// TagName is an available tag: its local name and the namespace declaring it
type TagName struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// SchemaPrefix locates the declaration of a namespace prefix. Range is
// relative to the start of Attribute and covers the prefix itself.
type SchemaPrefix struct {
	Attribute *xmltree.Attribute
	Range     types.TextRange
	Prefix    string
}

// AbsoluteRange returns the prefix range as a document offset range
func (s *SchemaPrefix) AbsoluteRange() types.TextRange {
	return s.Range.Shift(s.Attribute.Node().StartOffset())
}

// Extension is a strategy applied to the files it is available for
type Extension interface {
	IsAvailable(file *xmltree.File) bool
	AvailableTagNames(file *xmltree.File, context *xmltree.Tag) []TagName
	FilterNamespaces(namespaces []string, tagName string, file *xmltree.File) []string
	PrefixDeclaration(context *xmltree.Tag, prefix string) *SchemaPrefix
	CreateTagNameReference(doc *xmltree.Document, nameNode *syntax.Node, startTag bool) *reference.TagNameReference
}

// ExtensionFor returns the first extension available for file, or nil
func ExtensionFor(extensions []Extension, file *xmltree.File) Extension {
	for _, e := range extensions {
		if e.IsAvailable(file) {
			return e
		}
	}
	return nil
}

// ReferenceAt creates the tag name reference at offset using the extension
// available for doc. It returns nil when offset is not on a tag name.
func ReferenceAt(extensions []Extension, doc *xmltree.Document, offset int) *reference.TagNameReference {
	ext := ExtensionFor(extensions, doc.File())
	if ext == nil {
		return nil
	}
	node, start := reference.NameNodeAt(doc, offset)
	if node == nil {
		return nil
	}
	return ext.CreateTagNameReference(doc, node, start)
}
