// Package xmltree layers the XML element model over the syntax tree:
// files, documents, tags, attributes and XML Namespaces 1.0 resolution,
// plus the descriptor contracts schemas implement.
package xmltree

const (
	// EmptyURI is the "no namespace" sentinel
	EmptyURI = ""

	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// Target is anything a reference can resolve to
type Target interface {
	Describe() string
}

// ElementDescriptor describes a legal element within a namespace
type ElementDescriptor interface {
	// Name returns the element name as it should appear in context, prefixed
	// when the namespace is bound to a prefix there
	Name(context *Tag) string
	DefaultName() string
	// ElementsDescriptors lists the child elements allowed in context
	ElementsDescriptors(context *Tag) []ElementDescriptor
	// ElementDescriptor finds the descriptor for child inside contextTag
	ElementDescriptor(child, contextTag *Tag) ElementDescriptor
	Declaration() Target
	NSDescriptor() NSDescriptor
}

// NSDescriptor describes the elements of one namespace
type NSDescriptor interface {
	Namespace() string
	RootElementsDescriptors(doc *Document) []ElementDescriptor
	ElementDescriptor(tag *Tag) ElementDescriptor
	Declaration() Target
}

// MetaOwner is a target that carries an element descriptor, such as an
// element declaration inside a schema document
type MetaOwner interface {
	Target
	MetaData() ElementDescriptor
}

// DescriptorResolver supplies namespace descriptors to documents
type DescriptorResolver interface {
	NSDescriptor(namespace string, file *File) NSDescriptor
}
