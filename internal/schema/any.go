package schema

import "github.com/standardbeagle/tagsense/internal/xmltree"

// AnyContent is implemented by descriptors whose content model admits
// elements from any namespace (xs:any)
type AnyContent interface {
	AllowsAnyContent() bool
}

// AllowsAnyContent reports whether d admits arbitrary child elements
func AllowsAnyContent(d xmltree.ElementDescriptor) bool {
	ac, ok := d.(AnyContent)
	return ok && ac.AllowsAnyContent()
}

// AnyElementDescriptor is the wildcard descriptor given to elements matched
// by xs:any or living inside free-form content. References to such elements
// resolve to the element itself.
type AnyElementDescriptor struct {
	name string
	ns   xmltree.NSDescriptor
}

// NewAnyElementDescriptor creates a wildcard descriptor for name
func NewAnyElementDescriptor(name string, ns xmltree.NSDescriptor) *AnyElementDescriptor {
	return &AnyElementDescriptor{name: name, ns: ns}
}

func (a *AnyElementDescriptor) Name(*xmltree.Tag) string           { return a.name }
func (a *AnyElementDescriptor) DefaultName() string                { return a.name }
func (a *AnyElementDescriptor) Declaration() xmltree.Target        { return nil }
func (a *AnyElementDescriptor) NSDescriptor() xmltree.NSDescriptor { return a.ns }
func (a *AnyElementDescriptor) AllowsAnyContent() bool             { return true }
func (a *AnyElementDescriptor) String() string                     { return "any(" + a.name + ")" }
func (a *AnyElementDescriptor) ElementsDescriptors(*xmltree.Tag) []xmltree.ElementDescriptor {
	return nil
}

// ElementDescriptor prefers the child's own namespace descriptor and falls
// back to another wildcard
func (a *AnyElementDescriptor) ElementDescriptor(child, _ *xmltree.Tag) xmltree.ElementDescriptor {
	return lookupOrAny(child)
}

func lookupOrAny(child *xmltree.Tag) xmltree.ElementDescriptor {
	if nsd := child.Document().NSDescriptor(child.Namespace()); nsd != nil {
		if d := nsd.ElementDescriptor(child); d != nil {
			return d
		}
	}
	return NewAnyElementDescriptor(child.Name(), nil)
}
