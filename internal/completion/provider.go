package completion

import (
	"strings"

	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// TagNameProvider contributes tag name variants for a tag being typed.
// Providers append to out and return it; they never remove entries.
type TagNameProvider interface {
	AddTagNameVariants(out []Variant, tag *xmltree.Tag, prefix string) []Variant
}

// TagNameProviderFunc adapts a function to TagNameProvider
type TagNameProviderFunc func(out []Variant, tag *xmltree.Tag, prefix string) []Variant

func (f TagNameProviderFunc) AddTagNameVariants(out []Variant, tag *xmltree.Tag, prefix string) []Variant {
	return f(out, tag, prefix)
}

// DefaultTagNameProvider offers the element names declared by the namespace
// descriptors visible at the tag
type DefaultTagNameProvider struct{}

func (DefaultTagNameProvider) AddTagNameVariants(out []Variant, tag *xmltree.Tag, prefix string) []Variant {
	names := TagNameVariants(tag, CollectNamespaces(tag, prefix))
	for _, nv := range names {
		qname := StripPrefix(nv.Name, prefix)
		v := Variant{Text: qname, TypeText: nv.Namespace, Insert: InsertTag}
		if sep := strings.IndexByte(qname, ':'); sep > 0 {
			v.LookupStrings = []string{qname[sep+1:]}
		}
		out = append(out, v)
	}
	return out
}

// Collect runs every provider in order and concatenates their variants
func Collect(providers []TagNameProvider, tag *xmltree.Tag, prefix string) []Variant {
	var out []Variant
	for _, p := range providers {
		out = p.AddTagNameVariants(out, tag, prefix)
	}
	return out
}
