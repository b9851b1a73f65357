package completion

import (
	"slices"

	"github.com/standardbeagle/tagsense/internal/schema"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// CollectNamespaces returns the namespaces to search for names of tag.
// With no prefix that is every namespace known at the tag followed by the
// empty namespace; with a prefix it is the namespace the prefix is bound to.
func CollectNamespaces(tag *xmltree.Tag, prefix string) []string {
	if prefix == "" {
		return append(tag.KnownNamespaces(), xmltree.EmptyURI)
	}
	return []string{tag.NamespaceByPrefix(prefix)}
}

type namespaced interface {
	Namespace() string
}

// DescriptorNamespace returns the namespace instances of d live in
func DescriptorNamespace(d xmltree.ElementDescriptor) string {
	if n, ok := d.(namespaced); ok {
		return n.Namespace()
	}
	if nsd := d.NSDescriptor(); nsd != nil {
		return nsd.Namespace()
	}
	return xmltree.EmptyURI
}

// TagNameVariants lists the names that may stand at tag, one entry per
// descriptor, for each namespace in turn. Inside a parent with a descriptor
// the parent's children are offered; at the root, or under a parent whose
// content is open, the namespace's root elements are offered as well.
// Names are formatted by the descriptors against tag and never merged.
func TagNameVariants(tag *xmltree.Tag, namespaces []string) []NameVariant {
	var parentDesc xmltree.ElementDescriptor
	parent := tag.ParentTag()
	if parent != nil {
		parentDesc = parent.Descriptor()
	}

	var children []xmltree.ElementDescriptor
	if parentDesc != nil {
		children = parentDesc.ElementsDescriptors(parent)
	}
	openContent := parentDesc == nil || schema.AllowsAnyContent(parentDesc)

	var out []NameVariant
	for _, ns := range namespaces {
		for _, d := range children {
			if DescriptorNamespace(d) == ns {
				out = append(out, NameVariant{Name: d.Name(tag), Namespace: ns})
			}
		}
		if !openContent {
			continue
		}
		nsd := tag.Document().NSDescriptor(ns)
		if nsd == nil {
			continue
		}
		for _, d := range nsd.RootElementsDescriptors(tag.Document()) {
			out = append(out, NameVariant{Name: d.Name(tag), Namespace: ns})
		}
	}
	return out
}

// UniqueNamespaces drops repeated URIs, keeping first-seen order
func UniqueNamespaces(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ns := range in {
		if !slices.Contains(out, ns) {
			out = append(out, ns)
		}
	}
	return out
}
