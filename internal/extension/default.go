package extension

import (
	"github.com/standardbeagle/tagsense/internal/completion"
	"github.com/standardbeagle/tagsense/internal/reference"
	"github.com/standardbeagle/tagsense/internal/resolve"
	"github.com/standardbeagle/tagsense/internal/schema"
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// DefaultExtension applies to every file and draws names from the schema registry
type DefaultExtension struct {
	registry  *schema.Registry
	providers []completion.TagNameProvider
	state     resolve.State
}

// NewDefaultExtension creates the default extension over registry. With no
// providers the default tag name provider is used.
func NewDefaultExtension(registry *schema.Registry, state resolve.State, providers ...completion.TagNameProvider) *DefaultExtension {
	if len(providers) == 0 {
		providers = []completion.TagNameProvider{completion.DefaultTagNameProvider{}}
	}
	return &DefaultExtension{registry: registry, providers: providers, state: state}
}

func (e *DefaultExtension) IsAvailable(*xmltree.File) bool { return true }

func (e *DefaultExtension) Registry() *schema.Registry { return e.registry }

// AvailableTagNames lists the tags that can appear at context, drawn from
// the namespaces known at context and every namespace a provider offers
func (e *DefaultExtension) AvailableTagNames(file *xmltree.File, context *xmltree.Tag) []TagName {
	namespaces := context.KnownNamespaces()
	for _, p := range e.registry.AvailableProviders(file) {
		namespaces = append(namespaces, p.AvailableNamespaces(file, "")...)
	}
	names := completion.TagNameVariants(context, completion.UniqueNamespaces(namespaces))

	out := make([]TagName, 0, len(names))
	for _, nv := range names {
		out = append(out, TagName{Name: nv.LocalName(), Namespace: nv.Namespace})
	}
	return out
}

// FilterNamespaces keeps the namespaces whose element tree contains an
// element called tagName. An empty tagName keeps every namespace.
func (e *DefaultExtension) FilterNamespaces(namespaces []string, tagName string, file *xmltree.File) []string {
	if tagName == "" {
		return namespaces
	}
	var out []string
	for _, ns := range namespaces {
		nsd := e.registry.NSDescriptor(ns, file)
		if nsd == nil {
			continue
		}
		var doc *xmltree.Document
		if file != nil {
			doc = file.Document()
		}
		if hasTag(nsd.RootElementsDescriptors(doc), tagName) {
			out = append(out, ns)
		}
	}
	return out
}

// hasTag searches the descriptor tree depth first. Each descriptor is
// expanded once, so recursive content models terminate.
func hasTag(roots []xmltree.ElementDescriptor, tagName string) bool {
	visited := make(map[xmltree.ElementDescriptor]bool)
	stack := make([]xmltree.ElementDescriptor, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d == nil || visited[d] {
			continue
		}
		visited[d] = true
		if d.DefaultName() == tagName {
			return true
		}
		children := d.ElementsDescriptors(nil)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return false
}

// PrefixDeclaration finds the nearest xmlns:prefix attribute (xmlns for the
// empty prefix) in scope at context
func (e *DefaultExtension) PrefixDeclaration(context *xmltree.Tag, prefix string) *SchemaPrefix {
	attrName := "xmlns"
	if prefix != "" {
		attrName = "xmlns:" + prefix
	}
	for t := context; t != nil; t = t.ParentTag() {
		if !t.HasNamespaceDeclarations() {
			continue
		}
		if a := t.Attribute(attrName); a != nil {
			return &SchemaPrefix{
				Attribute: a,
				Range:     types.RangeFrom(len(a.NamespacePrefix())+1, len(prefix)),
				Prefix:    prefix,
			}
		}
	}
	return nil
}

func (e *DefaultExtension) CreateTagNameReference(doc *xmltree.Document, nameNode *syntax.Node, startTag bool) *reference.TagNameReference {
	return reference.New(doc, nameNode, startTag,
		reference.WithProviders(e.providers...),
		reference.WithState(e.state))
}

var _ Extension = (*DefaultExtension)(nil)
