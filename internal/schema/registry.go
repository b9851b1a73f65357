package schema

import "github.com/standardbeagle/tagsense/internal/xmltree"

// Provider contributes namespace descriptors to documents
type Provider interface {
	IsAvailable(file *xmltree.File) bool
	// AvailableNamespaces lists the namespaces the provider can describe.
	// A non-empty tagName narrows the list to namespaces declaring that element.
	AvailableNamespaces(file *xmltree.File, tagName string) []string
	NSDescriptor(namespace string, file *xmltree.File) xmltree.NSDescriptor
}

// Registry is an ordered list of providers. Earlier providers win.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry; iteration follows argument order
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Register appends a provider after the existing ones
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

func (r *Registry) Providers() []Provider { return r.providers }

// AvailableProviders returns the providers that apply to file, in order
func (r *Registry) AvailableProviders(file *xmltree.File) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.IsAvailable(file) {
			out = append(out, p)
		}
	}
	return out
}

// NSDescriptor returns the first descriptor any available provider has for namespace
func (r *Registry) NSDescriptor(namespace string, file *xmltree.File) xmltree.NSDescriptor {
	for _, p := range r.AvailableProviders(file) {
		if d := p.NSDescriptor(namespace, file); d != nil {
			return d
		}
	}
	return nil
}

// AvailableNamespaces unions the namespaces of every available provider,
// keeping first-seen order
func (r *Registry) AvailableNamespaces(file *xmltree.File, tagName string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.AvailableProviders(file) {
		for _, ns := range p.AvailableNamespaces(file, tagName) {
			if !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
	}
	return out
}

var _ xmltree.DescriptorResolver = (*Registry)(nil)
