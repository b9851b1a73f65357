package schema

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/tagsense/internal/debug"
	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// XSDNamespaceURI is the namespace of XML Schema 1.0 documents
const XSDNamespaceURI = "http://www.w3.org/2001/XMLSchema"

// XSDProvider describes namespaces from XML Schema documents.
// Each load builds a fresh, immutable schema set that is swapped in whole,
// so descriptors handed out earlier stay consistent.
type XSDProvider struct {
	buildMu     sync.Mutex // Serializes copy, rebuild and swap of the set
	mu          sync.RWMutex
	state       *xsdState
	sources     []source
	catalog     *Catalog
	maxFileSize int64
}

type source struct {
	path string
	doc  *xmltree.Document
}

// XSDOption configures an XSDProvider
type XSDOption func(*XSDProvider)

// WithCatalog resolves xs:import elements that carry no schemaLocation
func WithCatalog(c *Catalog) XSDOption {
	return func(p *XSDProvider) { p.catalog = c }
}

// WithMaxFileSize bounds the size of schema files read from disk
func WithMaxFileSize(n int64) XSDOption {
	return func(p *XSDProvider) { p.maxFileSize = n }
}

// NewXSDProvider creates an empty provider
func NewXSDProvider(opts ...XSDOption) *XSDProvider {
	p := &XSDProvider{maxFileSize: types.DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	p.state = newXSDState(p, p.catalog)
	return p
}

// SetCatalog replaces the namespace catalog used for imports
func (p *XSDProvider) SetCatalog(c *Catalog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalog = c
}

func (p *XSDProvider) current() *xsdState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Load replaces the schema set with the files at paths. Files are read and
// parsed concurrently; files that fail are reported together in a MultiError
// while the rest stay usable.
func (p *XSDProvider) Load(ctx context.Context, paths []string) error {
	sources := make([]source, len(paths))
	failed := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := p.readFile(path)
			if err != nil {
				failed[i] = tagerrors.NewSchemaError("", path, err)
				return nil
			}
			sources[i] = source{path: path, doc: xmltree.Parse(path, string(data))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading schemas: %w", err)
	}

	var errs []error
	loaded := make([]source, 0, len(paths))
	for i := range paths {
		if failed[i] != nil {
			errs = append(errs, failed[i])
			continue
		}
		loaded = append(loaded, sources[i])
	}

	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	errs = append(errs, p.rebuild(loaded)...)
	return tagerrors.NewMultiError(errs).ErrorOrNil()
}

// Add parses src as a schema located at path and adds it to the current set
func (p *XSDProvider) Add(path, src string) error {
	doc := xmltree.Parse(path, src)

	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	p.mu.RLock()
	sources := append([]source(nil), p.sources...)
	p.mu.RUnlock()

	sources = append(sources, source{path: path, doc: doc})
	return tagerrors.NewMultiError(p.rebuild(sources)).ErrorOrNil()
}

// Reset drops every loaded schema
func (p *XSDProvider) Reset() {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = nil
	p.state = newXSDState(p, p.catalog)
}

// rebuild must be called with buildMu held
func (p *XSDProvider) rebuild(sources []source) []error {
	p.mu.RLock()
	catalog := p.catalog
	p.mu.RUnlock()

	st := newXSDState(p, catalog)
	errs := st.build(sources)
	st.link()

	p.mu.Lock()
	p.sources = sources
	p.state = st
	p.mu.Unlock()

	debug.LogSchema("built schema set: %d files, %d namespaces, %d errors\n",
		len(st.files), len(st.order), len(errs))
	return errs
}

func (p *XSDProvider) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, tagerrors.NewFileError("stat", path, err)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return nil, tagerrors.NewFileTooLargeError(path, info.Size(), p.maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tagerrors.NewFileError("read", path, err)
	}
	return data, nil
}

func (p *XSDProvider) IsAvailable(*xmltree.File) bool { return true }

// AvailableNamespaces lists target namespaces in load order
func (p *XSDProvider) AvailableNamespaces(_ *xmltree.File, tagName string) []string {
	st := p.current()
	var out []string
	for _, uri := range st.order {
		if tagName == "" {
			out = append(out, uri)
			continue
		}
		if _, ok := st.namespaces[uri].globals[tagName]; ok {
			out = append(out, uri)
		}
	}
	return out
}

func (p *XSDProvider) NSDescriptor(namespace string, _ *xmltree.File) xmltree.NSDescriptor {
	if ns := p.Namespace(namespace); ns != nil {
		return ns
	}
	return nil
}

// Namespace returns the concrete descriptor for a target namespace
func (p *XSDProvider) Namespace(uri string) *XSDNamespace {
	return p.current().namespaces[uri]
}

// Files returns the schema files of the current set, sorted
func (p *XSDProvider) Files() []string {
	st := p.current()
	out := make([]string, 0, len(st.files))
	for f := range st.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FileCount returns the number of schema documents in the current set
func (p *XSDProvider) FileCount() int {
	return len(p.current().files)
}

// XSDNamespace is the descriptor of one target namespace. Several schema
// documents contribute to it through xs:include.
type XSDNamespace struct {
	uri     string
	docs    []*xmltree.Document
	globals map[string]*XSDElement
	order   []*XSDElement
	types   map[string]*xmltree.Tag
	groups  map[string]*xmltree.Tag
}

func (n *XSDNamespace) Namespace() string { return n.uri }

// Documents returns the schema documents that make up the namespace
func (n *XSDNamespace) Documents() []*xmltree.Document { return n.docs }

func (n *XSDNamespace) RootElementsDescriptors(*xmltree.Document) []xmltree.ElementDescriptor {
	out := make([]xmltree.ElementDescriptor, len(n.order))
	for i, e := range n.order {
		out[i] = e
	}
	return out
}

func (n *XSDNamespace) ElementDescriptor(tag *xmltree.Tag) xmltree.ElementDescriptor {
	if e, ok := n.globals[tag.LocalName()]; ok {
		return e
	}
	return nil
}

// Element returns the global element declaration called name
func (n *XSDNamespace) Element(name string) *XSDElement {
	return n.globals[name]
}

// Declaration is the first schema file of the namespace
func (n *XSDNamespace) Declaration() xmltree.Target {
	if len(n.docs) == 0 {
		return nil
	}
	return n.docs[0].File()
}

func (n *XSDNamespace) String() string {
	return fmt.Sprintf("xsd(%s, %d elements)", n.uri, len(n.order))
}

// XSDElement describes one xs:element declaration
type XSDElement struct {
	name      string
	ns        *XSDNamespace
	decl      *xmltree.Tag
	global    bool
	qualified bool

	children   []*XSDElement
	anyContent bool
	linked     bool
}

// Name qualifies the element with the prefix bound to its namespace in context
func (e *XSDElement) Name(context *xmltree.Tag) string {
	uri := e.Namespace()
	if context == nil || uri == xmltree.EmptyURI {
		return e.name
	}
	if prefix, ok := context.PrefixByNamespace(uri); ok && prefix != "" {
		return prefix + ":" + e.name
	}
	return e.name
}

func (e *XSDElement) DefaultName() string                { return e.name }
func (e *XSDElement) Declaration() xmltree.Target        { return e.decl }
func (e *XSDElement) NSDescriptor() xmltree.NSDescriptor { return e.ns }
func (e *XSDElement) AllowsAnyContent() bool             { return e.anyContent }
func (e *XSDElement) IsGlobal() bool                     { return e.global }
func (e *XSDElement) DeclarationTag() *xmltree.Tag       { return e.decl }

// Namespace is the namespace instances of this element live in. Unqualified
// local elements have none.
func (e *XSDElement) Namespace() string {
	if e.global || e.qualified {
		return e.ns.uri
	}
	return xmltree.EmptyURI
}

func (e *XSDElement) ElementsDescriptors(*xmltree.Tag) []xmltree.ElementDescriptor {
	out := make([]xmltree.ElementDescriptor, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}

func (e *XSDElement) ElementDescriptor(child, _ *xmltree.Tag) xmltree.ElementDescriptor {
	local, uri := child.LocalName(), child.Namespace()
	for _, c := range e.children {
		if c.name == local && c.Namespace() == uri {
			return c
		}
	}
	if e.anyContent {
		return lookupOrAny(child)
	}
	return nil
}

func (e *XSDElement) String() string {
	return fmt.Sprintf("element {%s}%s", e.Namespace(), e.name)
}
