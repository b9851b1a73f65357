package schema

import (
	"errors"
	"fmt"
	"path/filepath"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/syntax"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

var (
	ErrNotASchema       = errors.New("document element is not xs:schema")
	ErrIncludeNamespace = errors.New("included schema declares a different target namespace")
)

type xsdState struct {
	provider   *XSDProvider
	catalog    *Catalog
	namespaces map[string]*XSDNamespace
	order      []string
	files      map[string]bool
	docNS      map[*xmltree.Document]*XSDNamespace
	locals     map[*xmltree.Tag]*XSDElement
}

func newXSDState(p *XSDProvider, catalog *Catalog) *xsdState {
	return &xsdState{
		provider:   p,
		catalog:    catalog,
		namespaces: make(map[string]*XSDNamespace),
		files:      make(map[string]bool),
		docNS:      make(map[*xmltree.Document]*XSDNamespace),
		locals:     make(map[*xmltree.Tag]*XSDElement),
	}
}

// pending is a schema document waiting to be registered
type pending struct {
	path string
	doc  *xmltree.Document // nil until read from disk

	// xs:include targets adopt the including namespace
	include   bool
	namespace string
}

func (st *xsdState) build(sources []source) []error {
	var errs []error
	queue := make([]pending, 0, len(sources))
	for _, s := range sources {
		queue = append(queue, pending{path: s.path, doc: s.doc})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		key := filepath.Clean(item.path)
		if st.files[key] {
			continue
		}
		st.files[key] = true

		if item.doc == nil {
			data, err := st.provider.readFile(item.path)
			if err != nil {
				errs = append(errs, tagerrors.NewSchemaError(item.namespace, item.path, err))
				continue
			}
			item.doc = xmltree.Parse(item.path, string(data))
		}

		more, err := st.register(item)
		if err != nil {
			errs = append(errs, tagerrors.NewSchemaError(item.namespace, item.path, err))
			continue
		}
		queue = append(queue, more...)
	}
	return errs
}

func isXSD(t *xmltree.Tag, local string) bool {
	return t.LocalName() == local && t.Namespace() == XSDNamespaceURI
}

func (st *xsdState) namespace(uri string) *XSDNamespace {
	if ns, ok := st.namespaces[uri]; ok {
		return ns
	}
	ns := &XSDNamespace{
		uri:     uri,
		globals: make(map[string]*XSDElement),
		types:   make(map[string]*xmltree.Tag),
		groups:  make(map[string]*xmltree.Tag),
	}
	st.namespaces[uri] = ns
	st.order = append(st.order, uri)
	return ns
}

// register records the top-level components of one schema document and
// returns the documents it includes or imports
func (st *xsdState) register(item pending) ([]pending, error) {
	root := item.doc.RootTag()
	if root == nil || !isXSD(root, "schema") {
		return nil, ErrNotASchema
	}

	tns := root.AttributeValue("targetNamespace")
	if item.include {
		if tns == "" {
			tns = item.namespace
		} else if tns != item.namespace {
			return nil, fmt.Errorf("%w: %q", ErrIncludeNamespace, tns)
		}
	}

	ns := st.namespace(tns)
	ns.docs = append(ns.docs, item.doc)
	st.docNS[item.doc] = ns
	dir := filepath.Dir(item.path)

	var more []pending
	for _, sub := range root.SubTags() {
		if sub.Namespace() != XSDNamespaceURI {
			continue
		}
		name := sub.AttributeValue("name")
		switch sub.LocalName() {
		case "element":
			if name == "" {
				continue
			}
			if _, dup := ns.globals[name]; dup {
				continue
			}
			e := &XSDElement{name: name, ns: ns, decl: sub, global: true}
			sub.SetMetaData(e)
			ns.globals[name] = e
			ns.order = append(ns.order, e)
		case "complexType":
			if name != "" {
				ns.types[name] = sub
			}
		case "group":
			if name != "" {
				ns.groups[name] = sub
			}
		case "include", "redefine":
			if loc := sub.AttributeValue("schemaLocation"); loc != "" {
				more = append(more, pending{path: resolveLocation(dir, loc), include: true, namespace: tns})
			}
		case "import":
			importNS := sub.AttributeValue("namespace")
			loc := sub.AttributeValue("schemaLocation")
			if loc != "" {
				more = append(more, pending{path: resolveLocation(dir, loc), namespace: importNS})
				continue
			}
			if entry, ok := st.catalog.Lookup(importNS); ok {
				more = append(more, pending{path: entry.Location, namespace: importNS})
			}
		}
	}
	return more, nil
}

func resolveLocation(dir, loc string) string {
	if filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(dir, filepath.FromSlash(loc))
}

// link computes the content of every element reachable from the global
// declarations. Elements are processed from a work queue, so recursive
// content models terminate.
func (st *xsdState) link() {
	var queue []*XSDElement
	for _, uri := range st.order {
		queue = append(queue, st.namespaces[uri].order...)
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.linked {
			continue
		}
		e.linked = true

		c := &collector{
			st:         st,
			seen:       make(map[*XSDElement]bool),
			seenTypes:  make(map[*xmltree.Tag]bool),
			seenGroups: make(map[*xmltree.Tag]bool),
		}
		c.element(e.decl)
		e.children, e.anyContent = c.out, c.any
		queue = append(queue, c.out...)
	}
}

type collector struct {
	st         *xsdState
	out        []*XSDElement
	any        bool
	seen       map[*XSDElement]bool
	seenTypes  map[*xmltree.Tag]bool
	seenGroups map[*xmltree.Tag]bool
}

func (c *collector) add(e *XSDElement) {
	if e != nil && !c.seen[e] {
		c.seen[e] = true
		c.out = append(c.out, e)
	}
}

// element collects the children allowed by an element declaration's type
func (c *collector) element(decl *xmltree.Tag) {
	for _, sub := range decl.SubTags() {
		if isXSD(sub, "complexType") {
			c.complexType(sub)
			return
		}
	}
	if typ := decl.AttributeValue("type"); typ != "" {
		if ct := c.st.lookup(decl, typ, func(ns *XSDNamespace) map[string]*xmltree.Tag { return ns.types }); ct != nil {
			c.complexType(ct)
		}
	}
}

func (c *collector) complexType(ct *xmltree.Tag) {
	if c.seenTypes[ct] {
		return
	}
	c.seenTypes[ct] = true
	c.particles(ct)
}

func (c *collector) particles(parent *xmltree.Tag) {
	for _, sub := range parent.SubTags() {
		if sub.Namespace() != XSDNamespaceURI {
			continue
		}
		switch sub.LocalName() {
		case "element":
			if ref := sub.AttributeValue("ref"); ref != "" {
				c.add(c.st.lookupElement(sub, ref))
			} else if sub.AttributeValue("name") != "" {
				c.add(c.st.localElement(sub))
			}
		case "sequence", "choice", "all", "complexContent":
			c.particles(sub)
		case "group":
			ref := sub.AttributeValue("ref")
			if ref == "" {
				c.particles(sub)
				continue
			}
			g := c.st.lookup(sub, ref, func(ns *XSDNamespace) map[string]*xmltree.Tag { return ns.groups })
			if g != nil && !c.seenGroups[g] {
				c.seenGroups[g] = true
				c.particles(g)
			}
		case "extension":
			if base := sub.AttributeValue("base"); base != "" {
				if bt := c.st.lookup(sub, base, func(ns *XSDNamespace) map[string]*xmltree.Tag { return ns.types }); bt != nil {
					c.complexType(bt)
				}
			}
			c.particles(sub)
		case "restriction":
			c.particles(sub)
		case "any":
			c.any = true
		}
	}
}

// localElement returns the descriptor for a nested xs:element name="..."
// declaration, creating it on first use
func (st *xsdState) localElement(decl *xmltree.Tag) *XSDElement {
	if e, ok := st.locals[decl]; ok {
		return e
	}
	ns := st.docNS[decl.Document()]
	if ns == nil {
		return nil
	}
	e := &XSDElement{
		name:      decl.AttributeValue("name"),
		ns:        ns,
		decl:      decl,
		qualified: isQualified(decl),
	}
	decl.SetMetaData(e)
	st.locals[decl] = e
	return e
}

func isQualified(decl *xmltree.Tag) bool {
	switch decl.AttributeValue("form") {
	case "qualified":
		return true
	case "unqualified":
		return false
	}
	root := decl.Document().RootTag()
	return root != nil && root.AttributeValue("elementFormDefault") == "qualified"
}

// candidates maps a QName attribute value to the namespaces that may
// declare it. Unprefixed names in no-namespace (chameleon) documents also
// search the namespace the document was included into.
func (st *xsdState) candidates(context *xmltree.Tag, qname string) ([]*XSDNamespace, string) {
	prefix, local := syntax.SplitName(qname)
	var out []*XSDNamespace
	if ns, ok := st.namespaces[context.NamespaceByPrefix(prefix)]; ok {
		out = append(out, ns)
	}
	if prefix == "" {
		if home := st.docNS[context.Document()]; home != nil && (len(out) == 0 || out[0] != home) {
			out = append(out, home)
		}
	}
	return out, local
}

func (st *xsdState) lookupElement(context *xmltree.Tag, qname string) *XSDElement {
	cands, local := st.candidates(context, qname)
	for _, ns := range cands {
		if e, ok := ns.globals[local]; ok {
			return e
		}
	}
	return nil
}

func (st *xsdState) lookup(context *xmltree.Tag, qname string, table func(*XSDNamespace) map[string]*xmltree.Tag) *xmltree.Tag {
	cands, local := st.candidates(context, qname)
	for _, ns := range cands {
		if t, ok := table(ns)[local]; ok {
			return t
		}
	}
	return nil
}
