package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/tagsense/internal/debug"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// TagDirScheme prefixes the namespace URI of every tag directory
const TagDirScheme = "urn:tagdir:"

// TagFilePattern selects the fragment files of a tag directory
const TagFilePattern = "**/*.{tag,tagx,xml}"

// TagDirProvider turns directories of markup fragments into namespaces:
// every fragment file is an element named after the file, and the file
// itself is the element's declaration.
type TagDirProvider struct {
	mu    sync.RWMutex
	dirs  map[string]*TagDir
	order []string
}

// NewTagDirProvider creates an empty provider
func NewTagDirProvider() *TagDirProvider {
	return &TagDirProvider{dirs: make(map[string]*TagDir)}
}

// TagDirNamespace returns the namespace URI assigned to the directory at root
func TagDirNamespace(root string) string {
	return TagDirScheme + filepath.Base(filepath.Clean(root))
}

// AddDir scans root for fragment files and registers the directory,
// replacing any earlier scan of the same namespace. It returns the namespace URI.
func (p *TagDirProvider) AddDir(root string) (string, error) {
	return p.AddFS(root, os.DirFS(root))
}

// AddFS registers fsys as the tag directory located at root
func (p *TagDirProvider) AddFS(root string, fsys fs.FS) (string, error) {
	matches, err := doublestar.Glob(fsys, TagFilePattern)
	if err != nil {
		return "", fmt.Errorf("scanning tag directory %s: %w", root, err)
	}
	sort.Strings(matches)

	dir := &TagDir{
		uri:    TagDirNamespace(root),
		root:   root,
		byName: make(map[string]*TagFileElement),
	}
	for _, m := range matches {
		base := filepath.Base(m)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if _, dup := dir.byName[name]; dup || name == "" {
			continue
		}
		e := &TagFileElement{
			name: name,
			file: xmltree.NewFile(filepath.Join(root, filepath.FromSlash(m))),
			dir:  dir,
		}
		dir.byName[name] = e
		dir.elements = append(dir.elements, e)
	}

	p.mu.Lock()
	if _, exists := p.dirs[dir.uri]; !exists {
		p.order = append(p.order, dir.uri)
	}
	p.dirs[dir.uri] = dir
	p.mu.Unlock()

	debug.LogSchema("tag directory %s: %d elements as %s\n", root, len(dir.elements), dir.uri)
	return dir.uri, nil
}

// Reset forgets every registered directory
func (p *TagDirProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs = make(map[string]*TagDir)
	p.order = nil
}

// Roots returns the registered directory roots in registration order
func (p *TagDirProvider) Roots() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.order))
	for _, uri := range p.order {
		out = append(out, p.dirs[uri].root)
	}
	return out
}

func (p *TagDirProvider) IsAvailable(*xmltree.File) bool { return true }

func (p *TagDirProvider) AvailableNamespaces(_ *xmltree.File, tagName string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, uri := range p.order {
		if tagName == "" || p.dirs[uri].byName[tagName] != nil {
			out = append(out, uri)
		}
	}
	return out
}

func (p *TagDirProvider) NSDescriptor(namespace string, _ *xmltree.File) xmltree.NSDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if d, ok := p.dirs[namespace]; ok {
		return d
	}
	return nil
}

// TagDir is the namespace descriptor of one tag directory
type TagDir struct {
	uri      string
	root     string
	elements []*TagFileElement
	byName   map[string]*TagFileElement
}

func (d *TagDir) Namespace() string           { return d.uri }
func (d *TagDir) Root() string                { return d.root }
func (d *TagDir) Declaration() xmltree.Target { return xmltree.NewFile(d.root) }

func (d *TagDir) RootElementsDescriptors(*xmltree.Document) []xmltree.ElementDescriptor {
	out := make([]xmltree.ElementDescriptor, len(d.elements))
	for i, e := range d.elements {
		out[i] = e
	}
	return out
}

func (d *TagDir) ElementDescriptor(tag *xmltree.Tag) xmltree.ElementDescriptor {
	if e, ok := d.byName[tag.LocalName()]; ok {
		return e
	}
	return nil
}

// TagFileElement is an element backed by a fragment file
type TagFileElement struct {
	name string
	file *xmltree.File
	dir  *TagDir
}

func (e *TagFileElement) Name(context *xmltree.Tag) string {
	if context != nil {
		if prefix, ok := context.PrefixByNamespace(e.dir.uri); ok && prefix != "" {
			return prefix + ":" + e.name
		}
	}
	return e.name
}

func (e *TagFileElement) DefaultName() string                { return e.name }
func (e *TagFileElement) Declaration() xmltree.Target        { return e.file }
func (e *TagFileElement) File() *xmltree.File                { return e.file }
func (e *TagFileElement) NSDescriptor() xmltree.NSDescriptor { return e.dir }
func (e *TagFileElement) AllowsAnyContent() bool             { return true }

func (e *TagFileElement) ElementsDescriptors(*xmltree.Tag) []xmltree.ElementDescriptor {
	return nil
}

// ElementDescriptor treats the body of a fragment tag as free-form content
func (e *TagFileElement) ElementDescriptor(child, _ *xmltree.Tag) xmltree.ElementDescriptor {
	return lookupOrAny(child)
}
