package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/tagsense/internal/xmltree"
)

type stubNS struct{ uri string }

func (s *stubNS) Namespace() string                                                    { return s.uri }
func (s *stubNS) RootElementsDescriptors(*xmltree.Document) []xmltree.ElementDescriptor { return nil }
func (s *stubNS) ElementDescriptor(*xmltree.Tag) xmltree.ElementDescriptor              { return nil }
func (s *stubNS) Declaration() xmltree.Target                                           { return nil }

type stubProvider struct {
	available  bool
	namespaces []string
	descs      map[string]*stubNS
}

func (s *stubProvider) IsAvailable(*xmltree.File) bool { return s.available }

func (s *stubProvider) AvailableNamespaces(*xmltree.File, string) []string { return s.namespaces }

func (s *stubProvider) NSDescriptor(ns string, _ *xmltree.File) xmltree.NSDescriptor {
	if d, ok := s.descs[ns]; ok {
		return d
	}
	return nil
}

func TestRegistry_Order(t *testing.T) {
	shared := &stubNS{uri: "urn:shared"}
	first := &stubProvider{available: true, namespaces: []string{"urn:a", "urn:shared"},
		descs: map[string]*stubNS{"urn:shared": shared}}
	second := &stubProvider{available: true, namespaces: []string{"urn:shared", "urn:b"},
		descs: map[string]*stubNS{"urn:shared": {uri: "urn:shared"}, "urn:b": {uri: "urn:b"}}}
	hidden := &stubProvider{available: false, namespaces: []string{"urn:hidden"},
		descs: map[string]*stubNS{"urn:hidden": {uri: "urn:hidden"}}}

	r := NewRegistry(first, second)
	r.Register(hidden)

	assert.Len(t, r.Providers(), 3)
	assert.Len(t, r.AvailableProviders(nil), 2)
	assert.Equal(t, []string{"urn:a", "urn:shared", "urn:b"}, r.AvailableNamespaces(nil, ""))

	assert.Same(t, shared, r.NSDescriptor("urn:shared", nil), "earlier providers win")
	assert.Equal(t, "urn:b", r.NSDescriptor("urn:b", nil).Namespace())
	assert.Nil(t, r.NSDescriptor("urn:hidden", nil), "unavailable providers are skipped")
	assert.Nil(t, r.NSDescriptor("urn:none", nil))
}

func TestRegistry_MixedProviders(t *testing.T) {
	xsd := NewXSDProvider()
	require.NoError(t, xsd.Add("books.xsd", booksXSD))
	tags := NewTagDirProvider()
	_, err := tags.AddFS("/tags", tagFS())
	require.NoError(t, err)

	r := NewRegistry(xsd, tags)
	assert.Equal(t, []string{"urn:books", "urn:tagdir:tags"}, r.AvailableNamespaces(nil, ""))
	assert.Equal(t, []string{"urn:tagdir:tags"}, r.AvailableNamespaces(nil, "card"))
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`namespaces:
  - uri: urn:books
    location: schemas/books.xsd
  - uri: urn:abs
    location: /opt/schemas/abs.xsd
`)
	c, err := ParseCatalog(data, "/work")
	require.NoError(t, err)

	e, ok := c.Lookup("urn:books")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/work", "schemas", "books.xsd"), e.Location)

	e, ok = c.Lookup("urn:abs")
	require.True(t, ok)
	assert.Equal(t, "/opt/schemas/abs.xsd", e.Location)

	_, ok = c.Lookup("urn:missing")
	assert.False(t, ok)
	assert.Len(t, c.Locations(), 2)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing location", "namespaces:\n  - uri: urn:x\n"},
		{"missing uri", "namespaces:\n  - location: x.xsd\n"},
		{"bad yaml", "namespaces: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data), "")
			assert.Error(t, err)
		})
	}
}

func TestCatalog_NilSafe(t *testing.T) {
	var c *Catalog
	_, ok := c.Lookup("urn:x")
	assert.False(t, ok)
	assert.Nil(t, c.Locations())
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespaces:\n  - uri: urn:x\n    location: x.xsd\n"), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	e, ok := c.Lookup("urn:x")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "x.xsd"), e.Location)

	_, err = LoadCatalog(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
