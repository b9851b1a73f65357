package schema

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/tagsense/internal/xmltree"
)

func tagFS() fstest.MapFS {
	return fstest.MapFS{
		"card.tag":           {Data: []byte("<div class=\"card\"/>")},
		"nested/button.tagx": {Data: []byte("<button/>")},
		"nested/card.xml":    {Data: []byte("<section/>")},
		"readme.txt":         {Data: []byte("not a tag")},
	}
}

func TestTagDirProvider_AddFS(t *testing.T) {
	p := NewTagDirProvider()
	uri, err := p.AddFS("/project/tags", tagFS())
	require.NoError(t, err)
	assert.Equal(t, "urn:tagdir:tags", uri)
	assert.Equal(t, []string{"/project/tags"}, p.Roots())

	ns := p.NSDescriptor(uri, nil)
	require.NotNil(t, ns)
	assert.Equal(t, []string{"card", "button"}, names(ns.RootElementsDescriptors(nil)),
		"the first file with a given name wins")

	assert.Nil(t, p.NSDescriptor("urn:tagdir:other", nil))
	assert.Equal(t, []string{uri}, p.AvailableNamespaces(nil, "button"))
	assert.Empty(t, p.AvailableNamespaces(nil, "readme"))
}

func TestTagFileElement(t *testing.T) {
	p := NewTagDirProvider()
	uri, err := p.AddFS("/project/tags", tagFS())
	require.NoError(t, err)

	doc := xmltree.Parse("page.xml", `<page xmlns:t="urn:tagdir:tags"><t:card><b><i/></b></t:card></page>`)
	doc.SetDescriptorResolver(NewRegistry(p))
	card := doc.RootTag().SubTags()[0]

	d := card.Descriptor()
	require.NotNil(t, d)
	elem, ok := d.(*TagFileElement)
	require.True(t, ok)
	assert.Equal(t, "t:card", elem.Name(card))
	assert.Equal(t, "card", elem.Name(nil))
	assert.Equal(t, uri, elem.NSDescriptor().Namespace())
	assert.True(t, AllowsAnyContent(elem))
	assert.Empty(t, elem.ElementsDescriptors(card))

	file, ok := elem.Declaration().(*xmltree.File)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/project/tags", "card.tag"), file.Path)
	assert.Same(t, file, elem.File())

	inner := card.SubTags()[0]
	_, isAny := inner.Descriptor().(*AnyElementDescriptor)
	assert.True(t, isAny, "fragment bodies are free-form")
	_, isAny = inner.SubTags()[0].Descriptor().(*AnyElementDescriptor)
	assert.True(t, isAny)
}

func TestTagDirProvider_AddDirAndReset(t *testing.T) {
	root := filepath.Join(t.TempDir(), "widgets")
	writeFile(t, root, "slider.tag", "<input/>")
	writeFile(t, root, "deep/more/knob.xml", "<span/>")

	p := NewTagDirProvider()
	uri, err := p.AddDir(root)
	require.NoError(t, err)
	assert.Equal(t, "urn:tagdir:widgets", uri)

	td, ok := p.NSDescriptor(uri, nil).(*TagDir)
	require.True(t, ok)
	assert.Equal(t, root, td.Root())
	assert.ElementsMatch(t, []string{"knob", "slider"}, names(td.RootElementsDescriptors(nil)))

	// rescanning replaces the earlier contents without duplicating the namespace
	writeFile(t, root, "extra.tag", "<b/>")
	_, err = p.AddDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{uri}, p.AvailableNamespaces(nil, ""))
	assert.Len(t, p.NSDescriptor(uri, nil).RootElementsDescriptors(nil), 3)

	p.Reset()
	assert.Empty(t, p.Roots())
	assert.Nil(t, p.NSDescriptor(uri, nil))
}
