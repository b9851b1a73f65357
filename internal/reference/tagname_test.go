package reference

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/tagsense/internal/completion"
	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/resolve"
	"github.com/standardbeagle/tagsense/internal/schema"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

const booksXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:books" elementFormDefault="qualified">
  <xs:element name="library">
    <xs:complexType><xs:sequence>
      <xs:element name="book">
        <xs:complexType><xs:sequence>
          <xs:element name="extra"><xs:complexType><xs:sequence><xs:any/></xs:sequence></xs:complexType></xs:element>
        </xs:sequence></xs:complexType>
      </xs:element>
      <xs:element name="owner"/>
    </xs:sequence></xs:complexType>
  </xs:element>
</xs:schema>`

func booksProvider(t *testing.T) *schema.XSDProvider {
	t.Helper()
	p := schema.NewXSDProvider()
	require.NoError(t, p.Add("books.xsd", booksXSD))
	return p
}

func parse(src string, providers ...schema.Provider) *xmltree.Document {
	doc := xmltree.Parse("doc.xml", src)
	doc.SetDescriptorResolver(schema.NewRegistry(providers...))
	return doc
}

func findTag(t *testing.T, doc *xmltree.Document, name string) *xmltree.Tag {
	t.Helper()
	for _, tag := range doc.AllTags() {
		if tag.Name() == name {
			return tag
		}
	}
	require.FailNow(t, "tag not found", name)
	return nil
}

func startRef(t *testing.T, doc *xmltree.Document, name string, opts ...Option) *TagNameReference {
	t.Helper()
	tag := findTag(t, doc, name)
	require.NotNil(t, tag.StartNameNode())
	return New(doc, tag.StartNameNode(), true, opts...)
}

func endRef(t *testing.T, doc *xmltree.Document, name string, opts ...Option) *TagNameReference {
	t.Helper()
	tag := findTag(t, doc, name)
	require.NotNil(t, tag.EndNameNode())
	return New(doc, tag.EndNameNode(), false, opts...)
}

func TestRangeInElement_StartTagExcludesPrefix(t *testing.T) {
	doc := parse(`<ns:foo xmlns:ns="urn:x"/>`)
	ref := startRef(t, doc, "ns:foo")

	r := ref.RangeInElement()
	assert.Equal(t, 3, r.Length())
	assert.Equal(t, "foo", r.Substring(ref.Element().Text()))
	assert.Equal(t, "ns:foo", ref.CanonicalText())

	plain := startRef(t, parse(`<root><foo/></root>`), "foo")
	assert.Equal(t, "foo", plain.AbsoluteRange().Substring(`<root><foo/></root>`))
}

func TestRangeInElement_EndTagFromEnd(t *testing.T) {
	src := `<r><ns:foo xmlns:ns="urn:x"><a/>text</ns:foo  ></r>`
	doc := parse(src)
	ref := endRef(t, doc, "ns:foo")

	r := ref.RangeInElement()
	assert.Equal(t, "foo", r.Substring(ref.Element().Text()))
	assert.Equal(t, "foo", ref.AbsoluteRange().Substring(src))
	assert.False(t, ref.IsStartTag())
	assert.False(t, ref.IsSoft())
}

func TestResolve(t *testing.T) {
	p := booksProvider(t)
	doc := parse(`<library xmlns="urn:books"><book><extra><foo/></extra></book><unknown/></library>`, p)

	book := startRef(t, doc, "book")
	decl, ok := book.Resolve().(*xmltree.Tag)
	require.True(t, ok)
	assert.Equal(t, "xs:element", decl.Name())
	assert.Equal(t, "book", decl.AttributeValue("name"))
	assert.True(t, book.IsReferenceTo(decl))
	assert.True(t, endRef(t, doc, "book").IsReferenceTo(decl), "end tag names resolve like start tag names")

	foo := startRef(t, doc, "foo")
	assert.Same(t, findTag(t, doc, "foo"), foo.Resolve(), "wildcard matches resolve to the tag itself")

	assert.Nil(t, startRef(t, doc, "unknown").Resolve())
	assert.Nil(t, startRef(t, parse(`<plain/>`), "plain").Resolve())
}

func TestResolve_RootNamespaceFallback(t *testing.T) {
	p := booksProvider(t)
	doc := parse(`<library xmlns="urn:books"><x:library xmlns:x="urn:other"/></library>`, p)

	loose := startRef(t, doc, "x:library")
	assert.NotNil(t, loose.Resolve(), "falls back to the document element namespace")

	strict := startRef(t, doc, "x:library",
		WithState(resolve.Put(resolve.Initial(resolve.StandardDefaults()), resolve.StrictLookup, true)))
	assert.Nil(t, strict.Resolve())
}

func TestHandleElementRename(t *testing.T) {
	t.Run("explicit prefix wins", func(t *testing.T) {
		doc := parse(`<a:old xmlns:a="urn:a" xmlns:b="urn:b"></a:old>`)
		tag, err := startRef(t, doc, "a:old").HandleElementRename("b:new")
		require.NoError(t, err)
		assert.Equal(t, "b:new", tag.Name())
		assert.Equal(t, `<b:new xmlns:a="urn:a" xmlns:b="urn:b"></b:new>`, doc.Text())
	})

	t.Run("current prefix kept", func(t *testing.T) {
		doc := parse(`<a:old xmlns:a="urn:a"/>`)
		tag, err := startRef(t, doc, "a:old").HandleElementRename("new")
		require.NoError(t, err)
		assert.Equal(t, "a:new", tag.Name())
	})

	t.Run("unprefixed stays unprefixed", func(t *testing.T) {
		doc := parse(`<old/>`)
		_, err := startRef(t, doc, "old").HandleElementRename("my.new")
		require.NoError(t, err)
		assert.Equal(t, `<my.new/>`, doc.Text(), "suffix kept when the target is not a file")
	})

	t.Run("end tag is a no-op", func(t *testing.T) {
		src := `<old></old>`
		doc := parse(src)
		tag, err := endRef(t, doc, "old").HandleElementRename("new")
		require.NoError(t, err)
		assert.Same(t, findTag(t, doc, "old"), tag)
		assert.Equal(t, src, doc.Text())
	})

	t.Run("invalid name", func(t *testing.T) {
		doc := parse(`<old/>`)
		_, err := startRef(t, doc, "old").HandleElementRename("1bad")
		var nameErr *tagerrors.InvalidNameError
		assert.True(t, errors.As(err, &nameErr))
		assert.Equal(t, `<old/>`, doc.Text())
	})
}

func TestHandleElementRename_FileTarget(t *testing.T) {
	tags := schema.NewTagDirProvider()
	_, err := tags.AddFS("/ui/tags", fstest.MapFS{"card.tag": {Data: []byte("<div/>")}})
	require.NoError(t, err)

	doc := parse(`<t:card xmlns:t="urn:tagdir:tags"/>`, tags)
	ref := startRef(t, doc, "t:card")
	_, isFile := ref.Resolve().(*xmltree.File)
	require.True(t, isFile)

	tag, err := ref.HandleElementRename("panel.tag")
	require.NoError(t, err)
	assert.Equal(t, "t:panel", tag.Name())

	doc = parse(`<t:card xmlns:t="urn:tagdir:tags"/>`, tags)
	keep := startRef(t, doc, "t:card",
		WithState(resolve.Put(resolve.Initial(resolve.StandardDefaults()), resolve.StripFileSuffix, false)))
	tag, err = keep.HandleElementRename("panel.tag")
	require.NoError(t, err)
	assert.Equal(t, "t:panel.tag", tag.Name())
}

func TestBindToElement(t *testing.T) {
	t.Run("file keeps prefix and drops suffix", func(t *testing.T) {
		doc := parse(`<xs:thing xmlns:xs="urn:x"></xs:thing>`)
		tag, err := startRef(t, doc, "xs:thing").BindToElement(xmltree.NewFile("/schemas/Foo.xsd"))
		require.NoError(t, err)
		assert.Equal(t, "xs:Foo", tag.Name())
		assert.Equal(t, `<xs:Foo xmlns:xs="urn:x"></xs:Foo>`, doc.Text())
	})

	t.Run("file on end tag is a no-op", func(t *testing.T) {
		doc := parse(`<thing></thing>`)
		tag, err := endRef(t, doc, "thing").BindToElement(xmltree.NewFile("Foo.xsd"))
		require.NoError(t, err)
		assert.Equal(t, "thing", tag.Name())
	})

	t.Run("declaration with descriptor", func(t *testing.T) {
		p := booksProvider(t)
		owner := p.Namespace("urn:books").Element("library").ElementsDescriptors(nil)[1].(*schema.XSDElement)

		doc := parse(`<b:library xmlns:b="urn:books"><b:book/></b:library>`, p)
		tag, err := startRef(t, doc, "b:book").BindToElement(owner.DeclarationTag())
		require.NoError(t, err)
		assert.Equal(t, "b:owner", tag.Name())
	})

	t.Run("unsupported targets", func(t *testing.T) {
		doc := parse(`<a x="1"><b/></a>`)
		ref := startRef(t, doc, "a")

		targets := []xmltree.Target{
			findTag(t, doc, "a").Attribute("x"),
			findTag(t, doc, "b"),
			nil,
		}
		for _, target := range targets {
			_, err := ref.BindToElement(target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tagerrors.ErrUnsupportedOperation))

			var bindErr *tagerrors.UnsupportedBindError
			require.True(t, errors.As(err, &bindErr))
			assert.NotEmpty(t, bindErr.Target)
		}
		assert.Equal(t, `<a x="1"><b/></a>`, doc.Text())
	})
}

func TestVariants_EndTag(t *testing.T) {
	ref := endRef(t, parse(`<div></dummy>`), "div")
	assert.Equal(t, []completion.Variant{{Text: "div", Tail: ">"}}, ref.Variants())

	prefixedTyped := endRef(t, parse(`<x:div xmlns:x="urn:x"></x:dum>`), "x:div")
	assert.Equal(t, "div", prefixedTyped.Variants()[0].Text, "colon typed: local name")

	prefixedUntyped := endRef(t, parse(`<x:div xmlns:x="urn:x"></dum>`), "x:div")
	assert.Equal(t, "x:div", prefixedUntyped.Variants()[0].Text)

	forced := endRef(t, parse(`<x:div xmlns:x="urn:x"></x:dum>`), "x:div",
		WithState(resolve.Put(resolve.Initial(resolve.StandardDefaults()), resolve.ClosingTagPrefix, true)))
	assert.Equal(t, "x:div", forced.Variants()[0].Text)
}

func TestVariants_StartTag(t *testing.T) {
	p := booksProvider(t)
	doc := parse(`<b:library xmlns:b="urn:books"><b:x/></b:library>`, p)

	got := startRef(t, doc, "b:x").Variants()
	require.Len(t, got, 2)
	assert.Equal(t, "book", got[0].Text, "the typed prefix is stripped")
	assert.Equal(t, "owner", got[1].Text)

	extra := completion.TagNameProviderFunc(func(out []completion.Variant, _ *xmltree.Tag, prefix string) []completion.Variant {
		return append(out, completion.Variant{Text: "custom-" + prefix})
	})
	custom := startRef(t, doc, "b:x", WithProviders(extra, completion.DefaultTagNameProvider{}))
	texts := make([]string, 0)
	for _, v := range custom.Variants() {
		texts = append(texts, v.Text)
	}
	assert.Equal(t, []string{"custom-b", "book", "owner"}, texts)
}

func TestInvalidatedReference(t *testing.T) {
	p := booksProvider(t)
	doc := parse(`<library xmlns="urn:books"><book/></library>`, p)
	ref := startRef(t, doc, "book")
	require.NotNil(t, ref.Resolve())

	_, err := findTag(t, doc, "book").SetName("owner")
	require.NoError(t, err)

	assert.False(t, ref.Valid())
	assert.Equal(t, 0, ref.RangeInElement().Length())
	assert.Equal(t, 0, ref.AbsoluteRange().Length())
	assert.Nil(t, ref.Resolve())
	assert.Empty(t, ref.Variants())

	tag, err := ref.HandleElementRename("other")
	assert.NoError(t, err)
	assert.Nil(t, tag)
}

func TestSameTarget(t *testing.T) {
	doc := parse(`<a/>`)
	a := findTag(t, doc, "a")
	assert.True(t, SameTarget(a, a))
	assert.True(t, SameTarget(xmltree.NewFile("/x.xsd"), xmltree.NewFile("/x.xsd")))
	assert.False(t, SameTarget(xmltree.NewFile("/x.xsd"), a))
	assert.False(t, SameTarget(nil, a))
	assert.True(t, SameTarget(nil, nil))
}

func TestAt(t *testing.T) {
	src := `<a><bb/></a>`
	doc := parse(src)
	tests := []struct {
		offset int
		name   string
		start  bool
	}{
		{1, "a", true},
		{4, "bb", true},
		{6, "bb", true},
		{10, "a", false},
		{11, "a", false},
	}
	for _, tt := range tests {
		ref := At(doc, tt.offset)
		require.NotNil(t, ref, "offset %d", tt.offset)
		assert.Equal(t, tt.name, ref.CanonicalText(), "offset %d", tt.offset)
		assert.Equal(t, tt.start, ref.IsStartTag(), "offset %d", tt.offset)
	}
	assert.Nil(t, At(doc, 0))
	assert.Nil(t, At(parse(`<a x="1"/>`), 3), "attribute names are not tag names")
}
