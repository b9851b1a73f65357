package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
)

func kinds(nodes []*Node) []Kind {
	out := make([]Kind, len(nodes))
	for i, n := range nodes {
		out[i] = n.Kind()
	}
	return out
}

func hasDiag(diags []*tagerrors.ParseError, cause error) bool {
	for _, d := range diags {
		if errors.Is(d, cause) {
			return true
		}
	}
	return false
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"<a/>",
		`<?xml version="1.0"?>` + "\n<!DOCTYPE a [<!ELEMENT a ANY>]>\n<a x=\"1\" y='2'><b>text</b><!-- c --><![CDATA[<raw>]]></a>\n",
		"<root><fo</root>",
		"<a><b></a>",
		"</stray>",
		"<a b>",
		"<a b=unquoted>",
		`<a b="open>`,
		"<a <b>",
		"<a 1=2>",
		"<!-- never closed",
		"<ns:item xmlns:ns=\"urn:x\">\n  <ns:child/>\n</ns:item>",
		"plain text < not a tag",
		"<é attr=\"ü\">ψ</é>",
	}

	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			root, _ := Parse("test.xml", src)
			require.NotNil(t, root)
			assert.Equal(t, KindDocument, root.Kind())
			assert.Equal(t, src, root.Text())
			assert.Equal(t, len(src), root.TextLength())
		})
	}
}

func TestParse_TagStructure(t *testing.T) {
	root, diags := Parse("test.xml", `<a x="1"><b/></a>`)
	assert.Empty(t, diags)
	require.Equal(t, 1, root.ChildCount())

	a := root.FirstChild()
	assert.Equal(t, KindTag, a.Kind())
	assert.Equal(t, []Kind{
		KindStartTagStart, KindName, KindWhitespace, KindAttribute, KindTagEnd,
		KindTag,
		KindEndTagStart, KindName, KindTagEnd,
	}, kinds(a.Children()))

	attr := a.Child(3)
	assert.Equal(t, []Kind{KindName, KindEq, KindAttributeValue}, kinds(attr.Children()))
	assert.Equal(t, `"1"`, attr.LastChild().Text())

	b := a.Child(5)
	assert.Equal(t, []Kind{KindStartTagStart, KindName, KindEmptyTagEnd}, kinds(b.Children()))
	assert.Equal(t, 9, b.StartOffset())

	endName := a.Child(7)
	assert.Equal(t, "a", endName.Text())
	assert.Equal(t, 15, endName.StartOffset())
	assert.Equal(t, 15, endName.StartOffsetInParent())
}

func TestParse_AttributeWhitespace(t *testing.T) {
	root, diags := Parse("test.xml", `<a b = "1"/>`)
	assert.Empty(t, diags)
	attr := root.FirstChild().Child(3)
	assert.Equal(t, KindAttribute, attr.Kind())
	assert.Equal(t, []Kind{KindName, KindWhitespace, KindEq, KindWhitespace, KindAttributeValue}, kinds(attr.Children()))
}

func TestParse_Prolog(t *testing.T) {
	root, diags := Parse("test.xml", "<?xml version=\"1.0\"?>\n<a/>")
	assert.Empty(t, diags)
	require.Equal(t, 2, root.ChildCount())

	prolog := root.FirstChild()
	assert.Equal(t, KindProlog, prolog.Kind())
	assert.Equal(t, []Kind{KindProcessingInstruction, KindWhitespace}, kinds(prolog.Children()))
	assert.Equal(t, 22, prolog.TextLength())
	assert.Equal(t, KindTag, root.LastChild().Kind())
}

func TestParse_Recovery(t *testing.T) {
	t.Run("unterminated start tag inside parent", func(t *testing.T) {
		root, diags := Parse("test.xml", "<root><fo</root>")
		assert.True(t, hasDiag(diags, ErrUnterminatedStartTag))
		assert.True(t, hasDiag(diags, ErrUnclosedTag))

		rootTag := root.FirstChild()
		require.Equal(t, KindTag, rootTag.Kind())
		child := rootTag.Child(3)
		assert.Equal(t, KindTag, child.Kind())
		assert.Equal(t, "<fo", child.Text())
		assert.Equal(t, KindEndTagStart, child.NextSibling().Kind())
	})

	t.Run("end tag closes ancestor", func(t *testing.T) {
		root, diags := Parse("test.xml", "<a><b></a>")
		assert.True(t, hasDiag(diags, ErrUnclosedTag))
		assert.False(t, hasDiag(diags, ErrMismatchedEndTag))

		a := root.FirstChild()
		assert.Equal(t, "<b>", a.Child(3).Text())
		assert.Equal(t, "a", a.Child(5).Text())
	})

	t.Run("mismatched end tag is consumed", func(t *testing.T) {
		root, diags := Parse("test.xml", "<a></b>")
		assert.True(t, hasDiag(diags, ErrMismatchedEndTag))
		a := root.FirstChild()
		assert.Equal(t, "<a></b>", a.Text())
		assert.Equal(t, KindEndTagStart, a.Child(3).Kind())
	})

	t.Run("stray end tag", func(t *testing.T) {
		root, diags := Parse("test.xml", "</x>")
		assert.True(t, hasDiag(diags, ErrStrayEndTag))
		assert.Equal(t, KindError, root.FirstChild().Kind())
	})

	t.Run("attribute without value", func(t *testing.T) {
		root, diags := Parse("test.xml", "<a b/>")
		assert.True(t, hasDiag(diags, ErrMissingAttrValue))
		attr := root.FirstChild().Child(3)
		assert.Equal(t, []Kind{KindName}, kinds(attr.Children()))
	})

	t.Run("unexpected character", func(t *testing.T) {
		root, diags := Parse("test.xml", "<a 1/>")
		assert.True(t, hasDiag(diags, ErrUnexpectedCharacter))
		assert.Equal(t, KindError, root.FirstChild().Child(3).Kind())
	})

	t.Run("empty end tag completion", func(t *testing.T) {
		root, _ := Parse("test.xml", "<div></")
		div := root.FirstChild()
		assert.Equal(t, KindEndTagStart, div.LastChild().Kind())
	})
}

func TestParse_DiagnosticPosition(t *testing.T) {
	_, diags := Parse("doc.xml", "<a>\n  <b>\n</a>")
	require.NotEmpty(t, diags)

	var unclosed *tagerrors.ParseError
	for _, d := range diags {
		if errors.Is(d, ErrUnclosedTag) {
			unclosed = d
		}
	}
	require.NotNil(t, unclosed)
	assert.Equal(t, "doc.xml", unclosed.FilePath)
	assert.Equal(t, 6, unclosed.Offset)
	assert.Equal(t, 2, unclosed.Line)
	assert.Equal(t, 3, unclosed.Column)
	assert.Equal(t, "<b", unclosed.Token)
}

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"div", true},
		{"xs:element", true},
		{"_private", true},
		{"a-b.c1", true},
		{"ünï", true},
		{"", false},
		{"1abc", false},
		{"a:b:c", false},
		{":a", false},
		{"a:", false},
		{"a:1", false},
		{"a b", false},
		{"a>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidName(tt.name))
		})
	}
}

func TestSplitName(t *testing.T) {
	prefix, local := SplitName("xs:element")
	assert.Equal(t, "xs", prefix)
	assert.Equal(t, "element", local)

	prefix, local = SplitName("div")
	assert.Equal(t, "", prefix)
	assert.Equal(t, "div", local)
}
