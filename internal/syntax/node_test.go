package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComposite(t *testing.T) {
	lt := NewLeaf(KindStartTagStart, "<")
	name := NewLeaf(KindName, "item")
	gt := NewLeaf(KindEmptyTagEnd, "/>")
	tag := NewComposite(KindTag, lt, name, gt)

	assert.Equal(t, 7, tag.TextLength())
	assert.Equal(t, "<item/>", tag.Text())
	assert.Same(t, tag, name.Parent())
	assert.Same(t, lt, name.PrevSibling())
	assert.Same(t, gt, name.NextSibling())
	assert.Nil(t, lt.PrevSibling())
	assert.Nil(t, gt.NextSibling())
	assert.Equal(t, 1, name.StartOffsetInParent())
	assert.Nil(t, NewComposite(KindTag).FirstChild())
}

func TestOffsetFromEnd(t *testing.T) {
	root, _ := Parse("test.xml", "<ns:div>body</ns:div  >")
	tag := root.FirstChild()

	var endName *Node
	for _, c := range tag.Children() {
		if c.Kind() == KindName && c.PrevSibling().Kind() == KindEndTagStart {
			endName = c
		}
	}
	require.NotNil(t, endName)

	// Whitespace and '>' follow the end name
	assert.Equal(t, 3, OffsetFromEnd(tag, endName))
	assert.Equal(t, 0, OffsetFromEnd(tag, tag.LastChild()))
	assert.Equal(t, tag.TextLength(), OffsetFromEnd(tag, NewLeaf(KindName, "x")))

	nameEnd := tag.TextLength() - OffsetFromEnd(tag, endName)
	assert.Equal(t, endName.StartOffsetInParent()+endName.TextLength(), nameEnd)
}

func TestOffsetFromEnd_WideSiblingList(t *testing.T) {
	// Many siblings exercise the iterative walk
	var sb strings.Builder
	sb.WriteString("<r>")
	for i := 0; i < 10000; i++ {
		sb.WriteString("<c/>")
	}
	sb.WriteString("</r>")

	root, _ := Parse("wide.xml", sb.String())
	r := root.FirstChild()
	assert.Equal(t, 40000+4, OffsetFromEnd(r, r.Child(2)))
}

func TestReplaceChild(t *testing.T) {
	root, _ := Parse("test.xml", "<a>x</a>")
	tag := root.FirstChild()
	oldName := tag.Child(1)
	inner := NewLeaf(KindName, "abc")

	require.NoError(t, tag.ReplaceChild(oldName, inner))
	assert.Equal(t, "<abc>x</a>", root.Text())
	assert.Equal(t, 10, root.TextLength())
	assert.Equal(t, 10, tag.TextLength())

	assert.False(t, oldName.Valid())
	assert.True(t, inner.Valid())
	assert.Nil(t, oldName.NextSibling())
	assert.Same(t, tag.Child(2), inner.NextSibling())

	assert.ErrorIs(t, tag.ReplaceChild(oldName, NewLeaf(KindName, "z")), ErrNotAChild)
	assert.ErrorIs(t, root.ReplaceChild(inner, NewLeaf(KindName, "z")), ErrNotAChild)
}

func TestValid_PropagatesFromAncestor(t *testing.T) {
	root, _ := Parse("test.xml", "<a><b>t</b></a>")
	a := root.FirstChild()
	b := a.Child(3)
	text := b.Child(3)
	require.Equal(t, KindText, text.Kind())

	require.NoError(t, a.ReplaceChild(b, NewLeaf(KindText, "gone")))
	assert.False(t, b.Valid())
	assert.False(t, text.Valid())
	assert.Equal(t, "<a>gone</a>", root.Text())
}

func TestLeafAt(t *testing.T) {
	root, _ := Parse("test.xml", "<a>x</a>")

	tests := []struct {
		offset int
		kind   Kind
		text   string
	}{
		{0, KindStartTagStart, "<"},
		{1, KindName, "a"},
		{2, KindTagEnd, ">"},
		{3, KindText, "x"},
		{4, KindEndTagStart, "</"},
		{5, KindEndTagStart, "</"},
		{6, KindName, "a"},
		{8, KindTagEnd, ">"},
	}
	for _, tt := range tests {
		leaf := LeafAt(root, tt.offset)
		require.NotNil(t, leaf, "offset %d", tt.offset)
		assert.Equal(t, tt.kind, leaf.Kind(), "offset %d", tt.offset)
		assert.Equal(t, tt.text, leaf.Text(), "offset %d", tt.offset)
	}

	assert.Nil(t, LeafAt(root, -1))
	assert.Nil(t, LeafAt(root, 9))
}

func TestWalk(t *testing.T) {
	root, _ := Parse("test.xml", "<a><b/><c/></a>")

	var names []string
	Walk(root, func(n *Node) bool {
		if n.Kind() == KindName {
			names = append(names, n.Text())
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "a"}, names)

	visited := 0
	Walk(root, func(n *Node) bool {
		visited++
		return n.Kind() != KindTag
	})
	assert.Equal(t, 2, visited)
}

func TestAncestorOfKind(t *testing.T) {
	root, _ := Parse("test.xml", `<a x="1"/>`)
	value := LeafAt(root, 5)
	require.Equal(t, KindAttributeValue, value.Kind())

	assert.Equal(t, KindAttribute, AncestorOfKind(value, KindAttribute).Kind())
	assert.Equal(t, KindTag, AncestorOfKind(value, KindTag).Kind())
	assert.Nil(t, AncestorOfKind(value, KindProlog))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Tag", KindTag.String())
	assert.Equal(t, "EmptyTagEnd", KindEmptyTagEnd.String())
	assert.Equal(t, "Unknown", Kind(99).String())
	assert.True(t, KindAttribute.IsComposite())
	assert.False(t, KindName.IsComposite())
}
