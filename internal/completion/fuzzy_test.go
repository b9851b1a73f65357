package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func variants(names ...string) []Variant {
	out := make([]Variant, len(names))
	for i, n := range names {
		out[i] = Variant{Text: n}
	}
	return out
}

func TestFuzzyMatcher_PrefixMatches(t *testing.T) {
	fm := NewFuzzyMatcher(false, 0.8)
	got := fm.Rank(variants("owner", "book", "bookmark"), "boo", 0)
	assert.Equal(t, []string{"book", "bookmark"}, texts(got))
	assert.Equal(t, 1.0, got[0].Score)
}

func TestFuzzyMatcher_LookupStrings(t *testing.T) {
	fm := NewFuzzyMatcher(false, 0.8)
	vs := []Variant{{Text: "b:book", LookupStrings: []string{"book"}}, {Text: "b:owner", LookupStrings: []string{"owner"}}}
	assert.Equal(t, []string{"b:book"}, texts(fm.Rank(vs, "bo", 0)))
}

func TestFuzzyMatcher_Typos(t *testing.T) {
	fm := NewFuzzyMatcher(true, 0.8)
	got := fm.Rank(variants("owner", "book"), "bok", 0)
	assert.Equal(t, []string{"book"}, texts(got))
	assert.Greater(t, got[0].Score, 0.8)
	assert.Less(t, got[0].Score, 1.0)

	assert.Empty(t, NewFuzzyMatcher(false, 0.8).Rank(variants("book"), "bok", 0), "disabled matcher keeps prefix matches only")
}

func TestFuzzyMatcher_OrderAndLimit(t *testing.T) {
	fm := NewFuzzyMatcher(true, 0.8)
	got := fm.Rank(variants("bookmark", "bookcase", "table"), "", 2)
	assert.Equal(t, []string{"bookmark", "bookcase"}, texts(got), "empty input keeps provider order")

	got = fm.Rank(variants("boko", "book", "bookcase"), "book", 0)
	assert.Equal(t, "book", got[0].Text)
	assert.Equal(t, "bookcase", got[1].Text, "prefix matches rank above fuzzy ones")
}

func TestFuzzyMatcher_Similarity(t *testing.T) {
	fm := NewFuzzyMatcher(true, 2)
	assert.Equal(t, 0.7, fm.Threshold(), "out-of-range thresholds use the default")
	assert.True(t, fm.IsEnabled())
	assert.Equal(t, 1.0, fm.Similarity("a", "a"))
	assert.Equal(t, 0.0, fm.Similarity("", "a"))
	assert.InDelta(t, 0.933, fm.Similarity("bok", "book"), 0.01)
}
