package completion

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// FuzzyMatcher scores variants against typed text using Jaro-Winkler
// similarity. Variants whose lookup strings start with the typed text always
// score 1.
type FuzzyMatcher struct {
	enabled   bool
	threshold float64
}

// NewFuzzyMatcher creates a matcher. Thresholds outside [0,1] fall back to 0.7.
func NewFuzzyMatcher(enabled bool, threshold float64) *FuzzyMatcher {
	if threshold < 0 || threshold > 1 {
		threshold = 0.7
	}
	return &FuzzyMatcher{enabled: enabled, threshold: threshold}
}

func (fm *FuzzyMatcher) IsEnabled() bool    { return fm.enabled }
func (fm *FuzzyMatcher) Threshold() float64 { return fm.threshold }

// Similarity returns the Jaro-Winkler similarity of a and b (0.0-1.0)
func (fm *FuzzyMatcher) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}

// Score returns the best score of typed against v's lookup strings
func (fm *FuzzyMatcher) Score(v Variant, typed string) float64 {
	if v.MatchesPrefix(typed) {
		return 1.0
	}
	if !fm.enabled {
		return 0.0
	}
	best := 0.0
	for _, s := range v.AllLookupStrings() {
		if sim := fm.Similarity(typed, s); sim > best {
			best = sim
		}
	}
	return best
}

// Rank filters variants to those matching typed and orders them by score,
// keeping provider order among equal scores. Empty typed text keeps every
// variant in its original order. A limit of zero or less means no limit.
func (fm *FuzzyMatcher) Rank(variants []Variant, typed string, limit int) []Variant {
	var out []Variant
	if typed == "" {
		out = append(out, variants...)
	} else {
		for _, v := range variants {
			score := fm.Score(v, typed)
			if score < 1.0 && score < fm.threshold {
				continue
			}
			v.Score = score
			out = append(out, v)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
