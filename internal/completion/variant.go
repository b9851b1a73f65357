// Package completion produces tag name completion variants from the
// namespace descriptors visible at a tag.
package completion

import "strings"

// InsertHandler names the editor action that runs when a variant is accepted
type InsertHandler string

const (
	InsertNone InsertHandler = ""
	// InsertTag completes the surrounding tag markup
	InsertTag InsertHandler = "tag"
)

// Variant is one completion entry
type Variant struct {
	Text          string        `json:"text"`
	LookupStrings []string      `json:"lookup_strings,omitempty"`
	TypeText      string        `json:"type_text,omitempty"`
	Tail          string        `json:"tail,omitempty"`
	Insert        InsertHandler `json:"insert,omitempty"`
	Score         float64       `json:"score,omitempty"`
}

// AllLookupStrings returns the text followed by the extra lookup strings
func (v Variant) AllLookupStrings() []string {
	out := make([]string, 0, 1+len(v.LookupStrings))
	out = append(out, v.Text)
	return append(out, v.LookupStrings...)
}

// MatchesPrefix reports whether any lookup string starts with typed
func (v Variant) MatchesPrefix(typed string) bool {
	for _, s := range v.AllLookupStrings() {
		if strings.HasPrefix(s, typed) {
			return true
		}
	}
	return false
}

// NameVariant is a qualified tag name and the namespace that produced it
type NameVariant struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// LocalName returns the part of the name after the prefix
func (n NameVariant) LocalName() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// StripPrefix removes a leading "prefix:" from qname. Names are QNames, so
// at most one prefix is ever removed and a second call changes nothing.
func StripPrefix(qname, prefix string) string {
	if prefix == "" {
		return qname
	}
	rest, ok := strings.CutPrefix(qname, prefix+":")
	if !ok || strings.IndexByte(rest, ':') >= 0 {
		return qname
	}
	return rest
}
