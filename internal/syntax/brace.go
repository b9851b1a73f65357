package syntax

// BracePair describes two token kinds that delimit a structural unit
type BracePair struct {
	Left       Kind
	Right      Kind
	Structural bool
}

var xmlBracePairs = []BracePair{
	{Left: KindStartTagStart, Right: KindTagEnd, Structural: true},
	{Left: KindStartTagStart, Right: KindEmptyTagEnd, Structural: true},
	{Left: KindEndTagStart, Right: KindTagEnd, Structural: true},
}

// BracePairs returns the brace pairs of the XML token set
func BracePairs() []BracePair {
	out := make([]BracePair, len(xmlBracePairs))
	copy(out, xmlBracePairs)
	return out
}

func isLeftBrace(k Kind) bool {
	return k == KindStartTagStart || k == KindEndTagStart
}

func isRightBrace(k Kind) bool {
	return k == KindTagEnd || k == KindEmptyTagEnd
}

// IsPairedBrace reports whether left and right form one of the brace pairs
func IsPairedBrace(left, right Kind) bool {
	for _, bp := range xmlBracePairs {
		if bp.Left == left && bp.Right == right {
			return true
		}
	}
	return false
}

// MatchBrace finds the partner of the brace token at offset. The second result
// is false when offset is not on a brace or the brace has no partner.
func MatchBrace(root *Node, offset int) (*Node, bool) {
	leaf := LeafAt(root, offset)
	if leaf == nil {
		return nil, false
	}
	switch {
	case isLeftBrace(leaf.kind):
		for s := leaf.NextSibling(); s != nil; s = s.NextSibling() {
			if isLeftBrace(s.kind) {
				return nil, false
			}
			if isRightBrace(s.kind) && IsPairedBrace(leaf.kind, s.kind) {
				return s, true
			}
			if isRightBrace(s.kind) {
				return nil, false
			}
		}
	case isRightBrace(leaf.kind):
		for s := leaf.PrevSibling(); s != nil; s = s.PrevSibling() {
			if isRightBrace(s.kind) {
				return nil, false
			}
			if isLeftBrace(s.kind) && IsPairedBrace(s.kind, leaf.kind) {
				return s, true
			}
			if isLeftBrace(s.kind) {
				return nil, false
			}
		}
	}
	return nil, false
}
