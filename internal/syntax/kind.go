package syntax

// Kind identifies the type of a syntax node
type Kind int

const (
	KindDocument Kind = iota
	KindProlog
	KindTag
	KindAttribute

	// Leaf kinds
	KindProcessingInstruction
	KindComment
	KindCDATA
	KindDoctype
	KindAttributeValue
	KindText
	KindWhitespace
	KindStartTagStart // <
	KindEndTagStart   // </
	KindTagEnd        // >
	KindEmptyTagEnd   // />
	KindName
	KindEq
	KindError
)

var kindNames = [...]string{
	KindDocument:              "Document",
	KindProlog:                "Prolog",
	KindTag:                   "Tag",
	KindAttribute:             "Attribute",
	KindProcessingInstruction: "ProcessingInstruction",
	KindComment:               "Comment",
	KindCDATA:                 "CDATA",
	KindDoctype:               "Doctype",
	KindAttributeValue:        "AttributeValue",
	KindText:                  "Text",
	KindWhitespace:            "Whitespace",
	KindStartTagStart:         "StartTagStart",
	KindEndTagStart:           "EndTagStart",
	KindTagEnd:                "TagEnd",
	KindEmptyTagEnd:           "EmptyTagEnd",
	KindName:                  "Name",
	KindEq:                    "Eq",
	KindError:                 "Error",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsComposite reports whether nodes of this kind own children
func (k Kind) IsComposite() bool {
	switch k {
	case KindDocument, KindProlog, KindTag, KindAttribute:
		return true
	}
	return false
}
