package resolve

var (
	// StripFileSuffix drops the extension when a tag bound to a file is
	// renamed to an unprefixed name ("Foo.xsd" becomes "Foo")
	StripFileSuffix = NewKey[bool]("strip-file-suffix")

	// StrictLookup disables the fallback to the document element's namespace
	// descriptor when a namespace has no descriptor of its own
	StrictLookup = NewKey[bool]("strict-lookup")

	// ClosingTagPrefix forces closing-tag variants to carry the full
	// qualified name even when no colon has been typed
	ClosingTagPrefix = NewKey[bool]("closing-tag-prefix")
)

// StandardDefaults returns the defaults used by tag name references
func StandardDefaults() *Defaults {
	d := NewDefaults()
	DefaultsTo(d, StripFileSuffix, true)
	DefaultsTo(d, StrictLookup, false)
	DefaultsTo(d, ClosingTagPrefix, false)
	return d
}
