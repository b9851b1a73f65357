package syntax

import (
	"errors"
	"strings"
	"unicode/utf8"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/types"
)

// Diagnostic causes reported by Parse
var (
	ErrUnclosedTag          = errors.New("tag is never closed")
	ErrUnterminatedStartTag = errors.New("start tag is missing '>'")
	ErrUnterminatedEndTag   = errors.New("end tag is missing '>'")
	ErrMismatchedEndTag     = errors.New("end tag does not match the open tag")
	ErrStrayEndTag          = errors.New("end tag has no open tag")
	ErrMissingTagName       = errors.New("expected a tag name")
	ErrMissingAttrValue     = errors.New("attribute has no value")
	ErrUnquotedAttrValue    = errors.New("attribute value is not quoted")
	ErrUnterminatedValue    = errors.New("attribute value is missing its closing quote")
	ErrUnterminatedComment  = errors.New("comment is missing '-->'")
	ErrUnterminatedCDATA    = errors.New("CDATA section is missing ']]>'")
	ErrUnterminatedPI       = errors.New("processing instruction is missing '?>'")
	ErrUnterminatedDoctype  = errors.New("doctype is missing '>'")
	ErrUnexpectedCharacter  = errors.New("unexpected character in tag")
)

// Parse builds a syntax tree for src. Malformed input never fails the parse:
// problems are recovered in place and reported as diagnostics. The returned
// tree always reproduces src exactly.
func Parse(path, src string) (*Node, []*tagerrors.ParseError) {
	p := &parser{
		path:  path,
		src:   src,
		lines: types.LineOffsets(src),
		root:  &Node{kind: KindDocument},
	}
	p.run()
	return p.root, p.diags
}

type openTag struct {
	node  *Node
	name  string
	start int
}

type parser struct {
	path   string
	src    string
	pos    int
	lines  []int
	diags  []*tagerrors.ParseError
	root   *Node
	prolog *Node
	stack  []openTag
	seen   bool // a root-level tag has been parsed
}

func (p *parser) run() {
	for p.pos < len(p.src) {
		switch {
		case p.hasPrefix("<!--"):
			p.addMisc(p.scanDelimited(KindComment, "<!--", "-->", ErrUnterminatedComment))
		case p.hasPrefix("<![CDATA["):
			p.addContent(p.scanDelimited(KindCDATA, "<![CDATA[", "]]>", ErrUnterminatedCDATA))
		case p.hasPrefix("<?"):
			p.addMisc(p.scanDelimited(KindProcessingInstruction, "<?", "?>", ErrUnterminatedPI))
		case p.hasPrefix("<!"):
			p.addMisc(p.scanDoctype())
		case p.hasPrefix("</"):
			p.parseEndTag()
		case p.src[p.pos] == '<':
			p.parseStartTag()
		default:
			p.parseText()
		}
	}

	for len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		p.report(top.start, "<"+top.name, ErrUnclosedTag)
		p.pop()
	}
	p.closeProlog()
	p.root.seal()
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) report(offset int, token string, cause error) {
	lc := types.LineColumnAt(p.lines, offset)
	p.diags = append(p.diags, tagerrors.NewParseError(p.path, offset, lc.Line, lc.Column, token, cause))
}

// current returns the composite that receives content at the current position
func (p *parser) current() *Node {
	if len(p.stack) > 0 {
		return p.stack[len(p.stack)-1].node
	}
	return p.root
}

func (p *parser) addContent(n *Node) {
	if len(p.stack) == 0 {
		p.closeProlog()
	}
	p.current().appendChild(n)
}

// addMisc places prolog-style nodes that appear before the root element into the prolog
func (p *parser) addMisc(n *Node) {
	if len(p.stack) == 0 && !p.seen {
		if p.prolog == nil {
			p.prolog = &Node{kind: KindProlog}
			p.root.appendChild(p.prolog)
		}
		p.prolog.appendChild(n)
		return
	}
	p.current().appendChild(n)
}

func (p *parser) closeProlog() {
	if p.prolog != nil && !p.seen {
		p.prolog.seal()
	}
	p.seen = true
}

func (p *parser) push(tag *Node, name string, start int) {
	p.stack = append(p.stack, openTag{node: tag, name: name, start: start})
}

// pop seals the innermost open tag and attaches it to its parent
func (p *parser) pop() {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	top.node.seal()
	p.current().appendChild(top.node)
}

func (p *parser) leaf(kind Kind, end int) *Node {
	n := NewLeaf(kind, p.src[p.pos:end])
	p.pos = end
	return n
}

func (p *parser) scanDelimited(kind Kind, open, close string, unterminated error) *Node {
	start := p.pos
	if i := strings.Index(p.src[p.pos+len(open):], close); i >= 0 {
		return p.leaf(kind, p.pos+len(open)+i+len(close))
	}
	p.report(start, open, unterminated)
	return p.leaf(kind, len(p.src))
}

func (p *parser) scanDoctype() *Node {
	start := p.pos
	depth := 0
	var quote byte
	for i := p.pos + 2; i < len(p.src); i++ {
		c := p.src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '>' && depth <= 0:
			return p.leaf(KindDoctype, i+1)
		}
	}
	p.report(start, "<!", ErrUnterminatedDoctype)
	return p.leaf(KindDoctype, len(p.src))
}

func (p *parser) parseText() {
	end := strings.IndexByte(p.src[p.pos:], '<')
	if end < 0 {
		end = len(p.src)
	} else {
		end += p.pos
	}
	text := p.src[p.pos:end]
	if strings.TrimLeft(text, " \t\r\n") == "" {
		n := p.leaf(KindWhitespace, end)
		if len(p.stack) == 0 && !p.seen {
			p.addMisc(n)
		} else {
			p.current().appendChild(n)
		}
		return
	}
	p.addContent(p.leaf(KindText, end))
}

func (p *parser) scanName() string {
	i := p.pos
	for i < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[i:])
		if i == p.pos && !isNameStart(r) {
			break
		}
		if i > p.pos && !isNameChar(r) {
			break
		}
		i += size
	}
	return p.src[p.pos:i]
}

func (p *parser) scanSpace() int {
	i := p.pos
	for i < len(p.src) && isSpace(p.src[i]) {
		i++
	}
	return i
}

func (p *parser) parseStartTag() {
	if len(p.stack) == 0 {
		p.closeProlog()
	}
	tagStart := p.pos
	tag := &Node{kind: KindTag}
	tag.appendChild(p.leaf(KindStartTagStart, p.pos+1))

	name := p.scanName()
	if name == "" {
		p.report(tagStart, "<", ErrMissingTagName)
	} else {
		tag.appendChild(p.leaf(KindName, p.pos+len(name)))
	}

	for {
		if ws := p.scanSpace(); ws > p.pos {
			tag.appendChild(p.leaf(KindWhitespace, ws))
		}
		switch {
		case p.pos >= len(p.src):
			p.report(tagStart, "<"+name, ErrUnterminatedStartTag)
			p.push(tag, name, tagStart)
			return
		case p.hasPrefix("/>"):
			tag.appendChild(p.leaf(KindEmptyTagEnd, p.pos+2))
			tag.seal()
			p.current().appendChild(tag)
			return
		case p.src[p.pos] == '>':
			tag.appendChild(p.leaf(KindTagEnd, p.pos+1))
			p.push(tag, name, tagStart)
			return
		case p.src[p.pos] == '<':
			p.report(tagStart, "<"+name, ErrUnterminatedStartTag)
			p.push(tag, name, tagStart)
			return
		}

		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if isNameStart(r) {
			tag.appendChild(p.parseAttribute())
			continue
		}
		p.report(p.pos, string(r), ErrUnexpectedCharacter)
		tag.appendChild(p.leaf(KindError, p.pos+size))
	}
}

func (p *parser) parseAttribute() *Node {
	attr := &Node{kind: KindAttribute}
	attrStart := p.pos
	name := p.scanName()
	attr.appendChild(p.leaf(KindName, p.pos+len(name)))

	// Whitespace only belongs to the attribute when an '=' follows it
	ws := p.scanSpace()
	if ws >= len(p.src) || p.src[ws] != '=' {
		p.report(attrStart, name, ErrMissingAttrValue)
		attr.seal()
		return attr
	}
	if ws > p.pos {
		attr.appendChild(p.leaf(KindWhitespace, ws))
	}
	attr.appendChild(p.leaf(KindEq, p.pos+1))
	if ws := p.scanSpace(); ws > p.pos {
		attr.appendChild(p.leaf(KindWhitespace, ws))
	}

	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		quote := p.src[p.pos]
		if i := strings.IndexByte(p.src[p.pos+1:], quote); i >= 0 {
			attr.appendChild(p.leaf(KindAttributeValue, p.pos+1+i+1))
		} else {
			p.report(p.pos, string(quote), ErrUnterminatedValue)
			attr.appendChild(p.leaf(KindAttributeValue, p.valueEnd(p.pos+1)))
		}
		attr.seal()
		return attr
	}

	end := p.valueEnd(p.pos)
	if end == p.pos {
		p.report(attrStart, name, ErrMissingAttrValue)
	} else {
		p.report(p.pos, p.src[p.pos:end], ErrUnquotedAttrValue)
		attr.appendChild(p.leaf(KindAttributeValue, end))
	}
	attr.seal()
	return attr
}

// valueEnd finds where a malformed attribute value stops: at whitespace or a tag delimiter
func (p *parser) valueEnd(from int) int {
	i := from
	for i < len(p.src) {
		c := p.src[i]
		if isSpace(c) || c == '>' || c == '<' || strings.HasPrefix(p.src[i:], "/>") {
			break
		}
		i++
	}
	return i
}

func (p *parser) parseEndTag() {
	start := p.pos
	tokens := []*Node{p.leaf(KindEndTagStart, p.pos+2)}
	name := p.scanName()
	if name != "" {
		tokens = append(tokens, p.leaf(KindName, p.pos+len(name)))
	}
	if ws := p.scanSpace(); ws > p.pos {
		tokens = append(tokens, p.leaf(KindWhitespace, ws))
	}
	if p.pos < len(p.src) && p.src[p.pos] == '>' {
		tokens = append(tokens, p.leaf(KindTagEnd, p.pos+1))
	} else {
		p.report(start, "</"+name, ErrUnterminatedEndTag)
	}

	if len(p.stack) == 0 {
		p.report(start, "</"+name, ErrStrayEndTag)
		var sb strings.Builder
		for _, t := range tokens {
			sb.WriteString(t.text)
		}
		p.addContent(NewLeaf(KindError, sb.String()))
		return
	}

	match := -1
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].name == name {
			match = i
			break
		}
	}

	if match < 0 {
		p.report(start, "</"+name, ErrMismatchedEndTag)
		match = len(p.stack) - 1
	}
	for len(p.stack)-1 > match {
		top := p.stack[len(p.stack)-1]
		p.report(top.start, "<"+top.name, ErrUnclosedTag)
		p.pop()
	}

	owner := p.current()
	for _, t := range tokens {
		owner.appendChild(t)
	}
	p.pop()
}
