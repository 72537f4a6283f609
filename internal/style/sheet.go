// internal/style/sheet.go
package style

import (
	"strings"
)

// Declaration is one property: value pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// AttrMatch is an attribute selector component like [type] or [type="text"].
type AttrMatch struct {
	Name  string
	Op    string // "" for presence, "=" for exact match
	Value string
}

// Selector is a simple selector: optional tag, id, classes and attribute
// constraints. Combinators are not supported; the engine only needs the
// selector forms its user agent sheet uses.
type Selector struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   []AttrMatch
}

// Rule pairs a comma-separated selector group with its declarations.
type Rule struct {
	Selectors    []Selector
	Declarations []Declaration
}

// Sheet is a parsed stylesheet.
type Sheet struct {
	Rules []Rule
}

// Specificity returns the (id, class+attr, tag) counts used for cascade
// ordering.
func (s Selector) Specificity() (a, b, c int) {
	if s.ID != "" {
		a = 1
	}
	b = len(s.Classes) + len(s.Attrs)
	if s.Tag != "" && s.Tag != "*" {
		c = 1
	}
	return a, b, c
}

func (s Selector) valid() bool {
	return s.Tag != "" || s.ID != "" || len(s.Classes) > 0 || len(s.Attrs) > 0
}

// ParseSheet parses CSS source into rules, skipping comments and at-rules.
// Selectors it cannot represent are dropped rather than misapplied.
func ParseSheet(src string) Sheet {
	p := &parser{input: src}
	var rules []Rule
	for {
		p.whitespace()
		if p.eof() {
			break
		}
		if p.startsWith("/*") {
			p.comment()
			continue
		}
		if p.current() == '@' {
			p.atRule()
			continue
		}

		selectors := p.selectorGroup()
		decls := p.declarations()
		if len(selectors) > 0 && len(decls) > 0 {
			rules = append(rules, Rule{Selectors: selectors, Declarations: decls})
		}
	}
	return Sheet{Rules: rules}
}

// ParseInline parses the contents of a style attribute.
func ParseInline(attr string) []Declaration {
	var decls []Declaration
	for _, part := range strings.Split(attr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		important := false
		if strings.HasSuffix(strings.ToLower(val), "!important") {
			important = true
			val = strings.TrimSpace(val[:len(val)-len("!important")])
		}
		if prop != "" && val != "" {
			decls = append(decls, Declaration{Property: prop, Value: val, Important: important})
		}
	}
	return decls
}

type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) current() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) advance() byte {
	ch := p.current()
	if !p.eof() {
		p.pos++
	}
	return ch
}

func (p *parser) whitespace() {
	for !p.eof() {
		switch p.current() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) startsWith(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *parser) comment() {
	p.pos += 2
	if end := strings.Index(p.input[p.pos:], "*/"); end >= 0 {
		p.pos += end + 2
	} else {
		p.pos = len(p.input)
	}
}

func (p *parser) atRule() {
	for !p.eof() {
		switch p.advance() {
		case '{':
			p.block('{', '}')
			return
		case ';':
			return
		}
	}
}

func (p *parser) block(open, close byte) {
	depth := 1
	for !p.eof() {
		switch p.advance() {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) identifier() string {
	start := p.pos
	for !p.eof() {
		ch := p.current()
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '_' || ch == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

// selectorGroup parses a comma-separated list of simple selectors up to the
// opening brace. A selector containing a combinator is dropped.
func (p *parser) selectorGroup() []Selector {
	var out []Selector
	for {
		p.whitespace()
		if p.eof() || p.current() == '{' {
			break
		}
		sel, simple := p.selector()
		if simple && sel.valid() {
			out = append(out, sel)
		}
		p.whitespace()
		if p.eof() || p.current() == '{' {
			break
		}
		if p.current() == ',' {
			p.advance()
			continue
		}
		// Combinator or junk until the next comma or brace.
		for !p.eof() && p.current() != ',' && p.current() != '{' {
			p.advance()
		}
		if !p.eof() && p.current() == ',' {
			p.advance()
		}
	}
	return out
}

// selector parses one simple selector. The second return is false when a
// combinator followed it, meaning the compound form is unsupported.
func (p *parser) selector() (Selector, bool) {
	var sel Selector
	if p.current() == '*' {
		p.advance()
		sel.Tag = "*"
	} else {
		sel.Tag = strings.ToLower(p.identifier())
	}
	for !p.eof() {
		switch p.current() {
		case '#':
			p.advance()
			sel.ID = p.identifier()
		case '.':
			p.advance()
			sel.Classes = append(sel.Classes, p.identifier())
		case '[':
			p.advance()
			if am, ok := p.attrMatch(); ok {
				sel.Attrs = append(sel.Attrs, am)
			}
		case ' ', '\t', '\n', '\r':
			// Whitespace before a comma or brace is fine; anything else is
			// a descendant combinator.
			save := p.pos
			p.whitespace()
			if p.eof() || p.current() == ',' || p.current() == '{' {
				return sel, true
			}
			p.pos = save
			return sel, false
		case '>', '+', '~':
			return sel, false
		default:
			return sel, true
		}
	}
	return sel, true
}

func (p *parser) attrMatch() (AttrMatch, bool) {
	p.whitespace()
	am := AttrMatch{Name: strings.ToLower(p.identifier())}
	p.whitespace()
	if p.eof() {
		return am, false
	}
	if p.current() == ']' {
		p.advance()
		return am, am.Name != ""
	}
	if p.current() != '=' {
		// Unsupported operator, skip to the closing bracket.
		for !p.eof() && p.advance() != ']' {
		}
		return am, false
	}
	p.advance()
	am.Op = "="
	p.whitespace()
	if q := p.current(); q == '"' || q == '\'' {
		p.advance()
		start := p.pos
		for !p.eof() && p.current() != q {
			p.pos++
		}
		am.Value = p.input[start:p.pos]
		p.advance()
	} else {
		am.Value = p.identifier()
	}
	p.whitespace()
	if !p.eof() && p.current() == ']' {
		p.advance()
		return am, am.Name != ""
	}
	return am, false
}

func (p *parser) declarations() []Declaration {
	p.whitespace()
	if p.eof() || p.current() != '{' {
		return nil
	}
	p.advance()

	var decls []Declaration
	for {
		p.whitespace()
		if p.eof() || p.current() == '}' {
			break
		}
		if p.startsWith("/*") {
			p.comment()
			continue
		}
		prop := strings.ToLower(p.identifier())
		p.whitespace()
		if p.eof() || p.current() != ':' {
			p.skipTo(';', '}')
			if p.current() == ';' {
				p.advance()
			}
			continue
		}
		p.advance()
		p.whitespace()
		val := p.value()
		important := false
		if strings.HasSuffix(strings.ToLower(val), "!important") {
			important = true
			val = strings.TrimSpace(val[:len(val)-len("!important")])
		}
		if prop != "" && val != "" {
			decls = append(decls, Declaration{Property: prop, Value: val, Important: important})
		}
		p.whitespace()
		if !p.eof() && p.current() == ';' {
			p.advance()
		}
	}
	if !p.eof() && p.current() == '}' {
		p.advance()
	}
	return decls
}

func (p *parser) value() string {
	start := p.pos
	for !p.eof() {
		switch p.current() {
		case ';', '}':
			return strings.TrimSpace(p.input[start:p.pos])
		case '(':
			p.advance()
			p.block('(', ')')
		default:
			p.pos++
		}
	}
	return strings.TrimSpace(p.input[start:p.pos])
}

func (p *parser) skipTo(targets ...byte) {
	for !p.eof() {
		ch := p.current()
		for _, t := range targets {
			if ch == t {
				return
			}
		}
		p.pos++
	}
}
