package macro

import (
	"strings"
)

// definition is a parsed "name(opts) body" definition.
type definition struct {
	name       string
	opts       string
	parametric bool
	body       string

	// spaced is false when the body did not start with whitespace, as in
	// %define foo{bar}.
	spaced bool
}

// parseDefinition parses a definition at the start of s and returns it with
// the index where scanning resumes. A braced body is taken verbatim; a
// free-field body runs to the end of the line unless a %{ or %( is still
// open, drops the backslash of every escape, and loses trailing blanks.
func parseDefinition(s string, pos Position) (definition, int, error) {
	var def definition

	i := skipBlank(s, 0)
	start := i
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	def.name = s[start:i]

	optsClosed := true
	if i < len(s) && s[i] == '(' {
		def.parametric = true
		i++
		if j := strings.IndexByte(s[i:], ')'); j >= 0 {
			def.opts = s[i : i+j]
			i += j + 1
		} else {
			def.opts = s[i:]
			i = len(s)
			optsClosed = false
		}
	}

	sbody := i
	i = skipBlank(s, i)
	if i < len(s) && s[i] == '{' {
		end := matchChar(s, i, '{', '}')
		if end < 0 {
			return def, i, NewSyntaxErrorf(pos, "Macro %%%s has unterminated body", def.name)
		}
		def.body = s[i+1 : end]
		i = end + 1
	} else {
		var b strings.Builder
		bc, pc := 0, 0
		for i < len(s) && (bc > 0 || pc > 0 || !isEOL(s[i])) {
			switch s[i] {
			case '\\':
				if i+1 < len(s) {
					i++
				}
			case '%':
				if i+1 < len(s) {
					switch s[i+1] {
					case '{':
						b.WriteByte('%')
						i++
						bc++
					case '(':
						b.WriteByte('%')
						i++
						pc++
					case '%':
						b.WriteByte('%')
						i++
					}
				}
			case '{':
				if bc > 0 {
					bc++
				}
			case '}':
				if bc > 0 {
					bc--
				}
			case '(':
				if pc > 0 {
					pc++
				}
			case ')':
				if pc > 0 {
					pc--
				}
			}
			b.WriteByte(s[i])
			i++
		}
		if bc > 0 || pc > 0 {
			return def, i, NewSyntaxErrorf(pos, "Macro %%%s has unterminated body", def.name)
		}
		def.body = strings.TrimRight(b.String(), " \t\r\n")
	}
	i = skipEOL(s, i)

	if !validName(def.name) {
		return def, i, NewSyntaxErrorf(pos, "Macro %%%s has illegal name (%%define)", def.name)
	}
	if !optsClosed {
		return def, i, NewSyntaxErrorf(pos, "Macro %%%s has unterminated opts", def.name)
	}
	if def.body == "" {
		return def, i, NewSyntaxErrorf(pos, "Macro %%%s has empty body", def.name)
	}

	def.spaced = sbody < len(s) && (isBlank(s[sbody]) ||
		(s[sbody] == '\\' && sbody+1 < len(s) && isEOL(s[sbody+1])))
	return def, i, nil
}

// parseUndefine parses the name following %undefine and returns it with the
// index where scanning resumes.
func parseUndefine(s string, pos Position) (string, int, error) {
	i := skipBlank(s, 0)
	start := i
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	name := s[start:i]
	i = skipEOL(s, i)
	if !validName(name) {
		return name, i, NewSyntaxErrorf(pos, "Macro %%%s has illegal name (%%undefine)", name)
	}
	return name, i, nil
}

func (d definition) store(c *Context, body string, level int) {
	if d.parametric {
		c.DefineWithOpts(d.name, d.opts, body, level)
		return
	}
	c.Define(d.name, body, level)
}

// DefineString parses a textual definition such as "name(opts) body" and
// stores it unexpanded in c as a definition made at level. This is the form
// used by macro files and by command-line --define options.
func DefineString(c *Context, text string, level int) error {
	def, _, err := parseDefinition(text, Position{})
	if err != nil {
		return err
	}
	def.store(c, def.body, level-1)
	return nil
}
