package spec

import "strings"

const (
	narrowSet = `\%`
	wideSet   = "\\\n%{}()"
)

// scanBalance reports whether buf still needs more physical lines because a
// %{ or %( is open or the last line ends in a backslash, and whether it
// contains anything that needs macro expansion.
//
// Braces and parens only count once a %{ or %( has been seen, and newlines
// only matter after a continuation.
func scanBalance(buf string) (incomplete, needExpand bool) {
	set := narrowSet
	pc, bc, nc := 0, 0, 0
	at := func(i int) byte {
		if i < len(buf) {
			return buf[i]
		}
		return 0
	}

	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if strings.IndexByte(set, c) < 0 {
			continue
		}
		switch c {
		case '\\':
			switch at(i + 1) {
			case '\n':
				i++
				nc = 1
				set = wideSet
			case 0:
			case '%':
				needExpand = true
			default:
				i++
			}
		case '\n':
			nc = 0
		case '%':
			needExpand = true
			switch at(i + 1) {
			case '{':
				i++
				bc++
				set = wideSet
			case '(':
				i++
				pc++
				set = wideSet
			case '%':
				i++
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
	}
	return pc > 0 || bc > 0 || nc > 0, needExpand
}
