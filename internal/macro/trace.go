package macro

import (
	"fmt"
	"strings"
)

// traceWidth bounds the text shown per trace line before an ellipsis.
const traceWidth = 61

// printMacro shows the form about to be expanded, s[:se], followed by a
// caret and the rest of its line.
func (x *expansion) printMacro(s string, se int) {
	indent := 2*x.depth + 1
	if se <= 0 {
		fmt.Fprintf(x.e.stderr, "%3d>%*s(empty)\n", x.depth, indent, "")
		return
	}
	se = min(se, len(s))

	rest := s[se:]
	if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 {
		rest = rest[:nl]
	}
	chop := traceWidth - 2*x.depth
	ellipsis := ""
	if chop >= 0 && se+len(rest) > chop {
		rest = rest[:max(0, min(len(rest), chop-se))]
		ellipsis = "..."
	}
	fmt.Fprintf(x.e.stderr, "%3d>%*s%%%s^%s%s\n", x.depth, indent, "", s[:se], rest, ellipsis)
}

// printExpansion shows the last line of what one level produced.
func (x *expansion) printExpansion(t string) {
	indent := 2*x.depth + 1
	t = strings.TrimRight(t, "\r\n")
	if t == "" {
		fmt.Fprintf(x.e.stderr, "%3d<%*s(empty)\n", x.depth, indent, "")
		return
	}
	if i := strings.LastIndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	}
	ellipsis := ""
	if chop := traceWidth - 2*x.depth; chop >= 0 && len(t) > chop {
		t = t[:chop]
		ellipsis = "..."
	}
	fmt.Fprintf(x.e.stderr, "%3d<%*s%s%s\n", x.depth, indent, "", t, ellipsis)
}
