package macro

import (
	"fmt"
	"io"
	"strings"
)

const dumpRule = "========================"

// Dump writes every live definition to w, one per line: the level, a used
// marker ('=' once expanded, ':' otherwise), the name, the option spec in
// parentheses and the tab-separated body.
func (c *Context) Dump(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString(dumpRule)
	sb.WriteByte('\n')
	c.ForEach(func(e *Entry) {
		marker := ':'
		if e.Used > 0 {
			marker = '='
		}
		fmt.Fprintf(&sb, "%3d%c %s", e.Level, marker, e.Name)
		if e.Opts != "" {
			fmt.Fprintf(&sb, "(%s)", e.Opts)
		}
		if e.Body != "" {
			sb.WriteByte('\t')
			sb.WriteString(e.Body)
		}
		sb.WriteByte('\n')
	})
	fmt.Fprintf(&sb, "%s active %d empty 0\n", dumpRule, c.Len())
	_, err := io.WriteString(w, sb.String())
	return err
}
