package macro

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// DefaultMaxDepth is the default ceiling on nested expansions.
const DefaultMaxDepth = 16

// Undefined describes a reference to a macro that has no definition.
type Undefined struct {
	Position

	// Name is the macro name without the leading '%'.
	Name string

	// Token is the source text from the '%' to the end of the text being
	// expanded at that depth.
	Token string

	// Expanded is the output produced so far by the enclosing expansion.
	Expanded string

	// Depth is the nesting depth the reference was found at.
	Depth int
}

// UndefinedFunc is called for every reference to an undefined alphabetic
// macro name. It returns true when the reference counts as an error. The
// reference is left in the output verbatim either way and expansion
// continues; callers that need to fail keep their own count.
type UndefinedFunc func(u Undefined) bool

// ScriptHost is the view of a running expansion offered to scripts.
type ScriptHost interface {
	Expand(text string) (string, error)
	Define(name, body string)
	Undefine(name string)
	Lookup(name string) (string, bool)
}

// ScriptFunc runs the body of a %{starlark:...} form and returns its output.
type ScriptFunc func(host ScriptHost, script string) (string, error)

// Options configures an Expander. Zero values select the defaults.
type Options struct {
	// MaxDepth bounds nested expansion. Defaults to DefaultMaxDepth.
	MaxDepth int

	// Verbose selects the branch taken by %{verbose:...}.
	Verbose bool

	// ConfDir is the value of %{getconfdir:}.
	ConfDir string

	// Shell runs %(...) commands. Defaults to /bin/sh.
	Shell string

	// Stderr receives %echo, %dump and trace output. Defaults to os.Stderr.
	Stderr io.Writer

	// Logger receives warnings and errors raised during expansion.
	Logger *slog.Logger

	// Getenv resolves %{getenv:...}. Defaults to os.LookupEnv.
	Getenv func(string) (string, bool)

	// Script enables %{starlark:...} when set.
	Script ScriptFunc
}

// Expander expands macro text against a Context.
type Expander struct {
	macros   *Context
	maxDepth int
	verbose  bool
	confDir  string
	shell    string
	stderr   io.Writer
	logger   *slog.Logger
	getenv   func(string) (string, bool)
	script   ScriptFunc

	// trace is the depth set by a top-level %trace. It carries over to
	// later expansions.
	trace int
}

// NewExpander creates an expander resolving names in macros.
func NewExpander(macros *Context, opts Options) *Expander {
	if macros == nil {
		macros = NewContext()
	}
	e := &Expander{
		macros:   macros,
		maxDepth: opts.MaxDepth,
		verbose:  opts.Verbose,
		confDir:  opts.ConfDir,
		shell:    opts.Shell,
		stderr:   opts.Stderr,
		logger:   opts.Logger,
		getenv:   opts.Getenv,
		script:   opts.Script,
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	if e.shell == "" {
		e.shell = "/bin/sh"
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.getenv == nil {
		e.getenv = os.LookupEnv
	}
	return e
}

// Context returns the table the expander resolves against.
func (e *Expander) Context() *Context {
	return e.macros
}

// SetVerbose changes the branch taken by %{verbose:...}.
func (e *Expander) SetVerbose(v bool) {
	e.verbose = v
}

// Expand expands src. pos only labels diagnostics. undefined may be nil, in
// which case undefined names are logged as warnings when pos names a file.
//
// On error the partial output is discarded. Definitions made before the
// failure stay in the table.
func (e *Expander) Expand(src string, pos Position, undefined UndefinedFunc) (string, error) {
	x := &expansion{
		e:     e,
		ctx:   e.macros,
		pos:   pos,
		undef: undefined,
		trace: e.trace,
	}
	var out buffer
	if err := x.expand(&out, src); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ExpandString expands src without location or undefined-name handling.
func (e *Expander) ExpandString(src string) (string, error) {
	return e.Expand(src, Position{}, nil)
}

// ExpandNumeric expands src and interprets the result as a number: Y/y is 1,
// N/n is 0, otherwise the text is parsed as an integer in base 0 notation.
// Failed expansions, unexpanded results and junk all yield 0.
func (e *Expander) ExpandNumeric(src string) int {
	val, err := e.ExpandString(src)
	if err != nil || val == "" || val[0] == '%' {
		return 0
	}
	switch val[0] {
	case 'Y', 'y':
		return 1
	case 'N', 'n':
		return 0
	}
	n, err := strconv.ParseInt(val, 0, 64)
	if err != nil {
		return 0
	}
	return int(n)
}

// expansion is the state of one top-level Expand call.
type expansion struct {
	e     *Expander
	ctx   *Context
	pos   Position
	undef UndefinedFunc
	depth int
	trace int
}

// expand appends the expansion of src to out, one nesting level deeper.
func (x *expansion) expand(out *buffer, src string) error {
	x.depth++
	defer func() { x.depth-- }()
	if x.depth > x.e.maxDepth {
		return newRecursionError(x.pos, x.depth)
	}

	start := out.len()
	err := x.scan(out, src)
	if x.trace > 0 {
		x.printExpansion(out.since(start))
	}
	return err
}

// expandThis expands src into a private buffer.
func (x *expansion) expandThis(src string) (string, error) {
	var b buffer
	err := x.expand(&b, src)
	return b.String(), err
}

func (x *expansion) scan(out *buffer, s string) error {
	for s != "" {
		i := strings.IndexByte(s, '%')
		if i < 0 {
			out.appendString(s)
			return nil
		}
		if i+1 < len(s) && s[i+1] == '%' {
			out.appendString(s[:i+1])
			s = s[i+2:]
			continue
		}
		out.appendString(s[:i])
		rest, err := x.macro(out, s[i+1:], s[i:])
		if err != nil {
			return err
		}
		s = rest
	}
	return nil
}

// parseFlags consumes the '!' and '?' prefixes starting at s[i].
func parseFlags(s string, i int) (next int, negate bool, chkexist int) {
	for ; i < len(s); i++ {
		switch s[i] {
		case '!':
			negate = !negate
		case '?':
			chkexist++
		default:
			return i, negate, chkexist
		}
	}
	return i, negate, chkexist
}

// parseName returns the end of the macro name starting at s[i], or -1 when
// no valid name starts there. Names are identifiers of any length, the
// special names 0 # * and **, option names -x and -x*, and digit strings.
func parseName(s string, i int) int {
	at := func(j int) byte {
		if j < len(s) {
			return s[j]
		}
		return 0
	}
	if c := at(i); isAlpha(c) || c == '_' {
		j := i + 1
		for isNameChar(at(j)) {
			j++
		}
		return j
	}
	switch at(i) {
	case '0', '#':
		return i + 1
	case '*':
		if at(i+1) == '*' {
			return i + 2
		}
		return i + 1
	case '-':
		if !isAlnum(at(i + 1)) {
			return -1
		}
		if at(i+2) == '*' {
			return i + 3
		}
		return i + 2
	}
	if isDigit(at(i)) {
		j := i + 1
		for isDigit(at(j)) {
			j++
		}
		return j
	}
	return -1
}

// macro expands the form that follows a '%'. s starts just after the '%'
// and tok starts at it. It returns the text left to scan.
func (x *expansion) macro(out *buffer, s, tok string) (string, error) {
	var (
		f, fe, se int
		negate    bool
		chkexist  int
		g         string
		hasG      bool
		lastc     = -1
	)

	switch {
	case strings.HasPrefix(s, "("):
		end := matchChar(s, 0, '(', ')')
		if end < 0 {
			return s, NewSyntaxErrorf(x.pos, "Unterminated (: %s", s)
		}
		if x.trace > 0 {
			x.printMacro(s, end+1)
		}
		if err := x.shellEscape(out, s[1:end]); err != nil {
			return s, err
		}
		return s[end+1:], nil

	case strings.HasPrefix(s, "{"):
		end := matchChar(s, 0, '{', '}')
		if end < 0 {
			return s, NewSyntaxErrorf(x.pos, "Unterminated {: %s", s)
		}
		f, negate, chkexist = parseFlags(s, 1)
		fe = parseName(s, f)
		se = end + 1
		if fe < 0 {
			return s, NewSyntaxErrorf(x.pos, "Invalid macro name: %%%s", s[:se])
		}
		switch s[fe] {
		case ':':
			g, hasG = s[fe+1:end], true
		case ' ', '\t':
			lastc = end
		case '}':
		default:
			return s, NewSyntaxErrorf(x.pos, "Invalid macro syntax: %%%s", s[:se])
		}

	default:
		f, negate, chkexist = parseFlags(s, 0)
		fe = parseName(s, f)
		if fe < 0 {
			out.appendByte('%')
			return s, nil
		}
		se = fe
		if s[f] == '-' && x.depth == 1 {
			te := se
			for te < len(s) && !isSpace(s[te]) {
				te++
			}
			x.e.logger.Warn(fmt.Sprintf("%%%s parsed as %%{%s}%s", s[:te], s[:se], s[se:te]),
				slog.String("file", x.pos.File), slog.Int("line", x.pos.Line))
		}
		if fe < len(s) && isBlank(s[fe]) {
			if nl := strings.IndexByte(s[fe:], '\n'); nl >= 0 {
				lastc = fe + nl
			} else {
				lastc = len(s)
			}
		}
	}

	name := s[f:fe]
	if x.trace > 0 {
		x.printMacro(s, se)
	}

	switch name {
	case "global":
		return x.doDefine(s[se:], LevelGlobal, true)
	case "define":
		return x.doDefine(s[se:], x.depth, false)
	case "undefine":
		n, next, err := parseUndefine(s[se:], x.pos)
		if err != nil {
			return s, err
		}
		x.ctx.Undefine(n)
		return s[se+next:], nil
	case "echo", "warn", "error":
		msg := name
		if hasG && g != "" {
			msg = g
		}
		return s[se:], x.output(name, msg)
	case "trace":
		if negate {
			x.trace = 0
		} else {
			x.trace = x.depth
		}
		if x.depth == 1 {
			x.e.trace = x.trace
		}
		return s[se:], nil
	case "dump":
		if err := x.ctx.Dump(x.e.stderr); err != nil {
			return s, err
		}
		return s[skipEOL(s, se):], nil
	case "starlark":
		if x.e.script != nil {
			return s[se:], x.runScript(out, g)
		}
	}

	if isTransform(name) {
		return s[se:], x.transform(out, name, negate, g, hasG)
	}

	me := x.ctx.Lookup(name)

	if s[f] == '-' || chkexist > 0 {
		if me != nil {
			me.Used++
		}
		if (me == nil && !negate) || (me != nil && negate) {
			return s[se:], nil
		}
		var err error
		switch {
		case hasG && g != "":
			err = x.expand(out, g)
		case me != nil && me.Body != "":
			err = x.expand(out, me.Body)
		}
		return s[se:], err
	}

	if me == nil {
		// names too short for %define are never reported
		if validName(name) {
			x.undefined(out, tok, name)
		}
		out.appendByte('%')
		return s, nil
	}

	if me.Parametric {
		if lastc >= 0 {
			err := x.bindArgs(me, s[fe:lastc])
			se = lastc
			if lastc < len(s) {
				se = lastc + 1
			}
			if err != nil {
				x.ctx.popArgs(x.depth)
				return s, err
			}
		} else {
			x.bindNoArgs(me)
		}
	}

	var err error
	if me.Body != "" {
		if err = x.expand(out, me.Body); err == nil {
			me.Used++
		}
	}

	if me.Parametric {
		x.ctx.popArgs(x.depth)
	}
	return s[se:], err
}

func (x *expansion) doDefine(s string, level int, expandBody bool) (string, error) {
	def, next, err := parseDefinition(s, x.pos)
	if err != nil {
		return s, err
	}
	if !def.spaced {
		x.e.logger.Warn(fmt.Sprintf("Macro %%%s needs whitespace before body", def.name),
			slog.String("file", x.pos.File), slog.Int("line", x.pos.Line))
	}
	body := def.body
	if expandBody {
		if body, err = x.expandThis(def.body); err != nil {
			return s, fmt.Errorf("macro %%%s failed to expand: %w", def.name, err)
		}
	}
	def.store(x.ctx, body, level-1)
	return s[next:], nil
}

// output handles %echo, %warn and %error. The message is expanded first.
func (x *expansion) output(kind, msg string) error {
	text, err := x.expandThis(msg)
	if err != nil {
		return err
	}
	switch kind {
	case "error":
		x.e.logger.Error(text, slog.String("file", x.pos.File), slog.Int("line", x.pos.Line))
	case "warn":
		x.e.logger.Warn(text, slog.String("file", x.pos.File), slog.Int("line", x.pos.Line))
	default:
		_, err = fmt.Fprint(x.e.stderr, text)
	}
	return err
}

func (x *expansion) undefined(out *buffer, tok, name string) {
	if x.undef == nil {
		if x.pos.File != "" {
			x.e.logger.Warn(fmt.Sprintf("%s:%d: Undefined macro %%%s", x.pos.File, x.pos.Line, name))
		}
		return
	}
	counted := x.undef(Undefined{
		Position: x.pos,
		Name:     name,
		Token:    tok,
		Expanded: out.String(),
		Depth:    x.depth,
	})
	if counted {
		x.e.logger.Debug("undefined macro counted as error",
			slog.String("macro", name), slog.Int("depth", x.depth))
	}
}
