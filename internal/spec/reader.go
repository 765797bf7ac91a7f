// Package spec reads spec files as a stream of logical lines.
//
// A logical line is one or more physical lines joined while a %{ or %( is
// open or a line ends in a backslash, then macro expanded. The reader also
// interprets the conditional directives (%if, %ifarch, %ifnarch, %ifos,
// %ifnos, %else, %endif) and %include, so callers only ever see lines from
// active branches. Lines from inactive branches come back empty.
package spec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/specmacro/internal/expr"
	"github.com/leapstack-labs/specmacro/internal/macro"
)

// StripMode selects the cleanup applied to each logical line.
type StripMode int

const (
	// StripComments empties a line whose first non-blank byte is '#'.
	StripComments StripMode = 1 << iota

	// StripTrailingSpace removes trailing whitespace.
	StripTrailingSpace

	StripNone StripMode = 0
)

// EvalFunc evaluates the condition of an %if.
type EvalFunc func(cond string) (bool, error)

// Options configures a Reader.
type Options struct {
	// Force keeps undefined macros in the preamble and scriptlets from
	// counting as errors.
	Force bool

	// Logger receives undefined macro diagnostics.
	Logger *slog.Logger

	// Eval evaluates %if conditions. Defaults to expr.Evaluate.
	Eval EvalFunc
}

type openFile struct {
	name string
	f    *os.File
	r    *bufio.Reader
	line int

	// pending holds the rest of the last expanded chunk read from this
	// file, served before the file is read again.
	pending string
	ready   bool
}

func (o *openFile) readLine() (string, error) {
	if o.f == nil {
		f, err := os.Open(o.name)
		if err != nil {
			return "", &ReadError{File: o.name, Msg: "Unable to open " + o.name, Cause: err}
		}
		o.f = f
		o.r = bufio.NewReader(f)
		o.line = 0
	}
	text, err := o.r.ReadString('\n')
	if text != "" {
		o.line++
		return text, nil
	}
	return "", err
}

func (o *openFile) close() {
	if o.f != nil {
		_ = o.f.Close()
		o.f = nil
	}
}

type condFrame struct {
	reading bool
	file    string
	line    int
}

// Reader produces logical lines from a spec file and the files it includes.
// A Reader is not safe for concurrent use.
type Reader struct {
	exp    *macro.Expander
	logger *slog.Logger
	eval   EvalFunc
	force  bool

	files []*openFile
	conds []condFrame
	acc   strings.Builder

	parsed strings.Builder
	errors int

	// Part is the section the caller is currently parsing. It steers the
	// undefined macro policy.
	Part Part
}

// NewReader creates a reader for path. The file is opened on the first
// ReadLine.
func NewReader(path string, exp *macro.Expander, opts Options) *Reader {
	r := &Reader{
		exp:    exp,
		logger: opts.Logger,
		eval:   opts.Eval,
		force:  opts.Force,
		conds:  []condFrame{{reading: true}},
		Part:   PartPreamble,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.eval == nil {
		r.eval = expr.Evaluate
	}
	r.push(path)
	return r
}

func (r *Reader) push(path string) {
	r.files = append(r.files, &openFile{name: path})
}

func (r *Reader) pop() {
	top := r.files[len(r.files)-1]
	top.close()
	r.files = r.files[:len(r.files)-1]
}

func (r *Reader) top() *openFile {
	if len(r.files) == 0 {
		return nil
	}
	return r.files[len(r.files)-1]
}

func (r *Reader) reading() bool {
	return r.conds[len(r.conds)-1].reading
}

// Close releases every open file.
func (r *Reader) Close() error {
	for len(r.files) > 0 {
		r.pop()
	}
	return nil
}

// Parsed returns every logical line read so far, one per line. Lines from
// inactive branches are present but empty.
func (r *Reader) Parsed() string {
	return r.parsed.String()
}

// Errors returns the number of undefined macro references counted as
// errors.
func (r *Reader) Errors() int {
	return r.errors
}

// FileName returns the file currently being read.
func (r *Reader) FileName() string {
	if f := r.top(); f != nil {
		return f.name
	}
	return ""
}

// LineNumber returns the physical line last read from the current file.
func (r *Reader) LineNumber() int {
	if f := r.top(); f != nil {
		return f.line
	}
	return 0
}

// ReadLine returns the next logical line without its trailing newline. It
// returns io.EOF once every file is exhausted.
func (r *Reader) ReadLine(strip StripMode) (string, error) {
	for {
		f := r.top()
		if f == nil || !f.ready {
			if err := r.fill(); err != nil {
				return "", err
			}
			f = r.top()
		}

		line := f.take()
		if strip&StripComments != 0 {
			line = stripComment(line)
		}
		if strip&StripTrailingSpace != 0 {
			line = strings.TrimRight(line, " \t\n\r\v\f")
		}

		match, include, err := r.directive(f, trimLeftSpace(line))
		if err != nil {
			return "", err
		}
		if include {
			continue
		}
		if match >= 0 {
			r.conds = append(r.conds, condFrame{reading: r.reading() && match == 1, file: f.name, line: f.line})
			line = ""
		} else if match == matchConsumed {
			line = ""
		}
		if !r.reading() {
			line = ""
		}

		r.parsed.WriteString(line)
		r.parsed.WriteByte('\n')
		return line, nil
	}
}

// take removes the first line from the pending chunk.
func (o *openFile) take() string {
	line, rest, _ := strings.Cut(o.pending, "\n")
	o.pending = rest
	o.ready = rest != ""
	return line
}

// fill assembles the next chunk of physical lines, expands it and leaves it
// pending on the file it was read from.
func (r *Reader) fill() error {
	var (
		startFile string
		startLine int
	)
	for {
		f := r.top()
		if f == nil {
			return r.endOfInput(startFile, startLine)
		}
		if startLine == 0 && f.ready {
			// an included file ended and the includer has lines left
			return nil
		}

		text, err := f.readLine()
		if errors.Is(err, io.EOF) {
			r.pop()
			continue
		}
		if err != nil {
			return err
		}

		r.acc.WriteString(text)
		incomplete, needExpand := scanBalance(r.acc.String())
		if incomplete {
			if startLine == 0 {
				startFile, startLine = f.name, f.line
			}
			continue
		}

		chunk := r.acc.String()
		r.acc.Reset()
		if needExpand && r.reading() {
			pos := macro.Position{File: filepath.Base(f.name), Line: f.line}
			chunk, err = r.exp.Expand(chunk, pos, r.undefined)
			if err != nil {
				return err
			}
		}
		f.pending = chunk
		f.ready = true
		return nil
	}
}

func (r *Reader) endOfInput(startFile string, startLine int) error {
	if len(r.conds) > 1 {
		frame := r.conds[len(r.conds)-1]
		return &CondError{File: frame.file, Line: frame.line, Msg: "Unclosed %if"}
	}
	if startLine > 0 {
		return &ReadError{File: startFile, Line: startLine, Msg: "unclosed macro or bad line continuation"}
	}
	return io.EOF
}

const (
	matchNone     = -1
	matchConsumed = -2
)

// directive interprets a reader directive at the start of s. match is 0 or
// 1 for a new conditional frame, matchConsumed for %else and %endif and
// matchNone otherwise. include reports that a file was pushed.
func (r *Reader) directive(f *openFile, s string) (match int, include bool, err error) {
	switch {
	case !r.reading() && hasDirectiveArg(s, "%if"):
		return 0, false, nil

	case hasDirectiveArg(s, "%ifarch"):
		return r.argMatch(f, s, "%{_target_cpu}", false)
	case hasDirectiveArg(s, "%ifnarch"):
		return r.argMatch(f, s, "%{_target_cpu}", true)
	case hasDirectiveArg(s, "%ifos"):
		return r.argMatch(f, s, "%{_target_os}", false)
	case hasDirectiveArg(s, "%ifnos"):
		return r.argMatch(f, s, "%{_target_os}", true)

	case hasDirectiveArg(s, "%if"):
		ok, err := r.eval(s[len("%if"):])
		if err != nil {
			return matchNone, false, &CondError{File: f.name, Line: f.line, Msg: "bad %if condition", Cause: err}
		}
		if ok {
			return 1, false, nil
		}
		return 0, false, nil

	case hasDirective(s, "%else"):
		n := len(r.conds)
		if n == 1 {
			return matchNone, false, &CondError{File: f.name, Line: f.line, Msg: "Got a %else with no %if"}
		}
		r.conds[n-1].reading = r.conds[n-2].reading && !r.conds[n-1].reading
		return matchConsumed, false, nil

	case hasDirective(s, "%endif"):
		if len(r.conds) == 1 {
			return matchNone, false, &CondError{File: f.name, Line: f.line, Msg: "Got a %endif with no %if"}
		}
		r.conds = r.conds[:len(r.conds)-1]
		return matchConsumed, false, nil

	case r.reading() && hasDirectiveArg(s, "%include"):
		fields := strings.Fields(s[len("%include"):])
		if len(fields) != 1 {
			return matchNone, false, &ReadError{File: f.name, Line: f.line, Msg: "malformed %include statement"}
		}
		r.push(fields[0])
		return matchNone, true, nil
	}
	return matchNone, false, nil
}

// argMatch matches the expansion of ref against the arguments of the
// directive in s.
func (r *Reader) argMatch(f *openFile, s, ref string, invert bool) (int, bool, error) {
	i := 0
	for i < len(s) && !isBlank(s[i]) {
		i++
	}
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	if i == len(s) {
		return matchNone, false, &CondError{
			File: f.name,
			Line: f.line,
			Msg:  fmt.Sprintf("Argument expected for %s", strings.TrimSpace(s)),
		}
	}
	want, err := r.exp.ExpandString(ref)
	if err != nil {
		return matchNone, false, err
	}
	matched := matchToken(want, s[i:])
	if matched != invert {
		return 1, false, nil
	}
	return 0, false, nil
}

// matchToken reports whether token equals one of the whitespace separated
// words of line, ignoring case.
func matchToken(token, line string) bool {
	for _, w := range strings.Fields(line) {
		if strings.EqualFold(w, token) {
			return true
		}
	}
	return false
}

func stripComment(line string) string {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i < len(line) && line[i] == '#' {
		return line[:i]
	}
	return line
}
