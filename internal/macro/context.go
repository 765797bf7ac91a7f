// Package macro implements the macro table and the recursive macro expander
// used to process spec files.
//
// A Context holds definitions keyed by name. Every name owns a stack of
// definitions: a new definition shadows the previous one regardless of its
// level, and Undefine pops the top to expose the one beneath.
package macro

import (
	"slices"
	"strings"
)

// Entry is a single macro definition.
type Entry struct {
	Name string

	// Opts is the getopt-style option spec of a parameterized macro.
	Opts string

	// Parametric is set when the macro was declared with an option list,
	// including an empty one such as %define foo() body.
	Parametric bool

	// Body is the raw, unexpanded replacement text.
	Body string

	// Used counts successful expansions and existence checks.
	Used int

	// Level identifies the scope that created the definition.
	Level int
}

// stack holds all live definitions of one name, most recent last.
type stack struct {
	name    string
	entries []*Entry
}

func (s *stack) top() *Entry {
	return s.entries[len(s.entries)-1]
}

// Context is a macro table. The zero value is an empty table ready to use.
// A Context is not safe for concurrent use; use Clone to hand a copy to
// another goroutine.
type Context struct {
	stacks []*stack
}

// NewContext creates an empty macro table.
func NewContext() *Context {
	return &Context{}
}

func (c *Context) find(name string) (int, bool) {
	return slices.BinarySearchFunc(c.stacks, name, func(s *stack, name string) int {
		return strings.Compare(s.name, name)
	})
}

// Define pushes a plain definition of name.
func (c *Context) Define(name, body string, level int) {
	c.add(&Entry{Name: name, Body: body, Level: level})
}

// DefineWithOpts pushes a parameterized definition of name. Calls of the
// macro bind their arguments according to opts.
func (c *Context) DefineWithOpts(name, opts, body string, level int) {
	c.add(&Entry{Name: name, Opts: opts, Parametric: true, Body: body, Level: level})
}

func (c *Context) add(e *Entry) {
	i, ok := c.find(e.Name)
	if !ok {
		c.stacks = slices.Insert(c.stacks, i, &stack{name: e.Name})
	}
	s := c.stacks[i]
	s.entries = append(s.entries, e)
}

// Undefine pops the most recent definition of name. Undefining an unknown
// name does nothing.
func (c *Context) Undefine(name string) {
	if i, ok := c.find(name); ok {
		c.pop(i)
	}
}

func (c *Context) pop(i int) {
	s := c.stacks[i]
	n := len(s.entries) - 1
	s.entries[n] = nil
	s.entries = s.entries[:n]
	if n == 0 {
		c.stacks = slices.Delete(c.stacks, i, i+1)
	}
}

// Lookup returns the visible definition of name, or nil.
func (c *Context) Lookup(name string) *Entry {
	if i, ok := c.find(name); ok {
		return c.stacks[i].top()
	}
	return nil
}

// IsDefined reports whether name has a visible definition.
func (c *Context) IsDefined(name string) bool {
	_, ok := c.find(name)
	return ok
}

// Len returns the number of distinct names in the table.
func (c *Context) Len() int {
	return len(c.stacks)
}

// Names returns the defined names in sorted order.
func (c *Context) Names() []string {
	names := make([]string, len(c.stacks))
	for i, s := range c.stacks {
		names[i] = s.name
	}
	return names
}

// ForEach calls fn for every live definition in name order, visiting the
// visible definition of a name before the ones it shadows.
func (c *Context) ForEach(fn func(e *Entry)) {
	for _, s := range c.stacks {
		for i := len(s.entries) - 1; i >= 0; i-- {
			fn(s.entries[i])
		}
	}
}

// LoadInto copies the visible definition of every name into dst as a new
// definition made at level. It is used to re-apply command-line overrides
// after macro files have been read.
func (c *Context) LoadInto(dst *Context, level int) {
	if dst == nil || dst == c {
		return
	}
	for _, s := range c.stacks {
		e := s.top()
		dst.add(&Entry{
			Name:       e.Name,
			Opts:       e.Opts,
			Parametric: e.Parametric,
			Body:       e.Body,
			Level:      level - 1,
		})
	}
}

// Clone returns a deep copy of the table, shadows included.
func (c *Context) Clone() *Context {
	out := &Context{stacks: make([]*stack, len(c.stacks))}
	for i, s := range c.stacks {
		ns := &stack{name: s.name, entries: make([]*Entry, len(s.entries))}
		for j, e := range s.entries {
			cp := *e
			ns.entries[j] = &cp
		}
		out.stacks[i] = ns
	}
	return out
}

// Reset removes every definition.
func (c *Context) Reset() {
	clear(c.stacks)
	c.stacks = c.stacks[:0]
}

// isArgName reports whether name is one of the transient bindings made
// for a parameterized macro call.
func isArgName(name string) bool {
	if name == "" {
		return false
	}
	ch := name[0]
	return ch == '*' || ch == '#' || ch == '-' || isDigit(ch)
}

// popArgs removes the argument bindings made at depth or deeper. Bindings
// of shallower calls stay in place.
func (c *Context) popArgs(depth int) {
	for i := len(c.stacks) - 1; i >= 0; i-- {
		s := c.stacks[i]
		if !isArgName(s.name) {
			continue
		}
		for len(s.entries) > 0 && s.top().Level >= depth {
			c.pop(i)
		}
	}
}
