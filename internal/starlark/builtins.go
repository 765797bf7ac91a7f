package starlark

import (
	"fmt"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"go.starlark.net/starlark"
)

// hostBuiltins returns the functions scripts use to reach the macro table:
// expand, define, undefine and defined.
func hostBuiltins(host macro.ScriptHost) starlark.StringDict {
	return starlark.StringDict{
		"expand": starlark.NewBuiltin("expand", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var text string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
				return nil, err
			}
			out, err := host.Expand(text)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			return starlark.String(out), nil
		}),

		"define": starlark.NewBuiltin("define", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			var body starlark.Value
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "body", &body); err != nil {
				return nil, err
			}
			if !validName(name) {
				return nil, fmt.Errorf("%s: illegal macro name %q", b.Name(), name)
			}
			text, err := macroBody(body)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			host.Define(name, text)
			return starlark.None, nil
		}),

		"undefine": starlark.NewBuiltin("undefine", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			host.Undefine(name)
			return starlark.None, nil
		}),

		"defined": starlark.NewBuiltin("defined", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			_, ok := host.Lookup(name)
			return starlark.Bool(ok), nil
		}),
	}
}

func validName(name string) bool {
	if len(name) < 3 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// macroTable is the "macros" global: a read-only mapping from macro name
// to its unexpanded body.
type macroTable struct {
	host macro.ScriptHost
}

var (
	_ starlark.Mapping  = macroTable{}
	_ starlark.HasAttrs = macroTable{}
)

func (m macroTable) String() string        { return "<macros>" }
func (m macroTable) Type() string          { return "macros" }
func (m macroTable) Freeze()               {}
func (m macroTable) Truth() starlark.Bool  { return starlark.True }
func (m macroTable) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: macros") }

// Get implements macros["name"].
func (m macroTable) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := k.(starlark.String)
	if !ok {
		return nil, false, fmt.Errorf("macros: key must be string, got %s", k.Type())
	}
	body, found := m.host.Lookup(string(name))
	if !found {
		return nil, false, nil
	}
	return starlark.String(body), true, nil
}

func (m macroTable) AttrNames() []string { return []string{"get"} }

// Attr implements macros.get(name, default=None).
func (m macroTable) Attr(name string) (starlark.Value, error) {
	if name != "get" {
		return nil, nil
	}
	return starlark.NewBuiltin("macros.get", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var key string
		var dflt starlark.Value = starlark.None
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &key, "default?", &dflt); err != nil {
			return nil, err
		}
		if body, found := m.host.Lookup(key); found {
			return starlark.String(body), nil
		}
		return dflt, nil
	}), nil
}
