package macro

import (
	"strconv"
	"strings"
)

// option is one parsed short option.
type option struct {
	letter byte
	value  string
	hasArg bool
}

// optError describes a getopt failure.
type optError struct {
	letter byte
}

// getopt parses short options from args against spec, getopt(3) style: a
// letter followed by ':' takes a value, either attached ("-ofile") or as the
// next argument. Options and operands may be interleaved unless spec starts
// with '+'; "--" ends option parsing. It returns the options in order of
// appearance and the remaining operands.
func getopt(args []string, spec string) ([]option, []string, *optError) {
	permute := true
	if strings.HasPrefix(spec, "+") {
		permute = false
		spec = spec[1:]
	}

	var opts []option
	var operands []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			operands = append(operands, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			if !permute {
				operands = append(operands, args[i:]...)
				break
			}
			operands = append(operands, arg)
			continue
		}
		for j := 1; j < len(arg); j++ {
			c := arg[j]
			k := strings.IndexByte(spec, c)
			if c == ':' || k < 0 {
				return nil, nil, &optError{letter: c}
			}
			if k+1 >= len(spec) || spec[k+1] != ':' {
				opts = append(opts, option{letter: c})
				continue
			}
			switch {
			case j+1 < len(arg):
				opts = append(opts, option{letter: c, value: arg[j+1:], hasArg: true})
			case i+1 < len(args):
				i++
				opts = append(opts, option{letter: c, value: args[i], hasArg: true})
			default:
				return nil, nil, &optError{letter: c}
			}
			break
		}
	}
	return opts, operands, nil
}

// splitArgs splits text on blanks, dropping empty fields.
func splitArgs(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}

// bindArgs defines the transient argument bindings of a call to the
// parameterized macro e at the current depth:
//
//	%0       the macro name
//	%**      every call token, unexpanded
//	%-f      "-f", or "-f value" for an option with a value
//	%-f*     the option value
//	%#       the number of operands
//	%1..%N   each operand
//	%*       the operands joined with spaces
func (x *expansion) bindArgs(e *Entry, args string) error {
	c, depth := x.ctx, x.depth

	c.Define("0", e.Name, depth)
	argv := splitArgs(args)
	c.Define("**", strings.Join(argv, " "), depth)

	opts, operands, oerr := getopt(argv, e.Opts)
	if oerr != nil {
		return newOptionError(x.pos, oerr.letter, e.Name, e.Opts)
	}
	for _, o := range opts {
		name := "-" + string(o.letter)
		if o.hasArg {
			c.Define(name, name+" "+o.value, depth)
			c.Define(name+"*", o.value, depth)
		} else {
			c.Define(name, name, depth)
		}
	}

	c.Define("#", strconv.Itoa(len(operands)), depth)
	for i, arg := range operands {
		c.Define(strconv.Itoa(i+1), arg, depth)
	}
	c.Define("*", strings.Join(operands, " "), depth)
	return nil
}

// bindNoArgs defines the bindings of a parameterized macro called without
// an argument list.
func (x *expansion) bindNoArgs(e *Entry) {
	c, depth := x.ctx, x.depth
	c.Define("**", "", depth)
	c.Define("*", "", depth)
	c.Define("#", "0", depth)
	c.Define("0", e.Name, depth)
}
