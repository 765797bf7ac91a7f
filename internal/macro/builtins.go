package macro

import "strings"

var transforms = map[string]bool{
	"basename":   true,
	"dirname":    true,
	"suffix":     true,
	"expand":     true,
	"verbose":    true,
	"uncompress": true,
	"url2path":   true,
	"u2p":        true,
	"getenv":     true,
	"getconfdir": true,
	"S":          true,
	"P":          true,
	"F":          true,
}

// isTransform reports whether name is a builtin string transform. These
// win over table definitions of the same name.
func isTransform(name string) bool {
	return transforms[name]
}

// Builtins returns the names handled by the expander itself, in the order
// they are checked.
func Builtins() []string {
	return []string{
		"global", "define", "undefine", "echo", "warn", "error", "trace", "dump", "starlark",
		"basename", "dirname", "suffix", "expand", "verbose", "uncompress",
		"url2path", "u2p", "getenv", "getconfdir", "S", "P", "F",
	}
}

// transform computes a builtin transform of the expanded clause text and
// expands the result in place. A transform without a result, such as
// %{suffix:name} on a name without a dot, produces nothing.
func (x *expansion) transform(out *buffer, name string, negate bool, g string, hasG bool) error {
	var arg string
	if hasG {
		var err error
		if arg, err = x.expandThis(g); err != nil {
			return err
		}
	}

	res, ok := arg, true
	switch name {
	case "basename":
		res = arg[strings.LastIndexByte(arg, '/')+1:]
	case "dirname":
		if i := strings.LastIndexByte(arg, '/'); i >= 0 {
			res = arg[:i]
		}
	case "suffix":
		i := strings.LastIndexByte(arg, '.')
		ok = i >= 0
		if ok {
			res = arg[i+1:]
		}
	case "expand":
	case "verbose":
		ok = x.e.verbose != negate
	case "url2path", "u2p":
		if res = urlPath(arg); res == "" {
			res = "/"
		}
	case "uncompress":
		res = x.uncompress(arg)
	case "getenv":
		res, ok = x.e.getenv(arg)
	case "getconfdir":
		res = x.e.confDir
	case "S":
		if allDigits(arg) {
			res = "%SOURCE" + arg
		}
	case "P":
		if allDigits(arg) {
			res = "%PATCH" + arg
		}
	case "F":
		res = "file" + arg + ".file"
	}
	if !ok {
		return nil
	}
	return x.expand(out, res)
}

var urlSchemes = []string{"ftp://", "file://", "hkp://", "http://", "https://"}

// urlPath returns the path part of a URL. Text that is not a URL is
// returned unchanged, and "-" maps to the empty path.
func urlPath(s string) string {
	if s == "-" {
		return ""
	}
	for _, scheme := range urlSchemes {
		if len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
			rest := s[len(scheme):]
			if i := strings.IndexByte(rest, '/'); i >= 0 {
				return rest[i:]
			}
			return ""
		}
	}
	return s
}

// uncompress turns the first word of arg into the command that writes the
// decompressed file to stdout, chosen by the file's magic bytes.
func (x *expansion) uncompress(arg string) string {
	i := skipBlank(arg, 0)
	j := i
	for j < len(arg) && !isBlank(arg[j]) {
		j++
	}
	file := arg[i:j]
	return compressorCommand(detectCompression(file)) + " " + file
}
