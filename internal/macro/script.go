package macro

// scriptHost exposes a running expansion to %{starlark:...} scripts.
type scriptHost struct {
	x *expansion
}

func (h scriptHost) Expand(text string) (string, error) {
	return h.x.expandThis(text)
}

// Define stores name the way %define would at the script's depth.
func (h scriptHost) Define(name, body string) {
	h.x.ctx.Define(name, body, h.x.depth-1)
}

func (h scriptHost) Undefine(name string) {
	h.x.ctx.Undefine(name)
}

func (h scriptHost) Lookup(name string) (string, bool) {
	if e := h.x.ctx.Lookup(name); e != nil {
		return e.Body, true
	}
	return "", false
}

// runScript runs a script and appends whatever it printed.
func (x *expansion) runScript(out *buffer, script string) error {
	printed, err := x.e.script(scriptHost{x: x}, script)
	if err != nil {
		return &ScriptError{
			baseError: baseError{pos: x.pos, msg: "starlark script failed"},
			Cause:     err,
		}
	}
	out.appendString(printed)
	return nil
}
