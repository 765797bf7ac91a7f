package macro

import (
	"bytes"
	"errors"
	"os/exec"
)

// shellEscape runs the expanded command text through the shell and expands
// its standard output, minus trailing line terminators, into out. A
// non-zero exit status is not an error; failing to start the shell is.
func (x *expansion) shellEscape(out *buffer, cmd string) error {
	text, err := x.expandThis(cmd)
	if err != nil {
		return err
	}

	c := exec.Command(x.e.shell, "-c", text) //nolint:gosec // G204: running macro shell escapes is the point
	c.Stderr = x.e.stderr
	stdout, err := c.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return &ShellError{
				baseError: baseError{pos: x.pos, msg: "failed to run shell escape %(" + text + ")"},
				Command:   text,
				Cause:     err,
			}
		}
	}
	return x.expand(out, string(bytes.TrimRight(stdout, "\r\n")))
}
