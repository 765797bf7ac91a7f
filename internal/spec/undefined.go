package spec

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/specmacro/internal/macro"
)

// undefined decides whether a reference to an undefined macro counts as an
// error. Most references are only worth a warning: those in comments,
// section headers, reader directives and the section-specific keywords the
// later parsing stages handle themselves. In the preamble and scriptlets an
// undefined macro is an error unless the reader was forced.
func (r *Reader) undefined(u macro.Undefined) bool {
	part := r.Part

	// Only the last line of a multi-line chunk matters, but a section
	// header on an earlier line moves the chunk into that section.
	exp := u.Expanded
	for {
		i := strings.IndexByte(exp, '\n')
		if i < 0 {
			break
		}
		if p := IsPart(exp); p != PartNone {
			part = p
		}
		exp = exp[i+1:]
	}

	if strings.HasPrefix(trimLeftSpace(exp), "#") {
		return false
	}

	// token is true for a plain %name reference without braces or flags.
	token := len(u.Token) > 1 && strings.HasPrefix(u.Token[1:], u.Name)

	if token && exp == "" {
		if IsPart(u.Token) != PartNone {
			return false
		}
		if part == PartPrep && isPrep(u.Token) {
			return false
		}
	}

	if token && isCond(u.Token) && trimLeftSpace(exp) == "" {
		return false
	}

	// the rest of a section header line is preamble-like
	if IsPart(exp) != PartNone {
		part = PartPreamble
	}

	switch part {
	case PartChangelog:
		if token && partToken(u.Token, true) != PartNone {
			return false
		}
		fallthrough
	case PartPrep, PartBuild, PartInstall, PartCheck, PartClean, PartFiles:
		if token && isFileAttr(u.Name) {
			return false
		}
	}

	counted := false
	switch part {
	case PartPreamble, PartPre, PartPost, PartPreun, PartPostun,
		PartPretrans, PartPosttrans,
		PartTriggerprein, PartTriggerin, PartTriggerun, PartTriggerpostun:
		counted = !r.force
	}

	// %global bodies expanded from the preamble
	if part == PartPreamble && u.Depth > 1 {
		counted = false
	}

	msg := fmt.Sprintf("%s:%d: Undefined macro %%%s", u.File, u.Line, u.Name)
	if counted {
		r.logger.Error(msg)
		r.errors++
	} else {
		r.logger.Warn(msg)
	}
	return counted
}
