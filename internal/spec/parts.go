package spec

import "strings"

// Part identifies a section of a spec file.
type Part int

const (
	PartNone Part = iota
	PartPreamble
	PartPrep
	PartBuild
	PartInstall
	PartCheck
	PartClean
	PartPreun
	PartPostun
	PartPretrans
	PartPosttrans
	PartPre
	PartPost
	PartFiles
	PartChangelog
	PartDescription
	PartTriggerpostun
	PartTriggerprein
	PartTriggerun
	PartTriggerin
	PartVerifyscript
	PartPolicies
)

// partTokens is searched in order, so a token must come before any shorter
// token it starts with.
var partTokens = []struct {
	part  Part
	token string
}{
	{PartPreamble, "%package"},
	{PartPrep, "%prep"},
	{PartBuild, "%build"},
	{PartInstall, "%install"},
	{PartCheck, "%check"},
	{PartClean, "%clean"},
	{PartPreun, "%preun"},
	{PartPostun, "%postun"},
	{PartPretrans, "%pretrans"},
	{PartPosttrans, "%posttrans"},
	{PartPre, "%pre"},
	{PartPost, "%post"},
	{PartFiles, "%files"},
	{PartChangelog, "%changelog"},
	{PartDescription, "%description"},
	{PartTriggerpostun, "%triggerpostun"},
	{PartTriggerprein, "%triggerprein"},
	{PartTriggerun, "%triggerun"},
	{PartTriggerin, "%triggerin"},
	{PartTriggerin, "%trigger"},
	{PartVerifyscript, "%verifyscript"},
	{PartPolicies, "%sepolicy"},
}

var partNames = map[Part]string{
	PartNone:          "none",
	PartPreamble:      "preamble",
	PartPrep:          "prep",
	PartBuild:         "build",
	PartInstall:       "install",
	PartCheck:         "check",
	PartClean:         "clean",
	PartPreun:         "preun",
	PartPostun:        "postun",
	PartPretrans:      "pretrans",
	PartPosttrans:     "posttrans",
	PartPre:           "pre",
	PartPost:          "post",
	PartFiles:         "files",
	PartChangelog:     "changelog",
	PartDescription:   "description",
	PartTriggerpostun: "triggerpostun",
	PartTriggerprein:  "triggerprein",
	PartTriggerun:     "triggerun",
	PartTriggerin:     "triggerin",
	PartVerifyscript:  "verifyscript",
	PartPolicies:      "sepolicy",
}

func (p Part) String() string {
	if name, ok := partNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsPart reports which section header line starts with, or PartNone. The
// match ignores case and the header must be followed by whitespace or the
// end of the line.
func IsPart(line string) Part {
	return partToken(line, false)
}

// partToken matches a section header token at the start of line. With
// wordBoundary any byte that cannot continue a name also ends the token.
func partToken(line string, wordBoundary bool) Part {
	if !strings.HasPrefix(line, "%") {
		return PartNone
	}
	for _, p := range partTokens {
		if len(line) < len(p.token) || !strings.EqualFold(line[:len(p.token)], p.token) {
			continue
		}
		if len(line) == len(p.token) {
			return p.part
		}
		c := line[len(p.token)]
		if isSpace(c) {
			return p.part
		}
		if wordBoundary && !isNameChar(c) {
			return p.part
		}
	}
	return PartNone
}

// isCond reports whether s starts with a reader directive.
func isCond(s string) bool {
	for _, d := range []string{"%if", "%ifarch", "%ifnarch", "%ifos", "%ifnos"} {
		if hasDirectiveArg(s, d) {
			return true
		}
	}
	for _, d := range []string{"%else", "%endif", "%include"} {
		if hasDirective(s, d) {
			return true
		}
	}
	return false
}

// hasDirective reports whether s starts with name not followed by a letter.
func hasDirective(s, name string) bool {
	if !strings.HasPrefix(s, name) {
		return false
	}
	return len(s) == len(name) || !isAlpha(s[len(name)])
}

// hasDirectiveArg reports whether s starts with name followed by a blank or
// the end of the line.
func hasDirectiveArg(s, name string) bool {
	if !strings.HasPrefix(s, name) {
		return false
	}
	return len(s) == len(name) || isBlank(s[len(name)])
}

func isPrep(s string) bool {
	return strings.HasPrefix(s, "%setup") || strings.HasPrefix(s, "%patch")
}

var fileAttrs = map[string]bool{
	"attr":      true,
	"artifact":  true,
	"caps":      true,
	"config":    true,
	"defattr":   true,
	"dev":       true,
	"dir":       true,
	"doc":       true,
	"docdir":    true,
	"exclude":   true,
	"ghost":     true,
	"lang":      true,
	"license":   true,
	"missingok": true,
	"pubkey":    true,
	"readme":    true,
	"verify":    true,
}

// isFileAttr reports whether name is a %files attribute or virtual file
// marker.
func isFileAttr(name string) bool {
	return fileAttrs[name]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isNameChar(c byte) bool { return isAlpha(c) || (c >= '0' && c <= '9') || c == '_' }

func trimLeftSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}
