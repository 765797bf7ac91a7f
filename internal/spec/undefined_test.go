package spec

import (
	"testing"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/leapstack-labs/specmacro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndefinedPolicy(t *testing.T) {
	tests := []struct {
		name     string
		part     Part
		force    bool
		token    string
		macro    string
		expanded string
		depth    int
		want     bool
	}{
		{name: "preamble reference", part: PartPreamble, token: "%{nope}", macro: "nope", expanded: "Version: ", want: true},
		{name: "forced preamble", part: PartPreamble, force: true, token: "%{nope}", macro: "nope", expanded: "Version: "},
		{name: "comment", part: PartPreamble, token: "%nope", macro: "nope", expanded: "  # see "},
		{name: "section header", part: PartBuild, token: "%package devel", macro: "package"},
		{name: "setup in prep", part: PartPrep, token: "%setup -q", macro: "setup"},
		{name: "setup in preamble", part: PartPreamble, token: "%setup -q", macro: "setup", want: true},
		{name: "indented conditional", part: PartPreamble, token: "%ifarch x86_64", macro: "ifarch", expanded: "  "},
		{name: "conditional mid line", part: PartPreamble, token: "%ifarch x86_64", macro: "ifarch", expanded: "x ", want: true},
		{name: "file attribute", part: PartFiles, token: "%doc README", macro: "doc"},
		{name: "file attribute in build", part: PartBuild, token: "%license COPYING", macro: "license"},
		{name: "file attribute in preamble", part: PartPreamble, token: "%doc README", macro: "doc", want: true},
		{name: "braced file attribute", part: PartPreamble, token: "%{doc}", macro: "doc", want: true},
		{name: "header token in changelog", part: PartChangelog, token: "%description-devel", macro: "description", expanded: "- fix "},
		{name: "build section", part: PartBuild, token: "%{nope}", macro: "nope", expanded: "make "},
		{name: "install section", part: PartInstall, token: "%nope", macro: "nope"},
		{name: "scriptlet", part: PartPost, token: "%nope", macro: "nope", want: true},
		{name: "trigger", part: PartTriggerin, token: "%nope", macro: "nope", want: true},
		{name: "global body in preamble", part: PartPreamble, token: "%nope", macro: "nope", depth: 2},
		{name: "header earlier in chunk", part: PartBuild, token: "%{nope}", macro: "nope", expanded: "%package foo\nSummary: ", want: true},
		{name: "rest of header line", part: PartBuild, token: "%{nope}", macro: "nope", expanded: "%files ", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reader{logger: testutil.NewTestLogger(t), force: tt.force, Part: tt.part}
			depth := tt.depth
			if depth == 0 {
				depth = 1
			}
			got := r.undefined(macro.Undefined{
				Position: macro.Position{File: "test.spec", Line: 7},
				Name:     tt.macro,
				Token:    tt.token,
				Expanded: tt.expanded,
				Depth:    depth,
			})
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.Equal(t, 1, r.Errors())
			} else {
				assert.Equal(t, 0, r.Errors())
			}
		})
	}
}

func TestReader_UndefinedCounting(t *testing.T) {
	dir := t.TempDir()
	content := "Name: demo\nVersion: %{undefined_version}\n%build\nmake %{undefined_flags}\n"

	tests := []struct {
		name   string
		force  bool
		errors int
	}{
		{"strict", false, 1},
		{"forced", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSpec(t, dir, "demo.spec", content)
			r := newTestReader(t, path, Options{Force: tt.force})
			for {
				line, err := r.ReadLine(StripTrailingSpace)
				if err != nil {
					break
				}
				if p := IsPart(line); p != PartNone {
					r.Part = p
				}
			}
			assert.Equal(t, tt.errors, r.Errors())
		})
	}

	path := writeSpec(t, dir, "demo.spec", content)
	r := newTestReader(t, path, Options{})
	lines, err := readAll(r, StripNone)
	require.NoError(t, err, "undefined macros never fail the read")
	assert.Equal(t, "Version: %{undefined_version}", lines[1], "undefined references stay verbatim")
}
