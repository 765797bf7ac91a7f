package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"text", ModeText, false},
		{"md", ModeMarkdown, false},
		{"yaml", ModeYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseMode(%q)", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"empty is auto", "", false, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_NonTerminalBuffer(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestRenderer_Structured(t *testing.T) {
	v := map[string]any{"name": "_prefix", "level": -14}

	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeJSON)
	ok, err := r.Structured(v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"name":"_prefix","level":-14}`, out.String())

	out.Reset()
	r = NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeYAML)
	ok, err = r.Structured(v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "level: -14\nname: _prefix\n", out.String())

	out.Reset()
	r = NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeText)
	ok, err = r.Structured(v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestRenderer_Messages(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)

	r.Header(2, "Macros")
	r.Success("done")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "## Macros\nok done\n", out.String())
	assert.Equal(t, "warning: careful\nerror: broken\n", errOut.String())
	assert.NotContains(t, out.String()+errOut.String(), "\x1b[", "no ANSI codes off a terminal")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "- **Files**: 2", FormatKeyValue("Files", "2"))
	assert.Equal(t, "```spec\nName: x\n```", FormatCodeBlock("spec", "Name: x"))

	block := FormatCodeBlock("", "a ``` b\n")
	assert.True(t, strings.HasPrefix(block, "````\n"))
	assert.True(t, strings.HasSuffix(block, "\n````"))
}
