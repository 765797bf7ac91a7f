package macro

import (
	"bytes"
	"math/rand"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_DefineLookup(t *testing.T) {
	c := NewContext()
	c.Define("foo", "bar", LevelGlobal)

	e := c.Lookup("foo")
	require.NotNil(t, e, "Lookup returned nil")
	assert.Equal(t, "bar", e.Body)
	assert.Equal(t, LevelGlobal, e.Level)
	assert.False(t, e.Parametric)
	assert.True(t, c.IsDefined("foo"))
	assert.Nil(t, c.Lookup("fo"), "prefix must not match")
	assert.Nil(t, c.Lookup("food"))
}

func TestContext_ShadowUnshadow(t *testing.T) {
	c := NewContext()
	c.Define("x", "1", 0)
	c.Define("x", "2", 1)
	assert.Equal(t, "2", c.Lookup("x").Body)
	assert.Equal(t, 1, c.Len(), "shadows share one name")

	c.Undefine("x")
	assert.Equal(t, "1", c.Lookup("x").Body)

	c.Undefine("x")
	assert.Nil(t, c.Lookup("x"))
	assert.Equal(t, 0, c.Len())
}

func TestContext_ShadowIgnoresLevel(t *testing.T) {
	c := NewContext()
	c.Define("x", "high", LevelGlobal)
	c.Define("x", "low", LevelMacroFiles)
	assert.Equal(t, "low", c.Lookup("x").Body, "most recent definition wins")
}

func TestContext_UndefineMissing(t *testing.T) {
	c := NewContext()
	c.Define("keep", "1", 0)
	assert.NotPanics(t, func() { c.Undefine("missing") })
	assert.Equal(t, []string{"keep"}, c.Names())
}

func TestContext_SortedInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewContext()
	live := map[string]int{}

	for i := 0; i < 2000; i++ {
		name := "m" + strconv.Itoa(rng.Intn(60))
		if rng.Intn(3) == 0 {
			c.Undefine(name)
			if live[name] > 0 {
				live[name]--
			}
		} else {
			c.Define(name, strconv.Itoa(i), i%5)
			live[name]++
		}

		names := c.Names()
		require.True(t, slices.IsSorted(names), "names must stay sorted")
		require.Equal(t, len(slices.Compact(slices.Clone(names))), len(names), "names must be unique")
	}

	shadows := 0
	for _, n := range live {
		shadows += n
	}
	count := 0
	c.ForEach(func(*Entry) { count++ })
	assert.Equal(t, shadows, count, "ForEach visits every live shadow")
}

func TestContext_ForEachOrder(t *testing.T) {
	c := NewContext()
	c.Define("b", "b1", 0)
	c.Define("a", "a1", 0)
	c.Define("b", "b2", 0)

	var got []string
	c.ForEach(func(e *Entry) { got = append(got, e.Name+"="+e.Body) })
	assert.Equal(t, []string{"a=a1", "b=b2", "b=b1"}, got)
}

func TestContext_LoadInto(t *testing.T) {
	cli := NewContext()
	cli.Define("over", "old", 0)
	cli.Define("over", "new", 0)
	cli.DefineWithOpts("param", "a:", "%1", 0)

	global := NewContext()
	global.Define("over", "file", LevelMacroFiles-1)
	cli.LoadInto(global, LevelCmdline)

	e := global.Lookup("over")
	require.NotNil(t, e)
	assert.Equal(t, "new", e.Body, "only the visible definition is copied")
	assert.Equal(t, LevelCmdline-1, e.Level)

	p := global.Lookup("param")
	require.NotNil(t, p)
	assert.True(t, p.Parametric)
	assert.Equal(t, "a:", p.Opts)

	global.Undefine("over")
	assert.Equal(t, "file", global.Lookup("over").Body)
}

func TestContext_Clone(t *testing.T) {
	c := NewContext()
	c.Define("x", "1", 0)
	c.Define("x", "2", 0)

	cp := c.Clone()
	cp.Undefine("x")
	cp.Lookup("x").Used = 5
	cp.Define("y", "3", 0)

	assert.Equal(t, "2", c.Lookup("x").Body)
	assert.False(t, c.IsDefined("y"))
	c.Undefine("x")
	assert.Equal(t, 0, c.Lookup("x").Used)
}

func TestContext_Reset(t *testing.T) {
	c := NewContext()
	c.Define("x", "1", 0)
	c.Reset()
	assert.Equal(t, 0, c.Len())
	c.Define("y", "1", 0)
	assert.Equal(t, []string{"y"}, c.Names())
}

func TestContext_PopArgs(t *testing.T) {
	c := NewContext()
	c.Define("1", "outer", 1)
	c.Define("name", "keep", 2)
	c.Define("1", "inner", 2)
	c.Define("-f", "-f", 2)
	c.Define("**", "", 2)
	c.Define("#", "1", 2)
	c.Define("0", "m", 2)

	c.popArgs(2)

	assert.Equal(t, "outer", c.Lookup("1").Body)
	assert.Equal(t, "keep", c.Lookup("name").Body, "ordinary names survive")
	assert.Nil(t, c.Lookup("-f"))
	assert.Nil(t, c.Lookup("**"))
	assert.Nil(t, c.Lookup("#"))
	assert.Nil(t, c.Lookup("0"))
}

func TestContext_Dump(t *testing.T) {
	c := NewContext()
	c.Define("alpha", "1", -14)
	c.DefineWithOpts("beta", "ab:", "%1", -1)
	c.DefineWithOpts("gamma", "", "g", 0)
	c.Define("alpha", "2", -1)
	c.Lookup("alpha").Used = 1

	var buf bytes.Buffer
	require.NoError(t, c.Dump(&buf), "unexpected error")

	want := "========================\n" +
		" -1= alpha\t2\n" +
		"-14: alpha\t1\n" +
		" -1: beta(ab:)\t%1\n" +
		"  0: gamma\tg\n" +
		"======================== active 3 empty 0\n"
	assert.Equal(t, want, buf.String())
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{LevelCmdline - 1, "cmdline"},
		{LevelGlobal - 1, "global"},
		{LevelMacroFiles - 1, "macrofiles"},
		{LevelRPMRC, "rpmrc"},
		{3, "depth 3"},
		{0, "global"},
		{-9, "-9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelName(tt.level), "LevelName(%d)", tt.level)
	}
}
