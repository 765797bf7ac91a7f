package spec

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachTargetArch(t *testing.T) {
	c := newTestContext()
	e := macro.NewExpander(c, macro.Options{})

	var seen []string
	err := ForEachTargetArch(c, []string{"i686", "ppc", "noarch"},
		func(arch string) bool { return arch != "ppc" },
		func(arch string) error {
			got, err := e.ExpandString("%{_target_cpu}")
			require.NoError(t, err)
			seen = append(seen, arch+"="+got)
			return nil
		})
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, []string{"i686=i686", "noarch=noarch"}, seen)
	assert.Equal(t, "x86_64", c.Lookup("_target_cpu").Body, "override is removed after each run")
}

func TestForEachTargetArch_NoneCompatible(t *testing.T) {
	c := newTestContext()
	err := ForEachTargetArch(c, []string{"sparc"}, func(string) bool { return false }, func(string) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrNoCompatibleArch)
	assert.ErrorIs(t, ForEachTargetArch(c, nil, nil, nil), ErrNoCompatibleArch)
}

func TestForEachTargetArch_StopsOnError(t *testing.T) {
	c := newTestContext()
	boom := errors.New("boom")
	runs := 0
	err := ForEachTargetArch(c, []string{"a", "b"}, nil, func(string) error {
		runs++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, runs)
	assert.Equal(t, "x86_64", c.Lookup("_target_cpu").Body)
}

func TestForEachTargetArch_Reparse(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "multi.spec", "%ifarch i686\n32bit\n%else\n64bit\n%endif\n")
	c := newTestContext()
	e := macro.NewExpander(c, macro.Options{})

	var out []string
	err := ForEachTargetArch(c, []string{"i686", "x86_64"}, nil, func(arch string) error {
		r := NewReader(path, e, Options{})
		defer r.Close()
		lines, err := readAll(r, StripNone)
		if err != nil {
			return err
		}
		out = append(out, arch+":"+lines[1]+lines[3])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i686:32bit", "x86_64:64bit"}, out)
}
