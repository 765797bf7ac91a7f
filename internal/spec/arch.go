package spec

import (
	"errors"

	"github.com/leapstack-labs/specmacro/internal/macro"
)

// ErrNoCompatibleArch is returned by ForEachTargetArch when every
// architecture was skipped.
var ErrNoCompatibleArch = errors.New("No compatible architectures found for build")

// ForEachTargetArch runs fn once per architecture with %_target_cpu
// overridden at the rpmrc level, one architecture at a time. Architectures
// rejected by compatible are skipped; a nil compatible accepts all of them.
// It stops at the first error fn returns.
func ForEachTargetArch(c *macro.Context, archs []string, compatible func(string) bool, fn func(arch string) error) error {
	ran := 0
	for _, arch := range archs {
		if compatible != nil && !compatible(arch) {
			continue
		}
		c.Define("_target_cpu", arch, macro.LevelRPMRC)
		err := fn(arch)
		c.Undefine("_target_cpu")
		if err != nil {
			return err
		}
		ran++
	}
	if ran == 0 {
		return ErrNoCompatibleArch
	}
	return nil
}
