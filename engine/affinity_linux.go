//go:build linux

package engine

import (
	"golang.org/x/sys/unix"

	"github.com/rtsyn-dev/rtsyn/logger"
)

// pinAffinity sets the calling goroutine's OS thread's CPU affinity
// mask to cores, logging (not failing) if the syscall is refused —
// a container without CAP_SYS_NICE or a cgroup cpuset narrower than
// the requested cores is a deployment detail, not a reason to crash
// the tick loop.
func pinAffinity(cores []int) {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cores {
		if c >= 0 {
			set.Set(c)
		}
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		logger.Warnw("failed to set engine thread CPU affinity", "cores", cores, "error", err)
	}
}
