//go:build !linux

package engine

// pinAffinity is a no-op on platforms without a cpuset-style affinity
// syscall wired up (golang.org/x/sys/unix.SchedSetaffinity is Linux-only).
func pinAffinity(cores []int) {}
