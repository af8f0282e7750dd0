//go:build !unix && !windows

package host

func isElevated() bool { return false }
