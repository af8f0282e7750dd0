// Package host captures the facts about the local machine that decide
// whether an atomic test may run here.
package host

import (
	"runtime"
	"strings"
)

// Facts is computed once at startup and read-only afterwards.
type Facts struct {
	// OS is the platform name as used in supported_platforms.
	OS        string
	Elevated  bool
	Executors []string
}

// Detect inspects the running process. executors is the set of executor
// names the dispatcher knows how to launch.
func Detect(executors []string) Facts {
	return Facts{
		OS:        Platform(runtime.GOOS),
		Elevated:  isElevated(),
		Executors: append([]string(nil), executors...),
	}
}

// Platform maps a GOOS value to the platform vocabulary of the technique
// definitions.
func Platform(goos string) string {
	goos = strings.ToLower(goos)
	switch goos {
	case "darwin":
		return "macos"
	default:
		return goos
	}
}

// SupportsExecutor reports whether name is a launchable executor.
func (f Facts) SupportsExecutor(name string) bool {
	for _, e := range f.Executors {
		if e == name {
			return true
		}
	}
	return false
}
