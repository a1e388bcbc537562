package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version can be set at build time, e.g.
// go build -ldflags "-X github.com/vsariola/granular/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision of the build, with a "-dirty" suffix when
// the working tree had local changes.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision, dirty := "", ""
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value[:min(7, len(setting.Value))]
		case "vcs.modified":
			if setting.Value == "true" {
				dirty = "-dirty"
			}
		}
	}
	if revision == "" {
		return ""
	}
	return revision + dirty
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

// Describe returns a one line description of the build for -v flags.
func Describe(program string) string {
	v := VersionOrHash
	if v == "" {
		v = "unknown version"
	}
	return fmt.Sprintf("%s %s (%s %s/%s)", program, v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
