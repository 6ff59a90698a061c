package build

import "runtime/debug"

// Overridden at link time, eg -ldflags "-X github.com/mt-inside/host-inspect/internal/build.Version=v1.2.3"
var (
	Name    = "host-inspect"
	Version = ""
)

// UserAgent is what we send in HTTP requests.
func UserAgent() string {
	return Name + "/" + version()
}

func version() string {
	if Version != "" {
		return Version
	}
	// go install'd builds carry the module version
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}
