package version

import "runtime/debug"

// version is overridden with -ldflags "-X .../pkg/version.version=v1.2.3".
var version = "dev"

// Version returns the module version of a released build, the linker
// override, or "dev" followed by the short VCS revision when known.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	if version != "dev" || !ok {
		return version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return version + "+" + s.Value[:7]
		}
	}
	return version
}

// Set assigns the version when ldflags are not provided.
func Set(v string) {
	if v != "" {
		version = v
	}
}
