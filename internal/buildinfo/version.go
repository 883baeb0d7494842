// Package buildinfo holds values stamped in at link time
package buildinfo

import "runtime/debug"

// Set with -ldflags, for example:
//
//	go build -ldflags "-X github.com/0x-auth/artreg/internal/buildinfo.Version=v0.3.0 -X github.com/0x-auth/artreg/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = ""
)

// GetVersion returns Version, falling back to the module version recorded by
// `go install` and finally to "dev"
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// GetCommit returns Commit, or the VCS revision embedded by the toolchain
func GetCommit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
