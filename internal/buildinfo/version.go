// Package buildinfo provides version information derived from Go build metadata.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version can be set at link time:
//
//	go build -ldflags "-X github.com/fastogt/build-env/internal/buildinfo.version=v1.2.0"
var version string

// Version returns the version string for the current build.
//
// An ldflags-injected version wins. Otherwise tagged module builds return
// the tag (e.g. "v0.1.0") and development builds return "dev-<hash>",
// "dev-<hash>-dirty" or "dev". "unknown" means build info was unreadable.
func Version() string {
	if version != "" {
		return version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return devVersion(info.Settings)
}

// String returns the one-line description printed by `build-env version`.
func String() string {
	return fmt.Sprintf("build-env %s (%s, %s/%s)", Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// devVersion builds "dev-<hash>[-dirty]" from VCS settings.
func devVersion(settings []debug.BuildSetting) string {
	var revision string
	var modified bool

	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}

	// Truncate revision to 12 characters (standard Git short hash length)
	if len(revision) > 12 {
		revision = revision[:12]
	}

	v := "dev-" + revision
	if modified {
		v += "-dirty"
	}
	return v
}
