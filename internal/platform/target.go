// Package platform detects the host the bootstrap runs on.
//
// It answers three questions: which operating system (in the naming used
// by the package catalog: linux, freebsd, macosx, windows), which Linux
// distribution, and how wide the CPU word is. The answers are bundled in
// an Environment that is produced once per run and only read afterwards.
package platform

import (
	"fmt"
	"runtime"
)

// Operating system names used throughout build-env.
const (
	OSLinux   = "linux"
	OSFreeBSD = "freebsd"
	OSMacOSX  = "macosx"
	OSWindows = "windows"
)

// goosToOS maps runtime.GOOS values that are named differently here.
var goosToOS = map[string]string{
	"darwin": OSMacOSX,
}

// Environment describes the platform being bootstrapped.
type Environment struct {
	// OSName is one of the OS* constants, or the raw name for
	// anything else.
	OSName string

	// Distribution is only set when OSName is "linux".
	Distribution string

	// Arch is the CPU architecture. Its Bits matter for windows.
	Arch Architecture
}

// String returns a compact description such as "linux/RHEL/x86_64".
func (e Environment) String() string {
	if e.Distribution != "" {
		return fmt.Sprintf("%s/%s/%s", e.OSName, e.Distribution, e.Arch.Name)
	}
	return fmt.Sprintf("%s/%s", e.OSName, e.Arch.Name)
}

// IsLinux reports whether the environment is a Linux host.
func (e Environment) IsLinux() bool {
	return e.OSName == OSLinux
}

// OSFromGOOS converts a runtime.GOOS value to the build-env OS name.
func OSFromGOOS(goos string) string {
	if name, ok := goosToOS[goos]; ok {
		return name
	}
	return goos
}

// DetectOS returns the OS name of the running host.
func DetectOS() string {
	return OSFromGOOS(runtime.GOOS)
}

// Detect returns the environment of the running host.
func Detect() (Environment, error) {
	return NewEnvironment(DetectOS(), DetectArchitecture().Name)
}

// NewEnvironment builds an environment from an OS name and an
// architecture name, either of which may come from a CLI override.
// The distribution is only probed when the requested OS is Linux and
// matches the host; a cross-platform override cannot be probed.
func NewEnvironment(osName, archName string) (Environment, error) {
	env := Environment{
		OSName: osName,
		Arch:   LookupArchitecture(archName),
	}

	if osName == OSLinux && DetectOS() == OSLinux {
		dist, err := DetectDistribution()
		if err != nil {
			return Environment{}, fmt.Errorf("failed to detect linux distribution: %w", err)
		}
		env.Distribution = dist
	}

	return env, nil
}
