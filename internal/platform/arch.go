package platform

import (
	"runtime"
	"strings"
)

// Architecture is a CPU architecture name and its word width.
// Bits is 0 when the name is not recognized.
type Architecture struct {
	Name string
	Bits int
}

var archBits = map[string]int{
	"x86_64":  64,
	"amd64":   64,
	"aarch64": 64,
	"arm64":   64,
	"ppc64le": 64,
	"ppc64":   64,
	"s390x":   64,
	"riscv64": 64,
	"i386":    32,
	"i486":    32,
	"i586":    32,
	"i686":    32,
	"x86":     32,
	"386":     32,
	"armv6l":  32,
	"armv7l":  32,
	"arm":     32,
}

// goarchToMachine maps runtime.GOARCH values to uname-style machine
// names for hosts where uname is not available.
var goarchToMachine = map[string]string{
	"amd64": "x86_64",
	"386":   "i386",
	"arm64": "aarch64",
	"arm":   "armv7l",
}

// LookupArchitecture returns the architecture for a machine name.
// Matching is case-insensitive; the name is kept as given.
func LookupArchitecture(name string) Architecture {
	return Architecture{
		Name: name,
		Bits: archBits[strings.ToLower(name)],
	}
}

// DetectArchitecture returns the architecture of the running host.
func DetectArchitecture() Architecture {
	machine := unameMachine()
	if machine == "" {
		machine = machineFromGOARCH(runtime.GOARCH)
	}
	return LookupArchitecture(machine)
}

func machineFromGOARCH(goarch string) string {
	if m, ok := goarchToMachine[goarch]; ok {
		return m
	}
	return goarch
}
