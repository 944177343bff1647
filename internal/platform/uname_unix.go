//go:build unix

package platform

import (
	"golang.org/x/sys/unix"
)

// unameMachine returns the machine field of uname(2), e.g. "x86_64".
func unameMachine() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Machine[:])
}
