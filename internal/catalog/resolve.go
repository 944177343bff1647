package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fastogt/build-env/internal/platform"
)

// Plan is the ordered list of packages to install: the required tools of
// the resolved variant followed by its build tools.
type Plan []string

// String returns the packages separated by spaces.
func (p Plan) String() string {
	return strings.Join(p, " ")
}

// PlatformNotSupportedError is returned when no variant matches the
// environment. It is fatal for a bootstrap run.
type PlatformNotSupportedError struct {
	OSName       string
	Distribution string
	Bits         int
}

func (e *PlatformNotSupportedError) Error() string {
	msg := fmt.Sprintf("unknown platform '%s'", e.OSName)
	switch {
	case e.OSName == platform.OSLinux && e.Distribution != "":
		msg += fmt.Sprintf(" (distribution %s)", e.Distribution)
	case e.OSName == platform.OSLinux:
		msg += " (distribution not detected)"
	case e.OSName == platform.OSWindows && e.Bits == 0:
		msg += " (architecture not recognized)"
	case e.OSName == platform.OSWindows:
		msg += fmt.Sprintf(" (%d-bit architecture)", e.Bits)
	}
	return msg
}

// IsPlatformNotSupported reports whether err is a PlatformNotSupportedError.
func IsPlatformNotSupported(err error) bool {
	var pe *PlatformNotSupportedError
	return errors.As(err, &pe)
}

// ResolveVariant selects the single variant for env.
func ResolveVariant(env platform.Environment) (Variant, error) {
	switch env.OSName {
	case platform.OSLinux:
		switch env.Distribution {
		case platform.DistributionDebian:
			return Debian, nil
		case platform.DistributionRHEL:
			return RedHat, nil
		case platform.DistributionArch:
			return Arch, nil
		}
	case platform.OSFreeBSD:
		return FreeBSD, nil
	case platform.OSMacOSX:
		return MacOSX, nil
	case platform.OSWindows:
		switch env.Arch.Bits {
		case 64:
			return Windows64, nil
		case 32:
			return Windows32, nil
		}
	}

	return 0, &PlatformNotSupportedError{
		OSName:       env.OSName,
		Distribution: env.Distribution,
		Bits:         env.Arch.Bits,
	}
}

// NewPlan returns the plan for a variant: required tools then build tools,
// each in declared order.
func NewPlan(v Variant) Plan {
	plan := Plan(v.RequiredTools())
	return append(plan, v.BuildTools()...)
}

// Resolve returns the package plan for env.
func Resolve(env platform.Environment) (Plan, error) {
	v, err := ResolveVariant(env)
	if err != nil {
		return nil, err
	}
	return NewPlan(v), nil
}
