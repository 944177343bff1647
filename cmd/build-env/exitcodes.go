package main

import (
	"context"
	"errors"
	"os"

	"github.com/fastogt/build-env/internal/builder"
	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/cli"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitUnsupportedPlatform indicates no package list matches the platform
	ExitUnsupportedPlatform = 3

	// ExitBuildFailed indicates a library build step failed
	ExitBuildFailed = 4

	// ExitInterrupted indicates the run was cancelled by a signal
	ExitInterrupted = 130
)

// exitCodeFor maps an error returned by a command to its exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case cli.IsParseBoolError(err):
		return ExitUsage
	case catalog.IsPlatformNotSupported(err):
		return ExitUnsupportedPlatform
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case builder.IsStepError(err):
		return ExitBuildFailed
	default:
		return ExitGeneral
	}
}

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
