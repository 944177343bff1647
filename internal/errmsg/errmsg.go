// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/platform"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Component      string // The component being built (json-c, libev, ...)
	PackageManager string // The package manager in use, e.g. apt-get
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	var platErr *catalog.PlatformNotSupportedError
	if errors.As(err, &platErr) {
		return formatPlatformError(platErr)
	}

	if errors.Is(err, exec.ErrNotFound) || isCommandNotFound(errMsg) {
		return formatCommandNotFoundError(errMsg, ctx)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr)
	}

	if isNetworkError(errMsg) {
		return formatGenericNetworkError(errMsg)
	}

	if isPermissionError(errMsg) {
		return formatPermissionError(errMsg, ctx)
	}

	// Return original error for unrecognized types
	return errMsg
}

func formatPlatformError(err *catalog.PlatformNotSupportedError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	switch err.OSName {
	case platform.OSLinux:
		if err.Distribution == "" {
			sb.WriteString("  - /etc/os-release is missing or unreadable\n")
		} else {
			sb.WriteString(fmt.Sprintf("  - Distribution %s has no package list\n", err.Distribution))
		}
	case platform.OSWindows:
		sb.WriteString("  - Architecture is neither 32-bit nor 64-bit\n")
	default:
		sb.WriteString("  - Operating system is not supported\n")
	}
	sb.WriteString("  - Wrong value passed to --platform or --architecture\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Supported platforms: linux (DEBIAN, RHEL, ARCH), freebsd, macosx, windows\n")
	sb.WriteString("  - Use --without-system to skip package installation and install dependencies manually\n")

	return sb.String()
}

func formatCommandNotFoundError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - A required build tool is not installed\n")
	sb.WriteString("  - The tool is installed outside of PATH\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Run with --with-system to install the required tools first\n")
	sb.WriteString("  - Run 'build-env packages' to see the packages for this platform\n")
	if ctx != nil && ctx.Component != "" {
		sb.WriteString(fmt.Sprintf("  - Re-run only this step once fixed, e.g. --without-system for %s\n", ctx.Component))
	}

	return sb.String()
}

func formatNetworkError(err net.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}
	sb.WriteString("  - Firewall or proxy blocking the connection\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	if err.Timeout() {
		sb.WriteString("  - Raise BUILD_ENV_API_TIMEOUT for slow mirrors\n")
	}

	return sb.String()
}

func formatGenericNetworkError(errMsg string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Network connectivity issue\n")
	sb.WriteString("  - DNS resolution failure\n")
	sb.WriteString("  - Source host temporarily unavailable\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	sb.WriteString("  - Point the component at a mirror in ~/.build-env/config.toml\n")

	return sb.String()
}

func formatPermissionError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Package installation requires root\n")
	sb.WriteString("  - The install prefix is not writable\n")

	sb.WriteString("\nSuggestions:\n")
	if ctx != nil && ctx.PackageManager != "" {
		sb.WriteString(fmt.Sprintf("  - Run as root or make sure sudo works for %s\n", ctx.PackageManager))
	} else {
		sb.WriteString("  - Run as root or make sure sudo works\n")
	}
	sb.WriteString("  - Check that use_sudo is not disabled in ~/.build-env/config.toml\n")
	sb.WriteString("  - Use --prefix with a directory you own\n")

	return sb.String()
}

// isCommandNotFound checks if the error message indicates a missing executable
func isCommandNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "executable file not found") ||
		strings.Contains(lower, "command not found")
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "i/o timeout") ||
		strings.Contains(lower, "could not resolve host")
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted") ||
		strings.Contains(lower, "are you root")
}
