// Package builder fetches and builds the source libraries: json-c, libev,
// common and fastotv_protocol.
//
// Every component is fetched into its own directory under the build
// directory (a git checkout or an extracted archive), then configured,
// built and installed with its build system. CMake projects use the
// Ninja generator in release mode; libev uses autotools.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/fastogt/build-env/internal/log"
	"github.com/fastogt/build-env/internal/platform"
	"github.com/fastogt/build-env/internal/shell"
)

// MinCMakeVersion is the oldest cmake the components configure with.
const MinCMakeVersion = "3.5"

// cmakeBuildDir is the out-of-tree build directory inside a checkout.
const cmakeBuildDir = "build_cmake_release"

// DefaultBuildDir returns the build directory name for a platform,
// e.g. "build_linux_env".
func DefaultBuildDir(platformName string) string {
	return "build_" + platformName + "_env"
}

// Request describes one bootstrap build.
type Request struct {
	Platform string
	Arch     platform.Architecture

	// BuildDir holds the component checkouts. Defaults to
	// DefaultBuildDir(Platform).
	BuildDir string

	// Prefix is passed as the install prefix. Empty means the build
	// system default.
	Prefix string

	Sources Sources
	Runner  shell.Runner

	// HTTPClient downloads archive sources. Defaults to a secure client.
	HTTPClient *http.Client

	// DownloadDir caches downloaded archives. Defaults to BuildDir/downloads.
	DownloadDir string

	// Progress receives download progress when stdout is a terminal.
	Progress io.Writer

	Logger log.Logger

	cmakeChecked bool
}

// StepError reports which phase of a component build failed.
type StepError struct {
	Component Component
	Phase     string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Component, e.Phase, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsStepError reports whether err is or wraps a *StepError.
func IsStepError(err error) bool {
	var se *StepError
	return errors.As(err, &se)
}

func (r *Request) logger() log.Logger {
	return log.OrDefault(r.Logger)
}

func (r *Request) buildDir() string {
	if r.BuildDir != "" {
		return r.BuildDir
	}
	return DefaultBuildDir(r.Platform)
}

// SourceDir returns the directory component c is fetched into.
func (r *Request) SourceDir(c Component) (string, error) {
	dir, err := filepath.Abs(filepath.Join(r.buildDir(), c.String()))
	if err != nil {
		return "", fmt.Errorf("failed to resolve source directory: %w", err)
	}
	return dir, nil
}

// Build fetches, configures, builds and installs c.
func (r *Request) Build(ctx context.Context, c Component) error {
	if !c.valid() {
		return fmt.Errorf("unknown component %s", c)
	}
	logger := r.logger().With("component", c.String(), "platform", r.Platform, "arch", r.Arch.Name)

	dir, err := r.SourceDir(c)
	if err != nil {
		return &StepError{Component: c, Phase: "fetch", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return &StepError{Component: c, Phase: "fetch", Err: err}
	}

	logger.Info("fetching source", "source", r.Sources.For(c).String(), "dir", dir)
	if err := r.fetch(ctx, c, dir); err != nil {
		return &StepError{Component: c, Phase: "fetch", Err: err}
	}

	switch c.BuildSystem() {
	case Autotools:
		return r.buildAutotools(ctx, c, dir)
	default:
		return r.buildCMake(ctx, c, dir)
	}
}

// BuildJsonc builds json-c.
func (r *Request) BuildJsonc(ctx context.Context) error { return r.Build(ctx, JsonC) }

// BuildLibev builds libev.
func (r *Request) BuildLibev(ctx context.Context) error { return r.Build(ctx, Libev) }

// BuildCommon builds common.
func (r *Request) BuildCommon(ctx context.Context) error { return r.Build(ctx, Common) }

// BuildFastotvProtocol builds fastotv_protocol.
func (r *Request) BuildFastotvProtocol(ctx context.Context) error {
	return r.Build(ctx, FastotvProtocol)
}

// CMakeArgs returns the arguments cmake is configured with for c. cmake
// runs inside the build directory, one level below the source.
func (r *Request) CMakeArgs(c Component) []string {
	args := []string{"..", "-GNinja", "-DCMAKE_BUILD_TYPE=RELEASE"}
	if r.Prefix != "" {
		args = append(args, "-DCMAKE_INSTALL_PREFIX="+r.Prefix)
	}
	return append(args, c.Args()...)
}

func (r *Request) buildCMake(ctx context.Context, c Component, dir string) error {
	if err := r.checkCMake(ctx); err != nil {
		return &StepError{Component: c, Phase: "preflight", Err: err}
	}

	buildDir := filepath.Join(dir, cmakeBuildDir)
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return &StepError{Component: c, Phase: "configure", Err: err}
	}

	configure := shell.Command{Name: "cmake", Args: r.CMakeArgs(c), Dir: buildDir}
	if err := r.Runner.Run(ctx, configure); err != nil {
		return &StepError{Component: c, Phase: "configure", Err: err}
	}

	install := shell.Command{Name: "ninja", Args: []string{"install"}, Dir: buildDir}
	if err := r.Runner.Run(ctx, install); err != nil {
		return &StepError{Component: c, Phase: "install", Err: err}
	}
	return nil
}

// ConfigureArgs returns the ./configure arguments used for c.
func (r *Request) ConfigureArgs(c Component) []string {
	args := c.Args()
	if r.Prefix != "" {
		args = append(args, "--prefix="+r.Prefix)
	}
	return args
}

func (r *Request) buildAutotools(ctx context.Context, c Component, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "configure")); err != nil {
		gen := shell.Command{Name: "sh", Args: []string{"autogen.sh"}, Dir: dir}
		if err := r.Runner.Run(ctx, gen); err != nil {
			return &StepError{Component: c, Phase: "autogen", Err: err}
		}
	}

	configure := shell.Command{Name: "./configure", Args: r.ConfigureArgs(c), Dir: dir}
	if err := r.Runner.Run(ctx, configure); err != nil {
		return &StepError{Component: c, Phase: "configure", Err: err}
	}

	build := shell.Command{Name: "make", Args: []string{"-j" + strconv.Itoa(runtime.NumCPU())}, Dir: dir}
	if err := r.Runner.Run(ctx, build); err != nil {
		return &StepError{Component: c, Phase: "build", Err: err}
	}

	install := shell.Command{Name: "make", Args: []string{"install"}, Dir: dir}
	if err := r.Runner.Run(ctx, install); err != nil {
		return &StepError{Component: c, Phase: "install", Err: err}
	}
	return nil
}

var cmakeVersionRe = regexp.MustCompile(`cmake version (\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.]+)?)`)

// ParseCMakeVersion extracts the version from `cmake --version` output.
func ParseCMakeVersion(output string) (*semver.Version, error) {
	m := cmakeVersionRe.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("unrecognized cmake --version output: %q", output)
	}
	return semver.NewVersion(m[1])
}

// CheckCMakeVersion fails when output reports a cmake older than
// MinCMakeVersion.
func CheckCMakeVersion(output string) error {
	v, err := ParseCMakeVersion(output)
	if err != nil {
		return err
	}
	// Release candidates of a newer cmake satisfy the minimum.
	if v.LessThan(semver.MustParse(MinCMakeVersion)) {
		return fmt.Errorf("cmake %s is too old, %s or newer is required", v, MinCMakeVersion)
	}
	return nil
}

// checkCMake runs the version check once per Request.
func (r *Request) checkCMake(ctx context.Context) error {
	if r.cmakeChecked {
		return nil
	}
	var out bytes.Buffer
	if err := r.Runner.Run(ctx, shell.Command{Name: "cmake", Args: []string{"--version"}, Stdout: &out}); err != nil {
		return err
	}
	if err := CheckCMakeVersion(out.String()); err != nil {
		return err
	}
	r.logger().Debug("cmake version ok", "output", out.String())
	r.cmakeChecked = true
	return nil
}
