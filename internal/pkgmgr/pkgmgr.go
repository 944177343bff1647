// Package pkgmgr installs a single native package by name through the
// host's package manager.
package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/platform"
	"github.com/fastogt/build-env/internal/shell"
)

// Manager is the "install package by name" primitive.
type Manager interface {
	// Name returns the package manager binary, e.g. "apt-get".
	Name() string

	// InstallPackage installs one package. Installing a package that is
	// already present succeeds.
	InstallPackage(ctx context.Context, name string) error

	// Describe returns a copy-pasteable command installing pkgs.
	Describe(pkgs []string) string

	// Link points link at target with `ln -sf`, elevated like the
	// install commands. It satisfies installer.Fixup.
	Link(ctx context.Context, target, link string) error

	// DescribeLink returns the command Link runs.
	DescribeLink(target, link string) string
}

// commandManager installs packages by running a fixed command line with
// the package name appended.
type commandManager struct {
	bin      string
	args     []string
	rootPref []string
	runner   shell.Runner
}

// Definitions of the supported package manager invocations.
var (
	aptGet  = []string{"apt-get", "-y", "--no-install-recommends", "install"}
	yum     = []string{"yum", "-y", "install"}
	pacman  = []string{"pacman", "-S", "--noconfirm"}
	pkgInst = []string{"pkg", "install", "-y"}
	port    = []string{"port", "-N", "install"}
)

// Options tunes how commands are built.
type Options struct {
	// UseSudo prefixes commands with sudo (or doas) when not running
	// as root. Ignored on windows.
	UseSudo bool
}

// ForEnvironment returns the package manager for env. Unsupported
// environments yield a *catalog.PlatformNotSupportedError.
func ForEnvironment(env platform.Environment, runner shell.Runner, opts Options) (Manager, error) {
	v, err := catalog.ResolveVariant(env)
	if err != nil {
		return nil, err
	}
	return ForVariant(v, runner, opts)
}

// ForVariant returns the package manager used by variant v.
func ForVariant(v catalog.Variant, runner shell.Runner, opts Options) (Manager, error) {
	var line []string
	switch v {
	case catalog.Debian:
		line = aptGet
	case catalog.RedHat:
		line = yum
	case catalog.Arch, catalog.Windows64, catalog.Windows32:
		line = pacman
	case catalog.FreeBSD:
		line = pkgInst
	case catalog.MacOSX:
		line = port
	default:
		return nil, fmt.Errorf("no package manager for variant %s", v)
	}

	m := &commandManager{
		bin:    line[0],
		args:   append([]string(nil), line[1:]...),
		runner: runner,
	}
	if opts.UseSudo && v != catalog.Windows64 && v != catalog.Windows32 {
		m.rootPref = rootPrefix()
	}
	return m, nil
}

func (m *commandManager) Name() string {
	return m.bin
}

func (m *commandManager) command(pkgs []string) shell.Command {
	argv := append(append([]string{}, m.rootPref...), m.bin)
	argv = append(argv, m.args...)
	argv = append(argv, pkgs...)
	return shell.Command{Name: argv[0], Args: argv[1:]}
}

func (m *commandManager) linkCommand(target, link string) shell.Command {
	argv := append(append([]string{}, m.rootPref...), "ln", "-sf", target, link)
	return shell.Command{Name: argv[0], Args: argv[1:]}
}

func (m *commandManager) InstallPackage(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%s: empty package name", m.bin)
	}
	if err := m.runner.Run(ctx, m.command([]string{name})); err != nil {
		return fmt.Errorf("%s could not install %s: %w", m.bin, name, err)
	}
	return nil
}

func (m *commandManager) Describe(pkgs []string) string {
	if len(pkgs) == 0 {
		return ""
	}
	return m.command(pkgs).String()
}

func (m *commandManager) Link(ctx context.Context, target, link string) error {
	if err := m.runner.Run(ctx, m.linkCommand(target, link)); err != nil {
		return fmt.Errorf("could not link %s to %s: %w", link, target, err)
	}
	return nil
}

func (m *commandManager) DescribeLink(target, link string) string {
	return m.linkCommand(target, link).String()
}

// geteuid and lookPath are variables so tests can simulate a non-root
// user with or without doas.
var (
	geteuid  = os.Geteuid
	lookPath = exec.LookPath
)

// rootPrefix returns the privilege escalation command, or nil when the
// process is already root.
func rootPrefix() []string {
	if geteuid() == 0 {
		return nil
	}
	// doas is common on the BSDs
	if _, err := lookPath("doas"); err == nil {
		if _, err := lookPath("sudo"); err != nil {
			return []string{"doas"}
		}
	}
	return []string{"sudo"}
}
