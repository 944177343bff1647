// Package installer installs the resolved package plan on the host.
//
// Installation is best effort: every package is attempted exactly once
// and in plan order, and a failure is reported without stopping the loop.
// On RHEL-family hosts ninja ships as ninja-build, so a symlink exposing
// it as ninja is created afterwards; its failure is reported the same way.
package installer

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/log"
	"github.com/fastogt/build-env/internal/platform"
)

// Paths of the RHEL ninja fixup.
const (
	NinjaBuildPath = "/usr/bin/ninja-build"
	NinjaPath      = "/usr/bin/ninja"
)

// PackageInstaller is the "install package by name" primitive.
// pkgmgr.Manager satisfies it.
type PackageInstaller interface {
	InstallPackage(ctx context.Context, name string) error
}

// Fixup performs the post-install link step.
type Fixup interface {
	Link(ctx context.Context, target, link string) error
}

// PackageInstallError records one package that failed to install.
type PackageInstallError struct {
	Package string
	Err     error
}

func (e *PackageInstallError) Error() string {
	return fmt.Sprintf("failed to install package %s: %v", e.Package, e.Err)
}

func (e *PackageInstallError) Unwrap() error {
	return e.Err
}

// PostInstallFixupError records a failed post-install step.
type PostInstallFixupError struct {
	Target string
	Link   string
	Err    error
}

func (e *PostInstallFixupError) Error() string {
	return fmt.Sprintf("failed to link %s -> %s: %v", e.Link, e.Target, e.Err)
}

func (e *PostInstallFixupError) Unwrap() error {
	return e.Err
}

// Report summarizes an InstallSystem run.
type Report struct {
	Installed []string
	Failed    []*PackageInstallError

	// FixupRan is true when the post-install step was attempted.
	FixupRan bool
	FixupErr *PostInstallFixupError
}

// OK reports whether every package installed and the fixup, if any,
// succeeded.
func (r Report) OK() bool {
	return len(r.Failed) == 0 && r.FixupErr == nil
}

// Err joins all recorded failures, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Failed)+1)
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	if r.FixupErr != nil {
		errs = append(errs, r.FixupErr)
	}
	return errors.Join(errs...)
}

// Driver installs a package plan.
type Driver struct {
	Installer PackageInstaller

	// Fixup defaults to Installer when it implements Fixup, and to
	// SymlinkFixup otherwise.
	Fixup Fixup

	Logger log.Logger
}

// NeedsNinjaFixup reports whether env is a RHEL-family Linux host.
func NeedsNinjaFixup(env platform.Environment) bool {
	return env.OSName == platform.OSLinux && env.Distribution == platform.DistributionRHEL
}

// InstallSystem installs every package of plan and then runs the
// post-install fixup when env requires it. Failures are logged and
// returned in the Report; InstallSystem itself never fails.
func (d *Driver) InstallSystem(ctx context.Context, env platform.Environment, plan catalog.Plan) Report {
	logger := log.OrDefault(d.Logger)
	var report Report

	for _, pkg := range plan {
		logger.Info("installing package", "package", pkg)
		if err := d.Installer.InstallPackage(ctx, pkg); err != nil {
			pe := &PackageInstallError{Package: pkg, Err: err}
			logger.Warn("package install failed, continuing", "package", pkg, "error", err)
			report.Failed = append(report.Failed, pe)
			continue
		}
		report.Installed = append(report.Installed, pkg)
	}

	if NeedsNinjaFixup(env) {
		report.FixupRan = true
		fixup := d.fixup()
		if err := fixup.Link(ctx, NinjaBuildPath, NinjaPath); err != nil {
			report.FixupErr = &PostInstallFixupError{Target: NinjaBuildPath, Link: NinjaPath, Err: err}
			logger.Warn("post-install fixup failed, ignoring", "error", report.FixupErr)
		}
	}

	return report
}

func (d *Driver) fixup() Fixup {
	if d.Fixup != nil {
		return d.Fixup
	}
	if f, ok := d.Installer.(Fixup); ok {
		return f
	}
	return SymlinkFixup{}
}
