package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"

	"github.com/fastogt/build-env/internal/bootstrap"
	"github.com/fastogt/build-env/internal/builder"
	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/config"
	"github.com/fastogt/build-env/internal/httputil"
	"github.com/fastogt/build-env/internal/installer"
	"github.com/fastogt/build-env/internal/log"
	"github.com/fastogt/build-env/internal/pkgmgr"
	"github.com/fastogt/build-env/internal/platform"
	"github.com/fastogt/build-env/internal/progress"
	"github.com/fastogt/build-env/internal/shell"
	"github.com/fastogt/build-env/internal/userconfig"
)

// options converts the parsed flags to sequencer options.
func (f *rootFlags) options() bootstrap.Options {
	return bootstrap.Options{
		WithSystem:             f.withSystem && !f.withoutSystem,
		WithJsonc:              f.withJsonc && !f.withoutJsonc,
		WithLibev:              f.withLibev && !f.withoutLibev,
		WithCommon:             f.withCommon && !f.withoutCommon,
		WithFastotvProtocol:    f.withFastotvProtocol && !f.withoutFastotvProtocol,
		InstallOtherPackages:   f.installOtherPackages,
		InstallFastogtPackages: f.installFastogtPackages,
	}
}

// environment returns the host environment with --platform and
// --architecture applied.
func (f *rootFlags) environment() (platform.Environment, error) {
	osName := platform.DetectOS()
	if f.platform != "" {
		osName = platform.OSFromGOOS(strings.ToLower(f.platform))
	}
	archName := f.architecture
	if archName == "" {
		archName = platform.DetectArchitecture().Name
	}
	return platform.NewEnvironment(osName, archName)
}

// bootstrapRun is everything a bootstrap needs, assembled from flags
// and the user config.
type bootstrapRun struct {
	env     platform.Environment
	opts    bootstrap.Options
	plan    catalog.Plan
	manager pkgmgr.Manager
	request *builder.Request
}

func prepareRun(f *rootFlags, ucfg *userconfig.Config, runner shell.Runner, logger log.Logger) (*bootstrapRun, error) {
	env, err := f.environment()
	if err != nil {
		return nil, err
	}
	logger.Debug("environment", "os", env.OSName, "distribution", env.Distribution,
		"arch", env.Arch.Name, "bits", env.Arch.Bits)

	run := &bootstrapRun{env: env, opts: f.options()}

	// The package plan is only needed, and an unknown platform only
	// fatal, when the system step runs.
	if run.opts.Enabled(bootstrap.StepSystem) {
		run.plan, err = catalog.Resolve(env)
		if err != nil {
			return nil, err
		}
		run.manager, err = pkgmgr.ForEnvironment(env, runner, pkgmgr.Options{UseSudo: ucfg.UseSudo})
		if err != nil {
			return nil, err
		}
	}

	sources, err := builder.SourcesFromConfig(ucfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	prefix := f.prefix
	if prefix == "" {
		prefix = ucfg.Prefix
	}

	run.request = &builder.Request{
		Platform: env.OSName,
		Arch:     env.Arch,
		BuildDir: f.buildDir,
		Prefix:   prefix,
		Sources:  sources,
		Runner:   runner,
		Logger:   logger,
	}
	return run, nil
}

func runBootstrap(ctx context.Context, f *rootFlags, out io.Writer) error {
	logger := log.Default()

	ucfg, err := userconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	streaming := verboseFlag || debugFlag
	runner := &shell.ExecRunner{Stream: streaming, Logger: logger}

	run, err := prepareRun(f, ucfg, runner, logger)
	if err != nil {
		return err
	}

	if f.dryRun {
		printDryRun(out, run)
		return nil
	}

	run.request.HTTPClient = httputil.NewSecureClient(httputil.ClientOptions{
		Timeout: config.GetAPITimeout(),
	})
	if cfg, err := config.DefaultConfig(); err == nil && cfg.EnsureDirectories() == nil {
		run.request.DownloadDir = cfg.DownloadCacheDir
	}
	if !quietFlag {
		run.request.Progress = out
	}

	var report *installer.Report
	steps := &builder.Steps{
		Env:  run.env,
		Plan: run.plan,
		// The manager also runs the ninja fixup, elevated like the installs.
		Installer: &installer.Driver{Installer: run.manager, Logger: logger},
		Builder:   run.request,
		OnReport:  func(r installer.Report) { report = &r },
	}

	ui := newStepUI(out, quietFlag, streaming)
	hooks := ui.hooks()
	hooks.After = func(s bootstrap.Step, err error) {
		ui.after(s, err)
		// Printed once the spinner line is gone.
		if s == bootstrap.StepSystem && report != nil {
			printReport(out, *report, run.manager)
		}
	}
	if err := bootstrap.RunWithHooks(ctx, run.opts, steps, hooks); err != nil {
		return err
	}

	if !quietFlag {
		fmt.Fprintln(out, color.Green.Sprintf("Bootstrap for %s finished", run.env))
	}
	return nil
}

// stepUI prints a header per step, animated when output is a terminal.
type stepUI struct {
	out     io.Writer
	quiet   bool
	spinner *progress.Spinner
}

func newStepUI(out io.Writer, quiet, streaming bool) *stepUI {
	ui := &stepUI{out: out, quiet: quiet}
	// Streamed command output would overwrite the spinner line.
	if !quiet && !streaming {
		ui.spinner = progress.NewSpinner(out)
	}
	return ui
}

func (u *stepUI) hooks() bootstrap.Hooks {
	return bootstrap.Hooks{Before: u.before, After: u.after}
}

func stepTitle(s bootstrap.Step) string {
	if s == bootstrap.StepSystem {
		return "Installing system packages"
	}
	return "Building " + s.String()
}

func (u *stepUI) before(s bootstrap.Step) {
	switch {
	case u.quiet:
	case u.spinner != nil:
		u.spinner.Start(stepTitle(s) + "...")
	default:
		fmt.Fprintln(u.out, color.Cyan.Sprintf("==> %s", stepTitle(s)))
	}
}

func (u *stepUI) after(s bootstrap.Step, err error) {
	if u.quiet {
		return
	}
	var final string
	if err != nil {
		final = color.Red.Sprintf("%s failed", stepTitle(s))
	} else {
		final = color.Green.Sprintf("%s done", stepTitle(s))
	}
	if u.spinner != nil {
		final += fmt.Sprintf(" (%s)", u.spinner.Elapsed())
		u.spinner.Stop(final)
		return
	}
	fmt.Fprintln(u.out, final)
}

// printReport summarizes the system step. Failed packages are listed
// together with the command to retry them by hand.
func printReport(out io.Writer, r installer.Report, m pkgmgr.Manager) {
	if quietFlag {
		return
	}
	if r.OK() {
		fmt.Fprintf(out, "Installed %d system packages\n", len(r.Installed))
		return
	}

	if len(r.Failed) > 0 {
		names := make([]string, len(r.Failed))
		for i, f := range r.Failed {
			names[i] = f.Package
		}
		fmt.Fprintln(out, color.Yellow.Sprintf("Installed %d of %d system packages; failed: %s",
			len(r.Installed), len(r.Installed)+len(r.Failed), strings.Join(names, ", ")))
		if m != nil {
			fmt.Fprintf(out, "  retry with: %s\n", m.Describe(names))
		}
	}
	if r.FixupErr != nil {
		fmt.Fprintln(out, color.Yellow.Sprintf("Could not link %s to %s: %v",
			r.FixupErr.Link, r.FixupErr.Target, r.FixupErr.Err))
	}
}

// printDryRun describes what a run would do without running anything.
func printDryRun(out io.Writer, run *bootstrapRun) {
	fmt.Fprintf(out, "Platform: %s\n", run.env)
	fmt.Fprintln(out, "Steps:")
	for _, s := range bootstrap.Order() {
		mark := " "
		if run.opts.Enabled(s) {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] %s\n", mark, s)
	}

	if run.manager != nil {
		fmt.Fprintf(out, "\nSystem packages (%d):\n  %s\n", len(run.plan), run.manager.Describe(run.plan))
		if installer.NeedsNinjaFixup(run.env) {
			fmt.Fprintf(out, "  %s\n", run.manager.DescribeLink(installer.NinjaBuildPath, installer.NinjaPath))
		}
	}

	var printed bool
	for _, c := range builder.Components() {
		if !run.opts.Enabled(componentStep(c)) {
			continue
		}
		if !printed {
			fmt.Fprintln(out, "\nSources:")
			printed = true
		}
		dir, err := run.request.SourceDir(c)
		if err != nil {
			dir = c.String()
		}
		fmt.Fprintf(out, "  %-17s %s -> %s\n", c, run.request.Sources.For(c), dir)
	}
	if run.request.Prefix != "" {
		fmt.Fprintf(out, "\nInstall prefix: %s\n", run.request.Prefix)
	}
}

// componentStep returns the sequencer step that builds c.
func componentStep(c builder.Component) bootstrap.Step {
	switch c {
	case builder.JsonC:
		return bootstrap.StepJsonc
	case builder.Libev:
		return bootstrap.StepLibev
	case builder.Common:
		return bootstrap.StepCommon
	default:
		return bootstrap.StepFastotvProtocol
	}
}
