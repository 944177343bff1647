package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fastogt/build-env/internal/buildinfo"
	"github.com/fastogt/build-env/internal/cli"
	"github.com/fastogt/build-env/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

// rootFlags holds the bootstrap flags of the root command.
type rootFlags struct {
	withSystem, withoutSystem                   bool
	withJsonc, withoutJsonc                     bool
	withLibev, withoutLibev                     bool
	withCommon, withoutCommon                   bool
	withFastotvProtocol, withoutFastotvProtocol bool

	platform     string
	architecture string
	prefix       string
	buildDir     string

	installOtherPackages   bool
	installFastogtPackages bool

	dryRun bool
}

var flags rootFlags

var rootCmd = &cobra.Command{
	Use:   "build-env",
	Short: "Prepare a machine for building the FastoTV server",
	Long: `build-env installs the native packages the FastoTV server needs and then
builds its libraries from source: json-c, libev, common and fastotv_protocol.

Every step can be switched off with its --without-* flag. The two master
switches turn off groups of steps: --install-other-packages controls the
system packages, json-c and libev; --install-fastogt-packages controls
common and fastotv_protocol.

Examples:
  build-env
  build-env --without-system --prefix /opt/fastotv
  build-env --install-other-packages no
  build-env --platform windows --architecture x86_64 --dry-run`,
	Version: buildinfo.Version(),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetDefault(log.NewCLI(os.Stderr, log.LevelFromFlags(quietFlag, verboseFlag, debugFlag)))
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBootstrap(cmd.Context(), &flags, os.Stdout); err != nil {
			printError(err)
			exitWithCode(exitCodeFor(err))
		}
	},
}

// togglePairs lists the with/without flag pairs of the root command.
var togglePairs = []struct {
	name    string
	with    *bool
	without *bool
	usage   string
}{
	{"system", &flags.withSystem, &flags.withoutSystem, "install the system packages"},
	{"json-c", &flags.withJsonc, &flags.withoutJsonc, "build json-c"},
	{"libev", &flags.withLibev, &flags.withoutLibev, "build libev"},
	{"common", &flags.withCommon, &flags.withoutCommon, "build common"},
	{"fastotv-protocol", &flags.withFastotvProtocol, &flags.withoutFastotvProtocol, "build fastotv_protocol"},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Show only errors")
	pf.BoolVar(&verboseFlag, "verbose", false, "Show every command that is executed")
	pf.BoolVar(&debugFlag, "debug", false, "Show detection details and command output")

	f := rootCmd.Flags()
	for _, p := range togglePairs {
		f.BoolVar(p.with, "with-"+p.name, true, p.usage)
		f.BoolVar(p.without, "without-"+p.name, false, "do not "+p.usage)
		rootCmd.MarkFlagsMutuallyExclusive("with-"+p.name, "without-"+p.name)
	}

	f.StringVar(&flags.platform, "platform", "", "Target platform (default: detected)")
	f.StringVar(&flags.architecture, "architecture", "", "Target architecture (default: detected)")
	f.StringVar(&flags.prefix, "prefix", "", "Install prefix for the built libraries")
	f.StringVar(&flags.buildDir, "build-dir", "", "Directory for source checkouts (default: build_<platform>_env)")
	f.Var(cli.NewBoolValue(&flags.installOtherPackages, true), "install-other-packages",
		"Install the system packages, json-c and libev (yes/no)")
	f.Var(cli.NewBoolValue(&flags.installFastogtPackages, true), "install-fastogt-packages",
		"Install common and fastotv_protocol (yes/no)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Print what would be done without doing it")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	// An interrupt cancels the running package manager or build command.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Run handlers exit on their own; anything returned here is a
		// flag or argument error.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		stop()
		exitWithCode(ExitUsage)
	}
}
