package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/pkgmgr"
	"github.com/fastogt/build-env/internal/platform"
	"github.com/fastogt/build-env/internal/userconfig"
)

var (
	packagesFlags rootFlags
	packagesJSON  bool
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Show the system packages for a platform",
	Long: `Show the native packages the system step installs, and the package
manager command it runs. Nothing is installed.

Examples:
  build-env packages
  build-env packages --platform macosx
  build-env packages --platform windows --architecture i686 --json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPackages(os.Stdout, &packagesFlags, packagesJSON); err != nil {
			printError(err)
			exitWithCode(exitCodeFor(err))
		}
	},
}

func init() {
	packagesCmd.Flags().StringVar(&packagesFlags.platform, "platform", "", "Target platform (default: detected)")
	packagesCmd.Flags().StringVar(&packagesFlags.architecture, "architecture", "", "Target architecture (default: detected)")
	packagesCmd.Flags().BoolVar(&packagesJSON, "json", false, "Output in JSON format")
}

// packageList is the output of the packages command.
type packageList struct {
	Platform       string   `json:"platform"`
	Distribution   string   `json:"distribution,omitempty"`
	Architecture   string   `json:"architecture"`
	Variant        string   `json:"variant"`
	PackageManager string   `json:"package_manager"`
	RequiredTools  []string `json:"required_tools"`
	BuildTools     []string `json:"build_tools"`
	Command        string   `json:"command"`
}

func describePackages(env platform.Environment, useSudo bool) (*packageList, error) {
	v, err := catalog.ResolveVariant(env)
	if err != nil {
		return nil, err
	}
	m, err := pkgmgr.ForVariant(v, nil, pkgmgr.Options{UseSudo: useSudo})
	if err != nil {
		return nil, err
	}

	list := &packageList{
		Platform:       env.OSName,
		Distribution:   env.Distribution,
		Architecture:   env.Arch.Name,
		Variant:        v.String(),
		PackageManager: m.Name(),
		RequiredTools:  v.RequiredTools(),
		BuildTools:     v.BuildTools(),
		Command:        m.Describe(catalog.NewPlan(v)),
	}
	if list.BuildTools == nil {
		list.BuildTools = []string{}
	}
	return list, nil
}

func runPackages(out io.Writer, f *rootFlags, asJSON bool) error {
	env, err := f.environment()
	if err != nil {
		return err
	}
	ucfg, err := userconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	list, err := describePackages(env, ucfg.UseSudo)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(out, list)
	}
	printPackageList(out, list)
	return nil
}

func printPackageList(out io.Writer, l *packageList) {
	target := l.Platform
	if l.Distribution != "" {
		target += " (" + l.Distribution + ")"
	}
	fmt.Fprintf(out, "Platform:        %s, %s\n", target, l.Architecture)
	fmt.Fprintf(out, "Variant:         %s\n", l.Variant)
	fmt.Fprintf(out, "Package manager: %s\n", l.PackageManager)
	fmt.Fprintf(out, "Required tools:  %s\n", strings.Join(l.RequiredTools, " "))
	if len(l.BuildTools) > 0 {
		fmt.Fprintf(out, "Build tools:     %s\n", strings.Join(l.BuildTools, " "))
	}
	fmt.Fprintf(out, "\nInstall command:\n  %s\n", l.Command)
}
