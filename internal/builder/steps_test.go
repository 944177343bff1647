package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastogt/build-env/internal/bootstrap"
	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/installer"
	"github.com/fastogt/build-env/internal/log"
	"github.com/fastogt/build-env/internal/platform"
	"github.com/fastogt/build-env/internal/testutil"
)

type fakeInstaller struct {
	calls []string
	fail  map[string]error
}

func (f *fakeInstaller) InstallPackage(_ context.Context, name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func TestSteps_InstallSystemNeverFails(t *testing.T) {
	inst := &fakeInstaller{fail: map[string]error{"libmongoc-dev": errors.New("unable to locate package")}}
	env := platform.Environment{OSName: platform.OSLinux, Distribution: platform.DistributionDebian}
	plan, err := catalog.Resolve(env)
	require.NoError(t, err)

	var report installer.Report
	steps := &Steps{
		Env:       env,
		Plan:      plan,
		Installer: &installer.Driver{Installer: inst, Logger: log.NewNoop()},
		OnReport:  func(r installer.Report) { report = r },
	}

	require.NoError(t, steps.InstallSystem(context.Background()))
	assert.Equal(t, []string(plan), inst.calls)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "libmongoc-dev", report.Failed[0].Package)
}

func TestSteps_FullSequence(t *testing.T) {
	inst := &fakeInstaller{}
	runner := &testutil.RecordingRunner{}
	env := platform.Environment{OSName: platform.OSFreeBSD, Arch: platform.LookupArchitecture("amd64")}

	steps := &Steps{
		Env:       env,
		Plan:      catalog.NewPlan(catalog.FreeBSD),
		Installer: &installer.Driver{Installer: inst, Logger: log.NewNoop()},
		Builder:   newRequest(t, runner),
	}

	opts := bootstrap.DefaultOptions()
	opts.WithLibev = false
	require.NoError(t, bootstrap.Run(context.Background(), opts, steps))

	assert.Equal(t, catalog.FreeBSD.RequiredTools()[0], inst.calls[0])

	var clones []string
	for _, c := range runner.Commands {
		if c.Name == "git" {
			clones = append(clones, c.Args[len(c.Args)-2])
		}
	}
	assert.Equal(t, []string{
		"https://github.com/fastogt/json-c.git",
		"https://github.com/fastogt/common.git",
		"https://github.com/fastogt/fastotv_protocol.git",
	}, clones)
}

func TestSteps_BuildFailureStopsSequence(t *testing.T) {
	runner := &testutil.RecordingRunner{Fail: map[string]error{"-DJSON_ENABLED=ON": errors.New("exit status 1")}}
	steps := &Steps{
		Env:       platform.Environment{OSName: platform.OSMacOSX},
		Plan:      catalog.NewPlan(catalog.MacOSX),
		Installer: &installer.Driver{Installer: &fakeInstaller{}, Logger: log.NewNoop()},
		Builder:   newRequest(t, runner),
	}

	err := bootstrap.Run(context.Background(), bootstrap.DefaultOptions(), steps)
	require.Error(t, err)
	assert.True(t, IsStepError(err))
	assert.Contains(t, err.Error(), "common: common configure failed")

	for _, line := range runner.Lines() {
		assert.NotContains(t, line, "fastotv_protocol")
	}
}
