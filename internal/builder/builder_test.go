package builder

import (
	"archive/tar"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastogt/build-env/internal/log"
	"github.com/fastogt/build-env/internal/platform"
	"github.com/fastogt/build-env/internal/shell"
	"github.com/fastogt/build-env/internal/testutil"
)

const cmakeVersionOutput = "cmake version 3.27.7\n\nCMake suite maintained and supported by Kitware (kitware.com/cmake).\n"

func newRequest(t *testing.T, runner *testutil.RecordingRunner) *Request {
	t.Helper()
	if runner.Output == nil {
		runner.Output = map[string]string{"cmake --version": cmakeVersionOutput}
	}
	return &Request{
		Platform: platform.OSLinux,
		Arch:     platform.LookupArchitecture("x86_64"),
		BuildDir: t.TempDir(),
		Runner:   runner,
		Logger:   log.NewNoop(),
	}
}

func TestDefaultBuildDir(t *testing.T) {
	assert.Equal(t, "build_linux_env", DefaultBuildDir("linux"))
	assert.Equal(t, "build_windows_env", DefaultBuildDir("windows"))

	r := &Request{Platform: "freebsd"}
	dir, err := r.SourceDir(Common)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("build_freebsd_env", "common"), filepath.Join(filepath.Base(filepath.Dir(dir)), filepath.Base(dir)))
}

func TestBuild_JsonC(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	r := newRequest(t, runner)

	require.NoError(t, r.BuildJsonc(context.Background()))

	dir, _ := r.SourceDir(JsonC)
	assert.Equal(t, []string{
		"git clone --depth 1 --branch master https://github.com/fastogt/json-c.git " + dir,
		"cmake --version",
		"cmake .. -GNinja -DCMAKE_BUILD_TYPE=RELEASE -DBUILD_SHARED_LIBS=OFF -DBUILD_TESTING=OFF -DDISABLE_WERROR=ON",
		"ninja install",
	}, runner.Lines())

	buildDir := filepath.Join(dir, "build_cmake_release")
	assert.Equal(t, buildDir, runner.Commands[2].Dir)
	assert.Equal(t, buildDir, runner.Commands[3].Dir)
	assert.DirExists(t, buildDir)
}

func TestBuild_CMakeArgs(t *testing.T) {
	r := &Request{}
	assert.Equal(t, []string{"..", "-GNinja", "-DCMAKE_BUILD_TYPE=RELEASE", "-DJSON_ENABLED=ON", "-DQT_ENABLED=OFF"}, r.CMakeArgs(Common))
	assert.Equal(t, []string{"..", "-GNinja", "-DCMAKE_BUILD_TYPE=RELEASE"}, r.CMakeArgs(FastotvProtocol))

	r.Prefix = "/opt/fastotv"
	assert.Equal(t, []string{"..", "-GNinja", "-DCMAKE_BUILD_TYPE=RELEASE", "-DCMAKE_INSTALL_PREFIX=/opt/fastotv"}, r.CMakeArgs(FastotvProtocol))
}

func TestBuild_CMakeVersionCheckedOnce(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	r := newRequest(t, runner)

	require.NoError(t, r.BuildCommon(context.Background()))
	require.NoError(t, r.BuildFastotvProtocol(context.Background()))

	count := 0
	for _, line := range runner.Lines() {
		if line == "cmake --version" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuild_CMakeTooOld(t *testing.T) {
	runner := &testutil.RecordingRunner{Output: map[string]string{"cmake --version": "cmake version 3.4.3\n"}}
	r := newRequest(t, runner)

	err := r.BuildCommon(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, Common, stepErr.Component)
	assert.Equal(t, "preflight", stepErr.Phase)
	assert.Contains(t, err.Error(), "3.5 or newer")
	assert.NotContains(t, runner.Lines(), "ninja install")
}

func TestCheckCMakeVersion(t *testing.T) {
	tests := []struct {
		output  string
		wantErr bool
	}{
		{"cmake version 3.5.0", false},
		{"cmake version 3.27.7\n", false},
		{"cmake3 version 3.17.5", true},
		{"cmake version 3.28.0-rc1", false},
		{"cmake version 2.8.12.2", true},
		{"cmake version 3.4", true},
		{"", true},
	}
	for _, tt := range tests {
		err := CheckCMakeVersion(tt.output)
		assert.Equal(t, tt.wantErr, err != nil, "%q: %v", tt.output, err)
	}
}

func TestBuild_LibevGit(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	r := newRequest(t, runner)
	r.Prefix = "/usr/local"

	require.NoError(t, r.BuildLibev(context.Background()))

	dir, _ := r.SourceDir(Libev)
	assert.Equal(t, []string{
		"git clone --depth 1 --branch master https://github.com/fastogt/libev.git " + dir,
		"sh autogen.sh",
		"./configure --disable-shared --enable-static --prefix=/usr/local",
		"make -j" + strconv.Itoa(runtime.NumCPU()),
		"make install",
	}, runner.Lines())
	for _, c := range runner.Commands[1:] {
		assert.Equal(t, dir, c.Dir, c.String())
	}
}

func TestBuild_LibevSkipsAutogenWhenConfigureExists(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	runner.OnRun = func(cmd shell.Command) error {
		if cmd.Name == "git" && cmd.Args[0] == "clone" {
			dir := cmd.Args[len(cmd.Args)-1]
			require.NoError(t, os.MkdirAll(dir, 0755))
			return os.WriteFile(filepath.Join(dir, "configure"), []byte("#!/bin/sh\n"), 0755)
		}
		return nil
	}
	r := newRequest(t, runner)

	require.NoError(t, r.BuildLibev(context.Background()))
	assert.NotContains(t, runner.Lines(), "sh autogen.sh")
}

func TestBuild_ExistingCheckoutIsPulled(t *testing.T) {
	runner := &testutil.RecordingRunner{Output: map[string]string{
		"cmake --version":             cmakeVersionOutput,
		"remote get-url origin":       "https://github.com/fastogt/common.git\n",
		"rev-parse --abbrev-ref HEAD": "master\n",
	}}
	r := newRequest(t, runner)

	dir, _ := r.SourceDir(Common)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))

	require.NoError(t, r.BuildCommon(context.Background()))
	assert.Equal(t, []string{
		"git remote get-url origin",
		"git rev-parse --abbrev-ref HEAD",
		"git pull",
	}, runner.Lines()[:3])
	assert.Equal(t, dir, runner.Commands[2].Dir)
}

func TestBuild_ChangedSourceIsClonedAgain(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		branch string
	}{
		{"different remote", "https://github.com/fastogt/common.git", "master"},
		{"different branch", "https://example.com/common.git", "master"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &testutil.RecordingRunner{Output: map[string]string{
				"cmake --version":             cmakeVersionOutput,
				"remote get-url origin":       tt.remote + "\n",
				"rev-parse --abbrev-ref HEAD": tt.branch + "\n",
			}}
			r := newRequest(t, runner)
			r.Sources = Sources{Common: {Git: "https://example.com/common.git", Branch: "develop"}}

			dir, _ := r.SourceDir(Common)
			require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), nil, 0644))

			require.NoError(t, r.BuildCommon(context.Background()))
			assert.NotContains(t, runner.Lines(), "git pull")
			assert.Contains(t, runner.Lines(), "git clone --depth 1 --branch develop https://example.com/common.git "+dir)
			assert.NoFileExists(t, filepath.Join(dir, "stale.txt"))
		})
	}
}

func TestBuild_GitOverrideWithoutBranch(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	r := newRequest(t, runner)
	r.Sources = Sources{Common: {Git: "https://example.com/common.git"}}

	require.NoError(t, r.BuildCommon(context.Background()))

	dir, _ := r.SourceDir(Common)
	assert.Equal(t, "git clone --depth 1 https://example.com/common.git "+dir, runner.Lines()[0])
}

func TestBuild_PhaseErrors(t *testing.T) {
	boom := errors.New("exit status 1")

	tests := []struct {
		name      string
		component Component
		fail      string
		phase     string
	}{
		{"clone", JsonC, "git clone", "fetch"},
		{"cmake configure", JsonC, "-GNinja", "configure"},
		{"ninja install", Common, "ninja install", "install"},
		{"autogen", Libev, "autogen.sh", "autogen"},
		{"configure", Libev, "./configure", "configure"},
		{"make", Libev, "make -j", "build"},
		{"make install", Libev, "make install", "install"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &testutil.RecordingRunner{Fail: map[string]error{tt.fail: boom}}
			r := newRequest(t, runner)

			err := r.Build(context.Background(), tt.component)
			require.Error(t, err)
			assert.True(t, IsStepError(err))
			assert.ErrorIs(t, err, boom)

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tt.phase, stepErr.Phase)
			assert.Equal(t, tt.component, stepErr.Component)
		})
	}
}

func TestBuild_UnknownComponent(t *testing.T) {
	r := newRequest(t, &testutil.RecordingRunner{})
	assert.Error(t, r.Build(context.Background(), Component(99)))
}

func TestBuild_ArchiveSource(t *testing.T) {
	archive := gzipBytes(t, buildTar(t, sourceTree()))
	var hits atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	runner := &testutil.RecordingRunner{}
	r := newRequest(t, runner)
	r.HTTPClient = server.Client()
	r.Sources = Sources{Libev: {Archive: server.URL + "/dist/libev-4.33.tar.gz"}}

	require.NoError(t, r.BuildLibev(context.Background()))

	dir, _ := r.SourceDir(Libev)
	assert.FileExists(t, filepath.Join(dir, "configure"))
	assert.FileExists(t, filepath.Join(dir, "src", "ev.c"))
	assert.FileExists(t, filepath.Join(r.BuildDir, "downloads", cacheName(r.Sources[Libev].Archive, "libev-4.33.tar.gz")))
	assert.Equal(t, []string{
		"./configure --disable-shared --enable-static",
		"make -j" + strconv.Itoa(runtime.NumCPU()),
		"make install",
	}, runner.Lines())

	// A second build reuses the cached archive.
	require.NoError(t, r.BuildLibev(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
}

func TestBuild_ArchivesWithSameNameDoNotCollide(t *testing.T) {
	tree := func(project string) []byte {
		return gzipBytes(t, buildTar(t, []tarEntry{
			{name: project + "-master/", typeflag: tar.TypeDir},
			{name: project + "-master/CMakeLists.txt", body: "project(" + project + ")\n", typeflag: tar.TypeReg},
		}))
	}
	archives := map[string][]byte{
		"/fastogt/json-c/archive/master.tar.gz": tree("json-c"),
		"/fastogt/common/archive/master.tar.gz": tree("common"),
	}
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, ok := archives[req.URL.Path]
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(data)
	}))
	defer server.Close()

	r := newRequest(t, &testutil.RecordingRunner{})
	r.HTTPClient = server.Client()
	r.DownloadDir = t.TempDir()
	r.Sources = Sources{
		JsonC:  {Archive: server.URL + "/fastogt/json-c/archive/master.tar.gz"},
		Common: {Archive: server.URL + "/fastogt/common/archive/master.tar.gz"},
	}

	require.NoError(t, r.BuildJsonc(context.Background()))
	require.NoError(t, r.BuildCommon(context.Background()))

	for c, want := range map[Component]string{JsonC: "project(json-c)\n", Common: "project(common)\n"} {
		dir, _ := r.SourceDir(c)
		data, err := os.ReadFile(filepath.Join(dir, "CMakeLists.txt"))
		require.NoError(t, err)
		assert.Equal(t, want, string(data), c.String())
	}
}

func TestCacheName(t *testing.T) {
	a := cacheName("https://github.com/fastogt/json-c/archive/master.tar.gz", "master.tar.gz")
	b := cacheName("https://github.com/fastogt/common/archive/master.tar.gz", "master.tar.gz")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "-master.tar.gz"), a)
	assert.Equal(t, a, cacheName("https://github.com/fastogt/json-c/archive/master.tar.gz", "master.tar.gz"))
}

func TestBuild_ArchiveDownloadFailure(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	}))
	defer server.Close()

	r := newRequest(t, &testutil.RecordingRunner{})
	r.HTTPClient = server.Client()
	r.Sources = Sources{JsonC: {Archive: server.URL + "/json-c-0.17.tar.gz"}}

	err := r.BuildJsonc(context.Background())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "fetch", stepErr.Phase)
	assert.Contains(t, err.Error(), "404")
	entries, _ := os.ReadDir(filepath.Join(r.BuildDir, "downloads"))
	assert.Empty(t, entries, "failed download must not be cached")
}

func TestBuild_ArchiveMustBeHTTPS(t *testing.T) {
	r := newRequest(t, &testutil.RecordingRunner{})
	r.Sources = Sources{JsonC: {Archive: "http://example.com/json-c.tar.gz"}}

	err := r.BuildJsonc(context.Background())
	assert.ErrorContains(t, err, "must use https")
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRequest(t, &testutil.RecordingRunner{})
	err := r.BuildCommon(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
