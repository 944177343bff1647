package main_test

import (
	"bytes"
	"errors"
	"os/exec"
	"testing"
)

// Repository hygiene checks. They shell out to the go toolchain and
// are skipped in -short runs.

func TestGoFmt(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode: skipping gofmt")
	}
	out := run(t, "gofmt", "-l", "cmd", "internal", "test")
	if len(out) > 0 {
		t.Errorf("gofmt found unformatted files:\n%s", out)
	}
}

func TestGoVet(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode: skipping go vet")
	}
	run(t, "go", "vet", "./...")
}

func TestGoModTidy(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode: skipping go mod tidy")
	}
	run(t, "go", "mod", "tidy", "-diff")
}

// run executes name with args and returns its combined output. The
// test is skipped when the tool is not installed.
func run(t *testing.T, name string, args ...string) []byte {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH", name)
	}

	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			t.Fatalf("%s %v exited with %d:\n%s", name, args, exitErr.ExitCode(), out.String())
		}
		t.Fatalf("%s failed to run: %v", name, err)
	}
	return out.Bytes()
}
