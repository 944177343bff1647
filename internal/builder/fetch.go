package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fastogt/build-env/internal/httputil"
	"github.com/fastogt/build-env/internal/progress"
	"github.com/fastogt/build-env/internal/shell"
)

// fetch makes the source of c available under dir.
func (r *Request) fetch(ctx context.Context, c Component, dir string) error {
	src := r.Sources.For(c)
	if src.Archive != "" {
		return r.fetchArchive(ctx, src.Archive, dir)
	}
	return r.fetchGit(ctx, src, dir)
}

// fetchGit clones src into dir, or updates an existing checkout of the
// same remote and branch. A checkout of anything else is cloned again.
func (r *Request) fetchGit(ctx context.Context, src Source, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		same, err := r.checkoutMatches(ctx, src, dir)
		if err != nil {
			return err
		}
		if same {
			r.logger().Debug("updating existing checkout", "dir", dir)
			return r.Runner.Run(ctx, shell.Command{Name: "git", Args: []string{"pull"}, Dir: dir})
		}
		r.logger().Info("source changed, cloning again", "dir", dir, "source", src.String())
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}

	args := []string{"clone", "--depth", "1"}
	if src.Branch != "" {
		args = append(args, "--branch", src.Branch)
	}
	args = append(args, src.Git, dir)
	return r.Runner.Run(ctx, shell.Command{Name: "git", Args: args})
}

// checkoutMatches reports whether the checkout in dir tracks src.
// Without a configured branch only the remote is compared.
func (r *Request) checkoutMatches(ctx context.Context, src Source, dir string) (bool, error) {
	remote, err := r.gitOutput(ctx, dir, "remote", "get-url", "origin")
	if err != nil {
		return false, err
	}
	if remote != src.Git {
		return false, nil
	}
	if src.Branch == "" {
		return true, nil
	}
	branch, err := r.gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return false, err
	}
	return branch == src.Branch, nil
}

func (r *Request) gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	var out strings.Builder
	if err := r.Runner.Run(ctx, shell.Command{Name: "git", Args: args, Dir: dir, Stdout: &out}); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// fetchArchive downloads rawURL into the download directory, unless it
// is already there, and extracts it into a fresh dir.
func (r *Request) fetchArchive(ctx context.Context, rawURL, dir string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid archive URL %s: %w", rawURL, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("archive URL must use https: %s", rawURL)
	}
	name := path.Base(u.Path)
	if archiveFormat(name) == "" {
		return fmt.Errorf("unsupported archive format: %s", name)
	}

	downloadDir := r.DownloadDir
	if downloadDir == "" {
		downloadDir = filepath.Join(r.buildDir(), "downloads")
	}
	archivePath := filepath.Join(downloadDir, cacheName(rawURL, name))

	if _, err := os.Stat(archivePath); err == nil {
		r.logger().Debug("using cached archive", "path", archivePath)
	} else {
		if err := r.download(ctx, rawURL, archivePath); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return extractArchive(archivePath, dir, 1)
}

// cacheName is the download cache entry for rawURL. Branch archives of
// different repositories share a base name such as master.tar.gz, so
// the entry is prefixed with a digest of the full URL.
func cacheName(rawURL, base string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8]) + "-" + base
}

// download writes rawURL to dest through a temporary file so an
// interrupted download never looks cached.
func (r *Request) download(ctx context.Context, rawURL, dest string) error {
	client := r.HTTPClient
	if client == nil {
		client = httputil.NewSecureClient(httputil.ClientOptions{})
	}

	r.logger().Info("downloading", "url", rawURL)
	body, size, err := httputil.Get(ctx, client, rawURL)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var pw *progress.Writer
	if r.Progress != nil && progress.ShouldShowProgress() {
		pw = progress.NewWriter(tmp, filepath.Base(dest), size, r.Progress)
		w = pw
	}

	_, err = io.Copy(w, body)
	if pw != nil {
		pw.Finish()
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("download failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return os.Rename(tmp.Name(), dest)
}
