// Package install fetches the official technique repository and unpacks its
// technique folders into the official tests directory.
package install

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// IOError is fatal to setup and install.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

type Installer struct {
	URL string
	// AtomicsDir is the folder holding the technique folders, relative to
	// the archive's single top-level directory.
	AtomicsDir string
	Client     *http.Client
	// Progress, when set, receives one message per stage.
	Progress func(msg string)
}

// Install replaces the contents of dest with the technique folders of the
// archive at i.URL.
func (i *Installer) Install(ctx context.Context, dest string) error {
	i.progress("Initiating download and extraction of atomic tests...")

	if err := os.RemoveAll(dest); err != nil {
		return &IOError{Op: "delete", Path: dest, Err: err}
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &IOError{Op: "create", Path: dest, Err: err}
	}

	archive, err := i.download(ctx, dest)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	tmp := filepath.Join(dest, "tmp")
	if err := extract(archive, tmp); err != nil {
		return err
	}
	i.progress("Download and extraction successful!")

	i.progress("Extracting attack techniques from the repository and deleting leftover files.")
	src, err := atomicsRoot(tmp, i.AtomicsDir)
	if err != nil {
		return err
	}
	if err := moveContents(src, dest); err != nil {
		return err
	}
	if err := os.RemoveAll(tmp); err != nil {
		return &IOError{Op: "delete", Path: tmp, Err: err}
	}
	i.progress("Replacing content in folder was successful!")
	return nil
}

func (i *Installer) progress(msg string) {
	if i.Progress != nil {
		i.Progress(msg)
	}
}

// download stores the archive in a temporary file under dir and returns its
// path.
func (i *Installer) download(ctx context.Context, dir string) (string, error) {
	client := i.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.URL, nil)
	if err != nil {
		return "", &IOError{Op: "download", Path: i.URL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &IOError{Op: "download", Path: i.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &IOError{Op: "download", Path: i.URL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	f, err := os.CreateTemp(dir, "atomics-*.zip")
	if err != nil {
		return "", &IOError{Op: "create", Path: dir, Err: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", &IOError{Op: "download", Path: i.URL, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", &IOError{Op: "write", Path: f.Name(), Err: err}
	}
	return f.Name(), nil
}

func extract(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return &IOError{Op: "extract", Path: archive, Err: err}
	}
	defer r.Close()

	if err := os.RemoveAll(dest); err != nil {
		return &IOError{Op: "delete", Path: dest, Err: err}
	}
	for _, f := range r.File {
		if err := extractFile(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.FromSlash(f.Name))
	if !within(dest, target) {
		return &IOError{Op: "extract", Path: f.Name, Err: errors.New("entry escapes destination")}
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0755); err != nil {
			return &IOError{Op: "create", Path: target, Err: err}
		}
		return nil
	}
	if !f.Mode().IsRegular() {
		return nil // symlinks and devices are not needed
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &IOError{Op: "create", Path: filepath.Dir(target), Err: err}
	}
	rc, err := f.Open()
	if err != nil {
		return &IOError{Op: "extract", Path: f.Name, Err: err}
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return &IOError{Op: "create", Path: target, Err: err}
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return &IOError{Op: "extract", Path: f.Name, Err: err}
	}
	if err := out.Close(); err != nil {
		return &IOError{Op: "write", Path: target, Err: err}
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// atomicsRoot finds atomicsDir in tmp, either at the top or under the
// archive's single top-level directory.
func atomicsRoot(tmp, atomicsDir string) (string, error) {
	direct := filepath.Join(tmp, atomicsDir)
	if isDir(direct) {
		return direct, nil
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		return "", &IOError{Op: "read", Path: tmp, Err: err}
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(tmp, entry.Name(), atomicsDir)
		if isDir(candidate) {
			return candidate, nil
		}
	}
	return "", &IOError{Op: "locate", Path: filepath.Join(tmp, "*", atomicsDir), Err: os.ErrNotExist}
}

func moveContents(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return &IOError{Op: "read", Path: src, Err: err}
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if err := os.Rename(from, to); err != nil {
			return &IOError{Op: "move", Path: from, Err: err}
		}
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
