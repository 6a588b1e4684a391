package submission

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// skipDirs are never packed; they hold dependencies or build output
var skipDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
	"venv":             true,
	"__pycache__":      true,
	"dist":             true,
	"build":            true,
	"target":           true,
	"coverage":         true,
}

// SkipDir reports whether a directory with this name is left out of
// archives
func SkipDir(name string) bool {
	return skipDirs[name]
}

// PackDirectory writes the files under dir into a new zip archive at dst
// and returns the number of files packed. Hidden entries and dependency
// directories are skipped.
func PackDirectory(dir, dst string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: %s is not a directory", ErrInvalidInput, dir)
	}

	absDst, _ := filepath.Abs(dst)

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)

	count := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		name := d.Name()
		if path != dir && (strings.HasPrefix(name, ".") || (d.IsDir() && skipDirs[name])) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absDst {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return err
		}
		count++
		return nil
	})

	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil && walkErr == nil {
		walkErr = fmt.Errorf("close archive: %w", err)
	}
	if walkErr != nil {
		os.Remove(dst)
		return 0, walkErr
	}
	if count == 0 {
		os.Remove(dst)
		return 0, fmt.Errorf("%w: %s contains no files", ErrInvalidInput, dir)
	}

	return count, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
