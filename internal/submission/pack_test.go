package submission

import (
	"archive/zip"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackDirectory(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "main.py", "print('hi')")
	writeFile(t, src, "pkg/util.py", "def f(): pass")
	writeFile(t, src, ".env", "SECRET=1")
	writeFile(t, src, ".git/config", "[core]")
	writeFile(t, src, "node_modules/dep/index.js", "x")
	writeFile(t, src, "pkg/__pycache__/util.pyc", "x")

	dst := filepath.Join(t.TempDir(), "project.zip")
	n, err := PackDirectory(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"main.py", "pkg/util.py"}, names)

	p, err := BuildArchive(dst, RoleBackend)
	require.NoError(t, err)
	assert.Equal(t, dst, p.ArchivePath)
}

func TestPackDirectoryRejects(t *testing.T) {
	empty := t.TempDir()
	_, err := PackDirectory(empty, filepath.Join(t.TempDir(), "out.zip"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	file := writeFile(t, t.TempDir(), "a.txt", "a")
	_, err = PackDirectory(file, filepath.Join(t.TempDir(), "out.zip"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = PackDirectory(filepath.Join(empty, "missing"), filepath.Join(t.TempDir(), "out.zip"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
