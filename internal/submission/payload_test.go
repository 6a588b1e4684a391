package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"", RoleFullStack},
		{"fullstack", RoleFullStack},
		{"Full-Stack", RoleFullStack},
		{" frontend ", RoleFrontend},
		{"BACKEND", RoleBackend},
		{"devops", RoleDevOps},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseRole("designer")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeFile(t, dir, "project.zip", "PK")
	upperPath := writeFile(t, dir, "PROJECT.ZIP", "PK")
	tarPath := writeFile(t, dir, "project.tar.gz", "gz")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.zip"), 0755))

	p, err := BuildArchive(zipPath, RoleBackend)
	require.NoError(t, err)
	assert.Equal(t, Payload{Method: MethodArchive, Role: RoleBackend, ArchivePath: zipPath}, p)

	p, err = BuildArchive(upperPath, "")
	require.NoError(t, err)
	assert.Equal(t, RoleFullStack, p.Role)

	for _, bad := range []string{"", "   ", tarPath, filepath.Join(dir, "missing.zip"), filepath.Join(dir, "folder.zip")} {
		_, err := BuildArchive(bad, RoleBackend)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}

	_, err = BuildArchive(zipPath, Role("designer"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildRepository(t *testing.T) {
	p, err := BuildRepository(" https://github.com/x/y ", "", RoleFrontend)
	require.NoError(t, err)
	assert.Equal(t, Payload{Method: MethodRepository, Role: RoleFrontend, RepoURL: "https://github.com/x/y", Branch: "main"}, p)

	p, err = BuildRepository("git@github.com:x/y.git", "develop", "")
	require.NoError(t, err)
	assert.Equal(t, "develop", p.Branch)
	assert.Equal(t, RoleFullStack, p.Role)
	assert.Equal(t, "git@github.com:x/y.git", p.RepoURL)

	_, err = BuildRepository("   ", "main", RoleBackend)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = BuildRepository("https://exa mple.com/x/y", "main", RoleBackend)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMethodAndRoleNames(t *testing.T) {
	assert.Equal(t, "archive", MethodArchive.String())
	assert.Equal(t, "repository", MethodRepository.String())
	assert.Equal(t, "unknown", Method(0).String())
	assert.Equal(t, "DevOps Engineer", RoleDevOps.DisplayName())
	assert.Len(t, Roles, 4)
	assert.Equal(t, RoleFullStack, Roles[0])
}
