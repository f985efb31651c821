package pkgrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedPhases map[string]bool

func (f fixedPhases) HasPhase(name string) bool { return f[name] }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadSimplePackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zlib", "pkg.yml"), `
name: zlib
version: "1.3"
sources:
  - key: tarball
    url: https://example.org/zlib-1.3.tar.gz
    hash: {algo: sha256, hex: deadbeef}
dependencies:
  build: ["make"]
  runtime: []
phases:
  unpack: "tar xf /inputs/src-*.source"
  build: "make"
`)

	phases := fixedPhases{"unpack": true, "build": true}
	repo, err := Load(root, phases)
	require.NoError(t, err)

	pkg, ok := repo.Get("zlib", "1.3")
	require.True(t, ok)
	require.Equal(t, []string{"make"}, pkg.Dependencies.Build)
	require.True(t, pkg.HasPhase("build"))
	require.False(t, pkg.HasPhase("pack"))
}

func TestLoadInheritsFromParentDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg.yml"), `
env:
  CC: gcc
allowed_images: ["debian:bullseye"]
`)
	writeFile(t, filepath.Join(root, "curl", "pkg.yml"), `
name: curl
version: "8.0"
phases:
  build: "make"
`)

	phases := fixedPhases{"build": true}
	repo, err := Load(root, phases)
	require.NoError(t, err)

	pkg, ok := repo.Get("curl", "8.0")
	require.True(t, ok)
	require.Equal(t, "gcc", pkg.Env["CC"])
	require.Equal(t, []string{"debian:bullseye"}, pkg.AllowedImages)
}

func TestLoadChildOverridesParentScalar(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg.yml"), `
env:
  CC: gcc
`)
	writeFile(t, filepath.Join(root, "clang-pkgs", "pkg.yml"), `
env:
  CC: clang
`)
	writeFile(t, filepath.Join(root, "clang-pkgs", "foo", "pkg.yml"), `
name: foo
version: "1.0"
phases:
  build: "make"
`)

	phases := fixedPhases{"build": true}
	repo, err := Load(root, phases)
	require.NoError(t, err)

	pkg, ok := repo.Get("foo", "1.0")
	require.True(t, ok)
	require.Equal(t, "clang", pkg.Env["CC"])
}

func TestLoadRejectsUnknownPhase(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x", "pkg.yml"), `
name: x
version: "1.0"
phases:
  frobnicate: "echo no"
`)

	phases := fixedPhases{"build": true}
	_, err := Load(root, phases)
	require.Error(t, err)
	var rerr *RepoError
	require.ErrorAs(t, err, &rerr)
}

func TestLoadRejectsDuplicatePackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "pkg.yml"), `
name: dup
version: "1.0"
phases: {}
`)
	writeFile(t, filepath.Join(root, "b", "pkg.yml"), `
name: dup
version: "1.0"
phases: {}
`)

	phases := fixedPhases{}
	_, err := Load(root, phases)
	require.Error(t, err)
}

func TestAllowsImageDenyListWins(t *testing.T) {
	pkg := &Package{AllowedImages: []string{"debian:bullseye"}, DeniedImages: []string{"debian:bullseye"}}
	require.False(t, pkg.AllowsImage("debian:bullseye"))
}

func TestAllowsImageEmptyAllowListMeansAny(t *testing.T) {
	pkg := &Package{}
	require.True(t, pkg.AllowsImage("anything:latest"))
}
