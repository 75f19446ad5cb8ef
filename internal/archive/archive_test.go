package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "share", "doc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "tool"), []byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "share", "doc", "readme.txt"), []byte("hello world"), 0o644))
}

func dirContents(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestCreateTarZstRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	var buf bytes.Buffer
	require.NoError(t, CreateTarZst(&buf, src, "acme.tool@v1", nil))

	destRoot := t.TempDir()
	n, err := Extract(bytes.NewReader(buf.Bytes()), destRoot, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got := dirContents(t, filepath.Join(destRoot, "acme.tool@v1"))
	want := dirContents(t, src)
	require.Equal(t, want, got)
}

func TestCreateTarZstDeterministic(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	var buf1, buf2 bytes.Buffer
	require.NoError(t, CreateTarZst(&buf1, src, "acme.tool@v1", nil))
	require.NoError(t, CreateTarZst(&buf2, src, "acme.tool@v1", nil))
	require.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestSniffDetectsFormats(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want Format
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, FormatTarGz},
		{"bzip2", []byte("BZh91AY&SY"), FormatTarBz2},
		{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, FormatTarXz},
		{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd}, FormatTarZst},
		{"zip", []byte{'P', 'K', 0x03, 0x04}, FormatZip},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _, err := Sniff(bytes.NewReader(c.head))
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	dest := t.TempDir()
	_, err := safeJoin(dest, "../escape")
	require.Error(t, err)

	_, err = safeJoin(dest, "/absolute")
	require.Error(t, err)

	ok, err := safeJoin(dest, "nested/fine")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "nested", "fine"), ok)
}

func TestParseArchiveFilename(t *testing.T) {
	identity, platform, arch, hashPrefix, ok := ParseArchiveFilename("acme.tool@v1-linux-amd64-blake3-0123456789abcdef.tar.zst")
	require.True(t, ok)
	require.Equal(t, "acme.tool@v1", identity)
	require.Equal(t, "linux", platform)
	require.Equal(t, "amd64", arch)
	require.Equal(t, "0123456789abcdef", hashPrefix)

	_, _, _, _, ok = ParseArchiveFilename("not-an-archive.txt")
	require.False(t, ok)

	_, _, _, _, ok = ParseArchiveFilename("acme.tool@v1-linux-amd64-blake3-.tar.zst")
	require.False(t, ok)
}

func TestExtractAbortsOnProgressFalse(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	var buf bytes.Buffer
	require.NoError(t, CreateTarZst(&buf, src, "acme.tool@v1", nil))

	dest := t.TempDir()
	calls := 0
	_, err := Extract(bytes.NewReader(buf.Bytes()), dest, func(Progress) bool {
		calls++
		return false
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
