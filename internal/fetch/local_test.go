package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchLocalCopiesFile(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "payload.bin")
	require.NoError(t, os.WriteFile(src, []byte("hello world"), 0o644))

	destDir := t.TempDir()
	dest := filepath.Join(destDir, "out.bin")

	res, err := Fetch(context.Background(), Request{Source: src, Destination: dest})
	require.NoError(t, err)
	require.Equal(t, int64(len("hello world")), res.BytesWritten)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}

func TestFetchLocalRelativeToManifestRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "payload.bin"), []byte("data"), 0o644))

	destDir := t.TempDir()
	dest := filepath.Join(destDir, "out.bin")

	res, err := fetchLocal(context.Background(), Request{Source: "payload.bin", ManifestRoot: root, Destination: dest})
	require.NoError(t, err)
	require.Equal(t, int64(4), res.BytesWritten)
}

func TestFetchLocalFileURLRejectsRemoteHost(t *testing.T) {
	_, err := resolveLocalSource("file://remotehost/tmp/x", "")
	require.Error(t, err)

	resolved, err := resolveLocalSource("file:///tmp/x", "")
	require.NoError(t, err)
	require.Equal(t, "/tmp/x", resolved)
}

func TestFetchLocalWindowsDriveLetterForms(t *testing.T) {
	got, err := resolveLocalSource("file:///C:/Users/acme/pkg.tar", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean("C:/Users/acme/pkg.tar"), got)

	got, err = resolveLocalSource("file:///C|/Users/acme/pkg.tar", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean("C:/Users/acme/pkg.tar"), got)
}
