package depot

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildIndexFromReaders(readers ...io.Reader) (*Index, error) {
	return NewIndex(readers, nil)
}

func TestParseManifestIgnoresCommentsAndBlankLines(t *testing.T) {
	body := "# comment\r\n\r\n" +
		"https://example.com/acme.tool@v1-linux-amd64-blake3-0123456789abcdef.tar.zst\r\n" +
		"   \n" +
		"https://example.com/not-an-archive.txt\n"

	m, err := parseManifest(strings.NewReader(body), nil)
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.Contains(t, m, "acme.tool@v1-linux-amd64-blake3-0123456789abcdef")
}

func TestIndexLookupFirstManifestWins(t *testing.T) {
	m1 := strings.NewReader("https://a.example.com/acme.tool@v1-linux-amd64-blake3-0123456789abcdef.tar.zst\n")
	m2 := strings.NewReader("https://b.example.com/acme.tool@v1-linux-amd64-blake3-0123456789abcdef.tar.zst\n")

	idx, err := buildIndexFromReaders(m1, m2)
	require.NoError(t, err)

	url, ok := idx.Lookup("acme.tool@v1-linux-amd64-blake3-0123456789abcdef")
	require.True(t, ok)
	require.Equal(t, "https://a.example.com/acme.tool@v1-linux-amd64-blake3-0123456789abcdef.tar.zst", url)
}

func TestIndexLookupMiss(t *testing.T) {
	idx, err := buildIndexFromReaders(strings.NewReader("# empty\n"))
	require.NoError(t, err)
	_, ok := idx.Lookup("nonexistent-linux-amd64-blake3-deadbeef")
	require.False(t, ok)
}

func TestParseManifestSkipsUnparseableLines(t *testing.T) {
	m, err := parseManifest(strings.NewReader("https://example.com/not-an-archive.txt\n"), nil)
	require.NoError(t, err)
	require.Empty(t, m)
}
