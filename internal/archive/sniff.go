// Package archive implements the streaming extractor and tar.zst producer
// (§4.4). Formats are detected by magic-byte sniffing, never by file
// extension, mirroring libarchive's behavior that the spec calls out
// explicitly.
package archive

import (
	"bufio"
	"io"
)

// Format identifies a detected archive container/compression combination.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarBz2 Format = "tar.bz2"
	FormatTarXz  Format = "tar.xz"
	FormatTarZst Format = "tar.zst"
	FormatZip    Format = "zip"
	FormatUnknown Format = "unknown"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{'B', 'Z', 'h'}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	zipMagic   = []byte{'P', 'K', 0x03, 0x04}
)

// Sniff peeks at the start of r (without consuming more than necessary —
// callers get back a reader positioned at the start of the stream) and
// classifies the archive format. A bare, uncompressed tar has no magic
// bytes of its own; it is detected by checking for a valid ustar header
// ("ustar" at offset 257) after ruling out every compressed/zip format.
func Sniff(r io.Reader) (Format, io.Reader, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return FormatUnknown, br, err
	}

	switch {
	case hasPrefix(head, zipMagic):
		return FormatZip, br, nil
	case hasPrefix(head, gzipMagic):
		return FormatTarGz, br, nil
	case hasPrefix(head, bzip2Magic):
		return FormatTarBz2, br, nil
	case hasPrefix(head, xzMagic):
		return FormatTarXz, br, nil
	case hasPrefix(head, zstdMagic):
		return FormatTarZst, br, nil
	case len(head) >= 262 && string(head[257:262]) == "ustar":
		return FormatTar, br, nil
	default:
		return FormatUnknown, br, nil
	}
}

func hasPrefix(buf, magic []byte) bool {
	if len(buf) < len(magic) {
		return false
	}
	for i, b := range magic {
		if buf[i] != b {
			return false
		}
	}
	return true
}
