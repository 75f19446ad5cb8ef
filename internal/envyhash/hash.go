// Package envyhash computes and verifies the two content hashes envy uses:
// BLAKE3 over in-memory bytes (canonical keys, archive naming) and SHA-256
// over file contents (source integrity verification). Both are exposed as
// opencontainers/go-digest values so callers get one comparable,
// "<algorithm>:<hex>"-formatted type regardless of which algorithm produced
// it.
package envyhash

import (
	"crypto/sha256"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
	"lukechampine.com/blake3"

	"github.com/wharflab/envy/internal/envyerr"
)

// blake3DigestSize matches the spec's 32-byte BLAKE3 digest.
const blake3DigestSize = 32

// readChunkSize is the minimum read buffer size mandated by the spec for
// file hashing (≥64 KiB).
const readChunkSize = 64 * 1024

// BLAKE3 returns the digest of b, deterministic and streaming under the
// hood (lukechampine.com/blake3 exposes a hash.Hash).
func BLAKE3(b []byte) digest.Digest {
	h := blake3.New(blake3DigestSize, nil)
	_, _ = h.Write(b)
	return digest.NewDigestFromBytes("blake3", h.Sum(nil))
}

// BLAKE3HexPrefix returns the first n hex characters of BLAKE3(b). Used for
// the cache entry directory's short fingerprint (n=16).
func BLAKE3HexPrefix(b []byte, n int) string {
	hex := BLAKE3(b).Encoded()
	if n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}

// SHA256File streams path in ≥64 KiB chunks and returns its digest. A
// missing file surfaces as envyerr.IOError (Op: "sha256_file_not_found");
// any other read failure surfaces as a generic IOError.
func SHA256File(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &envyerr.IOError{Op: "sha256_file_not_found", Path: path, Err: err}
		}
		return "", &envyerr.IOError{Op: "sha256_file_open", Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, readChunkSize)
	// Hide *os.File's WriteTo so CopyBuffer reads through buf.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", &envyerr.IOError{Op: "sha256_file_read", Path: path, Err: err}
	}
	return digest.NewDigestFromBytes(digest.SHA256, h.Sum(nil)), nil
}

// VerifySHA256 checks that actual matches expectedHex, returning a
// HashMismatchError (carrying both hex strings) on mismatch.
func VerifySHA256(expectedHex string, actual digest.Digest) error {
	want := digest.Digest(digest.SHA256.String() + ":" + expectedHex)
	if want != actual {
		return &envyerr.HashMismatchError{
			Algorithm: "sha256",
			Expected:  expectedHex,
			Actual:    actual.Encoded(),
		}
	}
	return nil
}
