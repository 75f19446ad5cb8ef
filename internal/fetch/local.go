package fetch

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wharflab/envy/internal/envyerr"
)

// driveLetterPath matches "/C:/..." or "/C|/..." path components left
// after parsing a file:// URL, both legal per §4.3.
var driveLetterPath = regexp.MustCompile(`^/([A-Za-z])[:|](/.*)$`)

// fetchLocal resolves a local source path (bare path or file:// URL,
// possibly relative to req.ManifestRoot) and copies it to the destination.
func fetchLocal(_ context.Context, req Request) (*Result, error) {
	srcPath, err := resolveLocalSource(req.Source, req.ManifestRoot)
	if err != nil {
		return nil, err
	}

	info, err := os.Lstat(srcPath)
	if err != nil {
		return nil, &envyerr.IOError{Op: "stat", Path: srcPath, Err: err}
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(srcPath)
		if err != nil {
			return nil, &envyerr.IOError{Op: "resolve_symlink", Path: srcPath, Err: err}
		}
		srcPath = target
	}

	n, err := copyFile(srcPath, req.Destination, req.Progress)
	if err != nil {
		return nil, err
	}
	return &Result{Destination: req.Destination, BytesWritten: n}, nil
}

func resolveLocalSource(raw, manifestRoot string) (string, error) {
	if strings.HasPrefix(strings.ToLower(raw), "file://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", &envyerr.NetworkError{Scheme: "file", URL: raw, Err: err}
		}
		if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
			return "", &envyerr.NetworkError{Scheme: "file", URL: raw, Err: errRemoteFileHost}
		}
		path := u.Path
		if m := driveLetterPath.FindStringSubmatch(path); m != nil {
			path = m[1] + ":" + m[2]
		}
		return filepath.Clean(path), nil
	}

	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), nil
	}
	if manifestRoot != "" {
		return filepath.Clean(filepath.Join(manifestRoot, raw)), nil
	}
	return filepath.Clean(raw), nil
}

var errRemoteFileHost = remoteFileHostError{}

type remoteFileHostError struct{}

func (remoteFileHostError) Error() string {
	return "fetch: file:// URIs must have an empty or localhost host"
}

func copyFile(src, dest string, progress ProgressFunc) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &envyerr.IOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, &envyerr.IOError{Op: "stat", Path: src, Err: err}
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, &envyerr.IOError{Op: "create", Path: dest, Err: err}
	}
	defer out.Close()

	total := info.Size()
	var written int64
	buf := make([]byte, minProgressChunk)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return written, &envyerr.IOError{Op: "write", Path: dest, Err: werr}
			}
			written += int64(n)
			if !reportOK(progress, Progress{Transferred: written, Total: &total}) {
				os.Remove(dest)
				return written, &envyerr.UserAbortError{Op: "fetch_local"}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, &envyerr.IOError{Op: "read", Path: src, Err: readErr}
		}
	}
	return written, nil
}
