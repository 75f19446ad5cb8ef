package fetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/wharflab/envy/internal/envyerr"
)

// Progress reports single-file transfer progress (§4.3). Total is nil when
// the transport does not know the size in advance (e.g. a chunked HTTP
// response without Content-Length).
type Progress struct {
	Transferred int64
	Total       *int64
}

// ProgressFunc is polled during transfer; returning false aborts the
// transfer and the destination is removed.
type ProgressFunc func(Progress) bool

// Request describes a single-file (or git clone) transfer.
type Request struct {
	Source       string // source URI, classified via Classify
	Destination  string // destination path, may be relative
	ManifestRoot string // base for resolving relative local sources
	Region       string // S3 region override
	GitRef       string // git branch to check out; empty means default branch
	Progress     ProgressFunc
}

// Result reports the outcome of one successful transfer.
type Result struct {
	Destination string
	BytesWritten int64
}

// Fetch dispatches req to the transport matching its classified scheme and
// normalizes the destination path before transfer, per §4.3.
func Fetch(ctx context.Context, req Request) (*Result, error) {
	dest, err := prepareDestination(req.Destination)
	if err != nil {
		return nil, err
	}
	req.Destination = dest

	switch Classify(req.Source) {
	case SchemeHTTPS, SchemeHTTP:
		return fetchHTTP(ctx, req)
	case SchemeS3:
		return fetchS3(ctx, req)
	case SchemeFile, SchemeLocalFile:
		return fetchLocal(ctx, req)
	case SchemeGit:
		return fetchGit(ctx, req)
	default:
		return nil, &envyerr.NetworkError{Scheme: string(SchemeUnknown), URL: req.Source, Err: errUnsupportedScheme}
	}
}

var errUnsupportedScheme = unsupportedSchemeError{}

type unsupportedSchemeError struct{}

func (unsupportedSchemeError) Error() string { return "fetch: unsupported or unclassifiable source scheme" }

// prepareDestination creates the destination's parent directory and
// returns the absolutized, lexically normalized path.
func prepareDestination(dest string) (string, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", &envyerr.IOError{Op: "abs", Path: dest, Err: err}
	}
	abs = filepath.Clean(abs)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", &envyerr.IOError{Op: "mkdir", Path: filepath.Dir(abs), Err: err}
	}
	return abs, nil
}

func reportOK(cb ProgressFunc, p Progress) bool {
	if cb == nil {
		return true
	}
	return cb(p)
}
