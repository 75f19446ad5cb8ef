package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/armon/circbuf"

	"github.com/wharflab/envy/internal/envyerr"
)

const minProgressChunk = 64 * 1024

// errorBodyCap bounds how much of a non-2xx response body fetchHTTP will
// read for diagnostics, so a server that streams forever can't turn a
// failed fetch into an unbounded read.
const errorBodyCap = 4 * 1024

// fetchHTTP follows redirects (net/http's default client does this),
// fails on non-2xx status, and streams the body to the destination,
// calling the progress callback after each read of up to minProgressChunk
// bytes (§4.3).
func fetchHTTP(ctx context.Context, req Request) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.Source, nil)
	if err != nil {
		return nil, &envyerr.NetworkError{Scheme: "http", URL: req.Source, Err: err}
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, &envyerr.NetworkError{Scheme: "http", URL: req.Source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &envyerr.NetworkError{
			Scheme: "http",
			URL:    req.Source,
			Body:   readErrorBody(resp.Body),
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var total *int64
	if resp.ContentLength >= 0 {
		v := resp.ContentLength
		total = &v
	}

	out, err := os.OpenFile(req.Destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &envyerr.IOError{Op: "create", Path: req.Destination, Err: err}
	}
	defer out.Close()

	var written int64
	buf := make([]byte, minProgressChunk)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				os.Remove(req.Destination)
				return nil, &envyerr.IOError{Op: "write", Path: req.Destination, Err: werr}
			}
			written += int64(n)
			if !reportOK(req.Progress, Progress{Transferred: written, Total: total}) {
				os.Remove(req.Destination)
				return nil, &envyerr.UserAbortError{Op: "fetch_http"}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(req.Destination)
			return nil, &envyerr.NetworkError{Scheme: "http", URL: req.Source, Err: readErr}
		}
	}

	return &Result{Destination: req.Destination, BytesWritten: written}, nil
}

// readErrorBody copies up to errorBodyCap bytes of a failed response body
// into a fixed-size ring buffer and returns it as a string; io errors while
// draining are swallowed since the caller already has the status code.
func readErrorBody(r io.Reader) string {
	buf, err := circbuf.NewBuffer(errorBodyCap)
	if err != nil {
		return ""
	}
	_, _ = io.Copy(buf, io.LimitReader(r, errorBodyCap))
	return buf.String()
}
