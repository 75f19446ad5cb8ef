package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wharflab/envy/internal/envyerr"
)

func TestFetchHTTPWritesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello from the mirror")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	res, err := Fetch(context.Background(), Request{Source: srv.URL, Destination: dest})
	require.NoError(t, err)
	require.Equal(t, int64(len("hello from the mirror")), res.BytesWritten)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "hello from the mirror", string(got))
}

func TestFetchHTTPNonTwoxxCapturesBoundedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, strings.Repeat("x", errorBodyCap*2))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	_, err := Fetch(context.Background(), Request{Source: srv.URL, Destination: dest})
	require.Error(t, err)

	var netErr *envyerr.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.LessOrEqual(t, len(netErr.Body), errorBodyCap)
	require.NotEmpty(t, netErr.Body)
}

func TestFetchHTTPNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	_, err := Fetch(context.Background(), Request{Source: srv.URL, Destination: dest})
	require.Error(t, err)

	var netErr *envyerr.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, "http", netErr.Scheme)
}
