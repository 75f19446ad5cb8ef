package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/wharflab/envy/internal/envyerr"
)

// Extract streams archive's entries into destination, creating it if
// missing. Traversal outside destination via ".." or absolute entry paths
// is rejected. Returns the count of regular files extracted.
func Extract(r io.Reader, destination string, progress ProgressFunc) (int, error) {
	if err := ensureDestinationDir(destination); err != nil {
		return 0, err
	}

	format, sniffed, err := Sniff(r)
	if err != nil {
		return 0, &envyerr.IOError{Op: "sniff", Path: destination, Err: err}
	}

	switch format {
	case FormatZip:
		return extractZip(sniffed, destination, progress)
	case FormatTarGz:
		gz, err := gzip.NewReader(sniffed)
		if err != nil {
			return 0, &envyerr.ExtractionError{Archive: destination, Msg: "invalid gzip stream: " + err.Error()}
		}
		defer gz.Close()
		return extractTar(gz, destination, progress)
	case FormatTarBz2:
		return extractTar(bzip2.NewReader(sniffed), destination, progress)
	case FormatTarXz:
		xr, err := xz.NewReader(sniffed)
		if err != nil {
			return 0, &envyerr.ExtractionError{Archive: destination, Msg: "invalid xz stream: " + err.Error()}
		}
		return extractTar(xr, destination, progress)
	case FormatTarZst:
		zr, err := zstd.NewReader(sniffed)
		if err != nil {
			return 0, &envyerr.ExtractionError{Archive: destination, Msg: "invalid zstd stream: " + err.Error()}
		}
		defer zr.Close()
		return extractTar(zr, destination, progress)
	case FormatTar:
		return extractTar(sniffed, destination, progress)
	default:
		return 0, &envyerr.ExtractionError{Archive: destination, Msg: "unsupported or unrecognized archive format"}
	}
}

func ensureDestinationDir(destination string) error {
	info, err := os.Stat(destination)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(destination, 0o755); mkErr != nil {
				return &envyerr.IOError{Op: "mkdir", Path: destination, Err: mkErr}
			}
			return nil
		}
		return &envyerr.IOError{Op: "stat", Path: destination, Err: err}
	}
	if !info.IsDir() {
		return &envyerr.ExtractionError{Archive: destination, Msg: "destination exists and is not a directory"}
	}
	return nil
}

// safeJoin resolves name under destination, rejecting any entry that would
// escape it via ".." or an absolute path (§4.4, §7 ExtractionError).
func safeJoin(destination, name string) (string, error) {
	name = filepath.ToSlash(name)
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", &envyerr.ExtractionError{Archive: destination, Msg: "entry has absolute path: " + name}
	}
	cleaned := filepath.Clean(filepath.Join(destination, name))
	destClean := filepath.Clean(destination)
	if cleaned != destClean && !strings.HasPrefix(cleaned, destClean+string(filepath.Separator)) {
		return "", &envyerr.ExtractionError{Archive: destination, Msg: "entry escapes destination: " + name}
	}
	return cleaned, nil
}

func extractTar(r io.Reader, destination string, progress ProgressFunc) (int, error) {
	tr := tar.NewReader(r)
	var filesProcessed int
	var bytesProcessed int64

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return filesProcessed, &envyerr.ExtractionError{Archive: destination, Msg: "tar read: " + err.Error()}
		}

		target, err := safeJoin(destination, hdr.Name)
		if err != nil {
			return filesProcessed, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return filesProcessed, &envyerr.IOError{Op: "mkdir", Path: target, Err: err}
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return filesProcessed, &envyerr.IOError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return filesProcessed, &envyerr.IOError{Op: "symlink", Path: target, Err: err}
			}
		case tar.TypeReg:
			n, err := writeRegularFile(target, tr, os.FileMode(hdr.Mode))
			if err != nil {
				return filesProcessed, err
			}
			filesProcessed++
			bytesProcessed += n
			if !reportOK(progress, Progress{FilesProcessed: filesProcessed, BytesProcessed: bytesProcessed}) {
				return filesProcessed, &envyerr.UserAbortError{Op: "extract"}
			}
		default:
			// Hard links, device nodes, etc: not guaranteed by spec,
			// skip silently.
		}
	}
	return filesProcessed, nil
}

func extractZip(r io.Reader, destination string, progress ProgressFunc) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, &envyerr.IOError{Op: "read", Path: destination, Err: err}
	}
	zr, err := zip.NewReader(strings.NewReader(string(data)), int64(len(data)))
	if err != nil {
		return 0, &envyerr.ExtractionError{Archive: destination, Msg: "invalid zip stream: " + err.Error()}
	}

	var filesProcessed int
	var bytesProcessed int64
	total := len(zr.File)

	for _, f := range zr.File {
		target, err := safeJoin(destination, f.Name)
		if err != nil {
			return filesProcessed, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return filesProcessed, &envyerr.IOError{Op: "mkdir", Path: target, Err: err}
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return filesProcessed, &envyerr.ExtractionError{Archive: destination, Msg: "zip entry open: " + err.Error()}
		}
		n, err := writeRegularFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return filesProcessed, err
		}
		filesProcessed++
		bytesProcessed += n
		tf := total
		if !reportOK(progress, Progress{FilesProcessed: filesProcessed, BytesProcessed: bytesProcessed, TotalFiles: &tf}) {
			return filesProcessed, &envyerr.UserAbortError{Op: "extract"}
		}
	}
	return filesProcessed, nil
}

func writeRegularFile(target string, r io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, &envyerr.IOError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, &envyerr.IOError{Op: "create", Path: target, Err: err}
	}
	defer f.Close()
	n, err := io.Copy(f, r)
	if err != nil {
		return n, &envyerr.IOError{Op: "write", Path: target, Err: err}
	}
	return n, nil
}
