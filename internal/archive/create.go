package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/wharflab/envy/internal/envyerr"
)

var epochZero = time.Unix(0, 0).UTC()

// CreateTarZst walks sourceDir and writes a deterministic tar+zstd stream to
// w, with every entry prefixed by prefix (§6.1's archive layout convention:
// a single top-level directory named after the package identity). Entries
// are visited in sorted path order and mtimes are zeroed so two builds of
// identical content produce byte-identical archives.
func CreateTarZst(w io.Writer, sourceDir, prefix string, progress ProgressFunc) error {
	paths, err := sortedWalk(sourceDir)
	if err != nil {
		return err
	}

	total := 0
	var totalBytes int64
	for _, p := range paths {
		if p.mode.IsRegular() {
			total++
			totalBytes += p.info.Size()
		}
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return &envyerr.IOError{Op: "zstd_new_writer", Path: sourceDir, Err: err}
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	var filesProcessed int
	var bytesProcessed int64

	for _, p := range paths {
		entryName := prefix + "/" + p.rel
		hdr, err := tar.FileInfoHeader(p.info, p.linkTarget)
		if err != nil {
			return &envyerr.IOError{Op: "tar_header", Path: p.abs, Err: err}
		}
		hdr.Name = entryName
		hdr.ModTime = epochZero
		hdr.AccessTime = epochZero
		hdr.ChangeTime = epochZero
		hdr.Uid, hdr.Gid = 0, 0
		hdr.Uname, hdr.Gname = "", ""

		if p.mode.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return &envyerr.IOError{Op: "tar_write_header", Path: p.abs, Err: err}
		}

		if p.mode.IsRegular() {
			n, err := copyFileInto(tw, p.abs)
			if err != nil {
				return err
			}
			filesProcessed++
			bytesProcessed += n
			tf := total
			tb := totalBytes
			if !reportOK(progress, Progress{FilesProcessed: filesProcessed, BytesProcessed: bytesProcessed, TotalFiles: &tf, TotalBytes: &tb}) {
				return &envyerr.UserAbortError{Op: "archive_create"}
			}
		}
	}
	return nil
}

type walkEntry struct {
	abs        string
	rel        string
	info       os.FileInfo
	mode       os.FileMode
	linkTarget string
}

func sortedWalk(root string) ([]walkEntry, error) {
	var entries []walkEntry
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			link = target
		}

		entries = append(entries, walkEntry{
			abs:        path,
			rel:        rel,
			info:       info,
			mode:       info.Mode(),
			linkTarget: link,
		})
		return nil
	})
	if err != nil {
		return nil, &envyerr.IOError{Op: "walk", Path: root, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].rel < entries[j].rel
	})
	return entries, nil
}

func copyFileInto(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &envyerr.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	n, err := io.Copy(w, f)
	if err != nil {
		return n, &envyerr.IOError{Op: "read", Path: path, Err: err}
	}
	return n, nil
}

// ParseArchiveFilename splits a depot archive filename of the form
// "<identity>-<platform>-<arch>-blake3-<hashprefix>.tar.zst" into its parts
// (§6.1/§6.2). It returns ok=false rather than an error: callers treat an
// unparseable filename as "not a depot archive" and skip it.
func ParseArchiveFilename(name string) (identity, platform, arch, hashPrefix string, ok bool) {
	const suffix = ".tar.zst"
	if !strings.HasSuffix(name, suffix) {
		return "", "", "", "", false
	}
	base := strings.TrimSuffix(name, suffix)

	idx := strings.Index(base, "-blake3-")
	if idx < 0 {
		return "", "", "", "", false
	}
	hashPrefix = base[idx+len("-blake3-"):]
	if hashPrefix == "" {
		return "", "", "", "", false
	}
	head := base[:idx]

	// head is "<identity>-<platform>-<arch>"; platform/arch never contain
	// '-' themselves in envy's supported GOOS/GOARCH set, so split from
	// the right.
	lastDash := strings.LastIndex(head, "-")
	if lastDash < 0 {
		return "", "", "", "", false
	}
	arch = head[lastDash+1:]
	head = head[:lastDash]

	secondDash := strings.LastIndex(head, "-")
	if secondDash < 0 {
		return "", "", "", "", false
	}
	platform = head[secondDash+1:]
	identity = head[:secondDash]

	if identity == "" || platform == "" || arch == "" {
		return "", "", "", "", false
	}
	if strings.Count(identity, "@") != 1 {
		return "", "", "", "", false
	}
	return identity, platform, arch, hashPrefix, true
}
