// Package depot implements the optional out-of-band prebuilt-archive index
// (§4.8): one or more plain-text manifests mapping a canonical-key stem to
// an archive URL, consulted before falling back to a normal fetch+build.
package depot

import (
	"bufio"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/envy/internal/archive"
)

// Index is an ordered list of manifests, each a canonical-stem -> URL map.
// Lookup walks manifests in the order they were loaded; the first match
// wins. Read-only after construction (§5's shared-resource policy).
type Index struct {
	manifests []map[string]string
}

// NewIndex builds an Index from already-fetched manifest bodies, in order.
func NewIndex(manifestBodies []io.Reader, log *logrus.Logger) (*Index, error) {
	idx := &Index{}
	for _, body := range manifestBodies {
		m, err := parseManifest(body, log)
		if err != nil {
			return nil, err
		}
		idx.manifests = append(idx.manifests, m)
	}
	return idx, nil
}

// Lookup returns the archive URL for canonicalStem, and whether any
// manifest contained it.
func (idx *Index) Lookup(canonicalStem string) (string, bool) {
	for _, m := range idx.manifests {
		if url, ok := m[canonicalStem]; ok {
			return url, true
		}
	}
	return "", false
}

// parseManifest reads one manifest: UTF-8 text, CRLF-tolerant, one URL per
// line, '#'-comments and blank lines ignored. A line whose basename doesn't
// parse under the archive naming rule (§6.1) is logged and skipped rather
// than failing the whole manifest (§6.2).
func parseManifest(r io.Reader, log *logrus.Logger) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		base := trimmed
		if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
			base = trimmed[i+1:]
		}
		identity, platform, arch, hashPrefix, ok := archive.ParseArchiveFilename(base)
		if !ok {
			if log != nil {
				log.WithField("line", trimmed).Warn("depot: skipping unparseable manifest entry")
			}
			continue
		}
		stem := identity + "-" + platform + "-" + arch + "-blake3-" + hashPrefix
		out[stem] = trimmed
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
