// Package fetch implements the scheme-classified single-file and git
// transfer pipeline (§4.3): URI classification, then a transport per
// classified scheme (HTTP(S), S3, local/file, git). Other classified
// schemes, such as the SSH bare form, have no transport and are rejected.
package fetch

import (
	"strings"
)

// Scheme classifies a source URI for transport dispatch.
type Scheme string

const (
	SchemeUnknown   Scheme = "unknown"
	SchemeGit       Scheme = "git"
	SchemeS3        Scheme = "s3"
	SchemeHTTPS     Scheme = "https"
	SchemeHTTP      Scheme = "http"
	SchemeFTPS      Scheme = "ftps"
	SchemeFTP       Scheme = "ftp"
	SchemeSCP       Scheme = "scp"
	SchemeSSH       Scheme = "ssh"
	SchemeFile      Scheme = "file"
	SchemeLocalFile Scheme = "local"
)

// Classify implements the ordered classification rules in §4.3.
func Classify(raw string) Scheme {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SchemeUnknown
	}

	if looksLikeGit(trimmed) {
		return SchemeGit
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return SchemeS3
	case strings.HasPrefix(lower, "https://"):
		return SchemeHTTPS
	case strings.HasPrefix(lower, "http://"):
		return SchemeHTTP
	case strings.HasPrefix(lower, "ftps://"):
		return SchemeFTPS
	case strings.HasPrefix(lower, "ftp://"):
		return SchemeFTP
	case strings.HasPrefix(lower, "scp://"):
		return SchemeSCP
	case strings.HasPrefix(lower, "ssh://"):
		return SchemeSSH
	case strings.HasPrefix(lower, "file://"):
		return SchemeFile
	}

	if looksLikeBareSSH(trimmed) {
		return SchemeSSH
	}

	if strings.Contains(trimmed, "://") {
		return SchemeUnknown
	}
	return SchemeLocalFile
}

// looksLikeGit detects "ends in .git" (ignoring query/fragment) or an
// explicit git scheme.
func looksLikeGit(raw string) bool {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "git://") || strings.HasPrefix(lower, "git+ssh://") {
		return true
	}
	path := raw
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(path, ".git")
}

// looksLikeBareSSH matches the "user@host:path" shorthand: no "://", a
// non-empty prefix containing '@' before the first ':'.
func looksLikeBareSSH(raw string) bool {
	if strings.Contains(raw, "://") {
		return false
	}
	colon := strings.IndexByte(raw, ':')
	if colon <= 0 {
		return false
	}
	prefix := raw[:colon]
	return strings.Contains(prefix, "@")
}
