// Package pkgcfg implements the package-configuration data model: identity
// parsing, canonical option serialization, the canonical key, and the
// pkg_cfg record itself (§3.1–3.2, §4.6).
package pkgcfg

import (
	"regexp"
	"strings"

	"github.com/wharflab/envy/internal/envyerr"
)

// Identity is the opaque "<namespace>.<name>@<revision>" tuple naming a
// package. Namespace is everything before the first '.'; name is
// everything between the first '.' and the '@'; revision is everything
// after '@'.
type Identity struct {
	Namespace string
	Name      string
	Revision  string
}

// identityPattern matches the grammar required by §4.6 parsing rules:
// one or more non-'.' chars, '.', one or more non-'@' chars, '@', one or
// more chars that are neither '{' nor '}'.
var identityPattern = regexp.MustCompile(`^[^.]+\.[^@]+@[^{}]+$`)

// String renders the canonical "<namespace>.<name>@<revision>" form.
func (id Identity) String() string {
	return id.Namespace + "." + id.Name + "@" + id.Revision
}

// Prefix renders "<namespace>.<name>", ignoring revision — weak-dependency
// matching compares candidates by this looser key since a weak reference
// never pins a specific revision (§4.7.2).
func (id Identity) Prefix() string { return id.Namespace + "." + id.Name }

// ParseIdentity splits and validates a raw identity string.
func ParseIdentity(raw string) (Identity, error) {
	if !identityPattern.MatchString(raw) {
		return Identity{}, &envyerr.ConfigError{Field: "identity", Msg: "malformed identity " + raw}
	}
	dot := strings.IndexByte(raw, '.')
	at := strings.IndexByte(raw, '@')
	return Identity{
		Namespace: raw[:dot],
		Name:      raw[dot+1 : at],
		Revision:  raw[at+1:],
	}, nil
}
