// Package tenant defines tenant identity and configuration contracts.
// Tenants are addressed by a canonical 24-character hex ID; older
// integrations still send the small integer IDs the platform used before
// the document-store migration, and both forms stay accepted.
package tenant

import (
	"fmt"
	"strconv"
	"strings"
)

// CanonicalIDLength is the byte length of a canonical tenant ID string.
const CanonicalIDLength = 24

// Identity is a parsed tenant reference: exactly one of the canonical
// hex form or the legacy numeric form.
type Identity struct {
	canonical string
	legacy    int64
	isLegacy  bool
}

// ParseReference classifies a raw tenant reference. A 24-char lowercase
// hex token is canonical; a positive decimal integer is legacy; anything
// else is malformed input.
func ParseReference(raw string) (Identity, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return Identity{}, fmt.Errorf("empty tenant reference")
	}
	if IsCanonicalID(ref) {
		return Identity{canonical: ref}, nil
	}
	if n, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if n <= 0 {
			return Identity{}, fmt.Errorf("invalid legacy tenant id %d", n)
		}
		return Identity{legacy: n, isLegacy: true}, nil
	}
	return Identity{}, fmt.Errorf("malformed tenant reference %q", raw)
}

// IsCanonicalID reports whether s has the canonical 24-char lowercase
// hex shape.
func IsCanonicalID(s string) bool {
	if len(s) != CanonicalIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsLegacy reports whether the reference used the numeric form.
func (id Identity) IsLegacy() bool { return id.isLegacy }

// Canonical returns the canonical ID and true when the reference was
// already canonical.
func (id Identity) Canonical() (string, bool) {
	if id.isLegacy {
		return "", false
	}
	return id.canonical, true
}

// Legacy returns the legacy numeric ID and true when the reference used
// the numeric form.
func (id Identity) Legacy() (int64, bool) {
	if !id.isLegacy {
		return 0, false
	}
	return id.legacy, true
}

// String renders the reference in the form it was given.
func (id Identity) String() string {
	if id.isLegacy {
		return strconv.FormatInt(id.legacy, 10)
	}
	return id.canonical
}
