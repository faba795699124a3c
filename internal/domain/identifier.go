package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// IdentifierKind distinguishes identifiers that participate in deduplication
// from purely descriptive ones.
type IdentifierKind string

const (
	// IdentifierCanonical identifiers define an item's real-world identity
	// and are matched during deduplication (e.g. an official ID number).
	IdentifierCanonical IdentifierKind = "canonical"
	// IdentifierContextual identifiers are descriptive metadata only.
	IdentifierContextual IdentifierKind = "contextual"
)

// Valid reports whether the kind is a known value.
func (k IdentifierKind) Valid() bool {
	return k == IdentifierCanonical || k == IdentifierContextual
}

// Identifier is a single (key, value) attribute attached to an item.
// Canonical identifiers participate in dedup matching; equality for that
// purpose is (namespace, key, value), case-normalized.
type Identifier struct {
	Key       string
	Value     string
	Kind      IdentifierKind
	Namespace string
}

// normalized returns the case-folded, trimmed dedup form "namespace:key=value".
func (i Identifier) normalized() string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return fmt.Sprintf("%s:%s=%s", norm(i.Namespace), norm(i.Key), norm(i.Value))
}

// EqualCanonical reports whether two identifiers match for dedup purposes.
func (i Identifier) EqualCanonical(other Identifier) bool {
	return i.normalized() == other.normalized()
}

// CanonicalOf filters the canonical identifiers out of a list.
func CanonicalOf(ids []Identifier) []Identifier {
	var out []Identifier
	for _, id := range ids {
		if id.Kind == IdentifierCanonical {
			out = append(out, id)
		}
	}
	return out
}

// ContextualOf filters the contextual identifiers out of a list.
func ContextualOf(ids []Identifier) []Identifier {
	var out []Identifier
	for _, id := range ids {
		if id.Kind == IdentifierContextual {
			out = append(out, id)
		}
	}
	return out
}

// HasCanonicalKey reports whether the list contains a canonical identifier
// with the given key (case-insensitive).
func HasCanonicalKey(ids []Identifier, key string) bool {
	want := strings.ToLower(strings.TrimSpace(key))
	for _, id := range ids {
		if id.Kind == IdentifierCanonical && strings.ToLower(strings.TrimSpace(id.Key)) == want {
			return true
		}
	}
	return false
}

// Fingerprint computes the canonical identity key for a set of identifiers:
// the sorted, case-normalized set of namespaced canonical (key, value) pairs,
// hashed to a stable hex digest. Two items with the same fingerprint are the
// same real-world entity for dedup purposes.
//
// Returns the empty string when no canonical identifiers are present.
func Fingerprint(ids []Identifier) string {
	canonical := CanonicalOf(ids)
	if len(canonical) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(canonical))
	seen := make(map[string]struct{}, len(canonical))
	for _, id := range canonical {
		p := id.normalized()
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)

	sum := sha256.Sum256([]byte(strings.Join(pairs, "|")))
	return hex.EncodeToString(sum[:])
}
