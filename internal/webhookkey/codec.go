// Package webhookkey packs walker routing parameters into a single opaque,
// URL-safe token and inverts it exactly. The transform is a secret-derived
// letter substitution over a compact JSON payload; it is reversible by anyone
// holding the secret and is NOT a cryptographic protection. Protected routes
// must rely on real authentication, not on key opacity.
package webhookkey

import (
	"encoding/json"
	"net/url"
	"strings"
)

const plainAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RoutingKey is the tuple a webhook key decodes to. A key is usable only when
// all three fields are non-empty; anything less is malformed, not partially
// usable.
type RoutingKey struct {
	AgentID    string `json:"agent_id"`
	ModuleRoot string `json:"module_root"`
	Walker     string `json:"walker"`
}

// Valid reports whether every routing field is present.
func (k RoutingKey) Valid() bool {
	return k.AgentID != "" && k.ModuleRoot != "" && k.Walker != ""
}

// DeriveAlphabet builds the 52-letter substitution alphabet from the secret:
// the secret's lowercase form followed by its uppercase form, first occurrence
// of each letter kept in order, then the unused English letters appended in
// natural order (lowercase block, then uppercase). Identical secret, identical
// alphabet; the result is always a permutation of a-z A-Z.
func DeriveAlphabet(secret string) string {
	seed := strings.ToLower(secret) + strings.ToUpper(secret)

	seen := make(map[rune]bool, 52)
	var derived strings.Builder
	derived.Grow(52)
	for _, r := range seed {
		if isASCIILetter(r) && !seen[r] {
			seen[r] = true
			derived.WriteRune(r)
		}
	}
	for _, r := range plainAlphabet {
		if !seen[r] {
			derived.WriteRune(r)
		}
	}
	return derived.String()
}

// Encode serializes the routing tuple as compact JSON, substitutes letters
// through the secret-derived alphabet and percent-encodes the result for use
// as a URL path segment. Non-letter characters pass through the substitution
// untouched.
func Encode(secret, agentID, moduleRoot, walker string) string {
	payload, err := json.Marshal(RoutingKey{
		AgentID:    agentID,
		ModuleRoot: moduleRoot,
		Walker:     walker,
	})
	if err != nil {
		// RoutingKey marshals unconditionally; kept for completeness.
		return ""
	}
	substituted := translate(string(payload), plainAlphabet, DeriveAlphabet(secret))
	return url.PathEscape(substituted)
}

// Decode inverts Encode with the same secret. Any failure along the way, a
// percent-decode error, substitution output that is not JSON, or a tuple with
// an empty field, yields the zero key and false. Decode never panics past the
// boundary; callers treat every false identically as a malformed key.
func Decode(secret, key string) (RoutingKey, bool) {
	unescaped, err := url.PathUnescape(key)
	if err != nil {
		return RoutingKey{}, false
	}

	plain := translate(unescaped, DeriveAlphabet(secret), plainAlphabet)

	var decoded RoutingKey
	if err := json.Unmarshal([]byte(plain), &decoded); err != nil {
		return RoutingKey{}, false
	}
	if !decoded.Valid() {
		return RoutingKey{}, false
	}
	return decoded, true
}

func translate(s, from, to string) string {
	table := make(map[rune]rune, len(from))
	fromRunes := []rune(from)
	toRunes := []rune(to)
	for i := range fromRunes {
		table[fromRunes[i]] = toRunes[i]
	}
	return strings.Map(func(r rune) rune {
		if mapped, ok := table[r]; ok {
			return mapped
		}
		return r
	}, s)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
