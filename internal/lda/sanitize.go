package lda

import "strings"

// fallbackFilename is used when sanitization strips a name down to nothing.
const fallbackFilename = "output"

// SafeFilename reduces an arbitrary, possibly hostile filename to a safe
// relative name: directory components are dropped, every rune outside
// [A-Za-z0-9._-] becomes '_', and an empty result falls back to "output".
// Idempotent. This is the sole defense against path traversal for artifact
// names suggested by the remote service, so it is applied to every hint
// before a filesystem path is built from it.
func SafeFilename(name string) string {
	name = strings.TrimSpace(name)

	// Keep only the final path segment, accepting either separator so a
	// Windows-style hint cannot smuggle directories through on Linux.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if strings.Trim(out, ".") == "" {
		// "..", "." and the empty string must not survive: a dot-only name is
		// either a traversal segment or unusable as a filename.
		return fallbackFilename
	}
	return out
}
