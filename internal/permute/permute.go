// Package permute builds look-alike candidates for a root domain.
package permute

import "strings"

// Generate returns typosquat candidates for root in a fixed order:
// numeric suffix, l/i homoglyphs, o homoglyph, hyphenated suffix, "secure-"
// prefix. Roots without a dot, or with an empty first label or suffix, yield
// nil. A candidate may equal root when a substitution matched nothing.
func Generate(root string) []string {
	root = strings.TrimSpace(root)
	name, suffix, ok := strings.Cut(root, ".")
	if !ok || name == "" || suffix == "" {
		return nil
	}

	digits := strings.NewReplacer("l", "1", "i", "1")
	zeros := strings.NewReplacer("o", "0")

	return []string{
		name + "1." + suffix,
		digits.Replace(name) + "." + suffix,
		zeros.Replace(name) + "." + suffix,
		name + "-" + strings.ReplaceAll(suffix, ".", "-") + ".com",
		"secure-" + name + "." + suffix,
	}
}
