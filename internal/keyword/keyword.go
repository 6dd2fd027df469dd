// Package keyword normalizes keywords and derives storage-safe slugs from them.
package keyword

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/seopress/internal/apperr"
)

// Normalize trims, lowercases, and collapses inner whitespace.
// It fails with apperr.ErrInvalidKeyword when nothing is left.
func Normalize(raw string) (string, error) {
	kw := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if kw == "" {
		return "", apperr.ErrInvalidKeyword
	}
	return kw, nil
}

// Slug returns a lowercase [a-z0-9-] form of kw with diacritics folded.
// Keywords without any slug-able rune get a stable hash-based slug.
func Slug(kw string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), kw)
	if err != nil {
		folded = kw
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "kw-" + hash(kw)
	}
	if len(slug) > 80 {
		slug = strings.TrimSuffix(slug[:80], "-")
	}
	return slug
}

// Key returns an id fragment for kw: its slug followed by a hash of the
// exact keyword. Keywords that fold to the same slug ("café" and "cafe",
// "c++ tips" and "c tips") still get distinct keys.
func Key(kw string) string {
	return Slug(kw) + "-" + hash(kw)
}

func hash(kw string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kw))
	return fmt.Sprintf("%08x", h.Sum32())
}

// Title title-cases kw for headings ("wireless earbuds" -> "Wireless Earbuds").
func Title(kw string) string {
	return cases.Title(language.English).String(kw)
}
