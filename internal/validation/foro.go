package validation

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	foroSlugRegex  = regexp.MustCompile(`^[a-z0-9-]{3,60}$`)
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
)

var reservedForoSlugs = map[string]struct{}{
	"admin":          {},
	"api":            {},
	"auth":           {},
	"foros":          {},
	"hilos":          {},
	"comentarios":    {},
	"notificaciones": {},
	"usuarios":       {},
	"media":          {},
	"ws":             {},
	"swagger":        {},
	"metrics":        {},
	"health":         {},
	"login":          {},
	"signup":         {},
}

// Slugify lower-cases name, strips accents and joins words with hyphens.
func Slugify(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))
	var b strings.Builder
	for _, r := range decomposed {
		// combining marks left over from decomposition
		if r >= 0x0300 && r <= 0x036f {
			continue
		}
		b.WriteRune(r)
	}
	slug := slugSeparators.ReplaceAllString(b.String(), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	return slug
}

// ValidateForoSlug validates slug format and reserved names.
func ValidateForoSlug(slug string) error {
	if !foroSlugRegex.MatchString(slug) {
		return errors.New("slug must be 3-60 characters and contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return errors.New("slug cannot start or end with a hyphen")
	}
	if _, exists := reservedForoSlugs[slug]; exists {
		return errors.New("slug is reserved")
	}
	return nil
}
