package spaces

import (
	"context"
	"math/rand"
	"strings"
	"unicode"
)

const (
	suffixChars        = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength       = 4
	maxShortcodeLength = 32
)

var reservedShortcodes = []string{"settings", "new", "all", "personal", "api", "admin"}

type ShortcodeChecker interface {
	ShortcodeExists(ctx context.Context, orgID, shortcode string) (bool, error)
}

// GenerateShortcode derives a URL-safe shortcode from a space name and makes
// it unique within the organization by appending a random suffix on
// collision.
func GenerateShortcode(ctx context.Context, orgID, name string, checker ShortcodeChecker) (string, error) {
	base := Slugify(name)
	if base == "" || isReserved(base) {
		base = "space"
		if b := Slugify(name); b != "" {
			base = b + "-space"
		}
	}

	exists, err := checker.ShortcodeExists(ctx, orgID, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		code := withSuffix(base, randomSuffix(suffixLength))

		exists, err := checker.ShortcodeExists(ctx, orgID, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrShortcodeExhausted
}

// Slugify lowercases s and collapses every run of non-alphanumeric runes into
// a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if b.Len() > 0 && !hyphen {
			b.WriteByte('-')
			hyphen = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxShortcodeLength {
		slug = strings.TrimRight(slug[:maxShortcodeLength], "-")
	}
	return slug
}

func withSuffix(base, suffix string) string {
	limit := maxShortcodeLength - len(suffix) - 1
	if len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	return base + "-" + suffix
}

func randomSuffix(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = suffixChars[rand.Intn(len(suffixChars))]
	}
	return string(b)
}

func isReserved(code string) bool {
	for _, r := range reservedShortcodes {
		if code == r {
			return true
		}
	}
	return false
}
