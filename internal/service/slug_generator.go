package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

const (
	slugBaseMaxLength = 50
	slugTimeLayout    = "20060102150405"
)

var (
	slugWhitespace = regexp.MustCompile(`[\s\p{Z}]+`)
	slugInvalid    = regexp.MustCompile(`[^\w-]+`)
)

type slugStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// SlugGenerator derives unique, URL-safe document slugs.
type SlugGenerator struct {
	store slugStore
	now   func() time.Time
}

// NewSlugGenerator constructs a generator backed by store.
func NewSlugGenerator(store slugStore) *SlugGenerator {
	return &SlugGenerator{store: store, now: time.Now}
}

// NormalizeSlugBase lower-cases name, hyphenates whitespace runs, drops
// anything that is not a word character or hyphen and caps the length.
func NormalizeSlugBase(name string) string {
	base := strings.ToLower(name)
	base = slugWhitespace.ReplaceAllString(base, "-")
	base = slugInvalid.ReplaceAllString(base, "")
	if len(base) > slugBaseMaxLength {
		base = base[:slugBaseMaxLength]
	}
	return base
}

// Generate returns "{base}-{YYYYMMDDHHMMSS}", suffixed with -1, -2, ... until
// the store reports the candidate as free.
func (g *SlugGenerator) Generate(ctx context.Context, name string) (string, error) {
	prefix := NormalizeSlugBase(name) + "-" + g.now().UTC().Format(slugTimeLayout)

	candidate := prefix
	for n := 1; ; n++ {
		exists, err := g.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", appErrors.Internal(err, "failed to check document slug")
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", prefix, n)
	}
}
