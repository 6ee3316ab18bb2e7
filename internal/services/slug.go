package services

import (
	"context"
	"fmt"

	"storefront/internal/common"

	"github.com/gosimple/slug"
)

const maxSlugAttempts = 50

// uniqueSlug slugifies base and appends -2, -3, ... until exists reports a free slug
func uniqueSlug(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	root := slug.Make(base)
	if root == "" {
		return "", fmt.Errorf("cannot build a slug from %q: %w", base, common.ErrInvalidInput)
	}
	candidate := root
	for i := 2; i <= maxSlugAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, i)
	}
	return "", fmt.Errorf("no free slug for %q: %w", base, common.ErrConflict)
}

// resolveSlug normalizes an explicit slug or derives a unique one from name
func resolveSlug(ctx context.Context, explicit, name string, exists func(context.Context, string) (bool, error)) (string, error) {
	if explicit != "" {
		s := slug.Make(explicit)
		if s == "" || !slug.IsSlug(s) {
			return "", fmt.Errorf("invalid slug %q: %w", explicit, common.ErrInvalidInput)
		}
		return s, nil
	}
	return uniqueSlug(ctx, name, exists)
}
