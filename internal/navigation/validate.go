package navigation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/learnova/learnova/internal/access"
)

// ErrInvalidCatalog wraps structural catalog problems.
var ErrInvalidCatalog = errors.New("navigation: invalid catalog")

var catalogValidator = validator.New()

// ValidateCatalog checks field constraints and that keys and destinations are
// unique within the catalog.
func ValidateCatalog(c Catalog) error {
	if err := catalogValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, c.Audience, err)
	}
	keys := make(map[string]struct{})
	destinations := make(map[string]struct{})
	var dup error
	walk(c, func(item Item) {
		if dup != nil {
			return
		}
		if _, ok := keys[item.Key]; ok {
			dup = fmt.Errorf("%w: %s: duplicate key %q", ErrInvalidCatalog, c.Audience, item.Key)
			return
		}
		if _, ok := destinations[item.Destination]; ok {
			dup = fmt.Errorf("%w: %s: duplicate destination %q", ErrInvalidCatalog, c.Audience, item.Destination)
			return
		}
		keys[item.Key] = struct{}{}
		destinations[item.Destination] = struct{}{}
	})
	return dup
}

// ValidateCatalogs validates every catalog in cs.
func ValidateCatalogs(cs Catalogs) error {
	var errs []error
	for audience, c := range cs {
		if c.Audience != audience {
			errs = append(errs, fmt.Errorf("%w: catalog %q registered under %q", ErrInvalidCatalog, c.Audience, audience))
			continue
		}
		if err := ValidateCatalog(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnregisteredPermissions lists tokens referenced by c that are missing from
// the permission registry. Such tokens are never satisfied except by system
// users.
func UnregisteredPermissions(c Catalog) []string {
	seen := make(map[string]struct{})
	walk(c, func(item Item) {
		for _, token := range item.Requirement.Tokens() {
			if !access.IsRegistered(token) {
				seen[token] = struct{}{}
			}
		}
	})
	out := make([]string, 0, len(seen))
	for token := range seen {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

func walk(c Catalog, fn func(Item)) {
	var visit func(items []Item)
	visit = func(items []Item) {
		for _, item := range items {
			fn(item)
			visit(item.Children)
		}
	}
	for _, section := range c.Sections {
		visit(section.Items)
	}
}

// BadgeKeys lists the badge counters referenced by c.
func BadgeKeys(c Catalog) []string {
	seen := make(map[string]struct{})
	walk(c, func(item Item) {
		if item.BadgeKey != "" {
			seen[item.BadgeKey] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
