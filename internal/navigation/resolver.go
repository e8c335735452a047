package navigation

import (
	"context"
	"log/slog"

	"github.com/learnova/learnova/internal/access"
)

// Menu is the resolved navigation handed to the sidebar and mobile drawer.
type Menu struct {
	Audience Audience      `json:"audience"`
	Title    string        `json:"title"`
	Sections []MenuSection `json:"sections"`
}

// MenuSection is a visible section of a Menu.
type MenuSection struct {
	Title string     `json:"title"`
	Items []MenuItem `json:"items"`
}

// MenuItem is a visible navigation entry.
type MenuItem struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	Destination string     `json:"destination"`
	Icon        Icon       `json:"icon,omitempty"`
	BadgeCount  *int       `json:"badgeCount,omitempty"`
	Children    []MenuItem `json:"children,omitempty"`
}

// BadgeSource supplies counters shown next to menu items.
type BadgeSource interface {
	Counts(ctx context.Context, owner string, keys []string) (map[string]int, error)
}

// Recorder observes resolved menus.
type Recorder interface {
	RecordNavigation(audience string)
}

// Resolver selects and filters the catalog of the current caller.
type Resolver struct {
	catalogs Catalogs
	badges   BadgeSource
	metrics  Recorder
	logger   *slog.Logger
}

// NewResolver constructs a Resolver over the injected catalogs. badges and
// metrics are optional.
func NewResolver(catalogs Catalogs, badges BadgeSource, metrics Recorder, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalogs: catalogs, badges: badges, metrics: metrics, logger: logger}
}

// Catalog returns the unfiltered catalog for an audience.
func (r *Resolver) Catalog(audience Audience) (Catalog, bool) {
	c, ok := r.catalogs[audience]
	return c, ok
}

// Resolve builds the menu visible to m. owner scopes badge counters and may be
// empty, in which case no badges are attached. An unclassified caller gets an
// empty menu.
func (r *Resolver) Resolve(ctx context.Context, m *access.Model, owner string) Menu {
	audience := Classify(m)
	if r.metrics != nil {
		r.metrics.RecordNavigation(string(audience))
	}
	catalog, ok := r.catalogs[audience]
	if !ok {
		return Menu{Audience: audience, Sections: []MenuSection{}}
	}
	filtered := Filter(catalog, m)
	counts := r.badgeCounts(ctx, filtered, owner)

	menu := Menu{Audience: audience, Title: filtered.Title, Sections: make([]MenuSection, 0, len(filtered.Sections))}
	for _, section := range filtered.Sections {
		menu.Sections = append(menu.Sections, MenuSection{Title: section.Title, Items: toMenuItems(section.Items, counts)})
	}
	return menu
}

func (r *Resolver) badgeCounts(ctx context.Context, c Catalog, owner string) map[string]int {
	if r.badges == nil || owner == "" {
		return nil
	}
	var keys []string
	seen := make(map[string]struct{})
	walk(c, func(item Item) {
		if item.BadgeKey == "" {
			return
		}
		if _, ok := seen[item.BadgeKey]; ok {
			return
		}
		seen[item.BadgeKey] = struct{}{}
		keys = append(keys, item.BadgeKey)
	})
	if len(keys) == 0 {
		return nil
	}
	counts, err := r.badges.Counts(ctx, owner, keys)
	if err != nil {
		r.logger.Warn("navigation badge counts", slog.String("owner", owner), slog.Any("error", err))
		return nil
	}
	return counts
}

func toMenuItems(items []Item, counts map[string]int) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		mi := MenuItem{
			Key:         item.Key,
			Title:       item.Title,
			Destination: item.Destination,
			Icon:        item.Icon,
		}
		if n, ok := counts[item.BadgeKey]; ok && item.BadgeKey != "" && n > 0 {
			count := n
			mi.BadgeCount = &count
		}
		if len(item.Children) > 0 {
			mi.Children = toMenuItems(item.Children, counts)
		}
		out = append(out, mi)
	}
	return out
}
