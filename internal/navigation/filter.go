package navigation

import "github.com/learnova/learnova/internal/access"

// Filter returns the part of c that m may see. Author order is preserved,
// sections left without items are dropped and c itself is never modified.
func Filter(c Catalog, m *access.Model) Catalog {
	out := Catalog{Audience: c.Audience, Title: c.Title}
	for _, section := range c.Sections {
		items := filterItems(section.Items, m)
		if len(items) == 0 {
			continue
		}
		out.Sections = append(out.Sections, Section{Title: section.Title, Items: items})
	}
	return out
}

func filterItems(items []Item, m *access.Model) []Item {
	var visible []Item
	for _, item := range items {
		if kept, ok := filterItem(item, m); ok {
			visible = append(visible, kept)
		}
	}
	return visible
}

// filterItem applies the visibility rule bottom-up. A group is visible only
// through its children; its own requirement is not consulted.
func filterItem(item Item, m *access.Model) (Item, bool) {
	if item.IsLeaf() {
		if !item.Requirement.Allows(m) {
			return Item{}, false
		}
		item.Children = nil
		return item, true
	}
	children := filterItems(item.Children, m)
	if len(children) == 0 {
		return Item{}, false
	}
	item.Children = children
	return item, true
}
