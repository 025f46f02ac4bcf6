package service

import "github.com/mmynk/bookkeeper/internal/models"

// Categories link to their parent by name, so the helpers below work on a
// snapshot of the category list. A visited set stops traversal on cycles.

// Parent returns the category named by c.Parent, if present in list.
func Parent(list []models.Category, c models.Category) (models.Category, bool) {
	if c.Parent == nil {
		return models.Category{}, false
	}
	return byName(list, *c.Parent)
}

// Ancestors returns the chain of parents of c, nearest first.
func Ancestors(list []models.Category, c models.Category) []models.Category {
	var chain []models.Category
	seen := map[string]bool{c.Name: true}
	for {
		parent, ok := Parent(list, c)
		if !ok || seen[parent.Name] {
			return chain
		}
		seen[parent.Name] = true
		chain = append(chain, parent)
		c = parent
	}
}

// Children returns the categories whose parent is c.
func Children(list []models.Category, c models.Category) []models.Category {
	var children []models.Category
	for _, other := range list {
		if other.Parent != nil && *other.Parent == c.Name && other.Pk != c.Pk {
			children = append(children, other)
		}
	}
	return children
}

// Descendants returns every category below c, breadth first.
func Descendants(list []models.Category, c models.Category) []models.Category {
	var out []models.Category
	seen := map[int64]bool{c.Pk: true}
	queue := []models.Category{c}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range Children(list, next) {
			if seen[child.Pk] {
				continue
			}
			seen[child.Pk] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func byName(list []models.Category, name string) (models.Category, bool) {
	for _, c := range list {
		if c.Name == name {
			return c, true
		}
	}
	return models.Category{}, false
}
