package tree

import (
	"sort"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
)

// Build reconstructs the full category hierarchy from the nested root
// payload and the flat parent-pointer entries of a search response. Children
// are unioned by id so duplicate flat entries never produce duplicate
// siblings, and a node is never attached below itself.
//
// Flat-derived nodes carry no eco flag of their own; they inherit it from the
// nearest ancestor that set one.
func Build(roots []domain.Category, flat []domain.CategoryTreeEntry) []domain.Category {
	out := make([]domain.Category, 0, len(roots))
	for _, root := range roots {
		ancestors := make(map[int64]struct{})
		out = append(out, attach(root, flat, ancestors))
	}
	return out
}

func attach(node domain.Category, flat []domain.CategoryTreeEntry, ancestors map[int64]struct{}) domain.Category {
	ancestors[node.ID] = struct{}{}
	defer delete(ancestors, node.ID)

	result := domain.Category{
		ID:    node.ID,
		Title: node.Title,
		Adult: node.Adult,
		Eco:   node.Eco,
	}

	attached := make(map[int64]struct{})
	for _, child := range node.Children {
		if _, cyclic := ancestors[child.ID]; cyclic {
			continue
		}
		if _, dup := attached[child.ID]; dup {
			continue
		}
		attached[child.ID] = struct{}{}
		result.Children = append(result.Children, attach(child, flat, ancestors))
	}

	for _, synth := range flatChildren(node.ID, flat) {
		if _, cyclic := ancestors[synth.ID]; cyclic {
			continue
		}
		if _, dup := attached[synth.ID]; dup {
			continue
		}
		attached[synth.ID] = struct{}{}
		synth.Eco = node.Eco
		result.Children = append(result.Children, attach(synth, flat, ancestors))
	}

	return result
}

// flatChildren collects the deduplicated flat entries whose parent is id, in
// stable id order.
func flatChildren(id int64, flat []domain.CategoryTreeEntry) []domain.Category {
	byID := make(map[int64]domain.Category)
	for _, entry := range flat {
		cat := entry.Category
		if cat.Parent == nil || cat.Parent.ID != id {
			continue
		}
		if _, ok := byID[cat.ID]; ok {
			continue
		}
		byID[cat.ID] = domain.Category{
			ID:    cat.ID,
			Title: cat.Title,
			Adult: cat.Adult,
		}
	}

	children := make([]domain.Category, 0, len(byID))
	for _, child := range byID {
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children
}

// CollectIDs returns every category id in the given trees, depth first.
func CollectIDs(nodes []domain.Category) []int64 {
	var ids []int64
	var walk func(node domain.Category)
	walk = func(node domain.Category) {
		ids = append(ids, node.ID)
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, node := range nodes {
		walk(node)
	}
	return ids
}

// ChildMap maps every category id in the given trees to its direct child
// ids. The orchestrator uses it to launch child crawls after a category
// completes.
func ChildMap(nodes []domain.Category) map[int64][]int64 {
	children := make(map[int64][]int64)
	var walk func(node domain.Category)
	walk = func(node domain.Category) {
		ids := make([]int64, 0, len(node.Children))
		for _, child := range node.Children {
			ids = append(ids, child.ID)
			walk(child)
		}
		children[node.ID] = ids
	}
	for _, node := range nodes {
		walk(node)
	}
	return children
}
