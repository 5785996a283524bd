package category

import (
	"sort"

	"github.com/google/uuid"
)

// Node is a category with its attached children.
type Node struct {
	Category *Category `json:"category"`
	Children []*Node   `json:"children"`
}

// Index is a parent to children adjacency map over a flat category list.
type Index struct {
	byID     map[uuid.UUID]*Category
	children map[uuid.UUID][]*Category
	roots    []*Category
}

func lessCategory(a, b *Category) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.Name < b.Name
}

// NewIndex builds the adjacency map in one pass. Categories without a parent,
// or whose parent is not in flat, are roots.
func NewIndex(flat []*Category) *Index {
	idx := &Index{
		byID:     make(map[uuid.UUID]*Category, len(flat)),
		children: make(map[uuid.UUID][]*Category),
	}
	for _, c := range flat {
		idx.byID[c.ID] = c
	}
	for _, c := range flat {
		if c.ParentID == nil {
			idx.roots = append(idx.roots, c)
			continue
		}
		if _, ok := idx.byID[*c.ParentID]; !ok {
			idx.roots = append(idx.roots, c)
			continue
		}
		idx.children[*c.ParentID] = append(idx.children[*c.ParentID], c)
	}

	sort.SliceStable(idx.roots, func(i, j int) bool { return lessCategory(idx.roots[i], idx.roots[j]) })
	for _, kids := range idx.children {
		sort.SliceStable(kids, func(i, j int) bool { return lessCategory(kids[i], kids[j]) })
	}
	return idx
}

func (idx *Index) Get(id uuid.UUID) (*Category, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// Tree attaches every node reachable from a root exactly once. Nodes that
// only sit on a cycle are left out.
func (idx *Index) Tree() []*Node {
	visited := make(map[uuid.UUID]bool, len(idx.byID))
	roots := make([]*Node, 0, len(idx.roots))
	queue := make([]*Node, 0, len(idx.byID))

	for _, c := range idx.roots {
		if visited[c.ID] {
			continue
		}
		visited[c.ID] = true
		n := &Node{Category: c, Children: []*Node{}}
		roots = append(roots, n)
		queue = append(queue, n)
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, child := range idx.children[n.Category.ID] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			cn := &Node{Category: child, Children: []*Node{}}
			n.Children = append(n.Children, cn)
			queue = append(queue, cn)
		}
	}
	return roots
}

// Descendants returns every category below id, breadth first.
func (idx *Index) Descendants(id uuid.UUID) []uuid.UUID {
	visited := map[uuid.UUID]bool{id: true}
	out := []uuid.UUID{}
	queue := []uuid.UUID{id}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range idx.children[cur] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			out = append(out, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return out
}

// Ancestors follows parent pointers from id and returns the chain root first.
// The walk ends at a missing parent or a category already seen.
func (idx *Index) Ancestors(id uuid.UUID) []*Category {
	c, ok := idx.byID[id]
	if !ok {
		return nil
	}

	seen := map[uuid.UUID]bool{id: true}
	var chain []*Category
	for c.ParentID != nil {
		parent, ok := idx.byID[*c.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		c = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// WouldCycle reports whether making newParent the parent of id would put id
// on its own ancestor chain.
func (idx *Index) WouldCycle(id, newParent uuid.UUID) bool {
	if id == newParent {
		return true
	}
	if newParent == uuid.Nil {
		return false
	}

	seen := map[uuid.UUID]bool{}
	cur := newParent
	for {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true

		c, ok := idx.byID[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
}

// BuildTree nests a flat category list under its roots.
func BuildTree(flat []*Category) []*Node {
	return NewIndex(flat).Tree()
}
