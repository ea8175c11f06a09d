// Package hierarchy rebuilds publication trees from a flat result set.
package hierarchy

import (
	"ignist/internal/models"
)

// Forest is the result of Build. Every input id is reachable from Roots
// exactly once, except ids listed in Duplicates.
type Forest struct {
	Roots []models.Publication

	// Orphans are publications whose parent is not in the input. They are
	// promoted to roots.
	Orphans []string
	// Cycles are publications promoted to roots to break a parent cycle,
	// one member per cycle. Publications hanging off a cycle stay attached
	// to their parent.
	Cycles []string
	// Duplicates are repeated ids; only the first occurrence is kept.
	Duplicates []string
}

// Build links every publication to its parent by ParentID. The input is not
// modified; returned nodes are copies that own their ChildPublications.
// Siblings keep input order.
func Build(pubs []models.Publication) Forest {
	var f Forest

	index := make(map[string]int, len(pubs))
	nodes := make([]int, 0, len(pubs))
	for i := range pubs {
		id := pubs[i].ID
		if _, seen := index[id]; seen {
			f.Duplicates = append(f.Duplicates, id)
			continue
		}
		index[id] = i
		nodes = append(nodes, i)
	}

	children := make(map[string][]int, len(nodes))
	for _, i := range nodes {
		parent := pubs[i].ParentID
		if parent == "" {
			continue
		}
		if _, ok := index[parent]; ok {
			children[parent] = append(children[parent], i)
		}
	}

	visited := make(map[string]bool, len(nodes))

	var attach func(i int) models.Publication
	attach = func(i int) models.Publication {
		visited[pubs[i].ID] = true

		node := pubs[i]
		node.ChildPublications = nil
		for _, c := range children[node.ID] {
			if visited[pubs[c].ID] {
				continue
			}
			node.ChildPublications = append(node.ChildPublications, attach(c))
		}
		return node
	}

	for _, i := range nodes {
		p := pubs[i]
		switch {
		case p.ParentID == "":
		case p.ParentID == p.ID:
			continue
		default:
			if _, ok := index[p.ParentID]; ok {
				continue
			}
			f.Orphans = append(f.Orphans, p.ID)
		}
		f.Roots = append(f.Roots, attach(i))
	}

	// What is left hangs off a parent cycle. Every parent of an unvisited
	// node is present and unvisited, so walking up must revisit a node of
	// the cycle itself.
	for _, i := range nodes {
		if visited[pubs[i].ID] {
			continue
		}
		onPath := map[string]bool{}
		cur := i
		for !onPath[pubs[cur].ID] {
			onPath[pubs[cur].ID] = true
			cur = index[pubs[cur].ParentID]
		}
		f.Cycles = append(f.Cycles, pubs[cur].ID)
		f.Roots = append(f.Roots, attach(cur))
	}

	return f
}

// Count returns the number of publications in the forest.
func Count(roots []models.Publication) int {
	n := 0
	for i := range roots {
		n += 1 + Count(roots[i].ChildPublications)
	}
	return n
}

// IsDescendant reports whether candidate sits below id in the tree implied
// by pubs. It terminates on cyclic data.
func IsDescendant(pubs []models.Publication, id, candidate string) bool {
	parents := make(map[string]string, len(pubs))
	for _, p := range pubs {
		if _, ok := parents[p.ID]; !ok {
			parents[p.ID] = p.ParentID
		}
	}

	seen := map[string]bool{}
	for cur := parents[candidate]; cur != "" && !seen[cur]; cur = parents[cur] {
		if cur == id {
			return true
		}
		seen[cur] = true
	}
	return false
}
