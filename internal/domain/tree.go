package domain

import "slices"

// NodeKind identifies the level of a node in the repository tree
type NodeKind int

const (
	NodeRoot NodeKind = iota
	NodeDateRange
	NodeCategory
	NodeSubcategory
	NodeBatch
	NodeDocument
)

// String returns a human-readable name for the kind
func (k NodeKind) String() string {
	switch k {
	case NodeRoot:
		return "root"
	case NodeDateRange:
		return "date range"
	case NodeCategory:
		return "category"
	case NodeSubcategory:
		return "subcategory"
	case NodeBatch:
		return "batch"
	case NodeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// TreeNode represents a node in the repository tree for navigation
type TreeNode struct {
	Kind       NodeKind
	Name       string
	RelPath    string // slash-separated, relative to the repository root
	Count      int    // files directly inside (leaves) or documents below (others)
	Children   []*TreeNode
	IsExpanded bool
	Loaded     bool
	Parent     *TreeNode
}

// IsLeaf reports whether the node is a directory that directly holds documents
func (n *TreeNode) IsLeaf() bool {
	return n.Kind == NodeSubcategory || n.Kind == NodeBatch
}

// Flatten returns all visible nodes in the tree (for list rendering)
func (n *TreeNode) Flatten() []*TreeNode {
	var result []*TreeNode
	n.flattenRecursive(&result)
	return result
}

func (n *TreeNode) flattenRecursive(result *[]*TreeNode) {
	*result = append(*result, n)
	if n.IsExpanded {
		for _, child := range n.Children {
			child.flattenRecursive(result)
		}
	}
}

// Depth returns the depth of this node in the tree
func (n *TreeNode) Depth() int {
	depth := 0
	current := n.Parent
	for current != nil {
		depth++
		current = current.Parent
	}
	return depth
}

// Toggle expands or collapses the node
func (n *TreeNode) Toggle() {
	n.IsExpanded = !n.IsExpanded
}

// Expand sets the node as expanded
func (n *TreeNode) Expand() {
	n.IsExpanded = true
}

// Collapse sets the node as collapsed
func (n *TreeNode) Collapse() {
	n.IsExpanded = false
}

// AddChild appends child and sets its parent
func (n *TreeNode) AddChild(child *TreeNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// SortChildren orders children by name, with documents ahead of the batch
// directories that share a leaf.
func (n *TreeNode) SortChildren() {
	slices.SortFunc(n.Children, func(a, b *TreeNode) int {
		if a.Kind != b.Kind {
			if a.Kind == NodeDocument {
				return -1
			}
			if b.Kind == NodeDocument {
				return 1
			}
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
}
