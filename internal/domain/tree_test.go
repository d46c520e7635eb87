package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeNode_FlattenRespectsExpansion(t *testing.T) {
	root := &TreeNode{Kind: NodeRoot, Name: "repo", IsExpanded: true}
	dr := &TreeNode{Kind: NodeDateRange, Name: "2015-2018"}
	cat := &TreeNode{Kind: NodeCategory, Name: "case_law"}
	root.AddChild(dr)
	dr.AddChild(cat)

	assert.Len(t, root.Flatten(), 2)

	dr.Toggle()
	nodes := root.Flatten()
	assert.Len(t, nodes, 3)
	assert.Equal(t, 2, nodes[2].Depth())

	dr.Collapse()
	assert.Len(t, root.Flatten(), 2)
}

func TestTreeNode_SortChildren(t *testing.T) {
	leaf := &TreeNode{Kind: NodeSubcategory, Name: "contracts"}
	leaf.AddChild(&TreeNode{Kind: NodeBatch, Name: "batch_001"})
	leaf.AddChild(&TreeNode{Kind: NodeDocument, Name: "b.json"})
	leaf.AddChild(&TreeNode{Kind: NodeDocument, Name: "a.json"})

	leaf.SortChildren()

	assert.Equal(t, "a.json", leaf.Children[0].Name)
	assert.Equal(t, "b.json", leaf.Children[1].Name)
	assert.Equal(t, "batch_001", leaf.Children[2].Name)
	assert.True(t, leaf.IsLeaf())
}
