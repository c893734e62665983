package model

// A Node represents a splitting decision of the form "x[Feature] < Threshold ?"
// in a decision tree
type Node struct {
	// Feature indicates which feature is used in this splitting decision
	Feature int `json:"feature"`
	// Threshold indicates the cutoff value between the left and right subtrees
	Threshold float64 `json:"threshold"`
	// Gain is the squared-error reduction achieved by this split during training
	Gain float64 `json:"gain"`
	// Left is the index of the node or leaf representing the left subtree
	Left int `json:"left"`
	// LeftIsLeaf indicates whether the left subtree is a leaf
	LeftIsLeaf bool `json:"left_is_leaf"`
	// Right is the index of the node or leaf representing the right subtree
	Right int `json:"right"`
	// RightIsLeaf indicates whether the right subtree is a leaf
	RightIsLeaf bool `json:"right_is_leaf"`
}

// A Tree is a mapping from a feature space to real numbers implemented with a
// decision tree
type Tree struct {
	// Nodes is a flat list of all nodes in the tree
	Nodes []Node `json:"nodes"`
	// Outputs contains the output for each leaf
	Outputs []float64 `json:"outputs"`
	// FeatureCount is the length of feature vectors processed by this tree
	FeatureCount int `json:"feature_count"`
	// Depth is the maximum depth of any leaf in the tree
	Depth int `json:"depth"`
}

// Leaf drops a feature vector down the tree and returns the index of the leaf
// that it ends up in
func (t *Tree) Leaf(x []float64) int {
	if len(x) != t.FeatureCount {
		panic("feature vector had incorrect length")
	}
	if t.Nodes == nil {
		panic("tree not initialized")
	}
	cur := t.Nodes[0]
	for i := 0; i < t.Depth; i++ {
		if x[cur.Feature] < cur.Threshold {
			if cur.LeftIsLeaf {
				return cur.Left
			}
			cur = t.Nodes[cur.Left]
		} else {
			if cur.RightIsLeaf {
				return cur.Right
			}
			cur = t.Nodes[cur.Right]
		}
	}
	panic("tree traversal did not terminate")
}

// Evaluate drops a feature vector down the tree and returns the output
// associated with the leaf it ends up in.
func (t *Tree) Evaluate(x []float64) float64 {
	return t.Outputs[t.Leaf(x)]
}
