package gbm

// node is one vertex of a regression tree fitted to gradient/hessian sums.
type node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Value     float64 `json:"value"`
	Left      *node   `json:"left,omitempty"`
	Right     *node   `json:"right,omitempty"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a depth-limited regression tree over one-hot policy features.
type Tree struct {
	Root *node `json:"root"`
}

// Predict walks the tree for one encoded feature row.
func (t *Tree) Predict(row []float64) float64 {
	n := t.Root
	for !n.Leaf {
		if row[n.Feature] < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// treeBuilder grows a tree greedily on the second-order split gain.
type treeBuilder struct {
	features  [][]float64
	grad      []float64
	hess      []float64
	maxDepth  int
	regLambda float64
	minHess   float64
}

func (b *treeBuilder) build(rows []int, depth int) *node {
	gSum, hSum := 0.0, 0.0
	for _, i := range rows {
		gSum += b.grad[i]
		hSum += b.hess[i]
	}
	leafValue := -gSum / (hSum + b.regLambda)

	if depth >= b.maxDepth || len(rows) < 2 {
		return &node{Leaf: true, Value: leafValue}
	}

	bestGain := 0.0
	bestFeature := -1
	parentScore := gSum * gSum / (hSum + b.regLambda)

	nFeatures := len(b.features[rows[0]])
	for f := 0; f < nFeatures; f++ {
		gl, hl := 0.0, 0.0
		for _, i := range rows {
			if b.features[i][f] < 0.5 {
				gl += b.grad[i]
				hl += b.hess[i]
			}
		}
		gr := gSum - gl
		hr := hSum - hl
		if hl < b.minHess || hr < b.minHess {
			continue
		}
		gain := gl*gl/(hl+b.regLambda) + gr*gr/(hr+b.regLambda) - parentScore
		if gain > bestGain {
			bestGain = gain
			bestFeature = f
		}
	}

	if bestFeature < 0 {
		return &node{Leaf: true, Value: leafValue}
	}

	var left, right []int
	for _, i := range rows {
		if b.features[i][bestFeature] < 0.5 {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		Feature:   bestFeature,
		Threshold: 0.5,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}
