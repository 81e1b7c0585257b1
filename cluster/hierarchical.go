package cluster

import (
	"fmt"
	"github.com/rotblauer/trackclust/params"
	"gonum.org/v1/gonum/mat"
	"math"
)

type Linkage string

const (
	LinkageSingle   Linkage = "single"
	LinkageComplete Linkage = "complete"
	LinkageAverage  Linkage = "average"
	LinkageWard     Linkage = "ward"
)

func ParseLinkage(s string) (Linkage, error) {
	switch l := Linkage(s); l {
	case LinkageSingle, LinkageComplete, LinkageAverage, LinkageWard:
		return l, nil
	}
	return "", fmt.Errorf("%w: unknown linkage %q", params.ErrInvalidConfig, s)
}

// Hierarchical is agglomerative clustering with Lance-Williams updates.
// It merges the closest pair of clusters, the lowest index pair on ties,
// until NClusters remain. It never labels noise.
//
// Ward works on squared distances; over a non-euclidean matrix it is an approximation.
type Hierarchical struct {
	NClusters int
	Linkage   Linkage
}

var _ Clusterer = (*Hierarchical)(nil)

func (c *Hierarchical) Fit(rows [][]float64) ([]int, error) {
	d, err := standardDistances(rows)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return []int{}, nil
	}
	return c.FitDistances(d)
}

func (c *Hierarchical) FitDistances(d mat.Symmetric) ([]int, error) {
	if c.NClusters < 1 {
		return nil, fmt.Errorf("%w: n_clusters=%d", params.ErrInvalidConfig, c.NClusters)
	}
	if _, err := ParseLinkage(string(c.Linkage)); err != nil {
		return nil, err
	}
	if d == nil {
		return []int{}, nil
	}
	n := d.SymmetricDim()

	work := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := d.At(i, j)
			if c.Linkage == LinkageWard {
				v *= v
			}
			work.SetSym(i, j, v)
		}
	}

	// root[i] is the representative cluster of point i; representatives stay active.
	root := make([]int, n)
	size := make([]float64, n)
	active := make([]bool, n)
	for i := range root {
		root[i], size[i], active[i] = i, 1, true
	}

	for remaining := n; remaining > c.NClusters; remaining-- {
		a, b := closestPair(work, active)
		for k := 0; k < n; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			work.SetSym(a, k, c.update(work.At(k, a), work.At(k, b), work.At(a, b), size[a], size[b], size[k]))
		}
		size[a] += size[b]
		active[b] = false
		for i := range root {
			if root[i] == b {
				root[i] = a
			}
		}
	}

	// Number clusters by first appearance.
	ids := map[int]int{}
	labels := make([]int, n)
	for i, r := range root {
		id, ok := ids[r]
		if !ok {
			id = len(ids)
			ids[r] = id
		}
		labels[i] = id
	}
	return labels, nil
}

// closestPair scans active pairs in index order; a < b.
func closestPair(d *mat.SymDense, active []bool) (int, int) {
	best, a, b := math.Inf(1), -1, -1
	for i := range active {
		if !active[i] {
			continue
		}
		for j := i + 1; j < len(active); j++ {
			if !active[j] {
				continue
			}
			if v := d.At(i, j); v < best || a < 0 {
				best, a, b = v, i, j
			}
		}
	}
	return a, b
}

// update is the Lance-Williams distance from k to the union of clusters i and j.
func (c *Hierarchical) update(dki, dkj, dij, ni, nj, nk float64) float64 {
	var v float64
	switch c.Linkage {
	case LinkageSingle:
		v = math.Min(dki, dkj)
	case LinkageComplete:
		v = math.Max(dki, dkj)
	case LinkageAverage:
		v = (ni*dki + nj*dkj) / (ni + nj)
	case LinkageWard:
		v = ((ni+nk)*dki + (nj+nk)*dkj - nk*dij) / (ni + nj + nk)
	}
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}
