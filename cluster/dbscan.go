package cluster

import (
	"fmt"
	"github.com/rotblauer/trackclust/params"
	"gonum.org/v1/gonum/mat"
)

// DBSCAN is density-based clustering.
// Neighborhoods include the point itself, so MinSamples 1 leaves no noise.
type DBSCAN struct {
	Eps        float64
	MinSamples int
}

var _ Clusterer = (*DBSCAN)(nil)

func (c *DBSCAN) Fit(rows [][]float64) ([]int, error) {
	d, err := standardDistances(rows)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return []int{}, nil
	}
	return c.FitDistances(d)
}

// FitDistances labels clusters 0, 1, 2... in the order their first core point is
// met scanning rows in order.
func (c *DBSCAN) FitDistances(d mat.Symmetric) ([]int, error) {
	if c.Eps <= 0 || c.MinSamples < 1 {
		return nil, fmt.Errorf("%w: dbscan eps=%v min_samples=%d", params.ErrInvalidConfig, c.Eps, c.MinSamples)
	}
	if d == nil {
		return []int{}, nil
	}
	n := d.SymmetricDim()

	// 0 is unvisited, -1 noise, positive a cluster id.
	labels := make([]int, n)
	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := c.regionQuery(d, i)
		if len(neighbors) < c.MinSamples {
			labels[i] = Noise
			continue
		}
		clusterID++
		c.expand(d, labels, i, neighbors, clusterID)
	}

	for i := range labels {
		if labels[i] > 0 {
			labels[i]--
		}
	}
	return labels, nil
}

func (c *DBSCAN) regionQuery(d mat.Symmetric, i int) []int {
	var out []int
	for j := 0; j < d.SymmetricDim(); j++ {
		if d.At(i, j) <= c.Eps {
			out = append(out, j)
		}
	}
	return out
}

func (c *DBSCAN) expand(d mat.Symmetric, labels []int, seed int, neighbors []int, clusterID int) {
	labels[seed] = clusterID
	for k := 0; k < len(neighbors); k++ {
		idx := neighbors[k]
		if labels[idx] == Noise {
			// Border point.
			labels[idx] = clusterID
		}
		if labels[idx] != 0 {
			continue
		}
		labels[idx] = clusterID
		if more := c.regionQuery(d, idx); len(more) >= c.MinSamples {
			neighbors = append(neighbors, more...)
		}
	}
}
