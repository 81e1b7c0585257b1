// Package cluster assigns one integer label per segment.
//
// Noise is always -1 and is never used as a cluster id.
// Feature rows are standardized on the batch being clustered;
// precomputed distance matrices are used as given.
package cluster

import (
	"errors"
	"fmt"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const Noise = segment.NoiseLabel

var ErrRaggedRows = errors.New("feature rows differ in length")

type Clusterer interface {
	// Fit clusters feature rows under the euclidean metric after standardizing them.
	Fit(rows [][]float64) ([]int, error)

	// FitDistances clusters from a precomputed symmetric distance matrix.
	FitDistances(d mat.Symmetric) ([]int, error)
}

// New returns the clusterer configured by config.Method.
func New(config params.ClusterConfig) (Clusterer, error) {
	switch config.Method {
	case params.ClusterMethodDBSCAN:
		return &DBSCAN{Eps: config.Eps, MinSamples: config.MinSamples}, nil
	case params.ClusterMethodHierarchical:
		linkage, err := ParseLinkage(config.Linkage)
		if err != nil {
			return nil, err
		}
		return &Hierarchical{NClusters: config.NClusters, Linkage: linkage}, nil
	}
	return nil, fmt.Errorf("%w: unknown cluster method %q", params.ErrInvalidConfig, config.Method)
}

// Matrix copies rows into a dense matrix. It returns nil for no rows.
func Matrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d, want %d", ErrRaggedRows, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Standardize centers every column to zero mean and scales it to unit population variance.
// Columns without variance are only centered.
func Standardize(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	out := mat.DenseCopyOf(x)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		floats.AddConst(-mean, col)
		if std > 0 {
			floats.Scale(1/std, col)
		}
		out.SetCol(j, col)
	}
	return out
}

// EuclideanDistances returns the pairwise euclidean distances between the rows of x.
func EuclideanDistances(x mat.Matrix) *mat.SymDense {
	r, _ := x.Dims()
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		ri := mat.Row(nil, i, x)
		for j := i + 1; j < r; j++ {
			out.SetSym(i, j, floats.Distance(ri, mat.Row(nil, j, x), 2))
		}
	}
	return out
}

// standardDistances standardizes rows and measures them; nil for no rows.
func standardDistances(rows [][]float64) (*mat.SymDense, error) {
	x, err := Matrix(rows)
	if err != nil || x == nil {
		return nil, err
	}
	return EuclideanDistances(Standardize(x)), nil
}

// Count returns the number of distinct non-noise labels.
func Count(labels []int) int {
	seen := map[int]struct{}{}
	for _, l := range labels {
		if l != Noise {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}
