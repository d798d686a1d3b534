package floorplan

import "gonum.org/v1/gonum/mat"

// AdjacencyMatrix is a symmetric, non-negative weight matrix over all
// blocks and terminals, indexed by global entity index.
type AdjacencyMatrix struct {
	n   int
	sym *mat.SymDense
}

// NewAdjacencyMatrix returns a zeroed n×n matrix.
func NewAdjacencyMatrix(n int) *AdjacencyMatrix {
	m := &AdjacencyMatrix{n: n}
	if n > 0 {
		m.sym = mat.NewSymDense(n, nil)
	}
	return m
}

// Dim returns the number of rows (and columns).
func (m *AdjacencyMatrix) Dim() int { return m.n }

// At returns the weight between entities i and j.
func (m *AdjacencyMatrix) At(i, j int) float64 {
	if m.sym == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return m.sym.At(i, j)
}

// Set writes w into both (i, j) and (j, i).
func (m *AdjacencyMatrix) Set(i, j int, w float64) {
	if m.sym == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	m.sym.SetSym(i, j, w)
}

// Row returns a copy of row i.
func (m *AdjacencyMatrix) Row(i int) []float64 {
	row := make([]float64, m.n)
	for j := range row {
		row[j] = m.sym.At(i, j)
	}
	return row
}

// Neighbors returns the indices j with a non-zero weight at (i, j).
func (m *AdjacencyMatrix) Neighbors(i int) []int {
	var out []int
	for j := 0; j < m.n; j++ {
		if j != i && m.sym.At(i, j) != 0 {
			out = append(out, j)
		}
	}
	return out
}

// Symmetric exposes the underlying gonum matrix, nil when the matrix is empty.
func (m *AdjacencyMatrix) Symmetric() mat.Symmetric {
	if m.sym == nil {
		return nil
	}
	return m.sym
}
