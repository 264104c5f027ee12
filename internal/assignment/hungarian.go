// Package assignment solves the linear assignment problem.
package assignment

import (
	"errors"
	"math"
)

// ErrNotSquare is returned when the cost matrix rows have different lengths
// than the number of rows.
var ErrNotSquare = errors.New("cost matrix must be square")

// Solve returns, for each row of the square cost matrix, the column it is
// assigned to so that the total cost is minimal. Every column is used once.
//
// It runs the shortest augmenting path form of the Hungarian method in
// O(n³) time.
func Solve(cost [][]float64) ([]int, error) {
	n := len(cost)
	for _, row := range cost {
		if len(row) != n {
			return nil, ErrNotSquare
		}
	}
	if n == 0 {
		return nil, nil
	}

	// Potentials and matching use 1-based indices; index 0 is a virtual
	// column that holds the row currently being inserted.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	match := make([]int, n+1) // match[j] is the row assigned to column j
	way := make([]int, n+1)

	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		match[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := match[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if match[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			match[j0] = match[j1]
			j0 = j1
		}
	}

	rows := make([]int, n)
	for j := 1; j <= n; j++ {
		if match[j] != 0 {
			rows[match[j]-1] = j - 1
		}
	}
	return rows, nil
}

// Pad returns a square copy of the rows x cols cost matrix, filling the
// added cells with fill.
func Pad(cost [][]float64, rows, cols int, fill float64) [][]float64 {
	n := max(rows, cols)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			if i < rows && j < cols {
				out[i][j] = cost[i][j]
			} else {
				out[i][j] = fill
			}
		}
	}
	return out
}
