package assignment

import (
	"errors"
	"math"
	"testing"
)

func totalCost(cost [][]float64, rows []int) float64 {
	var sum float64
	for i, j := range rows {
		sum += cost[i][j]
	}
	return sum
}

// bruteForce returns the minimal assignment cost by trying every permutation.
func bruteForce(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	best := math.Inf(1)
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			best = math.Min(best, totalCost(cost, perm))
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			rec(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	rec(0)
	return best
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name string
		cost [][]float64
		want []int
	}{
		{
			name: "identity",
			cost: [][]float64{{0, 1}, {1, 0}},
			want: []int{0, 1},
		},
		{
			name: "swap",
			cost: [][]float64{{5, 1}, {1, 5}},
			want: []int{1, 0},
		},
		{
			name: "non crossing times",
			// |10-12|, |10-98|, |100-12|, |100-98|
			cost: [][]float64{{2, 88}, {88, 2}},
			want: []int{0, 1},
		},
		{
			name: "three by three",
			cost: [][]float64{{4, 1, 3}, {2, 0, 5}, {3, 2, 2}},
			want: []int{1, 0, 2},
		},
		{
			name: "single",
			cost: [][]float64{{7}},
			want: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Solve(tt.cost)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Solve() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Solve() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestSolve_Optimal(t *testing.T) {
	cost := [][]float64{
		{9, 2, 7, 8, 3},
		{6, 4, 3, 7, 1},
		{5, 8, 1, 8, 6},
		{7, 6, 9, 4, 2},
		{3, 3, 6, 5, 9},
	}
	got, err := Solve(cost)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	seen := make(map[int]bool)
	for _, j := range got {
		if seen[j] {
			t.Fatalf("column %d assigned twice in %v", j, got)
		}
		seen[j] = true
	}
	if got, want := totalCost(cost, got), bruteForce(cost); got != want {
		t.Errorf("total cost = %v, want %v", got, want)
	}
}

func TestSolve_Errors(t *testing.T) {
	if _, err := Solve([][]float64{{1, 2}}); !errors.Is(err, ErrNotSquare) {
		t.Errorf("Solve() error = %v, want ErrNotSquare", err)
	}
	got, err := Solve(nil)
	if err != nil || got != nil {
		t.Errorf("Solve(nil) = %v, %v", got, err)
	}
}

func TestPad(t *testing.T) {
	padded := Pad([][]float64{{1, 2, 3}}, 1, 3, 0)
	if len(padded) != 3 {
		t.Fatalf("Pad() has %d rows, want 3", len(padded))
	}
	for i := 1; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if padded[i][j] != 0 {
				t.Errorf("padded[%d][%d] = %v, want 0", i, j, padded[i][j])
			}
		}
	}
	if padded[0][2] != 3 {
		t.Errorf("padded[0][2] = %v, want 3", padded[0][2])
	}
}
