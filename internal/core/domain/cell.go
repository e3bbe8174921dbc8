package domain

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cell holds the three lattice vectors of a periodic cell, one per row.
type Cell [3][3]float64

// Dense returns the cell as a gonum matrix.
func (c Cell) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		c[0][0], c[0][1], c[0][2],
		c[1][0], c[1][1], c[1][2],
		c[2][0], c[2][1], c[2][2],
	})
}

// Det returns the determinant of the cell matrix. The sign encodes
// handedness: positive for a right-handed vector triple.
func (c Cell) Det() float64 {
	return mat.Det(c.Dense())
}

// RightHanded reports whether the lattice vectors form a right-handed triple.
// External relaxation engines reject left-handed cells.
func (c Cell) RightHanded() bool {
	return c.Det() > 0
}

// Volume returns the cell volume and true when the cell is non-degenerate
// and right-handed. Volume is undefined otherwise.
func (c Cell) Volume() (float64, bool) {
	det := c.Det()
	if det <= 0 {
		return 0, false
	}
	return det, true
}

// Transposed returns the cell with lattice vectors as columns, the layout
// symmetry libraries expect.
func (c Cell) Transposed() [3][3]float64 {
	var t [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = c[j][i]
		}
	}
	return t
}

// IsZero reports whether every lattice vector is zero, the conventional
// marker for a non-periodic (molecular) structure.
func (c Cell) IsZero() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if c[i][j] != 0 {
				return false
			}
		}
	}
	return true
}

// Complete returns a copy of the cell with zero rows replaced by unit
// vectors orthogonal to the remaining lattice vectors, so that fractional
// coordinates stay well defined for slabs and molecules. A cell whose
// nonzero rows are linearly dependent cannot be completed.
func (c Cell) Complete() (Cell, error) {
	var present []int
	for i := 0; i < 3; i++ {
		if c[i][0] != 0 || c[i][1] != 0 || c[i][2] != 0 {
			present = append(present, i)
		}
	}

	out := c
	switch len(present) {
	case 3:
		if math.Abs(c.Det()) < 1e-12 {
			return Cell{}, ErrDegenerateCell
		}
		return out, nil
	case 0:
		return Cell{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, nil
	case 1:
		u := c[present[0]]
		// Cross with the axis least aligned to u to get a stable normal.
		axis := [3]float64{1, 0, 0}
		if math.Abs(u[1]) < math.Abs(u[0]) {
			axis = [3]float64{0, 1, 0}
		}
		if math.Abs(u[2]) < math.Abs(u[0]) && math.Abs(u[2]) < math.Abs(u[1]) {
			axis = [3]float64{0, 0, 1}
		}
		v1, ok := unitCross(u, axis)
		if !ok {
			return Cell{}, ErrDegenerateCell
		}
		v2, _ := unitCross(u, v1)
		missing := missingRows(present)
		out[missing[0]] = v1
		out[missing[1]] = v2
		return out, nil
	default: // two rows present
		v, ok := unitCross(c[present[0]], c[present[1]])
		if !ok {
			return Cell{}, ErrDegenerateCell
		}
		out[missingRows(present)[0]] = v
		return out, nil
	}
}

// ScaledPositions converts cartesian positions to fractional coordinates of
// the (completed) cell.
func (c Cell) ScaledPositions(positions [][3]float64) ([][3]float64, error) {
	if len(positions) == 0 {
		return [][3]float64{}, nil
	}

	complete, err := c.Complete()
	if err != nil {
		return nil, err
	}

	var inv mat.Dense
	if err := inv.Inverse(complete.Dense()); err != nil {
		return nil, ErrDegenerateCell
	}

	scaled := make([][3]float64, len(positions))
	for n, p := range positions {
		for j := 0; j < 3; j++ {
			scaled[n][j] = p[0]*inv.At(0, j) + p[1]*inv.At(1, j) + p[2]*inv.At(2, j)
		}
	}
	return scaled, nil
}

func unitCross(a, b [3]float64) ([3]float64, bool) {
	v := [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
	norm := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if norm < 1e-12 {
		return [3]float64{}, false
	}
	return [3]float64{v[0] / norm, v[1] / norm, v[2] / norm}, true
}

func missingRows(present []int) []int {
	var missing []int
	for i := 0; i < 3; i++ {
		found := false
		for _, p := range present {
			if p == i {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, i)
		}
	}
	return missing
}
