// Package spacegroup classifies the symmetry of periodic structures from
// lattice metric and lattice centering. Labels use the international
// "Symbol (number)" form. The classifier resolves the Bravais class and
// reports its holohedral group; site symmetries below the holohedry are not
// resolved. It sits behind the SpacegroupDetector port so a full
// crystallographic library can replace it without touching callers.
package spacegroup

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SpacegroupDetector = (*Detector)(nil)

// Detector classifies Bravais lattices with a distance tolerance.
type Detector struct {
	// Symprec is the tolerance for length and fractional-coordinate
	// comparisons, in the units of the lattice.
	Symprec float64
}

// NewDetector creates a detector with the conventional tolerance.
func NewDetector() *Detector {
	return &Detector{Symprec: 1e-5}
}

type family int

const (
	triclinic family = iota
	monoclinic
	orthorhombic
	tetragonal
	rhombohedral
	hexagonal
	cubic
)

type centering int

const (
	primitive centering = iota
	baseCentered
	bodyCentered
	faceCentered
)

// Detect classifies the arrangement. Lattice vectors arrive as matrix
// columns; positions are fractional. Unresolvable input (no atoms, a
// degenerate lattice) falls back to "P1 (1)" rather than failing, since the
// label is search metadata, not a correctness gate.
func (d *Detector) Detect(lattice [3][3]float64, scaledPositions [][3]float64, atomicNumbers []int) (string, error) {
	if len(scaledPositions) != len(atomicNumbers) {
		return "", fmt.Errorf("%w: %d positions for %d atomic numbers",
			domain.ErrInvalidInput, len(scaledPositions), len(atomicNumbers))
	}
	if len(scaledPositions) == 0 {
		return "P1 (1)", nil
	}

	det := mat.Det(mat.NewDense(3, 3, []float64{
		lattice[0][0], lattice[0][1], lattice[0][2],
		lattice[1][0], lattice[1][1], lattice[1][2],
		lattice[2][0], lattice[2][1], lattice[2][2],
	}))
	if math.Abs(det) < 1e-10 {
		return "P1 (1)", nil
	}

	a, b, c, alpha, beta, gamma := cellParameters(lattice)
	fam := classifyFamily(a, b, c, alpha, beta, gamma, d.Symprec)
	cen := d.detectCentering(scaledPositions, atomicNumbers)

	return label(fam, cen), nil
}

// cellParameters returns the lengths of the three lattice vectors and the
// angles between them in radians (alpha between b and c, beta between a and
// c, gamma between a and b).
func cellParameters(lattice [3][3]float64) (a, b, c, alpha, beta, gamma float64) {
	va := column(lattice, 0)
	vb := column(lattice, 1)
	vc := column(lattice, 2)

	a = norm(va)
	b = norm(vb)
	c = norm(vc)
	alpha = angle(vb, vc)
	beta = angle(va, vc)
	gamma = angle(va, vb)
	return
}

func column(lattice [3][3]float64, j int) [3]float64 {
	return [3]float64{lattice[0][j], lattice[1][j], lattice[2][j]}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func angle(u, v [3]float64) float64 {
	dot := u[0]*v[0] + u[1]*v[1] + u[2]*v[2]
	cos := dot / (norm(u) * norm(v))
	// Clamp against rounding before acos.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

func classifyFamily(a, b, c, alpha, beta, gamma, symprec float64) family {
	scale := (a + b + c) / 3
	lenEq := func(x, y float64) bool { return math.Abs(x-y) <= symprec*math.Max(1, scale) }
	angEq := func(x, target float64) bool { return math.Abs(x-target) <= 1e-4 }

	right := math.Pi / 2
	hexAngle := 2 * math.Pi / 3

	allRight := angEq(alpha, right) && angEq(beta, right) && angEq(gamma, right)
	abEq := lenEq(a, b)
	allEq := abEq && lenEq(b, c)

	switch {
	case allEq && allRight:
		return cubic
	case abEq && angEq(alpha, right) && angEq(beta, right) && angEq(gamma, hexAngle):
		return hexagonal
	case allEq && angEq(alpha, beta) && angEq(beta, gamma) && !angEq(alpha, right):
		return rhombohedral
	case abEq && allRight:
		return tetragonal
	case allRight:
		return orthorhombic
	case angEq(alpha, right) && angEq(gamma, right):
		return monoclinic
	default:
		return triclinic
	}
}

// detectCentering checks whether the motif is invariant under the standard
// centering translations.
func (d *Detector) detectCentering(scaled [][3]float64, numbers []int) centering {
	face := [][3]float64{{0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}}
	body := [][3]float64{{0.5, 0.5, 0.5}}
	base := [][3]float64{{0.5, 0.5, 0}}

	invariant := func(translations [][3]float64) bool {
		for _, t := range translations {
			if !d.motifInvariant(scaled, numbers, t) {
				return false
			}
		}
		return true
	}

	switch {
	case invariant(face):
		return faceCentered
	case invariant(body):
		return bodyCentered
	case invariant(base):
		return baseCentered
	default:
		return primitive
	}
}

// motifInvariant reports whether translating every site by t (mod 1) maps
// the motif onto itself, species preserved.
func (d *Detector) motifInvariant(scaled [][3]float64, numbers []int, t [3]float64) bool {
	tol := d.Symprec
	if tol <= 0 {
		tol = 1e-5
	}
	for i, p := range scaled {
		shifted := [3]float64{
			wrap(p[0] + t[0]),
			wrap(p[1] + t[1]),
			wrap(p[2] + t[2]),
		}
		found := false
		for j, q := range scaled {
			if numbers[j] != numbers[i] {
				continue
			}
			if fracClose(shifted, q, tol) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func wrap(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x += 1
	}
	return x
}

// fracClose compares fractional coordinates on the torus: 0.9999 and 0.0001
// are neighbours.
func fracClose(p, q [3]float64, tol float64) bool {
	for k := 0; k < 3; k++ {
		diff := math.Abs(wrap(p[k]) - wrap(q[k]))
		if diff > 0.5 {
			diff = 1 - diff
		}
		if diff > tol {
			return false
		}
	}
	return true
}

// label returns the holohedral group of the Bravais class.
func label(fam family, cen centering) string {
	switch fam {
	case cubic:
		switch cen {
		case faceCentered:
			return "Fm-3m (225)"
		case bodyCentered:
			return "Im-3m (229)"
		default:
			return "Pm-3m (221)"
		}
	case hexagonal:
		return "P6/mmm (191)"
	case rhombohedral:
		return "R-3m (166)"
	case tetragonal:
		if cen == bodyCentered {
			return "I4/mmm (139)"
		}
		return "P4/mmm (123)"
	case orthorhombic:
		switch cen {
		case faceCentered:
			return "Fmmm (69)"
		case bodyCentered:
			return "Immm (71)"
		case baseCentered:
			return "Cmmm (65)"
		default:
			return "Pmmm (47)"
		}
	case monoclinic:
		if cen == baseCentered {
			return "C2/m (12)"
		}
		return "P2/m (10)"
	default:
		return "P1 (1)"
	}
}
