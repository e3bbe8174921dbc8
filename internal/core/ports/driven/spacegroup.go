package driven

// SpacegroupDetector classifies the symmetry of a periodic atomic
// arrangement. The triple mirrors the calling convention of crystallographic
// symmetry libraries: lattice vectors as columns, fractional coordinates,
// and per-site atomic numbers. The label has the form "Symbol (number)",
// e.g. "Fm-3m (225)"; "P1 (1)" is the no-symmetry fallback.
type SpacegroupDetector interface {
	Detect(lattice [3][3]float64, scaledPositions [][3]float64, atomicNumbers []int) (string, error)
}
