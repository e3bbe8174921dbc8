package domain

import "fmt"

// Standard atomic weights, keyed by element symbol. Values follow the IUPAC
// conventional weights; short-lived elements carry their most stable isotope.
var atomicMasses = map[string]float64{
	"H": 1.008, "He": 4.0026,
	"Li": 6.94, "Be": 9.0122, "B": 10.81, "C": 12.011, "N": 14.007,
	"O": 15.999, "F": 18.998, "Ne": 20.180,
	"Na": 22.990, "Mg": 24.305, "Al": 26.982, "Si": 28.085, "P": 30.974,
	"S": 32.06, "Cl": 35.45, "Ar": 39.948,
	"K": 39.098, "Ca": 40.078, "Sc": 44.956, "Ti": 47.867, "V": 50.942,
	"Cr": 51.996, "Mn": 54.938, "Fe": 55.845, "Co": 58.933, "Ni": 58.693,
	"Cu": 63.546, "Zn": 65.38, "Ga": 69.723, "Ge": 72.630, "As": 74.922,
	"Se": 78.971, "Br": 79.904, "Kr": 83.798,
	"Rb": 85.468, "Sr": 87.62, "Y": 88.906, "Zr": 91.224, "Nb": 92.906,
	"Mo": 95.95, "Tc": 97.91, "Ru": 101.07, "Rh": 102.906, "Pd": 106.42,
	"Ag": 107.868, "Cd": 112.414, "In": 114.818, "Sn": 118.710, "Sb": 121.760,
	"Te": 127.60, "I": 126.904, "Xe": 131.293,
	"Cs": 132.905, "Ba": 137.327, "La": 138.905, "Ce": 140.116, "Pr": 140.908,
	"Nd": 144.242, "Pm": 144.91, "Sm": 150.36, "Eu": 151.964, "Gd": 157.25,
	"Tb": 158.925, "Dy": 162.500, "Ho": 164.930, "Er": 167.259, "Tm": 168.934,
	"Yb": 173.045, "Lu": 174.967, "Hf": 178.486, "Ta": 180.948, "W": 183.84,
	"Re": 186.207, "Os": 190.23, "Ir": 192.217, "Pt": 195.084, "Au": 196.967,
	"Hg": 200.592, "Tl": 204.38, "Pb": 207.2, "Bi": 208.980, "Po": 208.98,
	"At": 209.99, "Rn": 222.02,
	"Fr": 223.02, "Ra": 226.03, "Ac": 227.03, "Th": 232.038, "Pa": 231.036,
	"U": 238.029, "Np": 237.05, "Pu": 244.06,
}

// Atomic numbers, keyed by element symbol.
var atomicNumbers = map[string]int{
	"H": 1, "He": 2,
	"Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9, "Ne": 10,
	"Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15, "S": 16, "Cl": 17, "Ar": 18,
	"K": 19, "Ca": 20, "Sc": 21, "Ti": 22, "V": 23, "Cr": 24, "Mn": 25,
	"Fe": 26, "Co": 27, "Ni": 28, "Cu": 29, "Zn": 30, "Ga": 31, "Ge": 32,
	"As": 33, "Se": 34, "Br": 35, "Kr": 36,
	"Rb": 37, "Sr": 38, "Y": 39, "Zr": 40, "Nb": 41, "Mo": 42, "Tc": 43,
	"Ru": 44, "Rh": 45, "Pd": 46, "Ag": 47, "Cd": 48, "In": 49, "Sn": 50,
	"Sb": 51, "Te": 52, "I": 53, "Xe": 54,
	"Cs": 55, "Ba": 56, "La": 57, "Ce": 58, "Pr": 59, "Nd": 60, "Pm": 61,
	"Sm": 62, "Eu": 63, "Gd": 64, "Tb": 65, "Dy": 66, "Ho": 67, "Er": 68,
	"Tm": 69, "Yb": 70, "Lu": 71, "Hf": 72, "Ta": 73, "W": 74, "Re": 75,
	"Os": 76, "Ir": 77, "Pt": 78, "Au": 79, "Hg": 80, "Tl": 81, "Pb": 82,
	"Bi": 83, "Po": 84, "At": 85, "Rn": 86,
	"Fr": 87, "Ra": 88, "Ac": 89, "Th": 90, "Pa": 91, "U": 92, "Np": 93,
	"Pu": 94,
}

// AtomicMass returns the standard atomic weight for an element symbol.
func AtomicMass(symbol string) (float64, error) {
	m, ok := atomicMasses[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownElement, symbol)
	}
	return m, nil
}

// AtomicNumber returns the atomic number for an element symbol.
func AtomicNumber(symbol string) (int, error) {
	z, ok := atomicNumbers[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownElement, symbol)
	}
	return z, nil
}

// KnownElement reports whether the symbol has a periodic-table entry.
func KnownElement(symbol string) bool {
	_, ok := atomicNumbers[symbol]
	return ok
}
