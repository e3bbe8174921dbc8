package domain

import (
	"encoding/json"
	"time"
)

// AtomEntry is the serialized form of one atom. Index duplicates the atom's
// slot in the stored list so consumers can query individual entries.
type AtomEntry struct {
	Symbol   string     `json:"symbol"`
	Position [3]float64 `json:"position"`
	Tag      int        `json:"tag"`
	Index    int        `json:"index"`
	Charge   float64    `json:"charge"`
	Momentum [3]float64 `json:"momentum"`
	Magmom   float64    `json:"magmom"`
}

// DocMetadata holds the derived, denormalized search fields of an atoms
// sub-document. They are recomputed on every encode and never read back
// during decode, so a stale value cannot survive a geometry edit.
type DocMetadata struct {
	NAtoms          int            `json:"natoms"`
	Mass            float64        `json:"mass"`
	Spacegroup      string         `json:"spacegroup"`
	ChemicalSymbols []string       `json:"chemical_symbols"`
	SymbolCounts    map[string]int `json:"symbol_counts"`
	Volume          *float64       `json:"volume,omitempty"`
}

// AtomsDoc is the atoms sub-document: the faithful structure data plus the
// derived metadata fields flattened alongside it.
type AtomsDoc struct {
	Atoms       []AtomEntry     `json:"atoms"`
	Cell        [3][3]float64   `json:"cell"`
	PBC         [3]bool         `json:"pbc"`
	Info        map[string]any  `json:"info"`
	Constraints []ConstraintDoc `json:"constraints"`
	DocMetadata
}

// CalcDoc is the calculator sub-document. An empty Calculator map means no
// calculator was attached at encode time.
type CalcDoc struct {
	Calculator map[string]any `json:"calculator,omitempty"`
}

// Empty reports whether no calculator identity was recorded.
func (c CalcDoc) Empty() bool {
	return len(c.Calculator) == 0
}

// ResultsDoc is the results sub-document. Absent fields mean the quantity
// was never computed; zero is never substituted for unknown.
type ResultsDoc struct {
	Energy *float64     `json:"energy,omitempty"`
	Forces [][3]float64 `json:"forces,omitempty"`
	Stress *[6]float64  `json:"stress,omitempty"`
	Fmax   *float64     `json:"fmax,omitempty"`
}

// Empty reports whether no computed quantity is present.
func (r ResultsDoc) Empty() bool {
	return r.Energy == nil && r.Forces == nil && r.Stress == nil && r.Fmax == nil
}

// Document is the normalized, store-ready form of a structure together with
// calculator identity, computed results, and provenance. Extra holds
// caller-supplied fields; they are merged last during marshalling and may
// override any default key.
type Document struct {
	Atoms   AtomsDoc       `json:"atoms"`
	Calc    CalcDoc        `json:"calc"`
	Results ResultsDoc     `json:"results"`
	User    string         `json:"user"`
	Ctime   time.Time      `json:"ctime"`
	Mtime   time.Time      `json:"mtime"`
	Extra   map[string]any `json:"-"`
}

// documentAlias strips the custom marshalling so the base fields can be
// encoded with the default rules.
type documentAlias Document

// MarshalJSON encodes the document with extras overlaid on the base fields,
// extras winning on key collision.
func (d Document) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(documentAlias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range d.Extra {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the known fields and collects every unknown top
// level key into Extra, so re-marshalling reproduces the full document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var alias documentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*d = Document(alias)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{"atoms", "calc", "results", "user", "ctime", "mtime"} {
		delete(raw, known)
	}
	if len(raw) == 0 {
		d.Extra = nil
		return nil
	}
	d.Extra = make(map[string]any, len(raw))
	for key, value := range raw {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return err
		}
		d.Extra[key] = v
	}
	return nil
}

// CatalogEntry wraps a document with its catalog identity: a generated row
// ID and the relaxation job that produced it.
type CatalogEntry struct {
	ID    string    `json:"id"`
	JobID int64     `json:"job_id"`
	Doc   *Document `json:"doc"`
}
