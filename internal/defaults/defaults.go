// Package defaults builds the default parameter records submitted with each
// job kind: gas, bulk, slab, and adsorption relaxations. Settings layer in a
// fixed order: base settings shared by every exchange-correlation choice,
// then the xc-specific overrides, then the job-kind settings, with later
// layers winning on collision.
package defaults

import (
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/codec"
	"github.com/covalent-labs/atomstore-core/internal/core/domain"
)

// DefaultXC is the exchange-correlation functional used when callers do not
// choose one.
const DefaultXC = "beef-vdw"

// xcDefaults maps an exchange-correlation choice to the engine settings
// that select it.
var xcDefaults = map[string]map[string]any{
	"lda":      {"pp": "LDA"},
	"pbe":      {"pp": "PBE"},
	"beef-vdw": {"gga": "BF", "luse_vdw": true, "zab_vdw": -1.8867},
	"vdw-df":   {"gga": "RE", "luse_vdw": true, "aggac": 0.0},
}

// XCSettings returns the settings overrides for an exchange-correlation
// choice. rpbe deviates from the stock table: it runs the RP functional on
// PBE pseudopotentials.
func XCSettings(xc string) (map[string]any, error) {
	if xc == "rpbe" {
		return map[string]any{"gga": "RP", "pp": "PBE"}, nil
	}
	stock, ok := xcDefaults[xc]
	if !ok {
		return nil, fmt.Errorf("%w: unknown xc %q", domain.ErrInvalidInput, xc)
	}
	out := make(map[string]any, len(stock))
	for k, v := range stock {
		out[k] = v
	}
	return out, nil
}

// CalcSettings returns the base calculational settings for an
// exchange-correlation choice: the shared defaults with the xc overrides
// applied on top.
func CalcSettings(xc string) (map[string]any, error) {
	settings := map[string]any{
		"encut":      350.0,
		"pp_version": "5.4",
	}
	overrides, err := XCSettings(xc)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		settings[k] = v
	}
	return settings, nil
}

// merge writes src over dst and returns dst.
func merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// GasParams returns the default parameter record for a gas-phase relaxation.
func GasParams(gasName, xc string) (map[string]any, error) {
	settings, err := CalcSettings(xc)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"gasname": gasName,
		"relaxed": true,
		"vasp_settings": merge(map[string]any{
			"ibrion": 2,
			"nsw":    100,
			"isif":   0,
			"kpts":   []int{1, 1, 1},
			"ediffg": -0.03,
		}, settings),
	}, nil
}

// BulkParams returns the default parameter record for a bulk relaxation.
// Bulk runs use a higher, caller-adjustable cutoff because cell shape and
// volume relax too.
func BulkParams(mpid string, xc string, encut float64) (map[string]any, error) {
	settings, err := CalcSettings(xc)
	if err != nil {
		return nil, err
	}
	settings["encut"] = encut
	return map[string]any{
		"mpid":      mpid,
		"relaxed":   true,
		"max_atoms": 50,
		"vasp_settings": merge(map[string]any{
			"ibrion": 1,
			"nsw":    100,
			"isif":   7,
			"isym":   0,
			"ediff":  1e-8,
			"kpts":   []int{10, 10, 10},
			"prec":   "Accurate",
		}, settings),
	}, nil
}

// DefaultBulkEncut is the cutoff used for bulk relaxations unless a caller
// overrides it.
const DefaultBulkEncut = 500.0

// SlabParams returns the default parameter record for a slab relaxation,
// including the geometry settings used to cut the slab out of the relaxed
// bulk.
func SlabParams(miller [3]int, top bool, shift float64, xc string) (map[string]any, error) {
	settings, err := CalcSettings(xc)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"miller":     []int{miller[0], miller[1], miller[2]},
		"top":        top,
		"max_miller": 2,
		"shift":      shift,
		"relaxed":    true,
		"vasp_settings": merge(map[string]any{
			"ibrion": 2,
			"nsw":    100,
			"isif":   0,
			"isym":   0,
			"kpts":   []int{4, 4, 1},
			"lreal":  "Auto",
			"ediffg": -0.03,
		}, settings),
		"slab_generate_settings": map[string]any{
			"min_slab_size":     7.0,
			"min_vacuum_size":   20.0,
			"lll_reduce":        false,
			"center_slab":       true,
			"primitive":         true,
			"max_normal_search": 1,
		},
		"get_slab_settings": map[string]any{
			"tol":              0.3,
			"bonds":            nil,
			"max_broken_bonds": 0,
			"symmetrize":       false,
		},
	}, nil
}

// AdsorptionParams returns the default parameter record for an adsorption
// relaxation of a catalog adsorbate. The template is embedded as an opaque
// payload next to its name so downstream consumers can rebuild it without
// the catalog.
func AdsorptionParams(adsorbate string, site []float64, slabRepeat string, numSlabAtoms int, xc string) (map[string]any, error) {
	template, err := Adsorbate(adsorbate)
	if err != nil {
		return nil, err
	}
	return AdsorptionParamsFor(adsorbate, template, site, slabRepeat, numSlabAtoms, xc)
}

// AdsorptionParamsFor is AdsorptionParams for a caller-supplied template
// structure, for adsorbates outside the fixed catalog.
func AdsorptionParamsFor(name string, template *domain.Structure, site []float64, slabRepeat string, numSlabAtoms int, xc string) (map[string]any, error) {
	settings, err := CalcSettings(xc)
	if err != nil {
		return nil, err
	}

	payload, err := codec.MarshalPayload(template)
	if err != nil {
		return nil, fmt.Errorf("adsorbate payload: %w", err)
	}

	// A constrained template means the engine cannot drive the relaxation
	// itself; ionic steps go to zero and the outer optimizer takes over.
	nsw := 200
	if len(template.Constraints) > 0 {
		nsw = 0
	}

	return map[string]any{
		"numtosubmit":    1,
		"min_xy":         4.5,
		"relaxed":        true,
		"num_slab_atoms": numSlabAtoms,
		"slabrepeat":     slabRepeat,
		"adsorbates": []map[string]any{{
			"name":            name,
			"atoms":           payload,
			"adsorption_site": site,
		}},
		"vasp_settings": merge(map[string]any{
			"ibrion": 2,
			"nsw":    nsw,
			"isif":   0,
			"isym":   0,
			"kpts":   []int{4, 4, 1},
			"lreal":  "Auto",
			"ediffg": -0.03,
		}, settings),
	}, nil
}
