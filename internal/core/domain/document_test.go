package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDocument_MarshalJSON_NoExtras(t *testing.T) {
	doc := Document{
		User:  "catalog-bot",
		Ctime: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["user"] != "catalog-bot" {
		t.Errorf("expected user catalog-bot, got %v", decoded["user"])
	}
	if _, ok := decoded["atoms"]; !ok {
		t.Error("expected atoms sub-document present")
	}
}

func TestDocument_MarshalJSON_ExtrasAdded(t *testing.T) {
	doc := Document{
		User: "catalog-bot",
		Extra: map[string]any{
			"job_id":    int64(42),
			"directory": "/scratch/job",
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	json.Unmarshal(data, &decoded)

	if decoded["job_id"] != float64(42) {
		t.Errorf("expected job_id 42, got %v", decoded["job_id"])
	}
	if decoded["directory"] != "/scratch/job" {
		t.Errorf("expected directory in output, got %v", decoded["directory"])
	}
}

func TestDocument_MarshalJSON_ExtrasWinCollision(t *testing.T) {
	doc := Document{
		User:  "original",
		Extra: map[string]any{"user": "override"},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	json.Unmarshal(data, &decoded)

	if decoded["user"] != "override" {
		t.Errorf("expected extras to win key collision, got %v", decoded["user"])
	}
}

func TestDocument_UnmarshalJSON_CollectsUnknownKeys(t *testing.T) {
	raw := `{
		"atoms": {"atoms": [], "cell": [[0,0,0],[0,0,0],[0,0,0]], "pbc": [false,false,false], "info": {}, "constraints": [], "natoms": 0, "mass": 0, "spacegroup": "", "chemical_symbols": [], "symbol_counts": {}},
		"calc": {},
		"results": {},
		"user": "catalog-bot",
		"ctime": "2025-06-01T00:00:00Z",
		"mtime": "2025-06-01T00:00:00Z",
		"job_id": 42,
		"max_atom_movement": 0.25
	}`

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if doc.User != "catalog-bot" {
		t.Errorf("expected user catalog-bot, got %s", doc.User)
	}
	if doc.Extra["job_id"] != float64(42) {
		t.Errorf("expected job_id in extras, got %v", doc.Extra["job_id"])
	}
	if doc.Extra["max_atom_movement"] != 0.25 {
		t.Errorf("expected max_atom_movement in extras, got %v", doc.Extra["max_atom_movement"])
	}
	if _, ok := doc.Extra["user"]; ok {
		t.Error("known keys must not leak into extras")
	}
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc := Document{
		User:  "catalog-bot",
		Ctime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Mtime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Extra: map[string]any{"directory": "/scratch/job"},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if back.User != doc.User {
		t.Errorf("user changed in round trip: %s", back.User)
	}
	if !back.Ctime.Equal(doc.Ctime) {
		t.Errorf("ctime changed in round trip: %v", back.Ctime)
	}
	if back.Extra["directory"] != "/scratch/job" {
		t.Errorf("extras lost in round trip: %v", back.Extra)
	}
}

func TestResultsDoc_Empty(t *testing.T) {
	if !(ResultsDoc{}).Empty() {
		t.Error("expected empty results doc")
	}

	energy := -1.0
	if (ResultsDoc{Energy: &energy}).Empty() {
		t.Error("expected non-empty results doc")
	}
}

func TestCalcDoc_Empty(t *testing.T) {
	if !(CalcDoc{}).Empty() {
		t.Error("expected empty calc doc")
	}
	if (CalcDoc{Calculator: map[string]any{"module": "m"}}).Empty() {
		t.Error("expected non-empty calc doc")
	}
}
