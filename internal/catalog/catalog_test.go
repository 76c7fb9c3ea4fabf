package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mindwellhq/mindwell/internal/model"
)

func TestLoadBuiltins(t *testing.T) {
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, tt := range []model.TestType{
		model.TestDepression, model.TestAnxiety, model.TestStress, model.TestPTSD,
	} {
		def, ok := c.Get(tt)
		if !ok {
			t.Errorf("missing built-in definition for %q", tt)
			continue
		}
		if len(def.MCQ) == 0 {
			t.Errorf("%q has no MCQ questions", tt)
		}
		if len(def.Subjective) == 0 {
			t.Errorf("%q has no subjective questions", tt)
		}
		for _, q := range def.MCQ {
			if len(q.Options) != len(q.Scores) {
				t.Errorf("%q question %d: %d options vs %d scores", tt, q.ID, len(q.Options), len(q.Scores))
			}
		}
	}

	if _, ok := c.Get(model.TestBipolar); ok {
		t.Error("bipolar should have no built-in definition")
	}
	if _, ok := c.Get("nonsense"); ok {
		t.Error("unknown type should not resolve")
	}
}

func TestTypesStableOrder(t *testing.T) {
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defs := c.Types()
	if len(defs) != 4 {
		t.Fatalf("expected 4 built-in definitions, got %d", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Type >= defs[i].Type {
			t.Errorf("types not sorted: %q before %q", defs[i-1].Type, defs[i].Type)
		}
	}
}

func TestLoadExtraFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocd.json")
	data := `{
		"type": "ocd",
		"name": "OCD",
		"mcq": [
			{"id": 1, "question": "How often do intrusive thoughts interfere with your day?",
			 "options": ["Never", "Sometimes", "Often", "Always"], "scores": [0, 1, 2, 3]}
		],
		"subjective": [
			{"id": 1, "question": "Describe a routine you feel compelled to repeat."}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c, err := Load([]string{path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def, ok := c.Get(model.TestOCD)
	if !ok {
		t.Fatal("ocd definition not loaded")
	}
	if def.Name != "OCD" || len(def.MCQ) != 1 {
		t.Errorf("unexpected definition: %+v", def)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type": "phrenology", "name": "X",
			"mcq": [{"id": 1, "question": "Q", "options": ["A"], "scores": [0]}]}`},
		{"no questions", `{"type": "ocd", "name": "X", "mcq": []}`},
		{"misaligned scores", `{"type": "ocd", "name": "X",
			"mcq": [{"id": 1, "question": "Q", "options": ["A", "B"], "scores": [0]}]}`},
		{"score out of range", `{"type": "ocd", "name": "X",
			"mcq": [{"id": 1, "question": "Q", "options": ["A"], "scores": [9]}]}`},
		{"empty prompt", `{"type": "ocd", "name": "X",
			"mcq": [{"id": 1, "question": "", "options": ["A"], "scores": [0]}]}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			if _, err := Load([]string{path}); err == nil {
				t.Error("expected load error, got nil")
			}
		})
	}
}
