package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/mindwellhq/mindwell/internal/model"
)

//go:embed data/*.json
var dataFS embed.FS

// MaxQuestionScore is the fixed per-question score ceiling across all
// built-in questionnaires. Result percentages are computed against it.
const MaxQuestionScore = 3

// Question is a read-only catalog entry. Options and Scores are
// positionally aligned: Scores[i] is the score for Options[i].
type Question struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"question"`
	Options []string `json:"options,omitempty"`
	Scores  []int    `json:"scores,omitempty"`
}

// TestDefinition is the full question set for one assessment type.
type TestDefinition struct {
	Type       model.TestType `json:"type"`
	Name       string         `json:"name"`
	MCQ        []Question     `json:"mcq"`
	Subjective []Question     `json:"subjective"`
}

// Catalog holds the static per-type question sets, loaded once at startup.
type Catalog struct {
	defs map[model.TestType]TestDefinition
}

// Load reads the built-in embedded definitions plus any extra JSON files.
// Extra files override built-ins of the same type.
func Load(extraPaths []string) (*Catalog, error) {
	c := &Catalog{defs: make(map[model.TestType]TestDefinition)}

	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	for _, e := range entries {
		data, err := dataFS.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", e.Name(), err)
		}
		if err := c.add(data, e.Name()); err != nil {
			return nil, err
		}
	}

	for _, path := range extraPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := c.add(data, path); err != nil {
			return nil, err
		}
		slog.Info("loaded questions file", "path", path)
	}

	return c, nil
}

func (c *Catalog) add(data []byte, source string) error {
	var def TestDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	if err := validate(def); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	c.defs[def.Type] = def
	return nil
}

func validate(def TestDefinition) error {
	if !model.ValidTestType(def.Type) {
		return fmt.Errorf("unknown test type %q", def.Type)
	}
	if len(def.MCQ) == 0 {
		return fmt.Errorf("test %q has no MCQ questions", def.Type)
	}
	for _, q := range def.MCQ {
		if q.Prompt == "" {
			return fmt.Errorf("test %q question %d has an empty prompt", def.Type, q.ID)
		}
		if len(q.Options) == 0 || len(q.Options) != len(q.Scores) {
			return fmt.Errorf("test %q question %d: options and scores must align", def.Type, q.ID)
		}
		for _, s := range q.Scores {
			if s < 0 || s > MaxQuestionScore {
				return fmt.Errorf("test %q question %d: score %d out of range [0,%d]",
					def.Type, q.ID, s, MaxQuestionScore)
			}
		}
	}
	for _, q := range def.Subjective {
		if q.Prompt == "" {
			return fmt.Errorf("test %q subjective question %d has an empty prompt", def.Type, q.ID)
		}
	}
	return nil
}

// Get returns the definition for a test type, if one is loaded.
func (c *Catalog) Get(t model.TestType) (TestDefinition, bool) {
	def, ok := c.defs[t]
	return def, ok
}

// Types returns the loaded test types in stable order.
func (c *Catalog) Types() []TestDefinition {
	defs := make([]TestDefinition, 0, len(c.defs))
	for _, def := range c.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}
