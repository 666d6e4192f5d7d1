package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/listsync/internal/ir"
)

// Scenario is a scripted sequence of engine operations with expectations
// about the final list.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Width is the maximum item width. Zero means unbounded.
	Width int `yaml:"width,omitempty"`

	// Items is the initial list, published as version 0.
	Items []EntrySpec `yaml:"items,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Expect is checked once every step has been committed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// EntrySpec is an (identity, model) pair.
type EntrySpec struct {
	ID    string `yaml:"id"`
	Model any    `yaml:"model"`
}

// Step holds exactly one action.
type Step struct {
	Apply     *ApplyStep     `yaml:"apply,omitempty"`
	Reload    *ModeStep      `yaml:"reload,omitempty"`
	Configure *ConfigureStep `yaml:"configure,omitempty"`
	FailModel *FailStep      `yaml:"fail_model,omitempty"`

	// ExpectError is the error code the step's call must return.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// ModeStep carries only an update mode.
type ModeStep struct {
	Mode string `yaml:"mode,omitempty"`
}

// ApplyStep describes a changeset.
type ApplyStep struct {
	Mode       string       `yaml:"mode,omitempty"`
	Insert     []InsertSpec `yaml:"insert,omitempty"`
	Remove     []string     `yaml:"remove,omitempty"`
	RemoveAt   []int        `yaml:"remove_at,omitempty"`
	Update     []EntrySpec  `yaml:"update,omitempty"`
	Move       []MoveSpec   `yaml:"move,omitempty"`
	ReplaceAll []EntrySpec  `yaml:"replace_all,omitempty"`
	ReloadAll  bool         `yaml:"reload_all,omitempty"`
}

// InsertSpec inserts an item at a result index.
type InsertSpec struct {
	ID    string `yaml:"id"`
	Model any    `yaml:"model"`
	Index int    `yaml:"index"`
}

// MoveSpec moves the item at base index From to result index To.
type MoveSpec struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// ConfigureStep replaces the configuration.
type ConfigureStep struct {
	Mode  string `yaml:"mode,omitempty"`
	Width int    `yaml:"width"`
}

// FailStep makes sizing of Model fail with Error.
type FailStep struct {
	Model any    `yaml:"model"`
	Error string `yaml:"error,omitempty"`
}

// Expect describes the expected outcome.
type Expect struct {
	Items      []EntrySpec `yaml:"items,omitempty"`
	Version    *uint64     `yaml:"version,omitempty"`
	Broadcasts *int        `yaml:"broadcasts,omitempty"`
	Failures   *int        `yaml:"failures,omitempty"`
}

// Step kinds, as they appear in traces.
const (
	StepApply     = "apply"
	StepReload    = "reload"
	StepConfigure = "configure"
	StepFailModel = "fail_model"
)

// Kind returns the step's action name, or "" if none is set.
func (s Step) Kind() string {
	switch {
	case s.Apply != nil:
		return StepApply
	case s.Reload != nil:
		return StepReload
	case s.Configure != nil:
		return StepConfigure
	case s.FailModel != nil:
		return StepFailModel
	default:
		return ""
	}
}

// Mode returns the step's update mode. Steps without one are async.
func (s Step) Mode() ir.UpdateMode {
	var name string
	switch {
	case s.Apply != nil:
		name = s.Apply.Mode
	case s.Reload != nil:
		name = s.Reload.Mode
	case s.Configure != nil:
		name = s.Configure.Mode
	}
	m, err := ir.ParseUpdateMode(name)
	if err != nil {
		return ir.ModeAsync
	}
	return m
}

// Changeset builds the ir.Changeset described by a.
func (a *ApplyStep) Changeset() ir.Changeset {
	cs := ir.NewChangeset()
	for _, id := range a.Remove {
		cs = cs.WithRemove(ir.ItemID(id))
	}
	for _, i := range a.RemoveAt {
		cs = cs.WithRemoveAt(i)
	}
	for _, u := range a.Update {
		cs = cs.WithUpdate(ir.ItemID(u.ID), u.Model)
	}
	for _, in := range a.Insert {
		cs = cs.WithInsert(ir.ItemID(in.ID), in.Model, in.Index)
	}
	for _, m := range a.Move {
		cs = cs.WithMove(m.From, m.To)
	}
	if a.ReplaceAll != nil {
		entries := make([]ir.Entry, len(a.ReplaceAll))
		for i, e := range a.ReplaceAll {
			entries[i] = ir.Entry{ID: ir.ItemID(e.ID), Model: e.Model}
		}
		cs = cs.WithReplaceAll(entries...)
	}
	if a.ReloadAll {
		cs = cs.WithReloadAll()
	}
	return cs
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails schema validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	if err := ValidateScenario(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml and *.yml file in dir, sorted by
// file name. It stops at the first invalid file.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// validateScenario checks what the schema cannot express.
func validateScenario(s *Scenario) error {
	seen := make(map[string]bool, len(s.Items))
	for i, it := range s.Items {
		if seen[it.ID] {
			return fmt.Errorf("items[%d]: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = true
	}

	for i, step := range s.Steps {
		n := 0
		for _, set := range []bool{step.Apply != nil, step.Reload != nil, step.Configure != nil, step.FailModel != nil} {
			if set {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("steps[%d]: exactly one of apply, reload, configure, fail_model is required", i)
		}
		if step.FailModel != nil && step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: fail_model cannot expect an error", i)
		}
	}
	return nil
}
