package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/listsync/internal/ir"
)

// Status is the outcome of a journaled transition.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

// Record is one journaled broadcast cycle.
type Record struct {
	Seq         int64
	Token       string
	Mode        ir.UpdateMode
	Status      Status
	BaseVersion uint64
	// Version is the published version after the cycle. It equals
	// BaseVersion for failed transitions.
	Version uint64

	// Changeset is the canonical JSON of the submitted changeset.
	Changeset     string
	ChangesetHash string
	Changes       Changes
	SnapshotHash  string
	Error         string

	EngineVersion string
	FormatVersion string
}

// Changes is the stored form of an ir.AppliedChanges.
type Changes struct {
	Removed  []int     `json:"removed"`
	Inserted []int     `json:"inserted"`
	Moved    []ir.Move `json:"moved"`
	Updated  []int     `json:"updated"`
	Reset    bool      `json:"reset,omitempty"`
}

// String renders the changes like ir.AppliedChanges.String.
func (c Changes) String() string {
	return c.Applied().String()
}

// Applied converts c back to an ir.AppliedChanges without metadata.
func (c Changes) Applied() *ir.AppliedChanges {
	return &ir.AppliedChanges{
		Removed:  c.Removed,
		Inserted: c.Inserted,
		Moved:    c.Moved,
		Updated:  c.Updated,
		Reset:    c.Reset,
	}
}

func changesOf(a *ir.AppliedChanges) Changes {
	if a == nil {
		return Changes{}
	}
	return Changes{Removed: a.Removed, Inserted: a.Inserted, Moved: a.Moved, Updated: a.Updated, Reset: a.Reset}
}

// DecodeChangeset parses the record's changeset. newConfig rebuilds a
// recorded configuration replacement; see ir.DecodeChangeset.
func (r Record) DecodeChangeset(newConfig func(ir.SizeRange) *ir.Configuration) (ir.Changeset, error) {
	return ir.DecodeChangeset([]byte(r.Changeset), newConfig)
}

// marshalJSON encodes v with HTML escaping disabled and no trailing
// newline.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func marshalChanges(c Changes) (string, error) {
	s, err := marshalJSON(c)
	if err != nil {
		return "", fmt.Errorf("marshal changes: %w", err)
	}
	return s, nil
}

func unmarshalChanges(data string) (Changes, error) {
	var c Changes
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Changes{}, fmt.Errorf("unmarshal changes: %w", err)
	}
	return c, nil
}

// marshalItems stores a snapshot's entries as canonical JSON
// [{"id":...,"model":...}]. Models are reduced with ir.ModelValue.
func marshalItems(s *ir.Snapshot) (string, error) {
	items := make([]any, 0, s.Len())
	for _, it := range s.All() {
		items = append(items, map[string]any{
			"id":    it.ID,
			"model": ir.ModelValue(it.Model),
		})
	}
	data, err := ir.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return string(data), nil
}

// unmarshalItems parses marshalItems output. Integer models decode as
// int64, matching ir.DecodeChangeset.
func unmarshalItems(data string) ([]ir.Entry, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var raw []struct {
		ID    ir.ItemID `json:"id"`
		Model any       `json:"model"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	entries := make([]ir.Entry, len(raw))
	for i, r := range raw {
		m := r.Model
		if n, ok := m.(json.Number); ok {
			if v, err := n.Int64(); err == nil {
				m = v
			} else {
				m = n.String()
			}
		}
		entries[i] = ir.Entry{ID: r.ID, Model: m}
	}
	return entries, nil
}

func marshalSizeRange(r ir.SizeRange) (string, error) {
	s, err := marshalJSON(r)
	if err != nil {
		return "", fmt.Errorf("marshal size range: %w", err)
	}
	return s, nil
}

func unmarshalSizeRange(data string) (ir.SizeRange, error) {
	var r ir.SizeRange
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return ir.SizeRange{}, fmt.Errorf("unmarshal size range: %w", err)
	}
	return r, nil
}
