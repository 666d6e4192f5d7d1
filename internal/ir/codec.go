package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeChangeset returns the canonical JSON form of cs. Models are reduced
// with ModelValue and a configuration replacement is recorded as its size
// range only.
func EncodeChangeset(cs Changeset) ([]byte, error) {
	data, err := MarshalCanonical(cs.canonicalValue())
	if err != nil {
		return nil, fmt.Errorf("encode changeset: %w", err)
	}
	return data, nil
}

type changesetWire struct {
	Remove     []ItemID       `json:"remove"`
	RemoveAt   []int          `json:"remove_at"`
	Insert     []Insertion    `json:"insert"`
	Update     []Update       `json:"update"`
	Move       []Move         `json:"move"`
	ReplaceAll *[]Entry       `json:"replace_all"`
	ReloadAll  bool           `json:"reload_all"`
	Config     *sizeRangeWire `json:"configuration"`
}

type sizeRangeWire struct {
	MinWidth  int `json:"min_width"`
	MinHeight int `json:"min_height"`
	MaxWidth  int `json:"max_width"`
	MaxHeight int `json:"max_height"`
}

// DecodeChangeset parses the output of EncodeChangeset. Integer models decode
// as int64 and string models as string.
//
// A recorded configuration replacement is rebuilt by calling newConfig with
// the recorded size range. If newConfig is nil the replacement is dropped.
func DecodeChangeset(data []byte, newConfig func(SizeRange) *Configuration) (Changeset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var w changesetWire
	if err := dec.Decode(&w); err != nil {
		return Changeset{}, fmt.Errorf("decode changeset: %w", err)
	}

	cs := Changeset{
		Removals:       w.Remove,
		RemovedIndexes: w.RemoveAt,
		Moves:          w.Move,
		ReloadAll:      w.ReloadAll,
	}
	for _, in := range w.Insert {
		in.Model = decodeModel(in.Model)
		cs.Insertions = append(cs.Insertions, in)
	}
	for _, u := range w.Update {
		u.Model = decodeModel(u.Model)
		cs.Updates = append(cs.Updates, u)
	}
	if w.ReplaceAll != nil {
		cs.Replace = true
		cs.ReplaceAll = make([]Entry, 0, len(*w.ReplaceAll))
		for _, e := range *w.ReplaceAll {
			e.Model = decodeModel(e.Model)
			cs.ReplaceAll = append(cs.ReplaceAll, e)
		}
	}
	if w.Config != nil && newConfig != nil {
		cs.Configuration = newConfig(SizeRange{
			Min: Size{Width: w.Config.MinWidth, Height: w.Config.MinHeight},
			Max: Size{Width: w.Config.MaxWidth, Height: w.Config.MaxHeight},
		})
	}
	return cs, nil
}

func decodeModel(v any) Model {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		return n.String()
	}
	return v
}
