package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/listsync/internal/ir"
)

// RenderItems renders a snapshot's items as [id=model(WxH) ...].
func RenderItems(s *ir.Snapshot) string {
	parts := make([]string, 0, s.Len())
	for _, it := range s.All() {
		parts = append(parts, fmt.Sprintf("%s=%v(%dx%d)", it.ID, it.Model, it.Size.Width, it.Size.Height))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// DescribeChangeset renders the operations in cs in a fixed order:
//
//	remove=[a b] remove_at=[0] update=[a:A2] insert=[c@1:C] move=[0->2] replace_all=[a:A] reload_all
func DescribeChangeset(cs ir.Changeset) string {
	var parts []string
	if len(cs.Removals) > 0 {
		ids := make([]string, len(cs.Removals))
		for i, id := range cs.Removals {
			ids[i] = string(id)
		}
		parts = append(parts, "remove=["+strings.Join(ids, " ")+"]")
	}
	if len(cs.RemovedIndexes) > 0 {
		parts = append(parts, fmt.Sprintf("remove_at=%v", cs.RemovedIndexes))
	}
	if len(cs.Updates) > 0 {
		us := make([]string, len(cs.Updates))
		for i, u := range cs.Updates {
			us[i] = fmt.Sprintf("%s:%v", u.ID, u.Model)
		}
		parts = append(parts, "update=["+strings.Join(us, " ")+"]")
	}
	if len(cs.Insertions) > 0 {
		ins := make([]string, len(cs.Insertions))
		for i, in := range cs.Insertions {
			ins[i] = fmt.Sprintf("%s@%d:%v", in.ID, in.Index, in.Model)
		}
		parts = append(parts, "insert=["+strings.Join(ins, " ")+"]")
	}
	if len(cs.Moves) > 0 {
		ms := make([]string, len(cs.Moves))
		for i, m := range cs.Moves {
			ms[i] = fmt.Sprintf("%d->%d", m.From, m.To)
		}
		parts = append(parts, "move=["+strings.Join(ms, " ")+"]")
	}
	if cs.Replace {
		es := make([]string, len(cs.ReplaceAll))
		for i, e := range cs.ReplaceAll {
			es[i] = fmt.Sprintf("%s:%v", e.ID, e.Model)
		}
		parts = append(parts, "replace_all=["+strings.Join(es, " ")+"]")
	}
	if cs.ReloadAll {
		parts = append(parts, "reload_all")
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " ")
}

// FormatTrace renders a result as the line-oriented text stored in golden
// files. Steps come first, then cycles in commit order, then the final
// list.
func FormatTrace(sc *Scenario, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", sc.Name)
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "step %d %s", s.Index, s.Kind)
		if s.Kind != StepFailModel {
			fmt.Fprintf(&b, " %s", s.Mode)
		}
		if s.Summary != "" {
			fmt.Fprintf(&b, " %s", s.Summary)
		}
		if s.Err != nil {
			fmt.Fprintf(&b, " -> %s\n", s.Code)
		} else {
			b.WriteString(" -> ok\n")
		}
	}
	for i, c := range r.Cycles {
		fmt.Fprintf(&b, "cycle %d %s %s v%d->v%d", i+1, c.Token, c.Mode, c.PrevVersion, c.Version)
		if c.Err != nil {
			fmt.Fprintf(&b, " failed: %v\n", c.Err)
			continue
		}
		fmt.Fprintf(&b, " %s %s\n", c.Changes, c.Items)
	}
	if r.Final != nil {
		fmt.Fprintf(&b, "final v%d %s\n", r.Final.Version(), RenderItems(r.Final))
	}
	return b.String()
}
