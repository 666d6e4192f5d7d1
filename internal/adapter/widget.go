package adapter

import "weak"

// Widget is the batch-update surface of a list widget.
//
// Calls arrive on the engine's owner loop, one BeginUpdates/EndUpdates
// pair per committed transition. Remove and Reload take indexes into the
// list as it was before the batch; Insert and the destination of Move take
// indexes into the list after it. A reloaded index that is also a Move
// source is redrawn at the move destination.
type Widget interface {
	BeginUpdates()
	Remove(indexes []int)
	Insert(indexes []int)
	Move(from, to int)
	Reload(indexes []int)
	EndUpdates()
}

// WidgetRef resolves the widget an Adapter drives. Get returns nil once the
// widget is gone, and the Adapter then skips widget calls.
type WidgetRef interface {
	Get() Widget
}

// RefFunc adapts a function to WidgetRef.
type RefFunc func() Widget

// Get calls f.
func (f RefFunc) Get() Widget { return f() }

type strongRef struct{ w Widget }

func (r strongRef) Get() Widget { return r.w }

// Strong returns a WidgetRef that keeps w alive.
func Strong(w Widget) WidgetRef {
	return strongRef{w: w}
}

type weakRef[T any, PT interface {
	*T
	Widget
}] struct {
	p weak.Pointer[T]
}

func (r weakRef[T, PT]) Get() Widget {
	v := r.p.Value()
	if v == nil {
		return nil
	}
	return PT(v)
}

// Weak returns a WidgetRef that does not keep w alive. The widget's owner
// controls its lifetime.
func Weak[T any, PT interface {
	*T
	Widget
}](w PT) WidgetRef {
	return weakRef[T, PT]{p: weak.Make((*T)(w))}
}
