package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/testutil"
)

type fixture struct {
	eng     *engine.Engine
	sizer   *testutil.GatedSizer
	widget  *testutil.FakeWidget
	adapter *Adapter
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture wires engine → adapter → fake widget. The widget renders
// inserted and reloaded rows from the adapter's applied snapshot.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{sizer: testutil.NewGatedSizer()}
	cfg := ir.NewConfiguration(f.sizer, ir.SizeRange{})
	f.eng = engine.New(cfg,
		engine.WithLogger(quietLogger()),
		engine.WithTokenGenerator(testutil.NewSequentialTokens("t")),
	)
	f.widget = testutil.NewFakeWidget(func(i int) string {
		m, _ := f.adapter.ModelAt(i)
		return fmt.Sprint(m)
	})
	f.adapter = Attach(f.eng, Strong(f.widget), append([]Option{WithLogger(quietLogger())}, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.eng.Run(ctx)
	}()
	t.Cleanup(func() {
		f.sizer.ReleaseAll()
		cancel()
		<-done
	})
	return f
}

func (f *fixture) apply(t *testing.T, cs ir.Changeset, info ir.UserInfo) {
	t.Helper()
	require.NoError(t, f.eng.ApplyChangeset(context.Background(), cs, ir.ModeSync, info))
}

func models(s *ir.Snapshot) []string {
	out := make([]string, 0, s.Len())
	for _, it := range s.All() {
		out = append(out, fmt.Sprint(it.Model))
	}
	return out
}

func TestAdapter_WidgetTracksPublishedList(t *testing.T) {
	f := newFixture(t)

	steps := []ir.Changeset{
		ir.NewChangeset().WithInsert("a", "A", 0).WithInsert("b", "B", 1).WithInsert("c", "C", 2),
		ir.NewChangeset().WithRemove("b").WithInsert("d", "D", 0),
		ir.NewChangeset().WithMove(0, 2).WithUpdate("a", "A2"),
		ir.NewChangeset().WithReplaceAll(
			ir.Entry{ID: "c", Model: "C"},
			ir.Entry{ID: "e", Model: "E"},
			ir.Entry{ID: "d", Model: "D2"},
		),
	}
	for i, cs := range steps {
		f.apply(t, cs, nil)
		assert.Equal(t, models(f.eng.CurrentState()), f.widget.Snapshot(), "after step %d", i)
	}

	assert.Equal(t, int64(len(steps)), f.adapter.Transactions())
	assert.Same(t, f.eng.CurrentState(), f.adapter.Snapshot())
}

func TestAdapter_MovedAndUpdatedRowIsRedrawn(t *testing.T) {
	f := newFixture(t)
	f.apply(t, ir.NewChangeset().WithInsert("id1", "A", 0).WithInsert("id2", "B", 1), nil)

	f.apply(t, ir.NewChangeset().WithMove(0, 1).WithUpdate("id1", "A2"), nil)
	assert.Equal(t, []string{"B", "A2"}, f.widget.Snapshot())

	f.apply(t, ir.NewChangeset().WithReplaceAll(
		ir.Entry{ID: "id1", Model: "A3"},
		ir.Entry{ID: "id2", Model: "B"},
	), nil)
	assert.Equal(t, models(f.eng.CurrentState()), f.widget.Snapshot())
	assert.Equal(t, []string{"A3", "B"}, f.widget.Snapshot())

	log := f.widget.CallLog()
	assert.Equal(t, []string{"begin", "move 0->1", "reload [0]", "end"}, log[3:7])
}

func TestAdapter_SetStateReloadsEveryRow(t *testing.T) {
	f := newFixture(t)
	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0).WithInsert("b", "B", 1), nil)

	cfg := f.eng.CurrentState().Configuration()
	installed := ir.MustSnapshot(0, []ir.Item{
		{ID: "x", Model: "X", Size: ir.Size{Width: 1, Height: 1}},
		{ID: "y", Model: "Y", Size: ir.Size{Width: 1, Height: 1}},
		{ID: "z", Model: "Z", Size: ir.Size{Width: 1, Height: 1}},
	}, cfg)
	require.NoError(t, f.eng.SetState(context.Background(), installed, nil))

	assert.Equal(t, []string{"X", "Y", "Z"}, f.widget.Snapshot())
	assert.Same(t, f.eng.CurrentState(), f.adapter.Snapshot())
	log := f.widget.CallLog()
	assert.Equal(t, []string{"begin", "remove [0 1]", "insert [0 1 2]", "end"}, log[len(log)-4:])
	assert.Equal(t, int64(2), f.adapter.Transactions())
}

func TestAdapter_OneBatchPerTransition(t *testing.T) {
	f := newFixture(t)

	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0).WithInsert("b", "B", 1), nil)
	f.apply(t, ir.NewChangeset().WithRemove("a"), nil)

	assert.Equal(t, []string{
		"begin", "insert [0 1]", "end",
		"begin", "remove [0]", "end",
	}, f.widget.CallLog())
}

func TestAdapter_EmptyReloadStillOpensBatch(t *testing.T) {
	f := newFixture(t)
	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0), nil)

	require.NoError(t, f.eng.Reload(context.Background(), ir.ModeSync, nil))

	log := f.widget.CallLog()
	assert.Equal(t, []string{"begin", "end"}, log[len(log)-2:])
}

func TestAdapter_FailedTransitionLeavesWidget(t *testing.T) {
	f := newFixture(t)
	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0), nil)
	f.sizer.Fail("bad", fmt.Errorf("unsizable"))
	calls := len(f.widget.CallLog())

	err := f.eng.ApplyChangeset(context.Background(), ir.NewChangeset().WithInsert("b", "bad", 1), ir.ModeSync, nil)
	require.Error(t, err)

	assert.Len(t, f.widget.CallLog(), calls)
	assert.Equal(t, []string{"A"}, f.widget.Snapshot())
	assert.Equal(t, 1, f.adapter.Len())
}

func TestAdapter_Lookups(t *testing.T) {
	f := newFixture(t)
	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0).WithInsert("b", "BB", 1), nil)

	id, ok := f.adapter.IdentityAt(1)
	require.True(t, ok)
	assert.Equal(t, ir.ItemID("b"), id)

	m, ok := f.adapter.ModelAt(0)
	require.True(t, ok)
	assert.Equal(t, "A", m)

	size, ok := f.adapter.SizeAt(1)
	require.True(t, ok)
	assert.Equal(t, ir.Size{Width: 2, Height: 1}, size)

	i, ok := f.adapter.IndexOfIdentity("b")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = f.adapter.IndexOfModel("A")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = f.adapter.ItemAt(2)
	assert.False(t, ok)
	_, ok = f.adapter.ItemAt(-1)
	assert.False(t, ok)
	_, ok = f.adapter.IndexOfModel([]int{1})
	assert.False(t, ok)
}

func TestAdapter_LookupsDuringEndUpdatesSeeNewSnapshot(t *testing.T) {
	f := newFixture(t)
	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0), nil)
	f.apply(t, ir.NewChangeset().WithUpdate("a", "A2"), nil)

	assert.Equal(t, []string{"A2"}, f.widget.Snapshot())
}

func TestAdapter_GoneWidgetIsSkipped(t *testing.T) {
	sizer := testutil.NewGatedSizer()
	cfg := ir.NewConfiguration(sizer, ir.SizeRange{})
	var current Widget
	a := New(RefFunc(func() Widget { return current }), ir.EmptySnapshot(cfg), WithLogger(quietLogger()))

	next, changes, err := engine.Transition(context.Background(), ir.EmptySnapshot(cfg),
		ir.NewChangeset().WithInsert("a", "A", 0), nil, 1)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		a.DidEndUpdates(context.Background(), a.Snapshot(), next, changes)
	})
	assert.Same(t, next, a.Snapshot(), "lookups follow the engine even without a widget")
	assert.Equal(t, int64(0), a.Transactions())
}

func TestWeak_ClearedAfterCollection(t *testing.T) {
	w := testutil.NewFakeWidget(nil)
	ref := Weak(w)
	require.NotNil(t, ref.Get())

	w = nil
	assert.Eventually(t, func() bool {
		runtime.GC()
		return ref.Get() == nil
	}, time.Second, 10*time.Millisecond)
}

type recordingBridge struct {
	widget   *testutil.FakeWidget
	prepared []string
	applied  []ir.BoundsAnimation
	deltas   []int
}

func (b *recordingBridge) Prepare(w Widget, heightDelta int) any {
	b.deltas = append(b.deltas, heightDelta)
	log := b.widget.CallLog()
	last := ""
	if len(log) > 0 {
		last = log[len(log)-1]
	}
	b.prepared = append(b.prepared, last)
	return len(b.deltas)
}

func (b *recordingBridge) Apply(token any, anim ir.BoundsAnimation) {
	log := b.widget.CallLog()
	if log[len(log)-1] != "end" {
		panic("Apply called before EndUpdates")
	}
	b.applied = append(b.applied, anim)
}

func TestAdapter_BridgeOnlyForPureUpdates(t *testing.T) {
	bridge := &recordingBridge{}
	f := newFixture(t, WithBridge(bridge))
	bridge.widget = f.widget
	anim := ir.BoundsAnimation{Duration: 200 * time.Millisecond, Spring: true, Damping: 0.7}
	info := ir.UserInfo{UserInfoBoundsAnimation: anim}

	f.apply(t, ir.NewChangeset().WithInsert("a", "A", 0), info)
	assert.Empty(t, bridge.deltas, "insert is not eligible")

	f.sizer.SetHeight("A2", 3)
	f.apply(t, ir.NewChangeset().WithUpdate("a", "A2"), info)
	require.Len(t, bridge.deltas, 1)
	assert.Equal(t, 2, bridge.deltas[0])
	assert.Equal(t, "end", bridge.prepared[0], "prepare runs before the batch opens")
	assert.Equal(t, []ir.BoundsAnimation{anim}, bridge.applied)

	// Pure update without an animation in UserInfo.
	f.apply(t, ir.NewChangeset().WithUpdate("a", "A3"), nil)
	assert.Len(t, bridge.deltas, 1)

	// Pointer form.
	f.apply(t, ir.NewChangeset().WithUpdate("a", "A4"), ir.UserInfo{UserInfoBoundsAnimation: &anim})
	assert.Len(t, bridge.applied, 2)
}
