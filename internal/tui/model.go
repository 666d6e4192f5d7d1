package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/listsync/internal/adapter"
	"github.com/roach88/listsync/internal/announce"
	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/layout"
)

// Options configures the demo UI.
type Options struct {
	// Seed is the initial list of row texts.
	Seed []string
	// Width is the wrap width used when wrapping is on. 0 disables
	// wrapping entirely.
	Width int
	// Workers is the engine's sizing parallelism. 0 means GOMAXPROCS.
	Workers   int
	ThemeName string
	Logger    *slog.Logger
	// EngineOptions are appended to the engine options the UI sets.
	EngineOptions []engine.Option
	// Prepare, if set, runs once the engine holds the seeded list and
	// before it starts. Use it to register extra listeners.
	Prepare func(ctx context.Context, e *engine.Engine) error
}

// bus forwards messages to the running program. Until a program is
// attached messages are dropped.
type bus struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (b *bus) Send(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (b *bus) attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

// Messages

type changedMsg struct {
	version uint64
	changes string
}

type failedMsg struct{ err error }

type refreshMsg struct{}

// Model is the Bubble Tea model of the demo list.
type Model struct {
	ctx      context.Context
	eng      *engine.Engine
	adapter  *adapter.Adapter
	list     *ListView
	animator *ResizeAnimator
	bus      *bus
	sizer    layout.TextSizer

	keys   keyMap
	help   help.Model
	theme  Theme
	styles Styles

	width    int
	height   int
	wrap     int
	wrapOn   bool
	selected int
	nextID   int

	status   string
	lastErr  error
	anim     *animation
	showHelp bool
}

// New builds the engine, adapter and widget for opts. The engine is not
// running yet; see Start and Run.
func New(ctx context.Context, opts Options) (Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	theme := GetTheme(opts.ThemeName)

	m := Model{
		ctx:    ctx,
		bus:    &bus{},
		sizer:  layout.NewTextSizer(),
		keys:   DefaultKeyMap(),
		help:   help.New(),
		theme:  theme,
		styles: theme.Styles(),
		wrap:   opts.Width,
		wrapOn: opts.Width > 0,
	}

	cfg := m.configuration()
	seed := make([]ir.Entry, len(opts.Seed))
	for i, text := range opts.Seed {
		m.nextID++
		seed[i] = ir.Entry{ID: m.newID(), Model: text}
	}
	initial, _, err := engine.Transition(ctx, ir.EmptySnapshot(cfg), ir.NewChangeset().WithReplaceAll(seed...), nil, opts.Workers)
	if err != nil {
		return Model{}, fmt.Errorf("size seed items: %w", err)
	}

	engOpts := []engine.Option{
		engine.WithInitialState(initial),
		engine.WithLogger(logger),
		engine.WithWorkers(opts.Workers),
	}
	m.eng = engine.New(cfg, append(engOpts, opts.EngineOptions...)...)

	var ad *adapter.Adapter
	sizer := m.sizer
	m.list = NewListView(func(i int) string { return renderRow(sizer, ad, i) })
	m.list.Load(renderAll(m.sizer, initial))
	m.animator = NewResizeAnimator(m.bus.Send)
	m.adapter = adapter.Attach(m.eng, adapter.Strong(m.list),
		adapter.WithBridge(m.animator),
		adapter.WithLogger(logger),
	)
	ad = m.adapter

	b := m.bus
	m.eng.AddListener(&announce.Funcs{
		OnDidEndUpdates: func(_ context.Context, _, next *ir.Snapshot, changes *ir.AppliedChanges) {
			b.Send(changedMsg{version: next.Version(), changes: changes.String()})
		},
		OnTransitionFailed: func(_ context.Context, _ *ir.Snapshot, err error) {
			b.Send(failedMsg{err: err})
		},
	})

	if opts.Prepare != nil {
		if err := opts.Prepare(ctx, m.eng); err != nil {
			return Model{}, err
		}
	}
	return m, nil
}

func (m *Model) newID() ir.ItemID {
	return ir.ItemID(fmt.Sprintf("item-%d", m.nextID))
}

func (m Model) configuration() *ir.Configuration {
	r := ir.SizeRange{Min: ir.Size{Height: 1}}
	if m.wrapOn {
		r.Max.Width = m.wrap
	}
	return ir.NewConfiguration(m.sizer, r)
}

// renderRow renders the row at index of the adapter's applied snapshot.
func renderRow(sizer layout.TextSizer, ad *adapter.Adapter, index int) string {
	s := ad.Snapshot()
	if index < 0 || index >= s.Len() {
		return ""
	}
	return renderItem(sizer, s.At(index).Model, s.Configuration())
}

func renderItem(sizer layout.TextSizer, model ir.Model, cfg *ir.Configuration) string {
	text, err := layout.Text(model)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	width := 0
	if cfg != nil {
		width = cfg.SizeRange.Max.Width
	}
	return sizer.Render(text, width)
}

func renderAll(sizer layout.TextSizer, s *ir.Snapshot) []string {
	out := make([]string, 0, s.Len())
	for _, it := range s.All() {
		out = append(out, renderItem(sizer, it.Model, s.Configuration()))
	}
	return out
}

// Engine returns the model's engine.
func (m Model) Engine() *engine.Engine { return m.eng }

// Adapter returns the model's adapter.
func (m Model) Adapter() *adapter.Adapter { return m.adapter }

// List returns the model's widget.
func (m Model) List() *ListView { return m.list }

// Start runs the engine's owner loop on a new goroutine. The returned
// channel receives Run's result.
func (m Model) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- m.eng.Run(ctx) }()
	return done
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case changedMsg:
		m.clampSelection()
		m.status = fmt.Sprintf("v%d %s", msg.version, msg.changes)
		m.lastErr = nil
		return m, nil

	case failedMsg:
		m.lastErr = msg.err
		return m, nil

	case refreshMsg:
		return m, nil

	case AnimationMsg:
		m.anim = &animation{
			id:      msg.ID,
			from:    msg.From,
			delta:   msg.Delta,
			curve:   msg.Anim,
			started: time.Now(),
		}
		return m, frameCmd(msg.ID)

	case frameMsg:
		if m.anim == nil || m.anim.id != msg.id {
			return m, nil
		}
		if _, done := m.anim.height(msg.now); done {
			m.anim = nil
			return m, nil
		}
		return m, frameCmd(msg.id)
	}

	return m, nil
}

func (m *Model) clampSelection() {
	n := m.adapter.Len()
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < m.adapter.Len()-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Add):
		m.nextID++
		at := 0
		if m.adapter.Len() > 0 {
			at = m.selected + 1
		}
		m.apply(ir.NewChangeset().WithInsert(m.newID(), fmt.Sprintf("Item %d", m.nextID), at), nil)
		m.selected = at
	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.adapter.IdentityAt(m.selected); ok {
			m.apply(ir.NewChangeset().WithRemove(id), nil)
		}
	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.adapter.ItemAt(m.selected); ok {
			m.apply(ir.NewChangeset().WithUpdate(it.ID, fmt.Sprint(it.Model)+" *"), nil)
		}
	case key.Matches(msg, m.keys.Grow):
		if it, ok := m.adapter.ItemAt(m.selected); ok {
			grown := fmt.Sprint(it.Model) + "\n  " + strings.Repeat("·", 8)
			m.apply(ir.NewChangeset().WithUpdate(it.ID, grown), ir.UserInfo{
				adapter.UserInfoBoundsAnimation: ir.BoundsAnimation{Duration: 400 * time.Millisecond, Spring: true, Damping: 0.6},
			})
		}
	case key.Matches(msg, m.keys.MoveUp):
		if m.selected > 0 {
			m.apply(ir.NewChangeset().WithMove(m.selected, m.selected-1), nil)
			m.selected--
		}
	case key.Matches(msg, m.keys.MoveDown):
		if m.selected < m.adapter.Len()-1 {
			m.apply(ir.NewChangeset().WithMove(m.selected, m.selected+1), nil)
			m.selected++
		}
	case key.Matches(msg, m.keys.Shuffle):
		s := m.adapter.Snapshot()
		entries := make([]ir.Entry, 0, s.Len())
		for _, it := range s.All() {
			entries = append(entries, ir.Entry{ID: it.ID, Model: it.Model})
		}
		slices.Reverse(entries)
		m.apply(ir.NewChangeset().WithReplaceAll(entries...), nil)
	case key.Matches(msg, m.keys.Reload):
		if err := m.eng.Reload(m.ctx, ir.ModeAsync, nil); err != nil {
			m.lastErr = err
		}
	case key.Matches(msg, m.keys.Wrap):
		if m.wrap > 0 {
			m.wrapOn = !m.wrapOn
			if err := m.eng.UpdateConfiguration(m.ctx, m.configuration(), ir.ModeAsync, nil); err != nil {
				m.lastErr = err
			}
		}
	}
	return m, nil
}

// apply submits cs asynchronously; Update runs on the program goroutine,
// never on the engine's owner loop.
func (m *Model) apply(cs ir.Changeset, info ir.UserInfo) {
	if err := m.eng.ApplyChangeset(m.ctx, cs, ir.ModeAsync, info); err != nil {
		m.lastErr = err
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	s := m.adapter.Snapshot()
	header := fmt.Sprintf("listsync  v%d  %d items  %s", s.Version(), s.Len(), m.eng.State())
	b.WriteString(m.styles.Header.Render(header))
	b.WriteString("\n")

	lines := m.listLines()
	if m.anim != nil {
		h, _ := m.anim.height(time.Now())
		lines = fitLines(lines, h)
	}
	if avail := m.height - 4; m.height > 0 && len(lines) > avail && avail > 0 {
		lines = lines[:avail]
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")

	switch {
	case m.lastErr != nil:
		b.WriteString(m.styles.Error.Render(m.lastErr.Error()))
	case m.status != "":
		b.WriteString(m.styles.Footer.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) listLines() []string {
	var lines []string
	for i, row := range m.list.Rows() {
		style := m.styles.Row
		switch {
		case i == m.selected:
			style = m.styles.Selected
		case row.Fresh:
			style = m.styles.Fresh
		}
		for _, line := range strings.Split(row.Text, "\n") {
			lines = append(lines, style.Render(line))
		}
	}
	return lines
}

func fitLines(lines []string, h int) []string {
	if h < 0 {
		h = 0
	}
	if len(lines) >= h {
		return lines[:h]
	}
	return append(lines, make([]string, h-len(lines))...)
}

// Run starts the engine and the Bubble Tea program and blocks until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	done := m.Start(ctx)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.bus.attach(p.Send)
	m.list.SetNotify(func() { p.Send(refreshMsg{}) })

	_, err = p.Run()
	m.eng.Stop()
	cancel()
	<-done
	return err
}
