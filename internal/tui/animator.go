package tui

import (
	"math"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/listsync/internal/adapter"
	"github.com/roach88/listsync/internal/ir"
)

var _ adapter.Bridge = (*ResizeAnimator)(nil)

const frameInterval = time.Second / 30

// AnimationMsg starts a bounds animation in the Model.
type AnimationMsg struct {
	ID    int
	From  int
	Delta int
	Anim  ir.BoundsAnimation
}

type frameMsg struct {
	id  int
	now time.Time
}

type resizeToken struct {
	id    int
	from  int
	delta int
}

// ResizeAnimator is the adapter.Bridge for ListView. Prepare records the
// list height before the batch; Apply hands the animation to the Bubble Tea
// program, which then interpolates the frame height tick by tick.
type ResizeAnimator struct {
	mu   sync.Mutex
	next int
	send func(tea.Msg)
}

// NewResizeAnimator creates an animator that delivers messages with send.
func NewResizeAnimator(send func(tea.Msg)) *ResizeAnimator {
	return &ResizeAnimator{send: send}
}

// SetSend replaces the delivery function.
func (a *ResizeAnimator) SetSend(send func(tea.Msg)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.send = send
}

// Prepare implements adapter.Bridge.
func (a *ResizeAnimator) Prepare(w adapter.Widget, heightDelta int) any {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	from := 0
	if lv, ok := w.(*ListView); ok {
		from = lv.Height()
	}
	return resizeToken{id: a.next, from: from, delta: heightDelta}
}

// Apply implements adapter.Bridge.
func (a *ResizeAnimator) Apply(token any, anim ir.BoundsAnimation) {
	tok, ok := token.(resizeToken)
	if !ok {
		return
	}
	a.mu.Lock()
	send := a.send
	a.mu.Unlock()
	if send != nil {
		send(AnimationMsg{ID: tok.id, From: tok.from, Delta: tok.delta, Anim: anim})
	}
}

// Progress returns the eased completion of anim after elapsed, in [0, 1].
func Progress(anim ir.BoundsAnimation, elapsed time.Duration) float64 {
	if elapsed < anim.Delay {
		return 0
	}
	if anim.Duration <= 0 {
		return 1
	}
	t := float64(elapsed-anim.Delay) / float64(anim.Duration)
	if t >= 1 {
		return 1
	}
	if anim.Spring {
		return spring(t, anim.Damping)
	}
	return easeInOut(t)
}

func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// spring is an underdamped spring settling at 1. Damping is the damping
// ratio; values outside (0, 1) use 0.7.
func spring(t, damping float64) float64 {
	if damping <= 0 || damping >= 1 {
		damping = 0.7
	}
	const omega = 12.0
	wd := omega * math.Sqrt(1-damping*damping)
	return 1 - math.Exp(-damping*omega*t)*(math.Cos(wd*t)+damping*omega/wd*math.Sin(wd*t))
}

// animation is the Model's running bounds animation.
type animation struct {
	id      int
	from    int
	delta   int
	curve   ir.BoundsAnimation
	started time.Time
}

// height returns the frame height at now and whether the animation is done.
func (a *animation) height(now time.Time) (int, bool) {
	p := Progress(a.curve, now.Sub(a.started))
	h := a.from + int(math.Round(float64(a.delta)*p))
	done := now.Sub(a.started) >= a.curve.Delay+a.curve.Duration
	return h, done
}

func frameCmd(id int) tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg{id: id, now: t}
	})
}
