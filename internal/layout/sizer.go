// Package layout computes terminal cell sizes for list items.
package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/listsync/internal/ir"
)

// ErrUnsizableModel is returned for models that have no text form.
var ErrUnsizableModel = errors.New("model has no text form")

// Texter is implemented by models that render their own row text.
type Texter interface {
	Text() string
}

// Text returns the row text for m: the string itself, Text() for a Texter
// or String() for a fmt.Stringer. Numbers and booleans use fmt.Sprint.
func Text(m ir.Model) (string, error) {
	switch v := m.(type) {
	case string:
		return v, nil
	case Texter:
		return v.Text(), nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsizableModel, m)
	}
}

// TextSizer sizes a model as its text rendered through Style. When the
// configuration's SizeRange bounds the width, text is word-wrapped to that
// width first, so long rows grow taller instead of wider.
//
// TextSizer is safe for concurrent use.
type TextSizer struct {
	Style lipgloss.Style
}

// NewTextSizer returns a sizer with an unstyled base.
func NewTextSizer() TextSizer {
	return TextSizer{Style: lipgloss.NewStyle()}
}

// SizeFor implements ir.Sizer.
func (s TextSizer) SizeFor(ctx context.Context, m ir.Model, cfg *ir.Configuration) (ir.Size, error) {
	if err := ctx.Err(); err != nil {
		return ir.Size{}, err
	}
	text, err := Text(m)
	if err != nil {
		return ir.Size{}, err
	}
	rendered := s.Render(text, maxWidth(cfg))
	return ir.Size{
		Width:  lipgloss.Width(rendered),
		Height: lipgloss.Height(rendered),
	}, nil
}

// Render renders text through the style, wrapped to width when width > 0.
func (s TextSizer) Render(text string, width int) string {
	style := s.Style
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(text)
}

func maxWidth(cfg *ir.Configuration) int {
	if cfg == nil {
		return 0
	}
	return cfg.SizeRange.Max.Width
}
