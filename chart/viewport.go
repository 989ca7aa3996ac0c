// Package chart maps a scrollable window of candles onto a drawing surface
// and turns it into draw primitives.
package chart

import (
	"math"

	"github.com/rustyeddy/tickchart/market"
)

const (
	DefaultVisibleCount = 30
	DefaultPadding      = 20.0

	bodyRatio  = 0.8
	rangePad   = 0.1
	flatPad    = 0.01
	wickWidth  = 1.0
	guideWidth = 1.0
)

// Options configures a Viewport. Zero values take defaults.
type Options struct {
	VisibleCount int
	Padding      float64
}

type dragOrigin struct {
	pos    Point
	offset int
}

// Viewport is the per-chart scroll and drag state. Offset counts candles
// back from the live edge; 0 means the in-progress candle is shown.
type Viewport struct {
	visible    int
	padding    float64
	offset     int
	lastCount  int
	autoScroll bool
	drag       *dragOrigin
}

func NewViewport(opts Options) *Viewport {
	if opts.VisibleCount < 1 {
		opts.VisibleCount = DefaultVisibleCount
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	return &Viewport{
		visible:    opts.VisibleCount,
		padding:    opts.Padding,
		autoScroll: true,
	}
}

func (v *Viewport) Offset() int       { return v.offset }
func (v *Viewport) AutoScroll() bool  { return v.autoScroll }
func (v *Viewport) Dragging() bool    { return v.drag != nil }
func (v *Viewport) VisibleCount() int { return v.visible }
func (v *Viewport) Padding() float64  { return v.padding }

// SeekToLatest jumps back to the live edge and resumes following it.
func (v *Viewport) SeekToLatest() {
	v.offset = 0
	v.drag = nil
	v.autoScroll = true
}

// SlotWidth is the horizontal space given to one candle on surface.
func (v *Viewport) SlotWidth(surface Rect) float64 {
	return (surface.Width() - 2*v.padding) / float64(v.visible)
}

// Window returns the half-open range of history that is visible and whether
// the in-progress candle is drawn after it.
func (v *Viewport) Window(historyLen int) (start, end int, live bool) {
	back := satSub(v.visible, 1) + v.offset
	start = satSub(historyLen, back)
	end = min(start+v.visible, historyLen)
	return start, end, v.offset == 0
}

// Visible returns the candles currently in view, oldest first.
func (v *Viewport) Visible(history []market.Candle, current market.Candle) []market.Candle {
	start, end, live := v.Window(len(history))
	out := make([]market.Candle, 0, end-start+1)
	out = append(out, history[start:end]...)
	if live {
		out = append(out, current)
	}
	return out
}

// observe applies first-render and auto-scroll rules for a new candle count.
func (v *Viewport) observe(total int) {
	if v.lastCount == 0 {
		v.SeekToLatest()
	}
	if total > v.lastCount && v.autoScroll {
		v.offset = 0
	}
	v.lastCount = total
}

// Render lays out the visible candles on surface.
func (v *Viewport) Render(history []market.Candle, current market.Candle, surface Rect) Frame {
	v.observe(len(history) + 1)

	visible := v.Visible(history, current)
	_, _, live := v.Window(len(history))

	f := Frame{
		Surface:   surface,
		Padding:   v.padding,
		Bounds:    PriceBounds(visible, current),
		Offset:    v.offset,
		Following: v.autoScroll,
		Live:      live,
		Slots:     make([]Slot, 0, len(visible)),
	}
	f.Bounds.XMax = float64(v.visible)

	slot := v.SlotWidth(surface)
	body := slot * bodyRatio

	f.PriceLine = Line{
		From:  Point{X: surface.Min.X + v.padding, Y: f.Y(current.Close)},
		To:    Point{X: surface.Max.X - v.padding, Y: f.Y(current.Close)},
		Width: guideWidth,
		Color: Guide,
	}

	for i, c := range visible {
		x := surface.Min.X + v.padding + float64(i)*slot + slot/2
		color := Red
		if c.Bullish() {
			color = Green
		}

		highY, lowY := f.Y(c.High), f.Y(c.Low)
		openY, closeY := f.Y(c.Open), f.Y(c.Close)

		f.Slots = append(f.Slots, Slot{Candle: c, X: x})
		f.Wicks = append(f.Wicks, Line{
			From:  Point{X: x, Y: highY},
			To:    Point{X: x, Y: lowY},
			Width: wickWidth,
			Color: color,
		})
		f.Bodies = append(f.Bodies, FilledRect{
			Rect: Rect{
				Min: Point{X: x - body/2, Y: math.Min(openY, closeY)},
				Max: Point{X: x + body/2, Y: math.Max(openY, closeY)},
			},
			Color: color,
		})
	}
	return f
}

// PointerKind is the phase of a pointer drag.
type PointerKind int

const (
	DragStart PointerKind = iota
	DragMove
	DragEnd
)

// PointerEvent is one pointer update delivered to HandleDrag.
type PointerEvent struct {
	Kind PointerKind
	Pos  Point
}

// HandleDrag scrolls the view. Dragging left by one slot moves one candle
// back in time. The offset never exceeds historyLen.
func (v *Viewport) HandleDrag(ev PointerEvent, surface Rect, historyLen int) {
	switch ev.Kind {
	case DragStart:
		v.drag = &dragOrigin{pos: ev.Pos, offset: v.offset}
		v.autoScroll = false
	case DragMove:
		if v.drag == nil {
			return
		}
		slot := v.SlotWidth(surface)
		if slot <= 0 {
			return
		}
		delta := int(math.Round((ev.Pos.X - v.drag.pos.X) / slot))
		v.offset = clamp(v.drag.offset-delta, 0, historyLen)
	case DragEnd:
		v.drag = nil
	}
}

// Drag performs a complete start-move-end gesture of dx pixels.
func (v *Viewport) Drag(surface Rect, historyLen int, dx float64) {
	origin := Point{X: surface.Min.X + surface.Width()/2, Y: surface.Min.Y + surface.Height()/2}
	v.HandleDrag(PointerEvent{Kind: DragStart, Pos: origin}, surface, historyLen)
	v.HandleDrag(PointerEvent{Kind: DragMove, Pos: Point{X: origin.X + dx, Y: origin.Y}}, surface, historyLen)
	v.HandleDrag(PointerEvent{Kind: DragEnd, Pos: Point{X: origin.X + dx, Y: origin.Y}}, surface, historyLen)
}

func satSub(a, b int) int {
	if b >= a {
		return 0
	}
	return a - b
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
