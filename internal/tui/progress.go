// Package tui prints plain terminal progress for runs that are not shown in
// the live view.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/dynamo"
)

const (
	barWidth   = 30
	clearLine  = "\r\033[K"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
)

// Progress is an observer that redraws a single status line at most
// frameRate times a second.
type Progress struct {
	w         io.Writer
	ast       *asteroid.Asteroid
	horizon   float64
	frameRate int
	lastFrame time.Time
	now       func() time.Time
	frames    int
}

func NewProgress(w io.Writer, ast *asteroid.Asteroid, horizon float64, frameRate int) *Progress {
	if frameRate <= 0 {
		frameRate = 10
	}
	return &Progress{w: w, ast: ast, horizon: horizon, frameRate: frameRate, now: time.Now}
}

func (p *Progress) OnStep(x dynamo.SystemState, t float64) {
	now := p.now()
	if now.Sub(p.lastFrame) < time.Second/time.Duration(p.frameRate) && t < p.horizon {
		return
	}
	p.lastFrame = now
	p.frames++
	p.render(x, t)
}

func (p *Progress) render(x dynamo.SystemState, t float64) {
	fraction := t / p.horizon
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * barWidth)
	bar := strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled)
	h := p.ast.HeightAtPosition(x.Position()).Norm()
	fmt.Fprintf(p.w, "%s[%s] %5.1f%%  t=%.0fs  h=%.1fm  m=%.2fkg", clearLine, bar, 100*fraction, t, h, x.Mass())
}

func (p *Progress) Frames() int { return p.frames }

func (p *Progress) Start() { fmt.Fprint(p.w, hideCursor) }
func (p *Progress) Stop()  { fmt.Fprint(p.w, "\n"+showCursor) }
