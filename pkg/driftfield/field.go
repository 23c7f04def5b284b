// Package driftfield generates deterministic synthetic current fields for
// drift injection: rotating vortices and directional ripples summed over a
// constant bias. Only the field direction feeds the vehicles (drift
// magnitude scales with distance traveled), but full vectors are exposed
// for preview and export.
package driftfield

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb"
)

// Config controls how many features are scattered over the area and how
// strong they are.
type Config struct {
	NumSpirals int
	NumRipples int
	BiasX      float64
	BiasY      float64
	Scale      float64
	Bound      orb.Bound
}

// DefaultConfig returns a moderately busy field over a 200x200 m area.
func DefaultConfig() Config {
	return Config{
		NumSpirals: 6,
		NumRipples: 4,
		BiasX:      0.10,
		BiasY:      0.05,
		Scale:      1.0,
		Bound:      orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{200, 200}},
	}
}

type spiral struct {
	cx, cy   float64
	strength float64
	radius   float64
}

type ripple struct {
	dirX, dirY float64
	wavelength float64
	amplitude  float64
	phase      float64
}

// Field is an immutable sampled-on-demand current field.
type Field struct {
	cfg     Config
	spirals []spiral
	ripples []ripple
}

// New scatters the configured features over the bound. The rng draw order
// is fixed, so the same seed always produces the same field.
func New(cfg Config, rng *rand.Rand) *Field {
	if cfg.Scale <= 0 {
		cfg.Scale = 1.0
	}
	w := cfg.Bound.Max[0] - cfg.Bound.Min[0]
	h := cfg.Bound.Max[1] - cfg.Bound.Min[1]
	diag := math.Hypot(w, h)
	if diag == 0 {
		diag = 1
	}

	f := &Field{cfg: cfg}
	for i := 0; i < cfg.NumSpirals; i++ {
		s := spiral{
			cx:       cfg.Bound.Min[0] + rng.Float64()*w,
			cy:       cfg.Bound.Min[1] + rng.Float64()*h,
			strength: (0.5 + 0.5*rng.Float64()) * cfg.Scale,
			radius:   (0.05 + 0.15*rng.Float64()) * diag,
		}
		if rng.Float64() < 0.5 {
			s.strength = -s.strength
		}
		f.spirals = append(f.spirals, s)
	}
	for i := 0; i < cfg.NumRipples; i++ {
		theta := rng.Float64() * 2 * math.Pi
		f.ripples = append(f.ripples, ripple{
			dirX:       math.Cos(theta),
			dirY:       math.Sin(theta),
			wavelength: (0.1 + 0.3*rng.Float64()) * diag,
			amplitude:  (0.2 + 0.8*rng.Float64()) * cfg.Scale,
			phase:      rng.Float64() * 2 * math.Pi,
		})
	}
	return f
}

// Sample evaluates the field at (x, y) and returns the vector components
// together with the flow direction in radians.
func (f *Field) Sample(x, y float64) (u, v, angle float64) {
	u, v = f.cfg.BiasX, f.cfg.BiasY

	for _, s := range f.spirals {
		dx, dy := x-s.cx, y-s.cy
		r2 := dx*dx + dy*dy
		w := s.strength / s.radius * math.Exp(-r2/(2*s.radius*s.radius))
		u += -w * dy
		v += w * dx
	}
	for _, rp := range f.ripples {
		ph := (x*rp.dirX+y*rp.dirY)*2*math.Pi/rp.wavelength + rp.phase
		m := rp.amplitude * math.Sin(ph)
		u += m * rp.dirX
		v += m * rp.dirY
	}
	return u, v, math.Atan2(v, u)
}

// GridSample is one evaluated point of a regular sampling grid.
type GridSample struct {
	X, Y  float64
	U, V  float64
	Angle float64
}

// Grid samples the field at the centers of an nx by ny grid over the
// configured bound, row-major from the minimum corner.
func (f *Field) Grid(nx, ny int) []GridSample {
	if nx <= 0 || ny <= 0 {
		return nil
	}
	w := f.cfg.Bound.Max[0] - f.cfg.Bound.Min[0]
	h := f.cfg.Bound.Max[1] - f.cfg.Bound.Min[1]
	cellW := w / float64(nx)
	cellH := h / float64(ny)

	out := make([]GridSample, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x := f.cfg.Bound.Min[0] + (float64(i)+0.5)*cellW
			y := f.cfg.Bound.Min[1] + (float64(j)+0.5)*cellH
			u, v, a := f.Sample(x, y)
			out = append(out, GridSample{X: x, Y: y, U: u, V: v, Angle: a})
		}
	}
	return out
}
