package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi stays pi", math.Pi, math.Pi},
		{"minus pi wraps to pi", -math.Pi, math.Pi},
		{"full turn", 2 * math.Pi, 0},
		{"three quarters negative", -1.5 * math.Pi, 0.5 * math.Pi},
		{"many turns", 7 * math.Pi, math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.in)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAngleDiff(t *testing.T) {
	got := AngleDiff(Radians(170), Radians(-170))
	want := Radians(20)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}

	got = AngleDiff(Radians(-170), Radians(170))
	want = Radians(-20)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDistance(t *testing.T) {
	d := Distance(orb.Point{0, 0}, orb.Point{3, 4})
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("Expected 5, got %v", d)
	}
}

func TestRelativeComposeRoundTrip(t *testing.T) {
	a := NewPose(3, -2, Radians(40))
	b := NewPose(-1, 7, Radians(-130))

	dx, dy, dth := Relative(a, b)
	back := Compose(a, dx, dy, dth)

	if math.Abs(back.X-b.X) > 1e-9 || math.Abs(back.Y-b.Y) > 1e-9 {
		t.Errorf("Expected position (%v, %v), got (%v, %v)", b.X, b.Y, back.X, back.Y)
	}
	if math.Abs(NormalizeAngle(back.Heading-b.Heading)) > 1e-9 {
		t.Errorf("Expected heading %v, got %v", b.Heading, back.Heading)
	}
}

func TestRelativeIdentity(t *testing.T) {
	a := NewPose(5, 5, Radians(90))
	dx, dy, dth := Relative(a, a)
	if dx != 0 || dy != 0 || dth != 0 {
		t.Errorf("Expected zero transform, got (%v, %v, %v)", dx, dy, dth)
	}
}

func TestRelativeAhead(t *testing.T) {
	// A pose 2m directly ahead of a north-facing pose is +x in its frame.
	a := NewPose(0, 0, Radians(90))
	b := NewPose(0, 2, Radians(90))
	dx, dy, dth := Relative(a, b)
	if math.Abs(dx-2) > 1e-9 || math.Abs(dy) > 1e-9 || math.Abs(dth) > 1e-9 {
		t.Errorf("Expected (2, 0, 0), got (%v, %v, %v)", dx, dy, dth)
	}
}
