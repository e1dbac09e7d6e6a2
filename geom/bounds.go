// Package geom provides the axis-aligned tank rectangle and helpers around it.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Bounds is an axis-aligned rectangle in tank space. +Y is up, so Min.Y is the floor.
type Bounds struct {
	Min, Max r2.Vec
}

// Centered returns a width x height rectangle centered on the origin.
func Centered(width, height float64) Bounds {
	return Bounds{
		Min: r2.Vec{X: -width / 2, Y: -height / 2},
		Max: r2.Vec{X: width / 2, Y: height / 2},
	}
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() r2.Vec {
	return r2.Scale(0.5, r2.Add(b.Min, b.Max))
}

// Contains reports whether p lies inside the rectangle. Both edges are inclusive.
func (b Bounds) Contains(p r2.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Clamp returns p moved onto the nearest point inside the rectangle.
func (b Bounds) Clamp(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
	}
}

// Inset shrinks the rectangle by margin on every side. A margin larger than
// half an extent collapses that axis onto the center.
func (b Bounds) Inset(margin float64) Bounds {
	out := Bounds{
		Min: r2.Vec{X: b.Min.X + margin, Y: b.Min.Y + margin},
		Max: r2.Vec{X: b.Max.X - margin, Y: b.Max.Y - margin},
	}
	c := b.Center()
	if out.Min.X > out.Max.X {
		out.Min.X, out.Max.X = c.X, c.X
	}
	if out.Min.Y > out.Max.Y {
		out.Min.Y, out.Max.Y = c.Y, c.Y
	}
	return out
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// Rotate returns v rotated counter-clockwise by angle radians.
func Rotate(v r2.Vec, angle float64) r2.Vec {
	sin, cos := math.Sincos(angle)
	return r2.Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
