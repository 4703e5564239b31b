package nms

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Point is a 2D point
type Point struct {
	X float64
	Y float64
}

// NewPoint creates new Point
func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// Box is a 2D box described by its center, aspect ratio (width / height) and height.
// When angle is set the box is rotated around its center by that many degrees.
// A box without an angle is axis-aligned.
type Box struct {
	XC       float64
	YC       float64
	Aspect   float64
	Height   float64
	angle    float64
	hasAngle bool
}

// NewBox creates an axis-aligned box
func NewBox(xc, yc, aspect, height float64) Box {
	return Box{
		XC:     xc,
		YC:     yc,
		Aspect: aspect,
		Height: height,
	}
}

// NewRotatedBox creates a box rotated by angle degrees around its center
func NewRotatedBox(xc, yc, angle, aspect, height float64) Box {
	return Box{
		XC:       xc,
		YC:       yc,
		Aspect:   aspect,
		Height:   height,
		angle:    angle,
		hasAngle: true,
	}
}

// NewBoxLTWH creates an axis-aligned box from its left-top corner and size
func NewBoxLTWH(left, top, width, height float64) Box {
	aspect := 0.0
	if height != 0 {
		aspect = width / height
	}
	return Box{
		XC:     left + width/2.0,
		YC:     top + height/2.0,
		Aspect: aspect,
		Height: height,
	}
}

// NewBoxLTRB creates an axis-aligned box from its left-top and right-bottom corners
func NewBoxLTRB(left, top, right, bottom float64) Box {
	return NewBoxLTWH(left, top, right-left, bottom-top)
}

// Angle returns rotation in degrees and whether box is rotated at all
func (b Box) Angle() (float64, bool) {
	return b.angle, b.hasAngle
}

// WithAngle returns copy of the box rotated by given degrees
func (b Box) WithAngle(angle float64) Box {
	b.angle = angle
	b.hasAngle = true
	return b
}

// WithoutAngle returns axis-aligned copy of the box
func (b Box) WithoutAngle() Box {
	b.angle = 0
	b.hasAngle = false
	return b
}

// IsAxisAligned reports whether box edges are parallel to the axes.
// Rotations by a multiple of 180 degrees keep the box axis-aligned.
func (b Box) IsAxisAligned() bool {
	if !b.hasAngle {
		return true
	}
	return math.Mod(b.angle, 180.0) == 0
}

// Width returns box's width
func (b Box) Width() float64 {
	return b.Aspect * b.Height
}

// Area returns box's area
func (b Box) Area() float64 {
	return b.Width() * b.Height
}

// Center returns box's center
func (b Box) Center() Point {
	return Point{X: b.XC, Y: b.YC}
}

// Vertices returns four corners of the box.
// For a non-negative size the corners go counter-clockwise in a y-up frame.
func (b Box) Vertices() [4]Point {
	return b.verticesAt(b.XC, b.YC)
}

// verticesAt returns corners of the box as if its center were at (xc, yc)
func (b Box) verticesAt(xc, yc float64) [4]Point {
	hw := b.Width() / 2.0
	hh := b.Height / 2.0
	corners := [4]Point{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
	sin, cos := 0.0, 1.0
	if b.hasAngle {
		sin, cos = math.Sincos(b.angle * math.Pi / 180.0)
	}
	for i, c := range corners {
		corners[i] = Point{
			X: xc + c.X*cos - c.Y*sin,
			Y: yc + c.X*sin + c.Y*cos,
		}
	}
	return corners
}

// AsLTWH returns the axis-aligned bounding rectangle of the box as left, top, width, height
func (b Box) AsLTWH() (float64, float64, float64, float64) {
	left, top, right, bottom := b.AsLTRB()
	return left, top, right - left, bottom - top
}

// AsLTRB returns the axis-aligned bounding rectangle of the box as left, top, right, bottom
func (b Box) AsLTRB() (float64, float64, float64, float64) {
	if b.IsAxisAligned() {
		hw := b.Width() / 2.0
		hh := b.Height / 2.0
		return b.XC - hw, b.YC - hh, b.XC + hw, b.YC + hh
	}
	vertices := b.Vertices()
	left, top := vertices[0].X, vertices[0].Y
	right, bottom := left, top
	for _, v := range vertices[1:] {
		left = math.Min(left, v.X)
		top = math.Min(top, v.Y)
		right = math.Max(right, v.X)
		bottom = math.Max(bottom, v.Y)
	}
	return left, top, right, bottom
}

// Validate checks that every box parameter is finite and that the size is not negative
func (b Box) Validate() error {
	if !isFinite(b.XC) || !isFinite(b.YC) {
		return errors.Wrapf(ErrMalformedGeometry, "center (%v, %v) is not finite", b.XC, b.YC)
	}
	if !isFinite(b.Aspect) || b.Aspect < 0 {
		return errors.Wrapf(ErrMalformedGeometry, "aspect %v must be finite and non-negative", b.Aspect)
	}
	if !isFinite(b.Height) || b.Height < 0 {
		return errors.Wrapf(ErrMalformedGeometry, "height %v must be finite and non-negative", b.Height)
	}
	if b.hasAngle && !isFinite(b.angle) {
		return errors.Wrapf(ErrMalformedGeometry, "angle %v is not finite", b.angle)
	}
	area := b.Area()
	if !isFinite(area) {
		return errors.Wrapf(ErrMalformedGeometry, "area %v is not finite", area)
	}
	return nil
}

func (b Box) String() string {
	if b.hasAngle {
		return fmt.Sprintf("Box(xc=%g, yc=%g, angle=%g, aspect=%g, height=%g)", b.XC, b.YC, b.angle, b.Aspect, b.Height)
	}
	return fmt.Sprintf("Box(xc=%g, yc=%g, aspect=%g, height=%g)", b.XC, b.YC, b.Aspect, b.Height)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
