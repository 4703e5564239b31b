package nms

import (
	"math"

	"github.com/pkg/errors"
)

// Intersection returns intersection area of two boxes.
// Axis-aligned pairs use plain interval overlap, any rotated box goes through convex polygon clipping.
// The result is never greater than the smaller of two areas.
func Intersection(a, b Box) (float64, error) {
	areaA, areaB, err := areas(a, b)
	if err != nil {
		return 0, err
	}
	return intersection(a, b, areaA, areaB)
}

func intersection(a, b Box, areaA, areaB float64) (float64, error) {
	if areaA == 0 || areaB == 0 {
		return 0.0, nil
	}
	var inter float64
	if a.IsAxisAligned() && b.IsAxisAligned() {
		l1, t1, r1, b1 := a.AsLTRB()
		l2, t2, r2, b2 := b.AsLTRB()
		w := math.Min(r1, r2) - math.Max(l1, l2)
		h := math.Min(b1, b2) - math.Max(t1, t2)
		if w <= 0 || h <= 0 {
			return 0.0, nil
		}
		inter = w * h
	} else {
		// Fixed operand order keeps the result independent of argument order
		if boxLess(b, areaB, a, areaA) {
			a, b = b, a
			areaA, areaB = areaB, areaA
		}
		inter = rotatedIntersection(a, b, areaA, areaB)
	}
	if !isFinite(inter) || inter < 0 {
		return 0, errors.Wrapf(ErrMalformedGeometry, "intersection area %v of %s and %s", inter, a, b)
	}
	return math.Min(inter, math.Min(areaA, areaB)), nil
}

// rotatedIntersection expects areaA <= areaB.
// Vertices are taken in a frame centered at a so that far-away boxes keep their precision.
func rotatedIntersection(a, b Box, areaA, areaB float64) float64 {
	dx := b.XC - a.XC
	dy := b.YC - a.YC
	if !isFinite(dx) || !isFinite(dy) {
		return 0.0
	}
	reach := (math.Hypot(a.Width(), a.Height) + math.Hypot(b.Width(), b.Height)) / 2.0
	if math.Hypot(dx, dy) >= reach {
		return 0.0
	}
	va := a.verticesAt(0, 0)
	vb := b.verticesAt(dx, dy)
	if containsAll(vb, va) {
		return areaA
	}
	if areaA == areaB && containsAll(va, vb) {
		return areaB
	}
	return convexIntersectionArea(va, vb)
}

// boxLess orders boxes by area, then by center, angle and size
func boxLess(a Box, areaA float64, b Box, areaB float64) bool {
	if areaA != areaB {
		return areaA < areaB
	}
	if a.XC != b.XC {
		return a.XC < b.XC
	}
	if a.YC != b.YC {
		return a.YC < b.YC
	}
	if a.hasAngle != b.hasAngle {
		return !a.hasAngle
	}
	if a.angle != b.angle {
		return a.angle < b.angle
	}
	if a.Aspect != b.Aspect {
		return a.Aspect < b.Aspect
	}
	return a.Height < b.Height
}

// Overlap returns intersection area divided by the area of the smaller box.
// Unlike IoU it reaches 1.0 when a small box lies fully inside a bigger one.
// If either box has zero area overlap is zero.
func Overlap(a, b Box) (float64, error) {
	areaA, areaB, err := areas(a, b)
	if err != nil {
		return 0, err
	}
	return overlap(a, b, areaA, areaB)
}

func overlap(a, b Box, areaA, areaB float64) (float64, error) {
	minArea := math.Min(areaA, areaB)
	if minArea == 0 {
		return 0.0, nil
	}
	inter, err := intersection(a, b, areaA, areaB)
	if err != nil {
		return 0, err
	}
	ratio := inter / minArea
	if ratio > 1.0 {
		ratio = 1.0
	}
	return ratio, nil
}

// IoU calculates Intersection over Union between two boxes
func IoU(a, b Box) (float64, error) {
	areaA, areaB, err := areas(a, b)
	if err != nil {
		return 0, err
	}
	inter, err := intersection(a, b, areaA, areaB)
	if err != nil {
		return 0, err
	}
	if inter == 0 {
		return 0.0, nil
	}
	union := areaA + areaB - inter
	if union <= 0 {
		return 0.0, nil
	}
	return math.Min(inter/union, 1.0), nil
}

func areas(a, b Box) (float64, float64, error) {
	areaA, err := boxArea(a)
	if err != nil {
		return 0, 0, err
	}
	areaB, err := boxArea(b)
	if err != nil {
		return 0, 0, err
	}
	return areaA, areaB, nil
}

func boxArea(b Box) (float64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	area := b.Area()
	if area < 0 {
		return 0, errors.Wrapf(ErrMalformedGeometry, "negative area %v of %s", area, b)
	}
	return area, nil
}
