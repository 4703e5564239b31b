package nms

import "math"

// polygonArea returns signed area of a simple polygon (shoelace formula).
// Positive for counter-clockwise order in a y-up frame.
func polygonArea(polygon []Point) float64 {
	n := len(polygon)
	if n < 3 {
		return 0.0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return sum / 2.0
}

// cross returns z-component of (b - a) x (p - a)
func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// clipConvex clips subject polygon by convex clip polygon (Sutherland-Hodgman).
// Both polygons must be convex. Orientation of either one does not matter.
func clipConvex(subject, clip []Point) []Point {
	orientation := 1.0
	if polygonArea(clip) < 0 {
		orientation = -1.0
	}
	output := subject
	for i := range clip {
		if len(output) == 0 {
			break
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]
		input := output
		output = make([]Point, 0, len(input)+2)
		prev := input[len(input)-1]
		prevSide := cross(a, b, prev) * orientation
		for _, cur := range input {
			curSide := cross(a, b, cur) * orientation
			if curSide >= 0 {
				if prevSide < 0 {
					output = append(output, segmentLineIntersection(prev, cur, prevSide, curSide))
				}
				output = append(output, cur)
			} else if prevSide >= 0 {
				output = append(output, segmentLineIntersection(prev, cur, prevSide, curSide))
			}
			prev = cur
			prevSide = curSide
		}
	}
	return output
}

// segmentLineIntersection returns point where segment p->q crosses the clip line.
// sp and sq are signed distances (up to scale) of p and q to that line and must have different signs.
func segmentLineIntersection(p, q Point, sp, sq float64) Point {
	t := sp / (sp - sq)
	return Point{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
	}
}

// containsAll reports whether every point lies inside or on the border of convex polygon
func containsAll(polygon [4]Point, points [4]Point) bool {
	orientation := 1.0
	if polygonArea(polygon[:]) < 0 {
		orientation = -1.0
	}
	for i := range polygon {
		a := polygon[i]
		b := polygon[(i+1)%len(polygon)]
		for _, p := range points {
			if cross(a, b, p)*orientation < 0 {
				return false
			}
		}
	}
	return true
}

// convexIntersectionArea returns area of intersection of two convex quadrilaterals
func convexIntersectionArea(a, b [4]Point) float64 {
	clipped := clipConvex(a[:], b[:])
	return math.Abs(polygonArea(clipped))
}
