package nms

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestOverlap(t *testing.T) {
	cases := []struct {
		name    string
		a       Box
		b       Box
		overlap float64
		iou     float64
	}{
		{
			name:    "half shifted",
			a:       NewBoxLTWH(0, 0, 10, 10),
			b:       NewBoxLTWH(5, 0, 10, 10),
			overlap: 0.5,
			iou:     50.0 / 150.0,
		},
		{
			name:    "contained",
			a:       NewBoxLTWH(0, 0, 10, 10),
			b:       NewBoxLTWH(4, 4, 2, 2),
			overlap: 1.0,
			iou:     0.04,
		},
		{
			name:    "disjoint",
			a:       NewBoxLTWH(0, 0, 10, 10),
			b:       NewBoxLTWH(20, 20, 10, 10),
			overlap: 0.0,
			iou:     0.0,
		},
		{
			name:    "touching edges",
			a:       NewBoxLTWH(0, 0, 10, 10),
			b:       NewBoxLTWH(10, 0, 10, 10),
			overlap: 0.0,
			iou:     0.0,
		},
		{
			name:    "degenerate",
			a:       NewBoxLTWH(0, 0, 10, 10),
			b:       NewBoxLTWH(5, 5, 0, 0),
			overlap: 0.0,
			iou:     0.0,
		},
		{
			name:    "rotated square over itself",
			a:       NewBox(0, 0, 1, 2),
			b:       NewRotatedBox(0, 0, 45, 1, 2),
			overlap: (4 - (12 - 8*math.Sqrt2)) / 4,
			iou:     (4 - (12 - 8*math.Sqrt2)) / (8 - (4 - (12 - 8*math.Sqrt2))),
		},
		{
			name:    "identical rotated",
			a:       NewRotatedBox(3, 4, 33, 0.7, 5),
			b:       NewRotatedBox(3, 4, 33, 0.7, 5),
			overlap: 1.0,
			iou:     1.0,
		},
		{
			name:    "rotated far away",
			a:       NewRotatedBox(0, 0, 30, 1, 2),
			b:       NewRotatedBox(100, 100, 60, 1, 2),
			overlap: 0.0,
			iou:     0.0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, pair := range [][2]Box{{tc.a, tc.b}, {tc.b, tc.a}} {
				ovr, err := Overlap(pair[0], pair[1])
				if err != nil {
					t.Fatalf("Overlap failed: %v", err)
				}
				if math.Abs(ovr-tc.overlap) > eps {
					t.Errorf("Wrong overlap: %v, correct answer: %v", ovr, tc.overlap)
				}
				iou, err := IoU(pair[0], pair[1])
				if err != nil {
					t.Fatalf("IoU failed: %v", err)
				}
				if math.Abs(iou-tc.iou) > eps {
					t.Errorf("Wrong IoU: %v, correct answer: %v", iou, tc.iou)
				}
			}
		})
	}
}

func TestIntersectionBounds(t *testing.T) {
	boxes := []Box{
		NewBoxLTWH(0, 0, 10, 10),
		NewBoxLTWH(3, 2, 8, 4),
		NewRotatedBox(5, 5, 17, 1.5, 6),
		NewRotatedBox(4, 6, -70, 0.3, 12),
		NewRotatedBox(6, 4, 90, 2, 3),
		NewRotatedBox(0, 0, 30, 1, 100),
		NewRotatedBox(0, 0, 30, 1, 10),
		NewRotatedBox(3.3, 7.1, 37, 0.6, 11),
		NewRotatedBox(3.3, 7.1, 217, 0.6, 11),
	}
	for i := range boxes {
		for j := range boxes {
			inter, err := Intersection(boxes[i], boxes[j])
			if err != nil {
				t.Fatalf("Intersection failed: %v", err)
			}
			back, err := Intersection(boxes[j], boxes[i])
			if err != nil {
				t.Fatalf("Intersection failed: %v", err)
			}
			if inter != back {
				t.Errorf("Intersection of #%d and #%d is not symmetric: %v vs %v", i, j, inter, back)
			}
			if inter < 0 || inter > math.Min(boxes[i].Area(), boxes[j].Area())+eps {
				t.Errorf("Intersection of #%d and #%d is out of bounds: %v", i, j, inter)
			}
		}
	}
}

func TestRotatedMatchesAxisAligned(t *testing.T) {
	// Rotation by 90 degrees goes through polygon clipping but describes an axis-aligned rectangle
	// 8x4 box standing upright after rotation, i.e. the same as c
	a := NewRotatedBox(5, 5, 90, 2, 4)
	c := NewBoxLTWH(3, 1, 4, 8)
	b := NewBoxLTWH(1, 3, 8, 4)
	polygonOvr, err := Overlap(a, b)
	if err != nil {
		t.Fatal(err)
	}
	axisOvr, err := Overlap(c, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(axisOvr-0.5) > eps {
		t.Errorf("Wrong overlap: %v, correct answer: %v", axisOvr, 0.5)
	}
	if math.Abs(polygonOvr-axisOvr) > eps {
		t.Errorf("Polygon overlap %v differs from axis-aligned overlap %v", polygonOvr, axisOvr)
	}
}

func TestOverlapMalformed(t *testing.T) {
	good := NewBoxLTWH(0, 0, 10, 10)
	bad := NewBox(math.NaN(), 0, 1, 1)
	if _, err := Overlap(good, bad); !errors.Is(err, ErrMalformedGeometry) {
		t.Errorf("Expected ErrMalformedGeometry, got: %v", err)
	}
	if _, err := Overlap(bad, good); !errors.Is(err, ErrMalformedGeometry) {
		t.Errorf("Expected ErrMalformedGeometry, got: %v", err)
	}
	if _, err := IoU(good, bad); !errors.Is(err, ErrMalformedGeometry) {
		t.Errorf("Expected ErrMalformedGeometry, got: %v", err)
	}
}

func TestOverlapRotatedContained(t *testing.T) {
	cases := []struct {
		name  string
		outer Box
		inner Box
	}{
		{"same box", NewRotatedBox(3.3, 7.1, 37, 0.6, 11), NewRotatedBox(3.3, 7.1, 37, 0.6, 11)},
		{"concentric", NewRotatedBox(0, 0, 30, 1, 100), NewRotatedBox(0, 0, 30, 1, 10)},
		{"shifted inside", NewRotatedBox(10, -4, -65, 2.5, 8), NewRotatedBox(11, -3.5, -65, 1, 2)},
		{"axis-aligned inside rotated", NewRotatedBox(0, 0, 45, 1, 10), NewBoxLTWH(-1, -1, 2, 2)},
		{"far from origin", NewRotatedBox(1e300, 1e300, 45, 1, 1e10), NewRotatedBox(1e300, 1e300, 45, 1, 1e10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, pair := range [][2]Box{{tc.outer, tc.inner}, {tc.inner, tc.outer}} {
				inter, err := Intersection(pair[0], pair[1])
				if err != nil {
					t.Fatalf("Intersection failed: %v", err)
				}
				if inter != tc.inner.Area() {
					t.Errorf("Wrong intersection: %v, correct answer: %v", inter, tc.inner.Area())
				}
				ovr, err := Overlap(pair[0], pair[1])
				if err != nil {
					t.Fatalf("Overlap failed: %v", err)
				}
				if ovr != 1.0 {
					t.Errorf("Wrong overlap: %v, correct answer: %v", ovr, 1.0)
				}
			}
		})
	}
}

func TestOverlapRotatedFarFromOrigin(t *testing.T) {
	a := NewRotatedBox(1e12, -1e12, 30, 1, 4)
	b := NewRotatedBox(1e12+2, -1e12, 30, 1, 4)
	ovr, err := Overlap(a, b)
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	// Same pair near origin
	near, err := Overlap(NewRotatedBox(0, 0, 30, 1, 4), NewRotatedBox(2, 0, 30, 1, 4))
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	if math.Abs(ovr-near) > eps {
		t.Errorf("Wrong overlap: %v, correct answer: %v", ovr, near)
	}

	huge := NewRotatedBox(1e300, 1e300, 45, 1, 1e10)
	if _, err := Overlap(huge, NewRotatedBox(-1e300, -1e300, 45, 1, 1e10)); err != nil {
		t.Errorf("Boxes far apart must not fail: %v", err)
	}
	if _, err := Overlap(huge, NewRotatedBox(1e300+1e10, 1e300, 10, 1, 1e10)); err != nil {
		t.Errorf("Overlapping boxes far from origin must not fail: %v", err)
	}
}
