// Package render draws boxes on top of images.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/LdDl/nms-go/nms"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// goldenAngle spreads hues of consecutive ranks around the color wheel
const goldenAngle = 137.508

// RankColor returns outline color for a box at given rank
func RankColor(rank int) color.NRGBA {
	hue := math.Mod(float64(rank)*goldenAngle, 360.0)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Draw returns copy of the image with outlines of the boxes.
// Boxes are expected in rank order, the first one gets the first color.
func Draw(img image.Image, boxes []nms.Box, thickness int) *image.NRGBA {
	out := imaging.Clone(img)
	if thickness < 1 {
		thickness = 1
	}
	for rank, box := range boxes {
		c := RankColor(rank)
		vertices := box.Vertices()
		for i := range vertices {
			drawLine(out, vertices[i], vertices[(i+1)%len(vertices)], thickness, c)
		}
	}
	return out
}

// DrawFile reads image, draws boxes and saves result. Output format is picked by extension
func DrawFile(inPath, outPath string, boxes []nms.Box, thickness int) error {
	img, err := imaging.Open(inPath)
	if err != nil {
		return errors.Wrapf(err, "can't open image '%s'", inPath)
	}
	out := Draw(img, boxes, thickness)
	if err := imaging.Save(out, outPath); err != nil {
		return errors.Wrapf(err, "can't save image '%s'", outPath)
	}
	return nil
}

func drawLine(img *image.NRGBA, from, to nms.Point, thickness int, c color.NRGBA) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	half := thickness / 2
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(from.X + t*dx))
		y := int(math.Round(from.Y + t*dy))
		for oy := -half; oy < thickness-half; oy++ {
			for ox := -half; ox < thickness-half; ox++ {
				p := image.Pt(x+ox, y+oy)
				if p.In(img.Rect) {
					img.SetNRGBA(p.X, p.Y, c)
				}
			}
		}
	}
}
