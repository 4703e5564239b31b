// Package detio reads and writes detections as JSON
package detio

import (
	"encoding/json"
	"io"

	"github.com/LdDl/nms-go/nms"
	"github.com/pkg/errors"
)

// Box is JSON representation of nms.Box.
// Either LTWH or center form (xc, yc, aspect, height and optional angle) is used.
type Box struct {
	XC     float64     `json:"xc"`
	YC     float64     `json:"yc"`
	Aspect float64     `json:"aspect"`
	Height float64     `json:"height"`
	Angle  *float64    `json:"angle,omitempty"`
	LTWH   *[4]float64 `json:"ltwh,omitempty"`
}

// Detection is JSON representation of nms.Detection. Missing confidence means unscored
type Detection struct {
	Box        Box      `json:"box"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Track is JSON representation of a tracked object at some frame
type Track struct {
	ID         string   `json:"id"`
	Box        Box      `json:"box"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// FrameTracks holds active tracks after processing a frame
type FrameTracks struct {
	Frame  int     `json:"frame"`
	Tracks []Track `json:"tracks"`
}

// ToNMS converts JSON box to nms.Box
func (b Box) ToNMS() nms.Box {
	var box nms.Box
	if b.LTWH != nil {
		box = nms.NewBoxLTWH(b.LTWH[0], b.LTWH[1], b.LTWH[2], b.LTWH[3])
	} else {
		box = nms.NewBox(b.XC, b.YC, b.Aspect, b.Height)
	}
	if b.Angle != nil {
		box = box.WithAngle(*b.Angle)
	}
	return box
}

// FromNMS converts nms.Box to JSON box in center form
func FromNMS(box nms.Box) Box {
	out := Box{
		XC:     box.XC,
		YC:     box.YC,
		Aspect: box.Aspect,
		Height: box.Height,
	}
	if angle, ok := box.Angle(); ok {
		out.Angle = &angle
	}
	return out
}

// ToNMS converts JSON detection to nms.Detection
func (d Detection) ToNMS() nms.Detection {
	if d.Confidence == nil {
		return nms.NewUnscoredDetection(d.Box.ToNMS())
	}
	return nms.NewDetection(d.Box.ToNMS(), *d.Confidence)
}

func confidencePtr(c nms.Confidence) *float64 {
	value, ok := c.Value()
	if !ok {
		return nil
	}
	return &value
}

// ReadDetections decodes JSON array of detections
func ReadDetections(r io.Reader) ([]nms.Detection, error) {
	var raw []Detection
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "can't decode detections")
	}
	return convert(raw), nil
}

// ReadFrames decodes JSON array of frames, each frame is array of detections
func ReadFrames(r io.Reader) ([][]nms.Detection, error) {
	var raw [][]Detection
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "can't decode frames")
	}
	frames := make([][]nms.Detection, len(raw))
	for i := range raw {
		frames[i] = convert(raw[i])
	}
	return frames, nil
}

func convert(raw []Detection) []nms.Detection {
	detections := make([]nms.Detection, len(raw))
	for i := range raw {
		detections[i] = raw[i].ToNMS()
	}
	return detections
}

// WriteBoxes encodes boxes as indented JSON array
func WriteBoxes(w io.Writer, boxes []nms.Box) error {
	out := make([]Box, len(boxes))
	for i, box := range boxes {
		out[i] = FromNMS(box)
	}
	return errors.Wrap(encode(w, out), "can't encode boxes")
}

// WriteDetections encodes detections as indented JSON array
func WriteDetections(w io.Writer, detections []nms.Detection) error {
	out := make([]Detection, len(detections))
	for i, det := range detections {
		out[i] = Detection{
			Box:        FromNMS(det.Box),
			Confidence: confidencePtr(det.Confidence),
		}
	}
	return errors.Wrap(encode(w, out), "can't encode detections")
}

// NewTrack creates JSON track
func NewTrack(id string, box nms.Box, confidence nms.Confidence) Track {
	return Track{
		ID:         id,
		Box:        FromNMS(box),
		Confidence: confidencePtr(confidence),
	}
}

// WriteFrameTracks encodes tracks of every processed frame
func WriteFrameTracks(w io.Writer, frames []FrameTracks) error {
	return errors.Wrap(encode(w, frames), "can't encode tracks")
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
