package mot

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/LdDl/nms-go/nms"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Track is a tracked object using 8-D Kalman filter for box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
// Rotation of the last measurement is carried over as is.
type Track struct {
	id           uuid.UUID
	currentBox   nms.Box
	predictedBox nms.Box
	confidence   nms.Confidence
	history      []nms.Point
	maxHistory   int
	active       bool
	noMatchTimes int
	tracker      *kalman_filter.KalmanBBox
}

// NewTrackWithTime creates a new Track with specified time step.
func NewTrackWithTime(box nms.Box, confidence nms.Confidence, dt float64) *Track {
	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(box.XC, box.YC, box.Width(), box.Height),
	)
	track := Track{
		id:           uuid.New(),
		currentBox:   box,
		predictedBox: box,
		confidence:   confidence,
		history:      make([]nms.Point, 0, 150),
		maxHistory:   150,
		tracker:      kf,
	}
	track.history = append(track.history, box.Center())
	return &track
}

// NewTrack creates a new Track with default time step of 1.0.
func NewTrack(box nms.Box, confidence nms.Confidence) *Track {
	return NewTrackWithTime(box, confidence, 1.0)
}

// Activate activates track
func (track *Track) Activate() {
	track.active = true
}

// Deactivate deactivates track
func (track *Track) Deactivate() {
	track.active = false
}

// IsActive returns whether track has been matched
func (track *Track) IsActive() bool {
	return track.active
}

// GetID returns track's identifier
func (track *Track) GetID() uuid.UUID {
	return track.id
}

// GetBox returns track's current box
func (track *Track) GetBox() nms.Box {
	return track.currentBox
}

// GetPredictedBox returns box predicted by Kalman filter
func (track *Track) GetPredictedBox() nms.Box {
	return track.predictedBox
}

// GetConfidence returns confidence of the last matched detection
func (track *Track) GetConfidence() nms.Confidence {
	return track.confidence
}

// GetHistory returns track's center history. Be careful: this is not copy of history, but reference to it
func (track *Track) GetHistory() []nms.Point {
	return track.history
}

// SetMaxHistory sets max number of stored centers
func (track *Track) SetMaxHistory(maxHistory int) {
	track.maxHistory = maxHistory
	if len(track.history) > maxHistory {
		track.history = track.history[len(track.history)-maxHistory:]
	}
}

// GetNoMatchTimes returns number of consecutive frames without a match
func (track *Track) GetNoMatchTimes() int {
	return track.noMatchTimes
}

// IncNoMatch increases track's no match times
func (track *Track) IncNoMatch() {
	track.noMatchTimes++
}

// ResetNoMatch resets track's no match times
func (track *Track) ResetNoMatch() {
	track.noMatchTimes = 0
}

// PredictNextPosition executes Kalman filter prediction step
func (track *Track) PredictNextPosition() {
	track.tracker.Predict()
	cx, cy, w, h := track.tracker.GetState()
	track.predictedBox = stateToBox(track.currentBox, cx, cy, w, h)
}

// Update corrects Kalman filter with a new measurement
func (track *Track) Update(box nms.Box, confidence nms.Confidence) error {
	err := track.tracker.Update(box.XC, box.YC, box.Width(), box.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}
	cx, cy, w, h := track.tracker.GetState()
	track.currentBox = stateToBox(box, cx, cy, w, h)
	track.confidence = confidence
	track.active = true
	track.noMatchTimes = 0

	track.history = append(track.history, track.currentBox.Center())
	if len(track.history) > track.maxHistory {
		track.history = track.history[1:]
	}
	return nil
}

// GetVelocity returns current velocity estimates (vx, vy, vw, vh) from Kalman filter
func (track *Track) GetVelocity() (float64, float64, float64, float64) {
	return track.tracker.GetVelocity()
}

// stateToBox builds box from filter state keeping rotation of reference box
func stateToBox(reference nms.Box, cx, cy, w, h float64) nms.Box {
	w = math.Max(w, 0)
	h = math.Max(h, 0)
	aspect := 0.0
	if h > 0 {
		aspect = w / h
	}
	box := nms.NewBox(cx, cy, aspect, h)
	if angle, ok := reference.Angle(); ok {
		box = box.WithAngle(angle)
	}
	return box
}
