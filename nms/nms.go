package nms

import (
	"sort"

	"github.com/pkg/errors"
)

// Thresholds holds parameters of suppression
type Thresholds struct {
	// Max allowed overlap between kept box and any higher ranked kept box
	NMS float64
	// Min confidence for scored detections. Unscored means no score filtering
	Score Confidence
}

// NewThresholds creates thresholds without score filtering
func NewThresholds(nmsThreshold float64) Thresholds {
	return Thresholds{NMS: nmsThreshold}
}

// WithScore returns copy of thresholds with score filtering enabled
func (th Thresholds) WithScore(scoreThreshold float64) Thresholds {
	th.Score = Scored(scoreThreshold)
	return th
}

// Validate rejects NaN, infinite and negative thresholds
func (th Thresholds) Validate() error {
	if !isFinite(th.NMS) || th.NMS < 0 {
		return errors.Wrapf(ErrInvalidThreshold, "nms threshold %v must be finite and non-negative", th.NMS)
	}
	if score, ok := th.Score.Value(); ok && (!isFinite(score) || score < 0) {
		return errors.Wrapf(ErrInvalidThreshold, "score threshold %v must be finite and non-negative", score)
	}
	return nil
}

// candidate is a detection which passed score filtering
type candidate struct {
	index  int
	box    Box
	area   float64
	score  float64
	scored bool
}

// Filter runs non-maximum suppression and returns kept boxes ordered by rank:
// descending confidence, unscored after scored, input order among ties.
//
// Scored detections below scoreThreshold are dropped before suppression, unscored ones never are.
// A candidate is suppressed when its Overlap with some already kept box is strictly greater than nmsThreshold.
// Pass Unscored() as scoreThreshold to disable score filtering.
func Filter(detections []Detection, nmsThreshold float64, scoreThreshold Confidence) ([]Box, error) {
	kept, err := FilterIndices(detections, nmsThreshold, scoreThreshold)
	if err != nil {
		return nil, err
	}
	return boxesAt(detections, kept), nil
}

// FilterIndices is the same as Filter but returns indices of kept detections in the input slice
func FilterIndices(detections []Detection, nmsThreshold float64, scoreThreshold Confidence) ([]int, error) {
	return Apply(detections, Thresholds{NMS: nmsThreshold, Score: scoreThreshold})
}

// Apply runs non-maximum suppression with given thresholds and returns indices of kept detections in rank order
func Apply(detections []Detection, th Thresholds) ([]int, error) {
	ranked, err := prepare(detections, th)
	if err != nil {
		return nil, err
	}
	kept := make([]*candidate, 0, len(ranked))
	for i := range ranked {
		current := &ranked[i]
		suppressed := false
		for _, k := range kept {
			ovr, err := overlap(current.box, k.box, current.area, k.area)
			if err != nil {
				return nil, errors.Wrapf(err, "can't compare detection #%d with detection #%d", current.index, k.index)
			}
			if ovr > th.NMS {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, current)
		}
	}
	indices := make([]int, len(kept))
	for i, k := range kept {
		indices[i] = k.index
	}
	return indices, nil
}

// prepare validates input, drops detections below score threshold and ranks the rest
func prepare(detections []Detection, th Thresholds) ([]candidate, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	minScore, filterByScore := th.Score.Value()
	candidates := make([]candidate, 0, len(detections))
	for i, det := range detections {
		if err := det.Confidence.validate(); err != nil {
			return nil, errors.Wrapf(err, "detection #%d", i)
		}
		area, err := boxArea(det.Box)
		if err != nil {
			return nil, errors.Wrapf(err, "detection #%d", i)
		}
		score, scored := det.Confidence.Value()
		if filterByScore && scored && score < minScore {
			continue
		}
		candidates = append(candidates, candidate{
			index:  i,
			box:    det.Box,
			area:   area,
			score:  score,
			scored: scored,
		})
	}
	rank(candidates)
	return candidates, nil
}

// rank sorts candidates by descending confidence keeping input order for ties.
// Unscored candidates go after every scored one.
func rank(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.scored != b.scored {
			return a.scored
		}
		return a.score > b.score
	})
}

func boxesAt(detections []Detection, indices []int) []Box {
	boxes := make([]Box, len(indices))
	for i, idx := range indices {
		boxes[i] = detections[idx].Box
	}
	return boxes
}
