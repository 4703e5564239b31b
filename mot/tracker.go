package mot

import (
	"log/slog"
	"sort"

	"github.com/LdDl/nms-go/nms"
	"github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy uses a greedy algorithm for faster but potentially suboptimal assignment
	MatchingAlgorithmGreedy
)

// String returns name of matching algorithm
func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmHungarian:
		return "hungarian"
	case MatchingAlgorithmGreedy:
		return "greedy"
	default:
		return "unknown"
	}
}

// ParseMatchingAlgorithm converts name to MatchingAlgorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch name {
	case "hungarian", "":
		return MatchingAlgorithmHungarian, nil
	case "greedy":
		return MatchingAlgorithmGreedy, nil
	default:
		return MatchingAlgorithmHungarian, errors.Errorf("unknown matching algorithm '%s'", name)
	}
}

// Tracker is a ByteTrack-like multi-object tracker.
// Every frame is passed through non-maximum suppression before association.
type Tracker struct {
	// Maximum number of frames an object can be missing before it is removed
	maxDisappeared int
	// Minimum IoU between track and detection to be considered the same object
	minIoU float64
	// High detection confidence threshold
	highThresh float64
	// Low detection confidence threshold
	lowThresh float64
	// Suppression applied to incoming detections
	thresholds nms.Thresholds
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
	// Time step for new tracks
	dt     float64
	logger *slog.Logger
	// Main storage
	Objects map[uuid.UUID]*Track
}

// DefaultTracker creates a Tracker with default parameters.
func DefaultTracker() *Tracker {
	return NewTracker(5, 0.3, 0.5, 0.3, nms.NewThresholds(0.7), MatchingAlgorithmHungarian)
}

// NewTracker creates a new instance of Tracker with specified parameters.
func NewTracker(maxDisappeared int, minIoU, highThresh, lowThresh float64, thresholds nms.Thresholds, algorithm MatchingAlgorithm) *Tracker {
	return &Tracker{
		maxDisappeared: maxDisappeared,
		minIoU:         minIoU,
		highThresh:     highThresh,
		lowThresh:      lowThresh,
		thresholds:     thresholds,
		algorithm:      algorithm,
		dt:             1.0,
		logger:         slog.Default(),
		Objects:        make(map[uuid.UUID]*Track),
	}
}

// SetLogger sets logger for association traces
func (bt *Tracker) SetLogger(logger *slog.Logger) {
	bt.logger = logger
}

// SetTimeStep sets time step used by Kalman filters of new tracks
func (bt *Tracker) SetTimeStep(dt float64) {
	bt.dt = dt
}

// trackPair is a helper struct to pair track ID with its predicted box.
type trackPair struct {
	ID  uuid.UUID
	Box nms.Box
}

// MatchObjects suppresses overlapping detections of the current frame and matches the rest with existing tracks.
// Unscored detections are treated as high confidence ones.
func (bt *Tracker) MatchObjects(detections []nms.Detection) error {
	kept, err := nms.Apply(detections, bt.thresholds)
	if err != nil {
		return errors.Wrap(err, "Can't suppress detections")
	}
	bt.logger.Debug("suppressed detections", "total", len(detections), "kept", len(kept))

	// Predict next positions for all existing tracks via Kalman filter
	for _, track := range bt.Objects {
		track.Deactivate()
		track.PredictNextPosition()
	}

	// Get active tracks in stable order
	activeTracks := make([]trackPair, 0, len(bt.Objects))
	for id, track := range bt.Objects {
		if track.GetNoMatchTimes() < bt.maxDisappeared {
			activeTracks = append(activeTracks, trackPair{ID: id, Box: track.GetPredictedBox()})
		}
	}
	sort.Slice(activeTracks, func(i, j int) bool {
		return activeTracks[i].ID.String() < activeTracks[j].ID.String()
	})

	matchedTracks := make(map[uuid.UUID]struct{})
	matchedDetections := make(map[int]struct{})

	// 1. First stage: Match high confidence detections
	highDetectionIndices := make([]int, 0, len(kept))
	lowDetectionIndices := make([]int, 0)
	for _, idx := range kept {
		conf, ok := detections[idx].Confidence.Value()
		switch {
		case !ok || conf >= bt.highThresh:
			highDetectionIndices = append(highDetectionIndices, idx)
		case conf >= bt.lowThresh:
			lowDetectionIndices = append(lowDetectionIndices, idx)
		}
	}
	err = bt.associate(activeTracks, highDetectionIndices, detections, matchedTracks, matchedDetections)
	if err != nil {
		return errors.Wrap(err, "Error processing matches in stage 1")
	}

	// 2. Second stage: Match low confidence detections with remaining tracks
	unmatchedTracks := make([]trackPair, 0, len(activeTracks))
	for _, pair := range activeTracks {
		if _, found := matchedTracks[pair.ID]; !found {
			unmatchedTracks = append(unmatchedTracks, pair)
		}
	}
	err = bt.associate(unmatchedTracks, lowDetectionIndices, detections, matchedTracks, matchedDetections)
	if err != nil {
		return errors.Wrap(err, "Error processing matches in stage 2")
	}

	// 3. Add new tracks for unmatched high confidence detections
	for _, detIdx := range highDetectionIndices {
		if _, found := matchedDetections[detIdx]; found {
			continue
		}
		track := NewTrackWithTime(detections[detIdx].Box, detections[detIdx].Confidence, bt.dt)
		track.Activate()
		bt.Objects[track.GetID()] = track
		matchedTracks[track.GetID()] = struct{}{}
		bt.logger.Debug("new track", "id", track.GetID(), "box", track.GetBox().String())
	}

	// 4. Increment no_match_times for unmatched tracks
	for id, track := range bt.Objects {
		if _, found := matchedTracks[id]; !found {
			track.IncNoMatch()
		}
	}

	// 5. Remove tracks that have disappeared for too long
	for id, track := range bt.Objects {
		if track.GetNoMatchTimes() >= bt.maxDisappeared {
			bt.logger.Debug("track removed", "id", id)
			delete(bt.Objects, id)
		}
	}
	return nil
}

// ActiveTracks returns tracks which are not considered lost, ordered by identifier.
func (bt *Tracker) ActiveTracks() []*Track {
	activeTracks := make([]*Track, 0, len(bt.Objects))
	for _, track := range bt.Objects {
		if track.GetNoMatchTimes() < bt.maxDisappeared {
			activeTracks = append(activeTracks, track)
		}
	}
	sort.Slice(activeTracks, func(i, j int) bool {
		return activeTracks[i].GetID().String() < activeTracks[j].GetID().String()
	})
	return activeTracks
}

// associate matches given tracks and detections of a single stage
func (bt *Tracker) associate(
	tracks []trackPair,
	detectionIndices []int,
	allDetections []nms.Detection,
	matchedTracks map[uuid.UUID]struct{},
	matchedDetections map[int]struct{},
) error {
	if len(tracks) == 0 || len(detectionIndices) == 0 {
		return nil
	}
	iouMatrix, err := bt.createIoUMatrix(tracks, detectionIndices, allDetections)
	if err != nil {
		return err
	}
	matches := bt.performMatching(iouMatrix, len(tracks), len(detectionIndices))
	return bt.processMatches(matches, tracks, detectionIndices, iouMatrix, allDetections, matchedTracks, matchedDetections)
}

// createIoUMatrix is helper function to create IoU matrix: rows = tracks, columns = detections.
func (bt *Tracker) createIoUMatrix(
	tracks []trackPair,
	detectionIndices []int,
	allDetections []nms.Detection,
) ([][]float64, error) {
	iouMatrix := make([][]float64, len(tracks))
	for i, pair := range tracks {
		row := make([]float64, len(detectionIndices))
		for j, detIdx := range detectionIndices {
			iouVal, err := nms.IoU(pair.Box, allDetections[detIdx].Box)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't compare track %s with detection #%d", pair.ID, detIdx)
			}
			row[j] = iouVal
		}
		iouMatrix[i] = row
	}
	return iouMatrix, nil
}

// performMatching is helper function to perform matching using Hungarian or Greedy algorithm.
// Returns: a slice of [2]int, where each element is {trackIndex, detectionIndexInStage}.
func (bt *Tracker) performMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	switch bt.algorithm {
	case MatchingAlgorithmHungarian:
		return bt.performHungarianMatching(iouMatrix, numTracks, numDetections)
	default:
		return bt.performGreedyMatching(iouMatrix, numTracks, numDetections)
	}
}

func (bt *Tracker) performHungarianMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	paddedMatrix := iouMatrix
	if numTracks != numDetections {
		// Rectangular matrix - pad to make it square with 0.0 values (lowest IoU)
		paddedSize := max(numTracks, numDetections)
		paddedMatrix = make([][]float64, paddedSize)
		for i := range paddedMatrix {
			paddedMatrix[i] = make([]float64, paddedSize)
		}
		for i := 0; i < numTracks; i++ {
			copy(paddedMatrix[i], iouMatrix[i])
		}
	}
	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	matches := make([][2]int, 0, numTracks)
	for trackIndex, rowMap := range assignmentsMap {
		for detectionIndex := range rowMap {
			if trackIndex < numTracks && detectionIndex < numDetections {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			}
			break
		}
	}
	// Map iteration order is random
	sort.Slice(matches, func(i, j int) bool {
		return matches[i][0] < matches[j][0]
	})
	return matches
}

// performGreedyMatching is helper function for greedy matching.
func (bt *Tracker) performGreedyMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	matches := make([][2]int, 0)
	matchedDetIndicesInStage := make(map[int]struct{})
	for i := 0; i < numTracks; i++ {
		bestIoU := -1.0
		bestDetIdxInStage := -1
		for j := 0; j < numDetections; j++ {
			if _, found := matchedDetIndicesInStage[j]; found {
				continue
			}
			currentIoU := iouMatrix[i][j]
			if currentIoU > bestIoU && currentIoU >= bt.minIoU {
				bestIoU = currentIoU
				bestDetIdxInStage = j
			}
		}
		if bestDetIdxInStage != -1 {
			matches = append(matches, [2]int{i, bestDetIdxInStage})
			matchedDetIndicesInStage[bestDetIdxInStage] = struct{}{}
		}
	}
	return matches
}

// processMatches updates tracks and marks matched entities.
func (bt *Tracker) processMatches(
	matches [][2]int,
	tracks []trackPair,
	detectionIndices []int,
	iouMatrix [][]float64,
	allDetections []nms.Detection,
	matchedTracks map[uuid.UUID]struct{},
	matchedDetections map[int]struct{},
) error {
	for _, match := range matches {
		trackIdxInStage := match[0]
		detIdxInStage := match[1]
		iouVal := iouMatrix[trackIdxInStage][detIdxInStage]
		if iouVal < bt.minIoU {
			continue
		}
		trackID := tracks[trackIdxInStage].ID
		originalDetIdx := detectionIndices[detIdxInStage]
		track, ok := bt.Objects[trackID]
		if !ok {
			continue
		}
		detection := allDetections[originalDetIdx]
		err := track.Update(detection.Box, detection.Confidence)
		if err != nil {
			return errors.Wrapf(err, "Failed to update track %s", trackID)
		}
		matchedTracks[trackID] = struct{}{}
		matchedDetections[originalDetIdx] = struct{}{}
		bt.logger.Debug("track matched", "id", trackID, "detection", originalDetIdx, "iou", iouVal)
	}
	return nil
}
