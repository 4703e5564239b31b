package mot

import (
	"reflect"
	"testing"

	"github.com/LdDl/nms-go/nms"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func trackIDs(tracker *Tracker) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(tracker.Objects))
	for id := range tracker.Objects {
		ids[id] = struct{}{}
	}
	return ids
}

func TestParseMatchingAlgorithm(t *testing.T) {
	algorithm, err := ParseMatchingAlgorithm("greedy")
	if err != nil {
		t.Fatalf("ParseMatchingAlgorithm failed: %v", err)
	}
	if algorithm != MatchingAlgorithmGreedy {
		t.Errorf("Expected greedy algorithm, got %v", algorithm)
	}
	if algorithm.String() != "greedy" {
		t.Errorf("Expected name 'greedy', got '%s'", algorithm.String())
	}

	algorithm, err = ParseMatchingAlgorithm("")
	if err != nil {
		t.Fatalf("ParseMatchingAlgorithm failed: %v", err)
	}
	if algorithm != MatchingAlgorithmHungarian {
		t.Errorf("Expected hungarian algorithm by default, got %v", algorithm)
	}

	if _, err = ParseMatchingAlgorithm("auction"); err == nil {
		t.Error("Expected error for unknown algorithm")
	}
}

func TestTrackerBasicMatching(t *testing.T) {
	for _, algorithm := range []MatchingAlgorithm{MatchingAlgorithmHungarian, MatchingAlgorithmGreedy} {
		t.Run(algorithm.String(), func(t *testing.T) {
			tracker := NewTracker(5, 0.3, 0.5, 0.3, nms.NewThresholds(0.7), algorithm)

			// First frame - two detections
			frame1 := []nms.Detection{
				nms.NewDetection(nms.NewBoxLTWH(10, 20, 30, 40), 0.9),
				nms.NewDetection(nms.NewBoxLTWH(100, 200, 30, 40), 0.8),
			}
			if err := tracker.MatchObjects(frame1); err != nil {
				t.Fatalf("Frame 1 failed: %v", err)
			}
			if len(tracker.Objects) != 2 {
				t.Fatalf("Expected 2 objects after frame 1, got %d", len(tracker.Objects))
			}
			before := trackIDs(tracker)

			// Second frame - slightly moved detections in reversed order
			frame2 := []nms.Detection{
				nms.NewDetection(nms.NewBoxLTWH(102, 202, 29, 39), 0.75),
				nms.NewDetection(nms.NewBoxLTWH(12, 22, 31, 41), 0.85),
			}
			if err := tracker.MatchObjects(frame2); err != nil {
				t.Fatalf("Frame 2 failed: %v", err)
			}
			if len(tracker.Objects) != 2 {
				t.Errorf("Expected 2 objects after frame 2, got %d", len(tracker.Objects))
			}
			if after := trackIDs(tracker); !reflect.DeepEqual(before, after) {
				t.Errorf("Expected the same track IDs %v, got %v", before, after)
			}

			for _, track := range tracker.ActiveTracks() {
				if !track.IsActive() {
					t.Errorf("Track %s should be active", track.GetID())
				}
				if len(track.GetHistory()) != 2 {
					t.Errorf("Track %s should have 2 history points, got %d", track.GetID(), len(track.GetHistory()))
				}
			}
		})
	}
}

func TestTrackerSuppressesDuplicates(t *testing.T) {
	tracker := DefaultTracker()
	frame := []nms.Detection{
		nms.NewDetection(nms.NewBoxLTWH(10, 20, 30, 40), 0.8),
		// Fully inside the first box
		nms.NewDetection(nms.NewBoxLTWH(15, 25, 20, 30), 0.9),
		nms.NewUnscoredDetection(nms.NewBoxLTWH(300, 300, 20, 20)),
	}
	if err := tracker.MatchObjects(frame); err != nil {
		t.Fatalf("MatchObjects failed: %v", err)
	}
	if len(tracker.Objects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(tracker.Objects))
	}

	expected := map[nms.Box]bool{
		nms.NewBoxLTWH(15, 25, 20, 30):   true,
		nms.NewBoxLTWH(300, 300, 20, 20): true,
	}
	for _, track := range tracker.ActiveTracks() {
		if !expected[track.GetBox()] {
			t.Errorf("Unexpected track box %v", track.GetBox())
		}
		delete(expected, track.GetBox())
	}
	if len(expected) != 0 {
		t.Errorf("Boxes without tracks: %v", expected)
	}
}

func TestTrackerLowConfidence(t *testing.T) {
	tracker := DefaultTracker()

	// Low confidence detections never start a track
	err := tracker.MatchObjects([]nms.Detection{
		nms.NewDetection(nms.NewBoxLTWH(10, 20, 30, 40), 0.4),
	})
	if err != nil {
		t.Fatalf("MatchObjects failed: %v", err)
	}
	if len(tracker.Objects) != 0 {
		t.Errorf("Expected no objects, got %d", len(tracker.Objects))
	}

	err = tracker.MatchObjects([]nms.Detection{
		nms.NewDetection(nms.NewBoxLTWH(10, 20, 30, 40), 0.9),
	})
	if err != nil {
		t.Fatalf("MatchObjects failed: %v", err)
	}
	if len(tracker.Objects) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(tracker.Objects))
	}
	before := trackIDs(tracker)

	// but they keep existing tracks alive in the second stage
	err = tracker.MatchObjects([]nms.Detection{
		nms.NewDetection(nms.NewBoxLTWH(11, 21, 30, 40), 0.4),
	})
	if err != nil {
		t.Fatalf("MatchObjects failed: %v", err)
	}
	if after := trackIDs(tracker); !reflect.DeepEqual(before, after) {
		t.Errorf("Expected the same track IDs %v, got %v", before, after)
	}
	for _, track := range tracker.Objects {
		if track.GetNoMatchTimes() != 0 {
			t.Errorf("Expected 0 no match times, got %d", track.GetNoMatchTimes())
		}
	}
}

func TestTrackerRemovesLostTracks(t *testing.T) {
	tracker := DefaultTracker()
	err := tracker.MatchObjects([]nms.Detection{
		nms.NewDetection(nms.NewBoxLTWH(10, 20, 30, 40), 0.9),
	})
	if err != nil {
		t.Fatalf("MatchObjects failed: %v", err)
	}
	if len(tracker.Objects) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(tracker.Objects))
	}

	for i := 0; i < 4; i++ {
		if err := tracker.MatchObjects(nil); err != nil {
			t.Fatalf("Empty frame #%d failed: %v", i, err)
		}
	}
	if len(tracker.Objects) != 1 {
		t.Errorf("Expected object to survive 4 empty frames, got %d objects", len(tracker.Objects))
	}

	if err := tracker.MatchObjects(nil); err != nil {
		t.Fatalf("Empty frame failed: %v", err)
	}
	if len(tracker.Objects) != 0 {
		t.Errorf("Expected object to be removed, got %d objects", len(tracker.Objects))
	}
}

func TestTrackerInvalidInput(t *testing.T) {
	tracker := NewTracker(5, 0.3, 0.5, 0.3, nms.NewThresholds(-1), MatchingAlgorithmGreedy)
	err := tracker.MatchObjects([]nms.Detection{nms.NewDetection(nms.NewBoxLTWH(0, 0, 1, 1), 0.9)})
	if !errors.Is(err, nms.ErrInvalidThreshold) {
		t.Errorf("Expected ErrInvalidThreshold, got: %v", err)
	}

	tracker = DefaultTracker()
	err = tracker.MatchObjects([]nms.Detection{nms.NewDetection(nms.NewBoxLTWH(0, 0, -1, 1), 0.9)})
	if !errors.Is(err, nms.ErrMalformedGeometry) {
		t.Errorf("Expected ErrMalformedGeometry, got: %v", err)
	}
}
