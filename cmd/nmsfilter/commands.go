package main

import (
	"io"
	"log/slog"

	"github.com/LdDl/nms-go/internal/detio"
	"github.com/LdDl/nms-go/internal/render"
	"github.com/LdDl/nms-go/nms"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newFilterCmd(a *app) *cobra.Command {
	var inputPath, outputPath string
	var withScores bool
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Suppress overlapping detections and print kept boxes",
		Long: `Reads JSON array of detections, e.g.
  [{"box": {"ltwh": [0, 0, 10, 10]}, "confidence": 0.9},
   {"box": {"xc": 5, "yc": 5, "aspect": 1, "height": 10, "angle": 30}}]
and prints kept boxes in rank order. Detections without confidence are never
dropped by score threshold and rank after every scored one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detections, err := readDetections(cmd, inputPath)
			if err != nil {
				return err
			}
			kept, err := a.suppress(detections)
			if err != nil {
				return err
			}
			slog.Info("suppression done", "input", inputPath, "total", len(detections), "kept", len(kept))

			out, err := createOutput(cmd, outputPath)
			if err != nil {
				return err
			}
			err = writeOutput(out, func(w io.Writer) error {
				if withScores {
					keptDetections := make([]nms.Detection, len(kept))
					for i, idx := range kept {
						keptDetections[i] = detections[idx]
					}
					return detio.WriteDetections(w, keptDetections)
				}
				return detio.WriteBoxes(w, pick(detections, kept))
			})
			if err != nil {
				return err
			}
			summary(cmd, len(kept), len(detections))
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "detections JSON file, stdin if empty")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON file, stdout if empty")
	cmd.Flags().BoolVar(&withScores, "with-scores", false, "print kept detections with their confidences")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var inputPath, imagePath, outputPath string
	var thickness int
	var all bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw kept boxes on an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detections, err := readDetections(cmd, inputPath)
			if err != nil {
				return err
			}
			var boxes []nms.Box
			if all {
				boxes = make([]nms.Box, len(detections))
				for i := range detections {
					boxes[i] = detections[i].Box
				}
			} else {
				kept, err := a.suppress(detections)
				if err != nil {
					return err
				}
				boxes = pick(detections, kept)
			}
			if err := render.DrawFile(imagePath, outputPath, boxes, thickness); err != nil {
				return err
			}
			slog.Info("image rendered", "image", imagePath, "output", outputPath, "boxes", len(boxes))
			summary(cmd, len(boxes), len(detections))
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "detections JSON file, stdin if empty")
	cmd.Flags().StringVar(&imagePath, "image", "", "source image")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output image, format is picked by extension")
	cmd.Flags().IntVar(&thickness, "thickness", 2, "outline thickness in pixels")
	cmd.Flags().BoolVar(&all, "all", false, "draw every input box without suppression")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newTrackCmd(a *app) *cobra.Command {
	var inputPath, outputPath string
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track objects over frames of detections",
		Long: `Reads JSON array of frames, each frame is an array of detections in the
same format as for 'filter'. Each frame is suppressed first and then associated
with existing tracks. Prints active tracks after every frame.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, inputPath)
			if err != nil {
				return err
			}
			frames, err := detio.ReadFrames(in)
			in.Close()
			if err != nil {
				return err
			}
			tracker, err := a.config.NewTracker()
			if err != nil {
				return err
			}

			result := make([]detio.FrameTracks, 0, len(frames))
			total := 0
			for i, frame := range frames {
				if err := tracker.MatchObjects(frame); err != nil {
					return errors.Wrapf(err, "frame #%d", i)
				}
				active := tracker.ActiveTracks()
				tracks := make([]detio.Track, len(active))
				for j, track := range active {
					tracks[j] = detio.NewTrack(track.GetID().String(), track.GetBox(), track.GetConfidence())
				}
				result = append(result, detio.FrameTracks{Frame: i, Tracks: tracks})
				total += len(frame)
			}

			out, err := createOutput(cmd, outputPath)
			if err != nil {
				return err
			}
			err = writeOutput(out, func(w io.Writer) error {
				return detio.WriteFrameTracks(w, result)
			})
			if err != nil {
				return err
			}
			slog.Info("tracking done", "frames", len(frames), "detections", total, "tracks", len(tracker.Objects))
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "frames JSON file, stdin if empty")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON file, stdout if empty")
	return cmd
}

func readDetections(cmd *cobra.Command, path string) ([]nms.Detection, error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return detio.ReadDetections(in)
}

func pick(detections []nms.Detection, indices []int) []nms.Box {
	boxes := make([]nms.Box, len(indices))
	for i, idx := range indices {
		boxes[i] = detections[idx].Box
	}
	return boxes
}
