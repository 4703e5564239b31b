// Package nms implements greedy non-maximum suppression over axis-aligned and rotated boxes.
//
// Overlap between two boxes is measured as intersection area divided by the area of the smaller box,
// so a small box lying inside a bigger one is suppressed even when their IoU is low.
// Detections may carry no confidence at all: such detections are never dropped by score threshold
// and are ranked after every scored detection.
package nms
