package nms

import "github.com/pkg/errors"

var (
	// ErrInvalidThreshold is returned when NMS or score threshold is NaN, infinite or negative
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrMalformedGeometry is returned when a box does not produce finite non-negative area or intersection
	ErrMalformedGeometry = errors.New("malformed geometry")
	// ErrInvalidConfidence is returned when a present confidence is NaN or infinite
	ErrInvalidConfidence = errors.New("invalid confidence")
)
