package nms

import (
	"fmt"

	"github.com/pkg/errors"
)

// Confidence is an optional score.
// Zero value is unscored, which differs from a score of 0.
type Confidence struct {
	value  float64
	scored bool
}

// Scored returns confidence holding given value
func Scored(value float64) Confidence {
	return Confidence{value: value, scored: true}
}

// Unscored returns confidence without value
func Unscored() Confidence {
	return Confidence{}
}

// Value returns score and whether it is present
func (c Confidence) Value() (float64, bool) {
	return c.value, c.scored
}

// IsScored reports whether score is present
func (c Confidence) IsScored() bool {
	return c.scored
}

func (c Confidence) String() string {
	if !c.scored {
		return "none"
	}
	return fmt.Sprintf("%g", c.value)
}

func (c Confidence) validate() error {
	if c.scored && !isFinite(c.value) {
		return errors.Wrapf(ErrInvalidConfidence, "confidence %v is not finite", c.value)
	}
	return nil
}

// Detection is a box paired with an optional confidence
type Detection struct {
	Box        Box
	Confidence Confidence
}

// NewDetection creates scored detection
func NewDetection(box Box, confidence float64) Detection {
	return Detection{Box: box, Confidence: Scored(confidence)}
}

// NewUnscoredDetection creates detection without confidence
func NewUnscoredDetection(box Box) Detection {
	return Detection{Box: box, Confidence: Unscored()}
}
