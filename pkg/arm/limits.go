package arm

import "fmt"

// Limits is the inclusive angle range of a joint, in degrees.
type Limits struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

// DefaultLimits returns the factory ranges of the arm: base and wrist rotate
// a full turn, shoulder and elbow are mechanically stopped at 0 and 170.
func DefaultLimits() map[JointName]Limits {
	return map[JointName]Limits{
		Base:     {Min: -180, Max: 180},
		Shoulder: {Min: 0, Max: 170},
		Elbow:    {Min: 0, Max: 170},
		Wrist:    {Min: -180, Max: 180},
	}
}

// Validate checks that the range is not inverted.
func (l Limits) Validate() error {
	if l.Min > l.Max {
		return fmt.Errorf("min %d greater than max %d", l.Min, l.Max)
	}
	return nil
}

// Contains reports whether angle lies within the range.
func (l Limits) Contains(angle int) bool {
	return angle >= l.Min && angle <= l.Max
}

// Clamp limits angle to the range.
func (l Limits) Clamp(angle int) int {
	return min(max(angle, l.Min), l.Max)
}

// Normalize converts an angle to a value in the range [-100, 100].
func (l Limits) Normalize(angle int) float64 {
	rangeSize := float64(l.Max - l.Min)
	if rangeSize == 0 {
		return 0
	}
	return (float64(angle-l.Min)/rangeSize)*200 - 100
}

func (l Limits) String() string {
	return fmt.Sprintf("%d to %d", l.Min, l.Max)
}
