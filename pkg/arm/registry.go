package arm

import (
	"fmt"
	"maps"
	"sync"
)

// RangeError reports an angle outside a joint's limits.
type RangeError struct {
	Joint  JointName
	Angle  int
	Limits Limits
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s angle %d out of range (%s)", e.Joint, e.Angle, e.Limits)
}

// Snapshot is a point-in-time copy of the registry.
type Snapshot struct {
	Angles  map[JointName]int `json:"angles"`
	Gripper GripperState      `json:"gripper"`
}

// Registry holds the tracked position of every joint. It is safe for
// concurrent use; all writes go through TrySetAngle, TrySetGripperState and
// Reset, which enforce the joint limits.
type Registry struct {
	mu      sync.RWMutex
	limits  map[JointName]Limits
	angles  map[JointName]int
	gripper GripperState
}

// NewRegistry creates a registry at the home position. Every angle joint must
// have limits. A range that excludes HomeAngle starts at the nearest bound.
func NewRegistry(limits map[JointName]Limits) (*Registry, error) {
	r := &Registry{
		limits: make(map[JointName]Limits, len(limits)),
		angles: make(map[JointName]int, len(limits)),
	}
	for _, j := range AngleJoints() {
		l, ok := limits[j]
		if !ok {
			return nil, fmt.Errorf("missing limits for %s", j)
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("limits for %s: %w", j, err)
		}
		r.limits[j] = l
	}
	r.reset()
	return r, nil
}

// NewDefaultRegistry creates a registry with DefaultLimits.
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultLimits())
	if err != nil {
		panic(err)
	}
	return r
}

// Limits returns the range of an angle joint.
func (r *Registry) Limits(j JointName) (Limits, error) {
	if !j.IsAngleJoint() {
		return Limits{}, fmt.Errorf("%w: %s", ErrNotAngleJoint, j)
	}
	return r.limits[j], nil
}

// Angle returns the tracked angle of an angle joint.
func (r *Registry) Angle(j JointName) (int, error) {
	if !j.IsAngleJoint() {
		return 0, fmt.Errorf("%w: %s", ErrNotAngleJoint, j)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.angles[j], nil
}

// GripperState returns the tracked gripper state.
func (r *Registry) GripperState() GripperState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gripper
}

// TrySetAngle updates an angle joint. Angles outside the joint limits are
// rejected with a *RangeError and leave the registry unchanged.
func (r *Registry) TrySetAngle(j JointName, angle int) error {
	l, err := r.Limits(j)
	if err != nil {
		return err
	}
	if !l.Contains(angle) {
		return &RangeError{Joint: j, Angle: angle, Limits: l}
	}
	r.mu.Lock()
	r.angles[j] = angle
	r.mu.Unlock()
	return nil
}

// TrySetGripperState updates the gripper state.
func (r *Registry) TrySetGripperState(s GripperState) error {
	if s != Open && s != Closed {
		return fmt.Errorf("%w: %q", ErrInvalidGripperState, s)
	}
	r.mu.Lock()
	r.gripper = s
	r.mu.Unlock()
	return nil
}

// Reset returns every angle joint to HomeAngle and opens the gripper.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.reset()
	r.mu.Unlock()
}

func (r *Registry) reset() {
	for j, l := range r.limits {
		r.angles[j] = l.Clamp(HomeAngle)
	}
	r.gripper = Open
}

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Angles:  maps.Clone(r.angles),
		Gripper: r.gripper,
	}
}
