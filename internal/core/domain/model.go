// Package domain defines the core domain models for SimSync.
package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mitchellh/copystructure"
)

// Vector3 is a position or direction in world space.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the Euclidean length of v.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns v scaled to unit length.
// The zero vector is returned unchanged.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Quaternion is a rotation in (x, y, z, w) order.
type Quaternion struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityQuaternion is the rotation that leaves vectors unchanged.
var IdentityQuaternion = Quaternion{W: 1}

// QuaternionFromAxisAngle builds a rotation of angle radians about axis.
// A zero axis yields the identity rotation.
func QuaternionFromAxisAngle(axis Vector3, angle float64) Quaternion {
	n := axis.Normalize()
	if n.Length() == 0 {
		return IdentityQuaternion
	}
	s := math.Sin(angle / 2)
	return Quaternion{X: n.X * s, Y: n.Y * s, Z: n.Z * s, W: math.Cos(angle / 2)}
}

// Mul returns the Hamilton product q*o (apply o first, then q).
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Normalize returns q scaled to unit length.
// A degenerate quaternion collapses to the identity.
func (q Quaternion) Normalize() Quaternion {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return IdentityQuaternion
	}
	return Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// ModelState is the published state of one model.
//
// Extra carries free-form JSON-like values (maps, slices, strings, numbers,
// booleans). On the wire the extra fields sit next to position and rotation.
type ModelState struct {
	Position Vector3
	Rotation Quaternion
	Extra    map[string]any
}

// NewModelState returns a state at position p with identity rotation.
func NewModelState(p Vector3) ModelState {
	return ModelState{Position: p, Rotation: IdentityQuaternion}
}

// Clone returns a deep copy of the state.
func (m ModelState) Clone() ModelState {
	out := ModelState{Position: m.Position, Rotation: m.Rotation}
	if m.Extra != nil {
		out.Extra = cloneMap(m.Extra)
	}
	return out
}

// MarshalJSON flattens Extra next to position and rotation.
func (m ModelState) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["position"] = m.Position
	out["rotation"] = m.Rotation
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
// A missing rotation decodes as the identity.
func (m *ModelState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	state := ModelState{Rotation: IdentityQuaternion}
	for k, v := range raw {
		switch k {
		case "position":
			if err := json.Unmarshal(v, &state.Position); err != nil {
				return fmt.Errorf("decode position: %w", err)
			}
		case "rotation":
			if err := json.Unmarshal(v, &state.Rotation); err != nil {
				return fmt.Errorf("decode rotation: %w", err)
			}
		default:
			var value any
			if err := json.Unmarshal(v, &value); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if state.Extra == nil {
				state.Extra = make(map[string]any)
			}
			state.Extra[k] = value
		}
	}

	*m = state
	return nil
}

// cloneMap deep-copies an extra map, including nested maps, slices and
// pointers of any type.
func cloneMap(in map[string]any) map[string]any {
	out, err := copystructure.Copy(in)
	if err != nil {
		// Copy only fails for locking configs and registered copiers.
		panic(fmt.Sprintf("domain: copy extra fields: %v", err))
	}
	return out.(map[string]any)
}
