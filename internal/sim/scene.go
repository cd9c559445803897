package sim

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// Scene is the static description of a simulated world.
type Scene struct {
	Models []ModelSpec `yaml:"models" json:"models"`
	Gears  []GearSpec  `yaml:"gears" json:"gears"`
}

// ModelSpec describes one model.
type ModelSpec struct {
	Name     string         `yaml:"name" json:"name"`
	Mesh     string         `yaml:"mesh,omitempty" json:"mesh,omitempty"`
	Position domain.Vector3 `yaml:"position" json:"position"`
	// Axis is the rotation axis in world space.
	Axis domain.Vector3 `yaml:"axis" json:"axis"`
	// Speed is the motor speed in rad/s. Ignored for gear-driven models.
	Speed float64 `yaml:"speed" json:"speed"`
	// Velocity is the linear drift in units/s.
	Velocity domain.Vector3 `yaml:"velocity" json:"velocity"`
	// Fixed models never move.
	Fixed bool `yaml:"fixed" json:"fixed"`
}

// GearSpec meshes two models. The driven model turns opposite to the driver
// at the pitch radius ratio.
type GearSpec struct {
	Driver string `yaml:"driver" json:"driver"`
	Driven string `yaml:"driven" json:"driven"`
	// Module is the gear module in millimetres.
	Module      float64 `yaml:"module" json:"module"`
	DriverTeeth int     `yaml:"driver_teeth" json:"driver_teeth"`
	DrivenTeeth int     `yaml:"driven_teeth" json:"driven_teeth"`
}

// PitchRadius returns the pitch radius in metres of a gear with the given
// module (mm) and number of teeth.
func PitchRadius(moduleMM float64, teeth int) float64 {
	return moduleMM / 1000 * float64(teeth) / 2
}

// Ratio returns the driven speed per unit of driver speed.
func (g GearSpec) Ratio() float64 {
	return -PitchRadius(g.Module, g.DriverTeeth) / PitchRadius(g.Module, g.DrivenTeeth)
}

// DefaultScene returns the built-in demo scene: a drifting marker model, a
// motor-driven shaft on a fixed base and a 20/40 teeth gear pair.
func DefaultScene() *Scene {
	const module = 2.0
	rA := PitchRadius(module, 20)
	rB := PitchRadius(module, 40)

	return &Scene{
		Models: []ModelSpec{
			{
				Name:     "model_1",
				Velocity: domain.Vector3{X: 0.1},
			},
			{
				Name:     "base",
				Mesh:     "base_scaled.obj",
				Position: domain.Vector3{X: -1},
				Fixed:    true,
			},
			{
				Name:     "shaft",
				Mesh:     "shaft_scaled.obj",
				Position: domain.Vector3{X: -1, Y: 0.1},
				Axis:     domain.Vector3{Y: 1},
				Speed:    5.0,
			},
			{
				Name:     "gear_A",
				Mesh:     "cad_models/gear_A_m2_z20_scaled.obj",
				Position: domain.Vector3{X: 1},
				Axis:     domain.Vector3{Z: 1},
				Speed:    2.0,
			},
			{
				Name:     "gear_B",
				Mesh:     "cad_models/gear_B_m2_z40_scaled.obj",
				Position: domain.Vector3{X: 1 + rA + rB},
				Axis:     domain.Vector3{Z: 1},
			},
		},
		Gears: []GearSpec{
			{Driver: "gear_A", Driven: "gear_B", Module: module, DriverTeeth: 20, DrivenTeeth: 40},
		},
	}
}

// LoadScene reads and validates a YAML scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseScene(data)
}

// ParseScene decodes and validates a YAML scene.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, domain.ErrInvalidScene.WithCause(err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks names, gear endpoints and gear topology.
func (s *Scene) Validate() error {
	if len(s.Models) == 0 {
		return domain.ErrInvalidScene.WithDetails("scene has no models")
	}

	models := make(map[string]ModelSpec, len(s.Models))
	for i, m := range s.Models {
		if m.Name == "" {
			return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("models[%d]: empty name", i))
		}
		if _, dup := models[m.Name]; dup {
			return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("duplicate model %q", m.Name))
		}
		if !finite(m.Speed) || !finiteVec(m.Position) || !finiteVec(m.Axis) || !finiteVec(m.Velocity) {
			return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("model %q: non-finite value", m.Name))
		}
		if !m.Fixed && m.Speed != 0 && m.Axis.Length() == 0 {
			return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("model %q: speed set without axis", m.Name))
		}
		models[m.Name] = m
	}

	driven := make(map[string]string, len(s.Gears))
	for i, g := range s.Gears {
		where := fmt.Sprintf("gears[%d]", i)
		for _, name := range []string{g.Driver, g.Driven} {
			m, ok := models[name]
			if !ok {
				return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("%s: unknown model %q", where, name))
			}
			if m.Fixed {
				return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("%s: model %q is fixed", where, name))
			}
			if m.Axis.Length() == 0 {
				return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("%s: model %q has no axis", where, name))
			}
		}
		if g.Driver == g.Driven {
			return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("%s: model meshes with itself", where))
		}
		if g.Module <= 0 || !finite(g.Module) || g.DriverTeeth <= 0 || g.DrivenTeeth <= 0 {
			return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("%s: module and teeth must be positive", where))
		}
		if prev, ok := driven[g.Driven]; ok {
			return domain.ErrInvalidScene.WithDetails(
				fmt.Sprintf("%s: model %q already driven by %q", where, g.Driven, prev))
		}
		driven[g.Driven] = g.Driver
	}

	// Every model has at most one driver, so a cycle is a walk up the
	// driver chain that comes back to its start.
	for start := range driven {
		seen := map[string]bool{start: true}
		for cur, ok := driven[start]; ok; cur, ok = driven[cur] {
			if seen[cur] {
				return domain.ErrInvalidScene.WithDetails(fmt.Sprintf("gear cycle through %q", cur))
			}
			seen[cur] = true
		}
	}

	return nil
}

// Initial returns the snapshot at time zero.
func (s *Scene) Initial() domain.Snapshot {
	speeds := s.effectiveSpeeds(nil)

	snap := make(domain.Snapshot, len(s.Models))
	for _, m := range s.Models {
		st := domain.NewModelState(m.Position)
		st.Extra = map[string]any{
			extraAngle: 0.0,
			extraSpeed: speeds[m.Name],
		}
		if m.Mesh != "" {
			st.Extra[extraMesh] = m.Mesh
		}
		if m.Fixed {
			st.Extra[extraFixed] = true
		}
		snap[m.Name] = st
	}
	return snap
}

// effectiveSpeeds resolves the speed of every model. motor overrides the
// configured speed of motor-driven models; gear-driven models follow their
// driver. Validate must have passed.
func (s *Scene) effectiveSpeeds(motor map[string]float64) map[string]float64 {
	speeds := make(map[string]float64, len(s.Models))
	for _, m := range s.Models {
		if m.Fixed {
			speeds[m.Name] = 0
			continue
		}
		if v, ok := motor[m.Name]; ok {
			speeds[m.Name] = v
		} else {
			speeds[m.Name] = m.Speed
		}
	}

	gears := make(map[string]GearSpec, len(s.Gears))
	for _, g := range s.Gears {
		gears[g.Driven] = g
	}

	var resolve func(name string) float64
	resolved := make(map[string]bool, len(gears))
	resolve = func(name string) float64 {
		g, ok := gears[name]
		if !ok || resolved[name] {
			return speeds[name]
		}
		speeds[name] = resolve(g.Driver) * g.Ratio()
		resolved[name] = true
		return speeds[name]
	}
	for name := range gears {
		resolve(name)
	}
	return speeds
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v domain.Vector3) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}
