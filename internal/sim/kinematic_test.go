package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

const eps = 1e-9

func newKinematic(t *testing.T) *Kinematic {
	t.Helper()
	k, err := NewKinematic(DefaultScene())
	if err != nil {
		t.Fatalf("NewKinematic() error = %v", err)
	}
	return k
}

func speedOf(t *testing.T, snap domain.Snapshot, name string) float64 {
	t.Helper()
	v, ok := extraFloat(snap[name], "speed")
	if !ok {
		t.Fatalf("%s has no numeric speed: %v", name, snap[name].Extra)
	}
	return v
}

func TestNewKinematic_Invalid(t *testing.T) {
	if _, err := NewKinematic(nil); !errors.Is(err, domain.ErrInvalidScene) {
		t.Errorf("NewKinematic(nil) error = %v, want ErrInvalidScene", err)
	}
	if _, err := NewKinematic(&Scene{}); !errors.Is(err, domain.ErrInvalidScene) {
		t.Errorf("NewKinematic(empty) error = %v, want ErrInvalidScene", err)
	}
}

func TestKinematic_Drift(t *testing.T) {
	k := newKinematic(t)
	prev := DefaultScene().Initial()

	next, err := k.Step(prev, Input{DT: time.Second})
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if x := next["model_1"].Position.X; math.Abs(x-0.1) > eps {
		t.Errorf("model_1.x = %v, want 0.1", x)
	}
	if prev["model_1"].Position.X != 0 {
		t.Error("Step mutated prev")
	}
	if next["base"].Position != prev["base"].Position || next["base"].Rotation != domain.IdentityQuaternion {
		t.Error("fixed base moved")
	}
}

func TestKinematic_Rotation(t *testing.T) {
	k := newKinematic(t)
	snap := DefaultScene().Initial()

	// gear_A turns at 2 rad/s about z; after π/4 s it is at π/2.
	secs := math.Pi / 4
	dt := time.Duration(secs * float64(time.Second))
	next, err := k.Step(snap, Input{DT: dt})
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	want := domain.QuaternionFromAxisAngle(domain.Vector3{Z: 1}, math.Pi/2)
	got := next["gear_A"].Rotation
	if math.Abs(got.Z-want.Z) > 1e-6 || math.Abs(got.W-want.W) > 1e-6 {
		t.Errorf("gear_A rotation = %+v, want %+v", got, want)
	}
	if angle, _ := extraFloat(next["gear_A"], "angle"); math.Abs(angle-math.Pi/2) > 1e-6 {
		t.Errorf("gear_A angle = %v, want π/2", angle)
	}

	// gear_B turns at -1 rad/s: angle wraps into [0, 2π).
	angleB, _ := extraFloat(next["gear_B"], "angle")
	if math.Abs(angleB-(2*math.Pi-math.Pi/4)) > 1e-6 {
		t.Errorf("gear_B angle = %v, want 7π/4", angleB)
	}
	if s := speedOf(t, next, "gear_B"); math.Abs(s+1) > eps {
		t.Errorf("gear_B speed = %v, want -1", s)
	}
}

func TestKinematic_RotationStaysNormalized(t *testing.T) {
	k := newKinematic(t)
	snap := DefaultScene().Initial()

	for i := 0; i < 10000; i++ {
		var err error
		snap, err = k.Step(snap, Input{DT: 16 * time.Millisecond})
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	for name, st := range snap {
		q := st.Rotation
		n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
		if math.Abs(n-1) > 1e-9 {
			t.Errorf("%s rotation norm = %v", name, n)
		}
	}
}

func TestKinematic_Commands(t *testing.T) {
	tests := []struct {
		name      string
		cmds      []domain.Command
		model     string
		wantSpeed float64
	}{
		{
			name:      "set speed on motor",
			cmds:      []domain.Command{{Type: domain.CommandSetSpeed, Model: "gear_A", Value: 4}},
			model:     "gear_A",
			wantSpeed: 4,
		},
		{
			name:      "driven gear follows",
			cmds:      []domain.Command{{Type: domain.CommandSetSpeed, Model: "gear_A", Value: 4}},
			model:     "gear_B",
			wantSpeed: -2,
		},
		{
			name:      "unknown model ignored",
			cmds:      []domain.Command{{Type: domain.CommandSetSpeed, Model: "nope", Value: 4}},
			model:     "gear_A",
			wantSpeed: 2,
		},
		{
			name:      "driven gear rejected",
			cmds:      []domain.Command{{Type: domain.CommandSetSpeed, Model: "gear_B", Value: 9}},
			model:     "gear_B",
			wantSpeed: -1,
		},
		{
			name:      "fixed model rejected",
			cmds:      []domain.Command{{Type: domain.CommandSetSpeed, Model: "base", Value: 9}},
			model:     "base",
			wantSpeed: 0,
		},
		{
			name: "later command wins",
			cmds: []domain.Command{
				{Type: domain.CommandSetSpeed, Model: "shaft", Value: 1},
				{Type: domain.CommandSetSpeed, Model: "shaft", Value: 3},
			},
			model:     "shaft",
			wantSpeed: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newKinematic(t)
			next, err := k.Step(DefaultScene().Initial(), Input{DT: 10 * time.Millisecond, Commands: tt.cmds})
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if got := speedOf(t, next, tt.model); math.Abs(got-tt.wantSpeed) > eps {
				t.Errorf("%s speed = %v, want %v", tt.model, got, tt.wantSpeed)
			}
		})
	}
}

func TestKinematic_SpeedCarriedInSnapshot(t *testing.T) {
	k := newKinematic(t)
	snap, _ := k.Step(DefaultScene().Initial(), Input{
		DT:       time.Millisecond,
		Commands: []domain.Command{{Type: domain.CommandSetSpeed, Model: "shaft", Value: 7}},
	})

	// A fresh stepper continues from the published state.
	fresh := newKinematic(t)
	next, err := fresh.Step(snap, Input{DT: time.Millisecond})
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if got := speedOf(t, next, "shaft"); got != 7 {
		t.Errorf("shaft speed = %v, want 7", got)
	}
}

func TestKinematic_PauseResume(t *testing.T) {
	k := newKinematic(t)
	snap := DefaultScene().Initial()

	paused, _ := k.Step(snap, Input{
		DT:       time.Second,
		Commands: []domain.Command{{Type: domain.CommandPause}},
	})
	if !k.Paused() {
		t.Fatal("Paused() = false after pause")
	}
	if paused["model_1"].Position.X != 0 {
		t.Errorf("model_1 moved while paused: %v", paused["model_1"].Position.X)
	}

	// Speed changes still apply while paused.
	paused, _ = k.Step(paused, Input{
		DT:       time.Second,
		Commands: []domain.Command{{Type: domain.CommandSetSpeed, Model: "gear_A", Value: 1}},
	})
	if got := speedOf(t, paused, "gear_A"); got != 1 {
		t.Errorf("gear_A speed while paused = %v, want 1", got)
	}

	resumed, _ := k.Step(paused, Input{
		DT:       time.Second,
		Commands: []domain.Command{{Type: domain.CommandResume}},
	})
	if k.Paused() {
		t.Fatal("Paused() = true after resume")
	}
	if x := resumed["model_1"].Position.X; math.Abs(x-0.1) > eps {
		t.Errorf("model_1.x after resume = %v, want 0.1", x)
	}
}

func TestKinematic_Reset(t *testing.T) {
	k := newKinematic(t)
	initial := DefaultScene().Initial()

	snap := initial
	for i := 0; i < 5; i++ {
		snap, _ = k.Step(snap, Input{
			DT:       100 * time.Millisecond,
			Commands: []domain.Command{{Type: domain.CommandSetSpeed, Model: "gear_A", Value: 10}},
		})
	}

	reset, err := k.Step(snap, Input{Commands: []domain.Command{{Type: domain.CommandReset}}})
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reset["model_1"].Position.X != 0 {
		t.Errorf("model_1.x after reset = %v, want 0", reset["model_1"].Position.X)
	}
	if got := speedOf(t, reset, "gear_A"); got != 2 {
		t.Errorf("gear_A speed after reset = %v, want 2", got)
	}
	if reset["gear_A"].Rotation != domain.IdentityQuaternion {
		t.Errorf("gear_A rotation after reset = %+v", reset["gear_A"].Rotation)
	}
}

func TestKinematic_RestoresMissingModels(t *testing.T) {
	k := newKinematic(t)
	snap := DefaultScene().Initial()
	delete(snap, "shaft")
	snap["extra_model"] = domain.NewModelState(domain.Vector3{Y: 3})

	next, err := k.Step(snap, Input{DT: time.Millisecond})
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if _, ok := next["shaft"]; !ok {
		t.Error("scene model missing from previous snapshot was not restored")
	}
	if next["extra_model"].Position.Y != 3 {
		t.Error("models outside the scene should be carried over")
	}
}
