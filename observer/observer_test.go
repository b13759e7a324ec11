package observer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestStepAppliesGravityWhenNotFlying(t *testing.T) {
	o := New(mgl64.Vec3{0, 100, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.Step(func(mgl64.Vec3) bool { return false })
	if o.Position()[1] >= 100 {
		t.Fatalf("got y %v, want less than 100 after gravity", o.Position()[1])
	}
	if o.Velocity()[1] >= 0 {
		t.Fatalf("got vertical velocity %v, want negative", o.Velocity()[1])
	}
}

func TestStepSkipsGravityWhileFlying(t *testing.T) {
	o := New(mgl64.Vec3{0, 100, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.SetFlying(true)
	o.Step(func(mgl64.Vec3) bool { return false })
	if o.Position()[1] != 100 {
		t.Fatalf("got y %v, want unchanged at 100 while flying", o.Position()[1])
	}
}

func TestStepStopsAtGroundAndSetsOnGround(t *testing.T) {
	o := New(mgl64.Vec3{0, 10, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.Step(func(mgl64.Vec3) bool { return true })
	if !o.OnGround() {
		t.Fatalf("expected OnGround after stepping onto a solid floor")
	}
	if o.Position()[1] != 10 {
		t.Fatalf("got y %v, want unchanged at 10 (resting on ground)", o.Position()[1])
	}
}

func TestJumpOnlyAppliesWhenOnGround(t *testing.T) {
	o := New(mgl64.Vec3{0, 10, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.onGround = true
	o.Jump()
	if o.Velocity()[1] <= 0 {
		t.Fatalf("Jump while on ground should impart upward velocity")
	}

	o2 := New(mgl64.Vec3{0, 10, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o2.Jump()
	if o2.Velocity()[1] != 0 {
		t.Fatalf("Jump while airborne should have no effect")
	}
}

func TestApplyRotationInputDampensSuddenInput(t *testing.T) {
	o := New(mgl64.Vec3{0, 0, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.ApplyRotationInput(1.0, 0, 0.9)
	yaw, _ := o.Rotation()
	if yaw <= 0 || yaw >= 1.0 {
		t.Fatalf("got yaw %v, want a damped value strictly between 0 and the raw input 1.0", yaw)
	}
}

func TestApplyRotationInputZeroInertiaAppliesInputDirectly(t *testing.T) {
	o := New(mgl64.Vec3{0, 0, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.ApplyRotationInput(0.5, 0.1, 0)
	yaw, pitch := o.Rotation()
	if yaw != 0.5 || pitch != 0.1 {
		t.Fatalf("got (yaw=%v, pitch=%v), want (0.5, 0.1) with zero inertia", yaw, pitch)
	}
}

func TestKinematicsAppliesQueuedLookInputScaledBySensitivity(t *testing.T) {
	o := New(mgl64.Vec3{0, 10, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.QueueLookInput(1.0, 0.2)
	o.Kinematics(0, 2.0, func(mgl64.Vec3) bool { return true })
	yaw, pitch := o.Rotation()
	if yaw != 2.0 || pitch != 0.4 {
		t.Fatalf("got (yaw=%v, pitch=%v), want (2.0, 0.4) after scaling queued input by sensitivity 2.0", yaw, pitch)
	}
	if !o.OnGround() {
		t.Fatalf("Kinematics should also run the Step solidity check")
	}
}

func TestKinematicsDrainsQueuedInputSoItIsNotAppliedTwice(t *testing.T) {
	o := New(mgl64.Vec3{0, 10, 0}, Hitbox{HalfWidth: 0.3, Height: 1.8})
	o.QueueLookInput(1.0, 0)
	o.Kinematics(0, 1.0, func(mgl64.Vec3) bool { return true })
	o.Kinematics(0, 1.0, func(mgl64.Vec3) bool { return true })
	yaw, _ := o.Rotation()
	if yaw != 1.0 {
		t.Fatalf("got yaw %v, want 1.0 (queued input must not be replayed on a tick with no new input)", yaw)
	}
}
