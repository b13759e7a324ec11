// Package observer models the positioned entities the streamer consults to
// decide which chunks should be loaded or unloaded.
package observer

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Hitbox is an axis-aligned bounding box centred on an observer's position.
type Hitbox struct {
	HalfWidth, Height float64
}

// gravity is the downward acceleration applied to a non-flying observer,
// expressed in blocks per tick squared at the nominal 30 ticks/second rate.
const gravity = 0.08

// jumpVelocity is the instantaneous upward velocity imparted by a jump.
const jumpVelocity = 0.42

// terminalFallSpeed caps downward velocity so an observer never tunnels
// through a floor in a single tick at low tick rates.
const terminalFallSpeed = 3.92

// Observer is a positioned entity: a player or any other camera-like actor
// the streamer must keep chunks loaded around. Position, rotation and
// velocity are owned by the observer; the streamer only ever reads them.
type Observer struct {
	id uuid.UUID

	mu sync.RWMutex

	pos    mgl64.Vec3
	vel    mgl64.Vec3
	yaw    float64
	pitch  float64
	rotVel float64

	hitbox Hitbox

	onGround bool
	flying   bool
	jumpTicksRemaining int

	pendingDYaw, pendingDPitch float64
}

// New returns an Observer at pos with the given hitbox, assigned a fresh
// identity (see ID). The streamer and the remote fetcher do not include
// this identity in their log lines.
func New(pos mgl64.Vec3, hitbox Hitbox) *Observer {
	return &Observer{id: uuid.New(), pos: pos, hitbox: hitbox}
}

// ID returns the observer's identity, stable for its lifetime.
func (o *Observer) ID() uuid.UUID { return o.id }

// Position returns the observer's current world-space position.
func (o *Observer) Position() mgl64.Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pos
}

// SetPosition overwrites the observer's position directly, used for
// teleports or server-authoritative corrections.
func (o *Observer) SetPosition(p mgl64.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pos = p
}

// Velocity returns the observer's current velocity.
func (o *Observer) Velocity() mgl64.Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.vel
}

// Rotation returns the observer's yaw and pitch, in radians.
func (o *Observer) Rotation() (yaw, pitch float64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.yaw, o.pitch
}

// SetRotation sets the observer's yaw and pitch directly.
func (o *Observer) SetRotation(yaw, pitch float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.yaw, o.pitch = yaw, pitch
}

// RotationalVelocity returns the current rate of yaw change applied by
// rotation damping (see gui.rotation_interia).
func (o *Observer) RotationalVelocity() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rotVel
}

// Hitbox returns the observer's axis-aligned hitbox.
func (o *Observer) Hitbox() Hitbox {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.hitbox
}

// OnGround reports whether the observer's last kinematics step found it
// resting on a solid voxel.
func (o *Observer) OnGround() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.onGround
}

// Flying reports whether the observer is exempt from gravity.
func (o *Observer) Flying() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.flying
}

// SetFlying toggles flight.
func (o *Observer) SetFlying(flying bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flying = flying
}

// Jump imparts an upward impulse if the observer is on the ground and not
// already mid-jump.
func (o *Observer) Jump() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.onGround || o.jumpTicksRemaining > 0 {
		return
	}
	o.vel[1] = jumpVelocity
	o.onGround = false
	o.jumpTicksRemaining = 1
}

// ApplyRotationInput damps an incoming yaw delta by inertia (0 meaning no
// damping, values closer to 1 smoothing input across more ticks) and adds
// the result to yaw, mirroring gui.rotation_interia. The pitch delta is
// added to pitch undamped.
func (o *Observer) ApplyRotationInput(dyaw, dpitch, inertia float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if inertia < 0 {
		inertia = 0
	}
	if inertia > 1 {
		inertia = 1
	}
	o.rotVel = o.rotVel*inertia + dyaw*(1-inertia)
	o.yaw += o.rotVel
	o.pitch += dpitch
}

// QueueLookInput accumulates a raw, unscaled look delta (for example from a
// mouse or a network input packet) to be consumed by the observer's next
// Kinematics step.
func (o *Observer) QueueLookInput(dx, dy float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pendingDYaw += dx
	o.pendingDPitch += dy
}

// Kinematics is the observer's per-tick kinematics step: it drains any
// look input queued since the last call, scales it by sensitivity
// (gui.mouse_sensitivity) and damps it by inertia (gui.rotation_interia)
// via ApplyRotationInput, then advances position and ground contact via
// Step.
func (o *Observer) Kinematics(inertia, sensitivity float64, solid func(mgl64.Vec3) bool) {
	o.mu.Lock()
	dx, dy := o.pendingDYaw, o.pendingDPitch
	o.pendingDYaw, o.pendingDPitch = 0, 0
	o.mu.Unlock()

	o.ApplyRotationInput(dx*sensitivity, dy*sensitivity, inertia)
	o.Step(solid)
}

// HitCheck reports whether the world has a solid voxel at the given
// world-block coordinate. It has the same shape as the solid probe Step and
// Kinematics take, though neither declares its parameter with this type.
type HitCheck func(pos mgl64.Vec3) bool

// Step advances the observer by one tick of kinematics: applying gravity
// when not flying, integrating velocity into position, and consulting
// solid to detect ground contact and clamp vertical motion. solid reports
// whether the world has a solid voxel at the given world-block coordinate.
func (o *Observer) Step(solid func(mgl64.Vec3) bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.jumpTicksRemaining > 0 {
		o.jumpTicksRemaining--
	}

	if !o.flying {
		o.vel[1] -= gravity
		if o.vel[1] < -terminalFallSpeed {
			o.vel[1] = -terminalFallSpeed
		}
	} else {
		o.vel[1] = 0
	}

	next := o.pos.Add(o.vel)
	feet := next
	feet[1] -= o.hitbox.Height / 2
	if solid != nil && solid(feet) && o.vel[1] <= 0 {
		next[1] = o.pos[1]
		o.vel[1] = 0
		o.onGround = true
	} else {
		o.onGround = false
	}
	o.pos = next
}
