// Package voxel defines the packed cell type shared by every chunk in the
// world and the block-property registry consulted for collision and
// rendering-adjacency decisions.
package voxel

// Data is a single voxel cell packed into 32 bits: a 12-bit block id, a
// 4-bit brightness level and a 16-bit block state. The layout is fixed so
// that a Data value is byte-identical on the wire and in memory on
// little-endian targets. The package provides no byte-order conversion for
// targets where that does not hold.
//
//	bits  0-11: id
//	bits 12-15: brightness
//	bits 16-31: state
type Data uint32

const (
	idBits         = 12
	brightnessBits = 4
	stateBits      = 16

	idShift         = 0
	brightnessShift = idBits
	stateShift      = idBits + brightnessBits

	idMask         = 1<<idBits - 1
	brightnessMask = 1<<brightnessBits - 1
	stateMask      = 1<<stateBits - 1
)

// Air is the reserved id for the absence of a block. A zero Data value is
// air with zero brightness and zero state.
const Air uint16 = 0

// New packs id, brightness and state into a Data value. id is masked to 12
// bits, brightness to 4 bits and state to 16 bits; callers must not rely on
// values silently truncating and should validate against the registry
// instead.
func New(id uint16, brightness uint8, state uint16) Data {
	return Data(uint32(id&idMask)<<idShift |
		uint32(brightness&brightnessMask)<<brightnessShift |
		uint32(state&stateMask)<<stateShift)
}

// AirData is the canonical air voxel: id 0, brightness 0, state 0.
var AirData = New(Air, 0, 0)

// ID returns the 12-bit block id.
func (d Data) ID() uint16 {
	return uint16(d>>idShift) & idMask
}

// Brightness returns the 4-bit brightness level.
func (d Data) Brightness() uint8 {
	return uint8(d>>brightnessShift) & brightnessMask
}

// State returns the 16-bit block state.
func (d Data) State() uint16 {
	return uint16(d>>stateShift) & stateMask
}

// IsAir reports whether the voxel's id is the reserved air id. Brightness
// and state are irrelevant to this check: only the id identifies air.
func (d Data) IsAir() bool {
	return d.ID() == Air
}

// WithBrightness returns a copy of d with the brightness field replaced.
func (d Data) WithBrightness(brightness uint8) Data {
	return New(d.ID(), brightness, d.State())
}
