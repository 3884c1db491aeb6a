// Package canlink encodes control commands as CAN frames for the vehicle
// interface. One fixed frame layout is used; signal packing is little-endian
// with scale/offset quantization.
package canlink

import (
	"fmt"
	"math"

	"go.einride.tech/can"

	"mpctrack/internal/tracker"
)

// CommandFrameID is the arbitration ID of the control command frame.
const CommandFrameID uint32 = 0x2A0

const commandDLC = 8

// Signal quantization. Accel covers +/-32 m/s^2, steer +/-16 rad, both far
// beyond physical limits so clamping never distorts real commands.
const (
	accelFactor = 0.001
	steerFactor = 0.0005
)

// Encoder packs commands into CAN frames with a rolling message counter.
type Encoder struct {
	counter uint8
}

func NewEncoder() *Encoder { return &Encoder{} }

// Encode returns the command frame for cmd and advances the counter.
func (e *Encoder) Encode(cmd tracker.Command) can.Frame {
	var payload uint64
	payload = setBits(payload, 0, 16, packSigned(cmd.Accel, accelFactor, 16))
	payload = setBits(payload, 16, 16, packSigned(cmd.Steer, steerFactor, 16))
	payload = setBits(payload, 32, 8, uint64(e.counter))
	payload = setBits(payload, 40, 1, 1) // valid flag

	f := can.Frame{ID: CommandFrameID, Length: commandDLC}
	for i := 0; i < commandDLC; i++ {
		f.Data[i] = byte(payload >> (8 * i))
	}
	e.counter++
	return f
}

// Decode unpacks a command frame. The counter is returned so receivers can
// detect dropped frames.
func Decode(f can.Frame) (tracker.Command, uint8, error) {
	if f.ID != CommandFrameID {
		return tracker.Command{}, 0, fmt.Errorf("canlink: unexpected frame ID 0x%X", f.ID)
	}
	if f.Length < commandDLC {
		return tracker.Command{}, 0, fmt.Errorf("canlink: frame 0x%X expects DLC %d, got %d", f.ID, commandDLC, f.Length)
	}
	var payload uint64
	for i := 0; i < commandDLC; i++ {
		payload |= uint64(f.Data[i]) << (8 * i)
	}
	if getBits(payload, 40, 1) == 0 {
		return tracker.Command{}, 0, fmt.Errorf("canlink: frame 0x%X not marked valid", f.ID)
	}
	cmd := tracker.Command{
		Accel: unpackSigned(getBits(payload, 0, 16), accelFactor, 16),
		Steer: unpackSigned(getBits(payload, 16, 16), steerFactor, 16),
	}
	return cmd, uint8(getBits(payload, 32, 8)), nil
}

func setBits(payload uint64, start, length int, value uint64) uint64 {
	mask := uint64(1)<<length - 1
	payload &^= mask << start
	payload |= (value & mask) << start
	return payload
}

func getBits(payload uint64, start, length int) uint64 {
	mask := uint64(1)<<length - 1
	return (payload >> start) & mask
}

func packSigned(v, factor float64, bits int) uint64 {
	raw := int64(math.Round(v / factor))
	lim := int64(1) << (bits - 1)
	if raw < -lim {
		raw = -lim
	}
	if raw > lim-1 {
		raw = lim - 1
	}
	return uint64(raw) & (uint64(1)<<bits - 1)
}

func unpackSigned(u uint64, factor float64, bits int) float64 {
	signBit := uint64(1) << (bits - 1)
	raw := int64(u)
	if u&signBit != 0 {
		raw = int64(u) - (int64(1) << bits)
	}
	return float64(raw) * factor
}
