package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VoxelID names a sub-voxel of a block's structure. Names beginning with "!"
// are circuit terminals; any other name is a solid voxel that occupies space
// but never participates in the logic graph.
type VoxelID string

// IsTerminal reports whether id names a circuit terminal.
func (id VoxelID) IsTerminal() bool {
	return len(id) > 0 && id[0] == '!'
}

// Kind tags which variant a Block is.
type Kind string

const (
	KindAir          Kind = "air"
	KindBlock        Kind = "block"
	KindWire         Kind = "wire"
	KindToggle       Kind = "toggle"
	KindPixel        Kind = "pixel"
	KindANDGate      Kind = "and_gate"
	KindORGate       Kind = "or_gate"
	KindXORGate      Kind = "xor_gate"
	KindNANDGate     Kind = "nand_gate"
	KindNORGate      Kind = "nor_gate"
	KindXNORGate     Kind = "xnor_gate"
	KindNOTGate      Kind = "not_gate"
	KindDiode        Kind = "diode"
	KindClock        Kind = "clock"
	KindPulse        Kind = "pulse"
	KindToggleLatch  Kind = "toggle_latch"
	KindPulseLatch   Kind = "pulse_latch"
	KindMemoryLatch  Kind = "memory_latch"
)

// Block is a tagged variant with a per-kind payload. Go has no native sum
// type, so every payload field that any kind uses lives here; simulate_tick
// and the catalogue functions below only ever read the fields relevant to
// Kind.
type Block struct {
	Kind Kind

	Powered      bool   // Wire, Toggle, Pixel, all gates, Diode, Clock, Pulse, latches (output flag)
	Stored       bool   // ToggleLatch, MemoryLatch
	Rate         uint32 // Clock
	StartTick    uint32 // Clock, Pulse
	PulseTicks   uint32 // Pulse, PulseLatch
	PulseBattery uint32 // PulseLatch
}

// terminal/solid voxel names shared by more than one kind.
const (
	voxWire    VoxelID = "!wire"
	voxToggle  VoxelID = "!toggle"
	voxPixel   VoxelID = "!pixel"
	voxInA     VoxelID = "!in_a"
	voxInB     VoxelID = "!in_b"
	voxOut     VoxelID = "!out"
	voxIn      VoxelID = "!in"
	voxClock   VoxelID = "!clock"
	voxPulse   VoxelID = "!pulse"
	voxSolid   VoxelID = "solid"
	voxShellC  VoxelID = "shell_c"
	voxShellT  VoxelID = "shell_t"
	voxShellB  VoxelID = "shell_b"
)

// twoInputGateStructure is the shared terminal+shell layout for the six
// binary gates and MemoryLatch: two inputs flanking an output, wrapped in a
// small solid housing.
func twoInputGateStructure() map[VoxelID]Coord {
	return map[VoxelID]Coord{
		voxInA:    {X: -1, Y: 1},
		voxInB:    {X: -1, Y: -1},
		voxOut:    {X: 1},
		voxShellC: {},
		voxShellT: {Y: 1},
		voxShellB: {Y: -1},
	}
}

// oneInputStructure is the shared in/out layout for NOTGate, Diode,
// ToggleLatch and PulseLatch: no solid shell, just the two terminals.
func oneInputStructure() map[VoxelID]Coord {
	return map[VoxelID]Coord{
		voxIn:  {X: -1},
		voxOut: {X: 1},
	}
}

// Structure returns the block's voxel layout as local (pre-orientation,
// pre-translation) offsets keyed by VoxelID.
func Structure(b Block) map[VoxelID]Coord {
	switch b.Kind {
	case KindAir:
		return map[VoxelID]Coord{}
	case KindBlock:
		return map[VoxelID]Coord{voxSolid: {}}
	case KindWire:
		return map[VoxelID]Coord{voxWire: {}}
	case KindToggle:
		return map[VoxelID]Coord{voxToggle: {}}
	case KindPixel:
		return map[VoxelID]Coord{voxPixel: {}}
	case KindANDGate, KindORGate, KindXORGate, KindNANDGate, KindNORGate, KindXNORGate, KindMemoryLatch:
		return twoInputGateStructure()
	case KindNOTGate, KindDiode, KindToggleLatch, KindPulseLatch:
		return oneInputStructure()
	case KindClock:
		return map[VoxelID]Coord{voxClock: {}}
	case KindPulse:
		return map[VoxelID]Coord{voxPulse: {}}
	default:
		return map[VoxelID]Coord{}
	}
}

// GlobalStructure applies orient then translates by position, yielding the
// global coordinate occupied by each of the block's voxels.
func GlobalStructure(b Block, position Coord, orient Orient) map[VoxelID]Coord {
	local := Structure(b)
	out := make(map[VoxelID]Coord, len(local))
	for id, off := range local {
		out[id] = orient.Transform(off).Add(position)
	}
	return out
}

// IsCircuitBlock reports whether any of the block's voxels is a terminal.
func IsCircuitBlock(b Block) bool {
	for id := range Structure(b) {
		if id.IsTerminal() {
			return true
		}
	}
	return false
}

// voxelPower is one entry of CircuitVoxelPower's result: Some(power)
// (OK=true) when the terminal is a source currently emitting power, or
// OK=false when it is a sink with no own contribution. At most one entry per
// block is "ok": the kind's output terminal (a Pixel has none).
type voxelPower struct {
	Power bool
	OK    bool
}

// CircuitVoxelPower returns, for every terminal of b, whether it is a source
// terminal and if so its currently emitted power.
func CircuitVoxelPower(b Block) map[VoxelID]voxelPower {
	out := map[VoxelID]voxelPower{}
	for id := range Structure(b) {
		if !id.IsTerminal() {
			continue
		}
		out[id] = voxelPower{}
	}
	switch b.Kind {
	case KindWire:
		out[voxWire] = voxelPower{b.Powered, true}
	case KindToggle:
		out[voxToggle] = voxelPower{b.Powered, true}
	case KindPixel:
		out[voxPixel] = voxelPower{}
	case KindANDGate, KindORGate, KindXORGate, KindNANDGate, KindNORGate, KindXNORGate, KindMemoryLatch:
		out[voxOut] = voxelPower{b.Powered, true}
	case KindNOTGate, KindDiode, KindToggleLatch, KindPulseLatch:
		out[voxOut] = voxelPower{b.Powered, true}
	case KindClock:
		out[voxClock] = voxelPower{b.Powered, true}
	case KindPulse:
		out[voxPulse] = voxelPower{b.Powered, true}
	}
	return out
}

// CircuitPower returns the unique output-side power for kinds that have one
// (everything except Air, Block and Pixel).
func CircuitPower(b Block) (bool, bool) {
	switch b.Kind {
	case KindWire:
		return b.Powered, true
	case KindToggle:
		return b.Powered, true
	case KindANDGate, KindORGate, KindXORGate, KindNANDGate, KindNORGate, KindXNORGate, KindMemoryLatch:
		return b.Powered, true
	case KindNOTGate, KindDiode, KindToggleLatch, KindPulseLatch:
		return b.Powered, true
	case KindClock:
		return b.Powered, true
	case KindPulse:
		return b.Powered, true
	default:
		return false, false
	}
}

// --- JSON wire encoding -----------------------------------------------------
//
// Block is externally tagged on the wire: {"block": "<kind>", "data": {...}}
// where the shape of "data" depends on the kind. Marshal/unmarshal are
// hand-rolled so each kind only ever emits the fields it actually owns.

type blockEnvelope struct {
	Block Kind            `json:"block"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	var data any
	switch b.Kind {
	case KindAir, KindBlock:
		data = nil
	case KindWire, KindToggle, KindPixel,
		KindANDGate, KindORGate, KindXORGate, KindNANDGate, KindNORGate, KindXNORGate,
		KindNOTGate, KindDiode:
		data = struct {
			Powered bool `json:"powered"`
		}{b.Powered}
	case KindClock:
		data = struct {
			Rate      uint32 `json:"rate"`
			StartTick uint32 `json:"start_tick"`
			Powered   bool   `json:"powered"`
		}{b.Rate, b.StartTick, b.Powered}
	case KindPulse:
		data = struct {
			StartTick  uint32 `json:"start_tick"`
			PulseTicks uint32 `json:"pulse_ticks"`
			Powered    bool   `json:"powered"`
		}{b.StartTick, b.PulseTicks, b.Powered}
	case KindToggleLatch, KindMemoryLatch:
		data = struct {
			Stored  bool `json:"stored"`
			Powered bool `json:"powered"`
		}{b.Stored, b.Powered}
	case KindPulseLatch:
		data = struct {
			PulseTicks   uint32 `json:"pulse_ticks"`
			PulseBattery uint32 `json:"pulse_battery"`
			Powered      bool   `json:"powered"`
		}{b.PulseTicks, b.PulseBattery, b.Powered}
	default:
		return nil, fmt.Errorf("core: unknown block kind %q", b.Kind)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(raw, []byte("null")) {
		return json.Marshal(blockEnvelope{Block: b.Kind})
	}
	return json.Marshal(blockEnvelope{Block: b.Kind, Data: raw})
}

func (b *Block) UnmarshalJSON(raw []byte) error {
	var env blockEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	out := Block{Kind: env.Block}

	switch env.Block {
	case KindAir, KindBlock:
		// no payload
	case KindWire, KindToggle, KindPixel,
		KindANDGate, KindORGate, KindXORGate, KindNANDGate, KindNORGate, KindXNORGate,
		KindNOTGate, KindDiode:
		var p struct {
			Powered bool `json:"powered"`
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &p); err != nil {
				return err
			}
		}
		out.Powered = p.Powered
	case KindClock:
		var p struct {
			Rate      uint32 `json:"rate"`
			StartTick uint32 `json:"start_tick"`
			Powered   bool   `json:"powered"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return err
		}
		out.Rate, out.StartTick, out.Powered = p.Rate, p.StartTick, p.Powered
	case KindPulse:
		var p struct {
			StartTick  uint32 `json:"start_tick"`
			PulseTicks uint32 `json:"pulse_ticks"`
			Powered    bool   `json:"powered"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return err
		}
		out.StartTick, out.PulseTicks, out.Powered = p.StartTick, p.PulseTicks, p.Powered
	case KindToggleLatch, KindMemoryLatch:
		var p struct {
			Stored  bool `json:"stored"`
			Powered bool `json:"powered"`
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &p); err != nil {
				return err
			}
		}
		out.Stored, out.Powered = p.Stored, p.Powered
	case KindPulseLatch:
		var p struct {
			PulseTicks   uint32 `json:"pulse_ticks"`
			PulseBattery uint32 `json:"pulse_battery"`
			Powered      bool   `json:"powered"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return err
		}
		out.PulseTicks, out.PulseBattery, out.Powered = p.PulseTicks, p.PulseBattery, p.Powered
	default:
		return fmt.Errorf("core: unknown block kind %q", env.Block)
	}

	*b = out
	return nil
}
