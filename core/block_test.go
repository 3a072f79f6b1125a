package core

import (
	"encoding/json"
	"testing"
)

func TestGlobalStructureForwardIsIdentityPlusPosition(t *testing.T) {
	b := Block{Kind: KindANDGate}
	pos := Coord{X: 10, Y: 10, Z: 10}
	global := GlobalStructure(b, pos, OrientForward)

	want := map[VoxelID]Coord{
		voxInA:    {X: 9, Y: 11, Z: 10},
		voxInB:    {X: 9, Y: 9, Z: 10},
		voxOut:    {X: 11, Y: 10, Z: 10},
		voxShellC: {X: 10, Y: 10, Z: 10},
		voxShellT: {X: 10, Y: 11, Z: 10},
		voxShellB: {X: 10, Y: 9, Z: 10},
	}
	for id, coord := range want {
		if global[id] != coord {
			t.Fatalf("voxel %s: got %v, want %v", id, global[id], coord)
		}
	}
}

func TestIsCircuitBlock(t *testing.T) {
	if IsCircuitBlock(Block{Kind: KindAir}) {
		t.Fatalf("air must not be a circuit block")
	}
	if IsCircuitBlock(Block{Kind: KindBlock}) {
		t.Fatalf("solid block must not be a circuit block")
	}
	if !IsCircuitBlock(Block{Kind: KindWire}) {
		t.Fatalf("wire must be a circuit block")
	}
	if !IsCircuitBlock(Block{Kind: KindNOTGate}) {
		t.Fatalf("NOT gate must be a circuit block")
	}
}

func TestCircuitVoxelPowerSourceVsSink(t *testing.T) {
	b := Block{Kind: KindANDGate, Powered: true}
	power := CircuitVoxelPower(b)

	out, ok := power[voxOut]
	if !ok || !out.OK || !out.Power {
		t.Fatalf("AND gate output should be a powered source, got %+v", out)
	}
	in, ok := power[voxInA]
	if !ok || in.OK {
		t.Fatalf("AND gate input should be a sink (no own contribution), got %+v", in)
	}
}

func TestCircuitPowerOmittedForAirBlockPixel(t *testing.T) {
	for _, k := range []Kind{KindAir, KindBlock, KindPixel} {
		if _, ok := CircuitPower(Block{Kind: k}); ok {
			t.Fatalf("%s must have no circuit_power", k)
		}
	}
	if p, ok := CircuitPower(Block{Kind: KindWire, Powered: true}); !ok || !p {
		t.Fatalf("wire circuit_power should be (true, true)")
	}
}

func TestBlockJSONRoundTripWire(t *testing.T) {
	b := Block{Kind: KindWire, Powered: true}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if env["block"] != "wire" {
		t.Fatalf("expected block tag %q, got %v", "wire", env["block"])
	}
	data, ok := env["data"].(map[string]any)
	if !ok || data["powered"] != true {
		t.Fatalf("expected data.powered=true, got %v", env["data"])
	}

	var back Block
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("round-trip Unmarshal: %v", err)
	}
	if back != b {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", back, b)
	}
}

func TestBlockJSONRoundTripAirHasNoData(t *testing.T) {
	b := Block{Kind: KindAir}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, present := env["data"]; present {
		t.Fatalf("air block must omit data, got %v", env["data"])
	}

	var back Block
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("round-trip Unmarshal: %v", err)
	}
	if back.Kind != KindAir {
		t.Fatalf("expected kind air, got %v", back.Kind)
	}
}

func TestBlockJSONRoundTripClock(t *testing.T) {
	b := Block{Kind: KindClock, Rate: 5, StartTick: 2, Powered: true}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Block
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != b {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", back, b)
	}
}

func TestBlockJSONRoundTripPulseLatch(t *testing.T) {
	b := Block{Kind: KindPulseLatch, PulseTicks: 3, PulseBattery: 2, Powered: true}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Block
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != b {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", back, b)
	}
}
