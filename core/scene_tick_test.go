package core

import "testing"

// TestWireNetworkPropagation: a line of wires fed by a powered Toggle
// becomes fully powered after one tick.
func TestWireNetworkPropagation(t *testing.T) {
	s := NewScene()
	if _, err := s.AddBlock(Block{Kind: KindToggle, Powered: true}, Coord{Z: -1}, OrientForward); err != nil {
		t.Fatalf("AddBlock toggle: %v", err)
	}

	var wireIDs []InstanceID
	for z := int32(0); z < 10; z++ {
		id, err := s.AddBlock(Block{Kind: KindWire}, Coord{Z: z}, OrientForward)
		if err != nil {
			t.Fatalf("AddBlock wire %d: %v", z, err)
		}
		wireIDs = append(wireIDs, id)
	}

	changed := s.SimulateTick()
	if len(changed) != len(wireIDs) {
		t.Fatalf("expected %d changed ids, got %d (%v)", len(wireIDs), len(changed), changed)
	}

	for _, id := range wireIDs {
		p, ok := s.GetBlock(id)
		if !ok || !p.Block.Powered {
			t.Fatalf("wire %d should be powered after one tick", id)
		}
	}
}

// TestClockPattern: Clock{rate:5, start_tick:2} follows
// F,F,T,F,F,F,F,T,F,F,F,F,T over ticks 0..12.
func TestClockPattern(t *testing.T) {
	s := NewScene()
	id, err := s.AddBlock(Block{Kind: KindClock, Rate: 5, StartTick: 2}, Coord{}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	want := []bool{false, false, true, false, false, false, false, true, false, false, false, false, true}

	p, _ := s.GetBlock(id)
	if p.Block.Powered != want[0] {
		t.Fatalf("tick 0: got %v, want %v", p.Block.Powered, want[0])
	}

	for i := 1; i < len(want); i++ {
		s.SimulateTick()
		p, _ := s.GetBlock(id)
		if p.Block.Powered != want[i] {
			t.Fatalf("tick %d: got %v, want %v", i, p.Block.Powered, want[i])
		}
	}
}

// TestLoneNotGateIsolation: a NOT gate with no input neighbor is powered
// after one tick.
func TestLoneNotGateIsolation(t *testing.T) {
	s := NewScene()
	id, err := s.AddBlock(Block{Kind: KindNOTGate}, Coord{}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	s.SimulateTick()
	p, _ := s.GetBlock(id)
	if !p.Block.Powered {
		t.Fatalf("isolated NOT gate should be powered after one tick")
	}
}

func TestOverlapRejection(t *testing.T) {
	s := NewScene()
	if _, err := s.AddBlock(Block{Kind: KindWire}, Coord{}, OrientForward); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	before := s.Blocks()
	if _, err := s.AddBlock(Block{Kind: KindBlock}, Coord{}, OrientForward); err != ErrOverlap {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if len(s.Blocks()) != len(before) {
		t.Fatalf("scene must be unchanged after a rejected overlap")
	}
}

// TestRemoveReconnectsSeversNetwork: removing the middle wire of a chain
// splits the network; the far side loses power.
func TestRemoveReconnectsSeversNetwork(t *testing.T) {
	s := NewScene()
	if _, err := s.AddBlock(Block{Kind: KindToggle, Powered: true}, Coord{Z: -1}, OrientForward); err != nil {
		t.Fatalf("AddBlock toggle: %v", err)
	}
	wireA, err := s.AddBlock(Block{Kind: KindWire}, Coord{Z: 0}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock wireA: %v", err)
	}
	wireB, err := s.AddBlock(Block{Kind: KindWire}, Coord{Z: 1}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock wireB: %v", err)
	}
	wireC, err := s.AddBlock(Block{Kind: KindWire}, Coord{Z: 2}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock wireC: %v", err)
	}

	s.SimulateTick()
	for _, id := range []InstanceID{wireA, wireB, wireC} {
		p, _ := s.GetBlock(id)
		if !p.Block.Powered {
			t.Fatalf("wire %d should be powered while the chain is intact", id)
		}
	}

	if _, err := s.RemoveBlock(wireB); err != nil {
		t.Fatalf("RemoveBlock: %v", err)
	}

	s.SimulateTick()
	pA, _ := s.GetBlock(wireA)
	if !pA.Block.Powered {
		t.Fatalf("wireA should remain powered, still adjacent to the toggle")
	}
	pC, _ := s.GetBlock(wireC)
	if pC.Block.Powered {
		t.Fatalf("wireC should have lost power once severed from the toggle")
	}
}

// TestToggleLatchRisingEdge: stored flips exactly once per pulse rising
// edge. Because ticks read only pre-tick state, a Pulse's effect on a latch
// lags one tick behind the Pulse's own state change.
func TestToggleLatchRisingEdge(t *testing.T) {
	s := NewScene()
	if _, err := s.AddBlock(Block{Kind: KindPulse, StartTick: 0, PulseTicks: 1}, Coord{X: -2}, OrientForward); err != nil {
		t.Fatalf("AddBlock pulse: %v", err)
	}
	latchID, err := s.AddBlock(Block{Kind: KindToggleLatch}, Coord{}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock latch: %v", err)
	}

	var storedHistory []bool
	for i := 0; i < 3; i++ {
		s.SimulateTick()
		p, _ := s.GetBlock(latchID)
		storedHistory = append(storedHistory, p.Block.Stored)
	}

	flips := 0
	prev := false
	for _, v := range storedHistory {
		if v != prev {
			flips++
		}
		prev = v
	}
	if flips != 1 {
		t.Fatalf("expected stored to flip exactly once across the pulse, history=%v", storedHistory)
	}
}

// TestANDGateOfTwoClocks: the gate's output tracks the AND of its two input
// neighbors' most recently committed power.
func TestANDGateOfTwoClocks(t *testing.T) {
	s := NewScene()
	gateID, err := s.AddBlock(Block{Kind: KindANDGate}, Coord{}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock gate: %v", err)
	}
	clockA, err := s.AddBlock(Block{Kind: KindClock, Rate: 2}, Coord{X: -2, Y: 1}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock clockA: %v", err)
	}
	clockB, err := s.AddBlock(Block{Kind: KindClock, Rate: 3}, Coord{X: -2, Y: -1}, OrientForward)
	if err != nil {
		t.Fatalf("AddBlock clockB: %v", err)
	}

	clockRule := func(rate, start, ticks uint32) bool {
		if start > ticks {
			return false
		}
		return (ticks-start)%rate == 0
	}

	prevA, prevB := false, false // pre-tick default state
	for tick := uint32(1); tick <= 12; tick++ {
		s.SimulateTick()

		expectedGate := prevA && prevB
		p, _ := s.GetBlock(gateID)
		if p.Block.Powered != expectedGate {
			t.Fatalf("tick %d: gate powered = %v, want %v", tick, p.Block.Powered, expectedGate)
		}

		prevA = clockRule(2, 0, tick)
		prevB = clockRule(3, 0, tick)
		pa, _ := s.GetBlock(clockA)
		pb, _ := s.GetBlock(clockB)
		if pa.Block.Powered != prevA {
			t.Fatalf("tick %d: clockA powered = %v, want %v", tick, pa.Block.Powered, prevA)
		}
		if pb.Block.Powered != prevB {
			t.Fatalf("tick %d: clockB powered = %v, want %v", tick, pb.Block.Powered, prevB)
		}
	}
}

// TestEdgePowersMatchEndpointPowerAfterTick: after a tick, every circuit
// edge's power flag is the OR of its endpoint blocks' CircuitPower.
func TestEdgePowersMatchEndpointPowerAfterTick(t *testing.T) {
	s := NewScene()
	s.AddBlock(Block{Kind: KindToggle, Powered: true}, Coord{Z: -1}, OrientForward)
	s.AddBlock(Block{Kind: KindWire}, Coord{Z: 0}, OrientForward)
	s.AddBlock(Block{Kind: KindWire}, Coord{Z: 1}, OrientForward)
	s.AddBlock(Block{Kind: KindPixel}, Coord{Z: 2}, OrientForward)

	s.SimulateTick()

	for _, edge := range s.circuit.Edges() {
		a, _ := s.circuit.Node(edge[0])
		b, _ := s.circuit.Node(edge[1])
		pa, _ := CircuitPower(s.blocks[a.ID].Block)
		pb, _ := CircuitPower(s.blocks[b.ID].Block)
		want := pa || pb
		got := s.circuit.nodes[edge[0].index].edges[edge[1]]
		if got != want {
			t.Fatalf("edge (%d,%d) power = %v, want %v", a.ID, b.ID, got, want)
		}
	}
}

func TestSimulateTickDeterministic(t *testing.T) {
	build := func() *Scene {
		s := NewScene()
		s.AddBlock(Block{Kind: KindToggle, Powered: true}, Coord{Z: -1}, OrientForward)
		s.AddBlock(Block{Kind: KindWire}, Coord{Z: 0}, OrientForward)
		s.AddBlock(Block{Kind: KindWire}, Coord{Z: 1}, OrientForward)
		return s
	}

	s1, s2 := build(), build()
	d1, d2 := s1.SimulateTick(), s2.SimulateTick()
	if len(d1) != len(d2) {
		t.Fatalf("expected equal-size delta sets, got %d and %d", len(d1), len(d2))
	}
	set1, set2 := map[InstanceID]bool{}, map[InstanceID]bool{}
	for _, id := range d1 {
		set1[id] = true
	}
	for _, id := range d2 {
		set2[id] = true
	}
	for id := range set1 {
		if !set2[id] {
			t.Fatalf("delta sets differ: %v vs %v", d1, d2)
		}
	}
}
