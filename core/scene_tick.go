package core

// SimulateTick advances the circuit one discrete step and returns the set of
// InstanceIDs whose Block payload changed. All reads during the tick use the
// pre-tick snapshot; writes are deferred until the commit step at the end so
// that no block's update can observe another block's already-updated state
// within the same tick.
func (s *Scene) SimulateTick() []InstanceID {
	s.ticks++

	wireIDs, nonWireIDs := s.partitionActiveBlocks()

	updatedNonWire, changedNonWire := s.computeNonWireUpdates(nonWireIDs)

	networks := s.wireNetworks(wireIDs)

	originalNetworkPower := make([]bool, len(networks))
	for i, net := range networks {
		originalNetworkPower[i] = networkWasPowered(s, net)
	}

	updatedNetworkPower := make([]bool, len(networks))
	for i, net := range networks {
		updatedNetworkPower[i] = s.networkIsPowered(net, updatedNonWire)
	}

	var changedWires []InstanceID
	flippedPower := make(map[InstanceID]bool)
	for i, net := range networks {
		if originalNetworkPower[i] == updatedNetworkPower[i] {
			continue
		}
		for id := range net {
			changedWires = append(changedWires, id)
			flippedPower[id] = updatedNetworkPower[i]
		}
	}

	// Commit: non-wire updates, then wire updates.
	for id, block := range updatedNonWire {
		if changedNonWire[id] {
			s.blocks[id] = Placement{Position: s.blocks[id].Position, Orient: s.blocks[id].Orient, Block: block}
		}
	}
	for id, power := range flippedPower {
		p := s.blocks[id]
		p.Block.Powered = power
		s.blocks[id] = p
	}

	s.recomputeEdgePowers()

	delta := make([]InstanceID, 0, len(changedNonWire)+len(changedWires))
	for id := range changedNonWire {
		delta = append(delta, id)
	}
	delta = append(delta, changedWires...)
	return delta
}

// partitionActiveBlocks splits every stored block into wire terminals and
// non-wire circuit blocks (gates, sources, latches, pixels: anything with a
// terminal that isn't a wire).
func (s *Scene) partitionActiveBlocks() (wires, nonWire []InstanceID) {
	for id, p := range s.blocks {
		switch {
		case p.Block.Kind == KindWire:
			wires = append(wires, id)
		case IsCircuitBlock(p.Block):
			nonWire = append(nonWire, id)
		}
	}
	return wires, nonWire
}

// circuitNodesFor returns every terminal node handle belonging to id, keyed
// by VoxelID.
func (s *Scene) circuitNodesFor(id InstanceID) map[VoxelID]NodeHandle {
	p := s.blocks[id]
	global := GlobalStructure(p.Block, p.Position, p.Orient)
	out := make(map[VoxelID]NodeHandle)
	for voxel, coord := range global {
		if !voxel.IsTerminal() {
			continue
		}
		if v, ok := s.space.Get(coord); ok {
			out[voxel] = v.Node
		}
	}
	return out
}

// edgeIndependentPower is `OR over neighbors n of source_power_of(n)`: true
// if any neighbor of node is itself a powered source terminal, per the
// pre-tick snapshot.
func (s *Scene) edgeIndependentPower(node NodeHandle) bool {
	for _, nb := range s.circuit.Neighbors(node) {
		payload, ok := s.circuit.Node(nb)
		if !ok {
			continue
		}
		block := s.blocks[payload.ID].Block
		if vp, ok := CircuitVoxelPower(block)[payload.Voxel]; ok && vp.OK && vp.Power {
			return true
		}
	}
	return false
}

// computeNonWireUpdates applies the per-kind next-state rule to every
// non-wire circuit block, using only pre-tick inputs.
// Returns the full updated payload for every non-wire block plus the subset
// whose payload actually changed.
func (s *Scene) computeNonWireUpdates(ids []InstanceID) (updated map[InstanceID]Block, changed map[InstanceID]bool) {
	updated = make(map[InstanceID]Block, len(ids))
	changed = make(map[InstanceID]bool)

	for _, id := range ids {
		original := s.blocks[id].Block
		result := original
		nodes := s.circuitNodesFor(id)

		switch original.Kind {
		case KindToggle:
			// externally driven; unchanged by simulation
		case KindPixel:
			result.Powered = s.edgeIndependentPower(nodes[voxPixel])
		case KindANDGate:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			result.Powered = a && b
		case KindORGate:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			result.Powered = a || b
		case KindXORGate:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			result.Powered = a != b
		case KindNANDGate:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			result.Powered = !(a && b)
		case KindNORGate:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			result.Powered = !(a || b)
		case KindXNORGate:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			result.Powered = a == b
		case KindNOTGate:
			result.Powered = !s.edgeIndependentPower(nodes[voxIn])
		case KindDiode:
			result.Powered = s.edgeIndependentPower(nodes[voxIn])
		case KindClock:
			if original.StartTick > s.ticks {
				result.Powered = false
			} else {
				result.Powered = (s.ticks-original.StartTick)%max32(original.Rate, 1) == 0
			}
		case KindPulse:
			result.Powered = original.StartTick+original.PulseTicks >= s.ticks
		case KindToggleLatch:
			in := s.edgeIndependentPower(nodes[voxIn])
			if in && !original.Powered {
				result.Stored = !original.Stored
			}
			result.Powered = in
		case KindPulseLatch:
			battery := original.PulseBattery
			if battery > 0 {
				battery--
			}
			if s.edgeIndependentPower(nodes[voxIn]) {
				battery += original.PulseTicks
			}
			result.PulseBattery = battery
			result.Powered = battery > 0
		case KindMemoryLatch:
			a, b := s.edgeIndependentPower(nodes[voxInA]), s.edgeIndependentPower(nodes[voxInB])
			if a == b {
				result.Stored = original.Stored
			} else {
				result.Stored = a
			}
			result.Powered = result.Stored
		}

		updated[id] = result
		if result != original {
			changed[id] = true
		}
	}

	return updated, changed
}

func max32(v uint32, floor uint32) uint32 {
	if v < floor {
		return floor
	}
	return v
}

// wireNetworks partitions the wire terminal nodes into maximal connected
// components, via BFS over edges whose both endpoints
// are wire-terminal nodes.
func (s *Scene) wireNetworks(wireIDs []InstanceID) []map[InstanceID]bool {
	wireNode := make(map[InstanceID]NodeHandle, len(wireIDs))
	for _, id := range wireIDs {
		nodes := s.circuitNodesFor(id)
		wireNode[id] = nodes[voxWire]
	}

	nodeOwner := make(map[NodeHandle]InstanceID, len(wireNode))
	unvisited := make(map[NodeHandle]bool, len(wireNode))
	for id, n := range wireNode {
		nodeOwner[n] = id
		unvisited[n] = true
	}

	var networks []map[InstanceID]bool
	for len(unvisited) > 0 {
		var root NodeHandle
		for n := range unvisited {
			root = n
			break
		}

		component := map[NodeHandle]bool{root: true}
		queue := []NodeHandle{root}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range s.circuit.Neighbors(cur) {
				if component[nb] {
					continue
				}
				payload, ok := s.circuit.Node(nb)
				if !ok {
					continue
				}
				if s.blocks[payload.ID].Block.Kind != KindWire {
					continue
				}
				component[nb] = true
				queue = append(queue, nb)
			}
		}

		byID := make(map[InstanceID]bool, len(component))
		for n := range component {
			byID[nodeOwner[n]] = true
			delete(unvisited, n)
		}
		networks = append(networks, byID)
	}

	return networks
}

func networkWasPowered(s *Scene, net map[InstanceID]bool) bool {
	for id := range net {
		if s.blocks[id].Block.Powered {
			return true
		}
	}
	return false
}

// networkIsPowered reports whether a wire network is ON: any wire node in it
// has a non-wire circuit neighbor whose freshly computed source power is
// true.
func (s *Scene) networkIsPowered(net map[InstanceID]bool, updatedNonWire map[InstanceID]Block) bool {
	for id := range net {
		for _, node := range s.circuitNodesFor(id) {
			for _, nb := range s.circuit.Neighbors(node) {
				payload, ok := s.circuit.Node(nb)
				if !ok {
					continue
				}
				block, ok := updatedNonWire[payload.ID]
				if !ok {
					continue
				}
				if vp, ok := CircuitVoxelPower(block)[payload.Voxel]; ok && vp.OK && vp.Power {
					return true
				}
			}
		}
	}
	return false
}

// recomputeEdgePowers rewrites every circuit edge's power flag as the OR of
// its two endpoint blocks' CircuitPower, post-commit.
func (s *Scene) recomputeEdgePowers() {
	for _, edge := range s.circuit.Edges() {
		a, okA := s.circuit.Node(edge[0])
		b, okB := s.circuit.Node(edge[1])
		if !okA || !okB {
			continue
		}
		pa, _ := CircuitPower(s.blocks[a.ID].Block)
		pb, _ := CircuitPower(s.blocks[b.ID].Block)
		s.circuit.SetEdgePower(edge[0], edge[1], pa || pb)
	}
}
