package core

import "fmt"

// InstanceID is a monotonically assigned identifier, unique within a Scene
// for as long as the block it names exists. IDs are never reused while the
// block is alive.
type InstanceID uint32

// ErrOverlap is returned by AddBlock/ReplaceBlock when the new block's
// structure would overlap an already-occupied voxel.
var ErrOverlap = fmt.Errorf("core: block overlaps an existing block")

// ErrNotFound is returned when an operation targets an InstanceID the Scene
// does not know about.
var ErrNotFound = fmt.Errorf("core: instance id not found")

// ErrNoStructure is returned when a caller tries to store a block that
// occupies no voxels (Air, or an unknown kind). Air is never stored.
var ErrNoStructure = fmt.Errorf("core: block has no voxel structure")

// ErrBrokenPath is returned by AddWire when consecutive path coordinates are
// not Manhattan-adjacent.
var ErrBrokenPath = fmt.Errorf("core: wire path is not contiguous")

type spaceValue struct {
	ID    InstanceID
	Voxel VoxelID
	Node  NodeHandle
}

// Placement is the non-payload part of a block's presence in the world.
type Placement struct {
	Position Coord
	Orient   Orient
	Block    Block
}

// Scene is the authoritative world state: the block registry, the
// voxel-occupancy grid, and the circuit graph. It is the only place in the
// system that mutates these three containers together; every exported
// method leaves the registry, the occupancy grid and the circuit graph
// mutually consistent on return.
type Scene struct {
	blocks  map[InstanceID]Placement
	space   *Grid[spaceValue]
	circuit *CircuitGraph
	ticks   uint32
	nextID  InstanceID
}

// NewScene constructs an empty Scene.
func NewScene() *Scene {
	return &Scene{
		blocks:  make(map[InstanceID]Placement),
		space:   NewGrid[spaceValue](),
		circuit: NewCircuitGraph(),
	}
}

// Ticks returns the current tick counter.
func (s *Scene) Ticks() uint32 { return s.ticks }

// GetBlock returns the placement for id, if present.
func (s *Scene) GetBlock(id InstanceID) (Placement, bool) {
	p, ok := s.blocks[id]
	return p, ok
}

// Blocks returns a shallow copy of every (id, placement) pair currently in
// the Scene. Safe for the caller to range over without holding any lock
// the Scene itself doesn't already require.
func (s *Scene) Blocks() map[InstanceID]Placement {
	out := make(map[InstanceID]Placement, len(s.blocks))
	for id, p := range s.blocks {
		out[id] = p
	}
	return out
}

// AddBlock places block at position/orient and wires it into the circuit
// graph. Returns the assigned InstanceID, or ErrOverlap if any voxel of the
// new block's structure is already occupied, in which case the Scene is
// left unchanged.
func (s *Scene) AddBlock(block Block, position Coord, orient Orient) (InstanceID, error) {
	id := s.nextID
	if err := s.addBlockWithID(id, block, position, orient); err != nil {
		return 0, err
	}
	s.nextID++
	return id, nil
}

// addBlockWithID is the internal primitive used both by AddBlock (fresh ids)
// and ReplaceBlock (id preservation across a remove+re-add).
func (s *Scene) addBlockWithID(id InstanceID, block Block, position Coord, orient Orient) error {
	global := GlobalStructure(block, position, orient)
	if len(global) == 0 {
		return ErrNoStructure
	}

	for _, coord := range global {
		if s.space.Contains(coord) {
			return ErrOverlap
		}
	}

	s.blocks[id] = Placement{Position: position, Orient: orient, Block: block}

	terminalNodes := make(map[VoxelID]NodeHandle, len(global))
	for voxel, coord := range global {
		if voxel.IsTerminal() {
			terminalNodes[voxel] = s.circuit.AddNode(id, voxel, coord)
		}
	}

	for voxel, coord := range global {
		s.space.Set(coord, spaceValue{ID: id, Voxel: voxel, Node: terminalNodes[voxel]})
	}

	for voxel, node := range terminalNodes {
		coord := global[voxel]
		for _, adj := range s.space.Adjacent(coord) {
			if !adj.Value.Voxel.IsTerminal() {
				continue
			}
			if adj.Value.ID == id {
				continue
			}
			s.circuit.UpsertEdge(node, adj.Value.Node, false)
		}
	}

	return nil
}

// RemoveBlock deletes the block with the given id from blocks, space and the
// circuit graph, returning its former placement.
func (s *Scene) RemoveBlock(id InstanceID) (Placement, error) {
	placement, ok := s.blocks[id]
	if !ok {
		return Placement{}, ErrNotFound
	}

	global := GlobalStructure(placement.Block, placement.Position, placement.Orient)
	for voxel, coord := range global {
		if voxel.IsTerminal() {
			if v, ok := s.space.Get(coord); ok {
				s.circuit.RemoveNode(v.Node)
			}
		}
		s.space.Remove(coord)
	}

	delete(s.blocks, id)
	return placement, nil
}

// ReplaceBlock moves or retypes the block with the given id: it is removed
// then re-added under the same InstanceID. If the re-add overlaps another
// block, the original is already gone and the id is simply absent afterward;
// callers that can't tolerate losing the block must pre-validate the target
// voxels before calling ReplaceBlock.
func (s *Scene) ReplaceBlock(id InstanceID, block Block, position Coord, orient Orient) error {
	if _, err := s.RemoveBlock(id); err != nil {
		return err
	}
	return s.addBlockWithID(id, block, position, orient)
}

// AddWire places an unpowered wire on every coordinate of path, in order.
// The path must be contiguous (consecutive coordinates Manhattan-adjacent);
// a break returns ErrBrokenPath before anything is placed. A placement
// failure partway through keeps the wires already placed, matching the
// stop-at-first-failure batch semantics elsewhere.
func (s *Scene) AddWire(path []Coord) ([]InstanceID, error) {
	for i := 1; i < len(path); i++ {
		if !IsAdjacent(path[i-1], path[i]) {
			return nil, ErrBrokenPath
		}
	}

	ids := make([]InstanceID, 0, len(path))
	for _, coord := range path {
		id, err := s.AddBlock(Block{Kind: KindWire}, coord, OrientForward)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UpdateBlock replaces only the Block payload of id in place: no
// structural checks, no circuit rewiring. Used when only internal state
// (e.g. a powered flag) changes. Returns the previous Block.
func (s *Scene) UpdateBlock(id InstanceID, block Block) (Block, error) {
	p, ok := s.blocks[id]
	if !ok {
		return Block{}, ErrNotFound
	}
	old := p.Block
	p.Block = block
	s.blocks[id] = p
	return old, nil
}
