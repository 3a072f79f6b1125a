package core

import "sort"

// BlockRecord is one block's persisted placement, in the order blocks were
// originally assigned ids.
type BlockRecord struct {
	ID       InstanceID `json:"id"`
	Position Coord      `json:"position"`
	Orient   Orient     `json:"orient"`
	Block    Block      `json:"block"`
}

// Snapshot is the opaque persisted form of a Scene. Circuit edges and grid
// occupancy are not stored directly; they are pure functions of block
// placement and are rebuilt on Restore. Only the tick counter, the next
// id to assign, and each block's placement need to survive a save/load
// cycle.
type Snapshot struct {
	Ticks  uint32        `json:"ticks"`
	NextID InstanceID    `json:"next_id"`
	Blocks []BlockRecord `json:"blocks"`
}

// Snapshot captures s's persisted state.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{Ticks: s.ticks, NextID: s.nextID}
	for id, p := range s.blocks {
		snap.Blocks = append(snap.Blocks, BlockRecord{ID: id, Position: p.Position, Orient: p.Orient, Block: p.Block})
	}
	sort.Slice(snap.Blocks, func(i, j int) bool { return snap.Blocks[i].ID < snap.Blocks[j].ID })
	return snap
}

// Restore rebuilds a Scene from a Snapshot, replaying each block's placement
// in id order so grid occupancy and circuit adjacency are reconstructed
// exactly as they were.
func Restore(snap Snapshot) (*Scene, error) {
	s := NewScene()
	for _, rec := range snap.Blocks {
		if err := s.addBlockWithID(rec.ID, rec.Block, rec.Position, rec.Orient); err != nil {
			return nil, err
		}
	}
	s.ticks = snap.Ticks
	s.nextID = snap.NextID
	s.recomputeEdgePowers()
	return s, nil
}
