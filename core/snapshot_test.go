package core

import "testing"

func TestSnapshotRoundTripPreservesTickBehavior(t *testing.T) {
	s := NewScene()
	s.AddBlock(Block{Kind: KindToggle, Powered: true}, Coord{Z: -1}, OrientForward)
	s.AddBlock(Block{Kind: KindWire}, Coord{Z: 0}, OrientForward)
	s.AddBlock(Block{Kind: KindWire}, Coord{Z: 1}, OrientForward)

	snap := s.Snapshot()
	restored, err := Restore(snap)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(restored.Blocks()) != len(s.Blocks()) {
		t.Fatalf("block count mismatch after restore: got %d, want %d", len(restored.Blocks()), len(s.Blocks()))
	}

	wantDelta := s.SimulateTick()
	gotDelta := restored.SimulateTick()
	if len(wantDelta) != len(gotDelta) {
		t.Fatalf("post-restore tick delta size mismatch: got %d, want %d", len(gotDelta), len(wantDelta))
	}
}
