package save

import (
	"testing"

	"logicgrid/core"
	"logicgrid/internal/testutil"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sb.Cleanup()

	scene := core.NewScene()
	scene.AddBlock(core.Block{Kind: core.KindToggle, Powered: true}, core.Coord{Z: -1}, core.OrientForward)
	scene.AddBlock(core.Block{Kind: core.KindWire}, core.Coord{Z: 0}, core.OrientForward)
	wantDelta := scene.SimulateTick()

	path := sb.Path("scene.world")
	if err := Save(scene, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	gotDelta := loaded.SimulateTick()
	if len(gotDelta) != 0 {
		t.Fatalf("expected a stable scene to produce no further delta, got %v", gotDelta)
	}
	_ = wantDelta
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/scene.world"); err == nil {
		t.Fatalf("expected an error loading a missing file")
	}
}
