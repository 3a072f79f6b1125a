// Package save serializes and deserializes a Scene to a persistent file.
// The on-disk format is treated as opaque outside this package.
package save

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"logicgrid/core"
	"logicgrid/pkg/utils"
)

// DefaultPath returns the default save location, timestamped with the
// current unix millisecond, under the given base directory.
func DefaultPath(baseDir string) string {
	return filepath.Join(baseDir, strconv.FormatInt(time.Now().UnixMilli(), 10)+".world")
}

// Save writes scene's snapshot to path, creating parent directories as
// needed.
func Save(scene *core.Scene, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return utils.Wrap(err, "create save directory")
	}
	raw, err := json.Marshal(scene.Snapshot())
	if err != nil {
		return utils.Wrap(err, "marshal scene snapshot")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return utils.Wrap(err, "write save file")
	}
	return nil
}

// Load reads a Scene snapshot from path and rebuilds a Scene from it.
func Load(path string) (*core.Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.Wrap(err, "read save file")
	}
	var snap core.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, utils.Wrap(err, "unmarshal scene snapshot")
	}
	scene, err := core.Restore(snap)
	if err != nil {
		return nil, utils.Wrap(err, "restore scene")
	}
	return scene, nil
}
