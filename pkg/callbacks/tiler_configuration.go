package callbacks

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/trainer"
)

// TiledModule is implemented by modules that process large images as tiles.
type TiledModule interface {
	ConfigureTiler(tileSize, stride int) error
}

// TilerConfiguration pushes the tiling options into the module at setup.
type TilerConfiguration struct {
	TileSize int
	Stride   int
}

func NewTilerConfiguration(tileSize, stride int) *TilerConfiguration {
	return &TilerConfiguration{TileSize: tileSize, Stride: stride}
}

func (t *TilerConfiguration) Name() string { return "tiler-configuration" }

func (t *TilerConfiguration) Setup(run *trainer.Run) error {
	if t.TileSize <= 0 {
		return fmt.Errorf("tiling enabled but tile_size is %d", t.TileSize)
	}
	stride := t.Stride
	if stride <= 0 {
		stride = t.TileSize
	}

	tiled, ok := run.Module.(TiledModule)
	if !ok {
		log.Warnf("model %s does not support tiling, ignoring tiling configuration", run.Module.Name())
		return nil
	}
	return tiled.ConfigureTiler(t.TileSize, stride)
}
