package callbacks

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/husmen/anomalib/pkg/trainer"
)

// Checkpoint persists the run state (thresholds, metric values, monitored
// metric) under the project weights directory at the end of every fit cycle.
// The model weights themselves are written by the execution engine next to
// this file.
type Checkpoint struct {
	DirPath  string
	Filename string
	Monitor  string
	Mode     string
}

type checkpointState struct {
	Module         string             `yaml:"module"`
	RunID          string             `yaml:"runID"`
	Monitor        string             `yaml:"monitor,omitempty"`
	Mode           string             `yaml:"mode"`
	ImageThreshold float64            `yaml:"imageThreshold"`
	PixelThreshold float64            `yaml:"pixelThreshold"`
	Metrics        map[string]float64 `yaml:"metrics,omitempty"`
	SavedAt        time.Time          `yaml:"savedAt"`
}

func NewCheckpoint(dirPath, filename, monitor, mode string) *Checkpoint {
	return &Checkpoint{DirPath: dirPath, Filename: filename, Monitor: monitor, Mode: mode}
}

func (c *Checkpoint) Name() string { return "checkpoint" }

func (c *Checkpoint) Setup(run *trainer.Run) error {
	if err := os.MkdirAll(c.DirPath, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir %s: %w", c.DirPath, err)
	}
	return nil
}

func (c *Checkpoint) OnFitEnd(run *trainer.Run) error {
	state := checkpointState{
		Module:         run.Module.Name(),
		RunID:          run.ID,
		Monitor:        c.Monitor,
		Mode:           c.Mode,
		ImageThreshold: run.ImageThreshold,
		PixelThreshold: run.PixelThreshold,
		SavedAt:        time.Now(),
	}
	if run.ImageMetrics != nil && run.ImageMetrics.Len() > 0 {
		state.Metrics = run.ImageMetrics.Compute()
	}

	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("marshal checkpoint state: %w", err)
	}
	path := filepath.Join(c.DirPath, c.Filename+".ckpt.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	log.Infof("saved run checkpoint to %s", path)
	return nil
}
