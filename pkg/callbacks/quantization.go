package callbacks

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/trainer"
)

// Quantization orchestrates quantization-aware training. The compression
// backend runs outside this toolkit; the callback prepares the export
// directory and hands the backend its configuration.
type Quantization struct {
	Config    *config.NNCFConfig
	ExportDir string
}

func NewQuantization(conf *config.NNCFConfig, exportDir string) *Quantization {
	return &Quantization{Config: conf, ExportDir: exportDir}
}

func (q *Quantization) Name() string { return "quantization" }

func (q *Quantization) Setup(run *trainer.Run) error {
	if err := os.MkdirAll(q.ExportDir, 0o755); err != nil {
		return fmt.Errorf("create compression dir %s: %w", q.ExportDir, err)
	}
	log.Infof("quantization aware training enabled, init method: %s", q.Config.InitMethod)
	return nil
}

func (q *Quantization) OnFitEnd(run *trainer.Run) error {
	data, err := yaml.Marshal(q.Config)
	if err != nil {
		return fmt.Errorf("marshal compression config: %w", err)
	}
	path := filepath.Join(q.ExportDir, "compression.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write compression config %s: %w", path, err)
	}
	log.Infof("wrote compression config for %s to %s", run.Module.Name(), path)
	return nil
}
