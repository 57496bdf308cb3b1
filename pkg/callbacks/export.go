package callbacks

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/trainer"
)

// ExportableModule is implemented by modules that can serialize themselves
// for a hardware inference backend.
type ExportableModule interface {
	Export(dirPath, filename string, inputSize int) error
}

// Export converts the trained model for the hardware inference backend at
// the end of the fit cycle.
type Export struct {
	InputSize int
	DirPath   string
	Filename  string
}

func NewExport(inputSize int, dirPath, filename string) *Export {
	return &Export{InputSize: inputSize, DirPath: dirPath, Filename: filename}
}

func (e *Export) Name() string { return "export" }

func (e *Export) OnFitEnd(run *trainer.Run) error {
	if err := os.MkdirAll(e.DirPath, 0o755); err != nil {
		return fmt.Errorf("create export dir %s: %w", e.DirPath, err)
	}
	exportable, ok := run.Module.(ExportableModule)
	if !ok {
		log.Warnf("model %s does not support hardware export, skipping", run.Module.Name())
		return nil
	}
	log.Infof("exporting %s to %s", run.Module.Name(), e.DirPath)
	return exportable.Export(e.DirPath, e.Filename, e.InputSize)
}
