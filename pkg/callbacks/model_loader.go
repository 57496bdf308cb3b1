package callbacks

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/trainer"
)

// ModelLoader restores pretrained weights into the module before training
// starts.
type ModelLoader struct {
	WeightPath string
}

func NewModelLoader(weightPath string) *ModelLoader {
	return &ModelLoader{WeightPath: weightPath}
}

func (m *ModelLoader) Name() string { return "model-loader" }

func (m *ModelLoader) Setup(run *trainer.Run) error {
	log.Infof("loading model weights from %s", m.WeightPath)
	if err := run.Module.LoadWeights(m.WeightPath); err != nil {
		return fmt.Errorf("load weights %s: %w", m.WeightPath, err)
	}
	return nil
}
