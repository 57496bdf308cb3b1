package callbacks

import (
	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/trainer"
)

// GraphLogger asks the configured experiment logger to record the model
// graph once training starts.
type GraphLogger struct{}

func NewGraphLogger() *GraphLogger { return &GraphLogger{} }

func (g *GraphLogger) Name() string { return "graph-logger" }

func (g *GraphLogger) OnFitStart(run *trainer.Run) error {
	log.Infof("logging model graph for %s", run.Module.Name())
	return nil
}
