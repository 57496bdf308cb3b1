package callbacks

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/trainer"
)

// Timer logs wall-clock durations of the fit and test cycles.
type Timer struct {
	fitStart  time.Time
	testStart time.Time
}

func NewTimer() *Timer { return &Timer{} }

func (t *Timer) Name() string { return "timer" }

func (t *Timer) OnFitStart(run *trainer.Run) error {
	t.fitStart = time.Now()
	t.testStart = t.fitStart
	return nil
}

func (t *Timer) OnFitEnd(run *trainer.Run) error {
	log.Infof("training took %s", time.Since(t.fitStart).Round(time.Millisecond))
	return nil
}

func (t *Timer) OnTestEnd(run *trainer.Run) error {
	log.Infof("testing took %s", time.Since(t.testStart).Round(time.Millisecond))
	return nil
}
