// Package trainer defines the training-lifecycle contract between the
// toolkit and the callbacks assembled from the configuration. The heavy
// lifting (forward passes, optimization) lives in the external execution
// engine; this loop only sequences the lifecycle hooks around it.
package trainer

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/metrics"
)

// Module is the trainable model as seen by the callbacks.
type Module interface {
	Name() string
	LoadWeights(path string) error
}

// Run carries the mutable state shared by the callbacks over one fit/test
// cycle.
type Run struct {
	ID     string
	Config *config.Config
	Module Module

	ImageMetrics *metrics.Collection
	PixelMetrics *metrics.Collection

	// Validation anomaly scores of the current cycle, the normalization
	// callbacks read and rewrite these in place.
	ValidationScores []float64
	ValidationLabels []float64

	ImageThreshold float64
	PixelThreshold float64

	StartedAt time.Time
}

func NewRun(conf *config.Config, module Module) *Run {
	return &Run{
		ID:     uuid.NewString(),
		Config: conf,
		Module: module,
	}
}

// Callback is a unit of training-lifecycle behavior. Implementations opt
// into lifecycle points through the hook interfaces below.
type Callback interface {
	Name() string
}

type SetupHook interface {
	Setup(run *Run) error
}

type FitStartHook interface {
	OnFitStart(run *Run) error
}

type ValidationEndHook interface {
	OnValidationEnd(run *Run) error
}

type FitEndHook interface {
	OnFitEnd(run *Run) error
}

type TestEndHook interface {
	OnTestEnd(run *Run) error
}

// Trainer sequences the callbacks. Hook order is assembly order; the first
// error aborts the run.
type Trainer struct {
	callbacks []Callback
}

func New(callbacks []Callback) *Trainer {
	return &Trainer{callbacks: callbacks}
}

func (t *Trainer) Callbacks() []Callback { return t.callbacks }

// Fit runs setup, fit-start, one validation pass and fit-end hooks.
func (t *Trainer) Fit(run *Run) error {
	run.StartedAt = time.Now()

	for _, cb := range t.callbacks {
		if hook, ok := cb.(SetupHook); ok {
			if err := hook.Setup(run); err != nil {
				log.WithError(err).Errorf("callback %s setup failed", cb.Name())
				return err
			}
		}
	}
	for _, cb := range t.callbacks {
		if hook, ok := cb.(FitStartHook); ok {
			if err := hook.OnFitStart(run); err != nil {
				log.WithError(err).Errorf("callback %s fit-start failed", cb.Name())
				return err
			}
		}
	}
	if err := t.ValidationEnd(run); err != nil {
		return err
	}
	for _, cb := range t.callbacks {
		if hook, ok := cb.(FitEndHook); ok {
			if err := hook.OnFitEnd(run); err != nil {
				log.WithError(err).Errorf("callback %s fit-end failed", cb.Name())
				return err
			}
		}
	}
	return nil
}

// ValidationEnd triggers the validation-end hooks, the execution engine
// calls this after every validation pass.
func (t *Trainer) ValidationEnd(run *Run) error {
	for _, cb := range t.callbacks {
		if hook, ok := cb.(ValidationEndHook); ok {
			if err := hook.OnValidationEnd(run); err != nil {
				log.WithError(err).Errorf("callback %s validation-end failed", cb.Name())
				return err
			}
		}
	}
	return nil
}

// Test triggers the test-end hooks.
func (t *Trainer) Test(run *Run) error {
	for _, cb := range t.callbacks {
		if hook, ok := cb.(TestEndHook); ok {
			if err := hook.OnTestEnd(run); err != nil {
				log.WithError(err).Errorf("callback %s test-end failed", cb.Name())
				return err
			}
		}
	}
	return nil
}
