package callbacks

import (
	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/metrics"
	"github.com/husmen/anomalib/pkg/trainer"
)

// MetricsConfiguration attaches the configured metric collections and
// thresholds to the run. With adaptive thresholding enabled, the image
// threshold is re-estimated from the validation scores after every
// validation pass.
type MetricsConfiguration struct {
	Adaptive     bool
	ImageDefault *float64
	PixelDefault *float64
	ImageNames   []string
	PixelNames   []string
}

func NewMetricsConfiguration(conf config.MetricsConfig) *MetricsConfiguration {
	return &MetricsConfiguration{
		Adaptive:     conf.Threshold.Adaptive,
		ImageDefault: conf.Threshold.ImageDefault,
		PixelDefault: conf.Threshold.PixelDefault,
		ImageNames:   conf.Image,
		PixelNames:   conf.Pixel,
	}
}

func (m *MetricsConfiguration) Name() string { return "metrics-configuration" }

func (m *MetricsConfiguration) Setup(run *trainer.Run) error {
	run.ImageMetrics = metrics.FromNames(m.ImageNames, "image_")
	run.PixelMetrics = metrics.FromNames(m.PixelNames, "pixel_")
	if m.ImageDefault != nil {
		run.ImageThreshold = *m.ImageDefault
	}
	if m.PixelDefault != nil {
		run.PixelThreshold = *m.PixelDefault
	}
	log.Debugf("configured %d image and %d pixel metrics, adaptive threshold: %v",
		run.ImageMetrics.Len(), run.PixelMetrics.Len(), m.Adaptive)
	return nil
}

func (m *MetricsConfiguration) OnValidationEnd(run *trainer.Run) error {
	if !m.Adaptive || len(run.ValidationScores) == 0 {
		return nil
	}
	adaptive := &metrics.AdaptiveThreshold{}
	adaptive.Update(run.ValidationScores, run.ValidationLabels)
	run.ImageThreshold = adaptive.Compute()
	log.Debugf("adaptive image threshold: %v", run.ImageThreshold)
	return nil
}
