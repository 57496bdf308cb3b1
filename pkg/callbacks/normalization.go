package callbacks

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/metrics"
	"github.com/husmen/anomalib/pkg/trainer"
)

// CdfNormalization standardizes anomaly scores through the CDF of a Gaussian
// fitted to the validation scores, so that the threshold lands on a fixed
// quantile scale.
type CdfNormalization struct {
	dist *metrics.AnomalyScoreDistribution
}

func NewCdfNormalization() *CdfNormalization {
	return &CdfNormalization{dist: &metrics.AnomalyScoreDistribution{}}
}

func (c *CdfNormalization) Name() string { return "cdf-normalization" }

func (c *CdfNormalization) OnValidationEnd(run *trainer.Run) error {
	if len(run.ValidationScores) == 0 {
		return nil
	}
	c.dist.Reset()
	c.dist.Update(run.ValidationScores, run.ValidationLabels)
	mean, std := c.dist.Fit()

	for i, score := range run.ValidationScores {
		run.ValidationScores[i] = gaussianCDF(score, mean, std)
	}
	run.ImageThreshold = gaussianCDF(run.ImageThreshold, mean, std)
	log.Debugf("cdf normalization fitted with mean=%v std=%v", mean, std)
	return nil
}

func gaussianCDF(x, mean, std float64) float64 {
	return 0.5 * (1 + math.Erf((x-mean)/(std*math.Sqrt2)))
}

// MinMaxNormalization rescales anomaly scores and the threshold to [0, 1]
// using the observed score range.
type MinMaxNormalization struct {
	minMax *metrics.MinMax
}

func NewMinMaxNormalization() *MinMaxNormalization {
	return &MinMaxNormalization{minMax: &metrics.MinMax{}}
}

func (m *MinMaxNormalization) Name() string { return "min-max-normalization" }

func (m *MinMaxNormalization) OnValidationEnd(run *trainer.Run) error {
	if len(run.ValidationScores) == 0 {
		return nil
	}
	m.minMax.Reset()
	m.minMax.Update(run.ValidationScores, nil)
	min, max := m.minMax.Range()
	if max == min {
		return nil
	}

	for i, score := range run.ValidationScores {
		run.ValidationScores[i] = (score - min) / (max - min)
	}
	run.ImageThreshold = (run.ImageThreshold - min) / (max - min)
	log.Debugf("min-max normalization applied with range [%v, %v]", min, max)
	return nil
}
