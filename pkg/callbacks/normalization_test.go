package callbacks

import (
	"testing"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/trainer"
)

type stubModule struct{ name string }

func (m stubModule) Name() string                 { return m.name }
func (m stubModule) LoadWeights(path string) error { return nil }

func newRun(scores []float64, threshold float64) *trainer.Run {
	conf := &config.Config{}
	conf.ApplyDefaults()
	run := trainer.NewRun(conf, stubModule{name: "padim"})
	run.ValidationScores = scores
	run.ValidationLabels = make([]float64, len(scores))
	run.ImageThreshold = threshold
	return run
}

func TestMinMaxNormalization(t *testing.T) {
	run := newRun([]float64{2, 4, 6, 10}, 6)

	if err := NewMinMaxNormalization().OnValidationEnd(run); err != nil {
		t.Fatal(err)
	}

	if run.ValidationScores[0] != 0 || run.ValidationScores[3] != 1 {
		t.Errorf("scores not rescaled to [0, 1]: %v", run.ValidationScores)
	}
	if run.ImageThreshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", run.ImageThreshold)
	}
}

func TestMinMaxNormalizationConstantScores(t *testing.T) {
	run := newRun([]float64{3, 3, 3}, 3)

	if err := NewMinMaxNormalization().OnValidationEnd(run); err != nil {
		t.Fatal(err)
	}
	// Degenerate range leaves scores untouched.
	for _, s := range run.ValidationScores {
		if s != 3 {
			t.Errorf("constant scores were rescaled: %v", run.ValidationScores)
		}
	}
}

func TestCdfNormalization(t *testing.T) {
	run := newRun([]float64{1, 2, 3, 4, 5}, 3)

	if err := NewCdfNormalization().OnValidationEnd(run); err != nil {
		t.Fatal(err)
	}

	for i, s := range run.ValidationScores {
		if s < 0 || s > 1 {
			t.Errorf("score %d = %v outside [0, 1]", i, s)
		}
		if i > 0 && s <= run.ValidationScores[i-1] {
			t.Errorf("normalization broke score ordering: %v", run.ValidationScores)
		}
	}
	// The threshold sits at the fitted mean, its CDF value is 0.5.
	if run.ImageThreshold < 0.499 || run.ImageThreshold > 0.501 {
		t.Errorf("threshold = %v, want 0.5", run.ImageThreshold)
	}
}

func TestMetricsConfigurationAdaptiveThreshold(t *testing.T) {
	conf := config.MetricsConfig{Threshold: config.ThresholdConfig{Adaptive: true}}
	cb := NewMetricsConfiguration(conf)

	run := newRun([]float64{0.1, 0.2, 0.8, 0.9}, 0)
	run.ValidationLabels = []float64{0, 0, 1, 1}

	if err := cb.Setup(run); err != nil {
		t.Fatal(err)
	}
	if err := cb.OnValidationEnd(run); err != nil {
		t.Fatal(err)
	}
	if run.ImageThreshold <= 0.2 || run.ImageThreshold > 0.8 {
		t.Errorf("adaptive threshold = %v, want in (0.2, 0.8]", run.ImageThreshold)
	}
}

func TestMetricsConfigurationDefaults(t *testing.T) {
	imageDefault, pixelDefault := 0.4, 0.6
	conf := config.MetricsConfig{
		Image: []string{"AUROC"},
		Threshold: config.ThresholdConfig{
			ImageDefault: &imageDefault,
			PixelDefault: &pixelDefault,
		},
	}

	run := newRun(nil, 0)
	if err := NewMetricsConfiguration(conf).Setup(run); err != nil {
		t.Fatal(err)
	}
	if run.ImageThreshold != 0.4 || run.PixelThreshold != 0.6 {
		t.Errorf("thresholds = %v/%v, want 0.4/0.6", run.ImageThreshold, run.PixelThreshold)
	}
	if run.ImageMetrics.Len() != 1 {
		t.Errorf("image metrics = %d, want 1", run.ImageMetrics.Len())
	}
}
