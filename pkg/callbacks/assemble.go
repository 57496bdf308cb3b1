// Package callbacks implements the training-lifecycle hooks and their
// config-driven assembly.
package callbacks

import (
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/trainer"
)

var (
	// ErrCdfModelUnsupported rejects CDF score normalization for model
	// families it is not implemented for.
	ErrCdfModelUnsupported = errors.New("CDF score normalization is currently supported for padim and stfpm only")
	// ErrCdfWithNNCF rejects the CDF/NNCF combination, quantization rewrites
	// the score distribution the CDF fit depends on.
	ErrCdfWithNNCF = errors.New("CDF score normalization is currently not compatible with NNCF")
)

// UnknownNormalizationError reports a normalization_method value outside the
// supported set.
type UnknownNormalizationError struct {
	Method string
}

func (e *UnknownNormalizationError) Error() string {
	return fmt.Sprintf("normalization method not recognized: %s", e.Method)
}

// Build assembles the ordered callback list for one training run. Assembly
// is all-or-nothing: the first configuration inconsistency aborts it.
func Build(conf *config.Config) ([]trainer.Callback, error) {
	log.Info("loading the callbacks")

	var cbs []trainer.Callback

	monitorMetric, monitorMode := "", "max"
	if es := conf.Model.EarlyStopping; es != nil {
		monitorMetric = es.Metric
		if es.Mode != "" {
			monitorMode = es.Mode
		}
	}
	cbs = append(cbs,
		NewCheckpoint(filepath.Join(conf.Project.Path, config.WeightsDirName), "model", monitorMetric, monitorMode),
		NewTimer(),
		NewMetricsConfiguration(conf.Metrics),
	)

	if conf.Model.WeightFile != "" {
		cbs = append(cbs, NewModelLoader(filepath.Join(conf.Project.Path, conf.Model.WeightFile)))
	}

	switch method := conf.Model.NormalizationMethod; method {
	case "", config.NormalizationNone:
	case config.NormalizationCDF:
		if !cdfSupported(conf.Model.Name) {
			return nil, ErrCdfModelUnsupported
		}
		if conf.NNCFApply() {
			return nil, ErrCdfWithNNCF
		}
		cbs = append(cbs, NewCdfNormalization())
	case config.NormalizationMinMax:
		cbs = append(cbs, NewMinMaxNormalization())
	default:
		return nil, &UnknownNormalizationError{Method: method}
	}

	if tiling := conf.Dataset.Tiling; tiling != nil && tiling.Apply {
		cbs = append(cbs, NewTilerConfiguration(tiling.TileSize, tiling.Stride))
	}

	if cb := visualizerFromConfig(conf); cb != nil {
		cbs = append(cbs, cb)
	}

	if conf.NNCFApply() {
		cbs = append(cbs, NewQuantization(conf.Optimization.NNCF, filepath.Join(conf.Project.Path, config.CompressedDirName)))
	}
	if conf.OpenVINOApply() {
		cbs = append(cbs, NewExport(conf.Model.InputSize, filepath.Join(conf.Project.Path, config.OpenVINODirName), "openvino_model"))
	}

	if conf.Logging.LogGraph {
		cbs = append(cbs, NewGraphLogger())
	}

	return cbs, nil
}

func cdfSupported(modelName string) bool {
	for _, name := range config.CdfSupportedModels {
		if modelName == name {
			return true
		}
	}
	return false
}

// visualizerFromConfig migrates the deprecated log_images_to option and
// returns the visualizer callback, or nil when visualization is off.
func visualizerFromConfig(conf *config.Config) *Visualizer {
	deprecated := append(append([]string(nil), conf.Project.LogImagesTo...), conf.Logging.LogImagesTo...)
	if len(deprecated) > 0 {
		log.Warn("log_images_to parameter is deprecated and will be removed, " +
			"use visualization.log_images and visualization.save_images instead")
		if conf.Visualization == nil {
			conf.Visualization = &config.VisualizationConfig{}
		}
		for _, target := range deprecated {
			if target == "local" {
				conf.Visualization.SaveImages = true
			} else {
				conf.Visualization.LogImages = true
			}
		}
	}

	vis := conf.Visualization
	if vis == nil || (!vis.LogImages && !vis.SaveImages && !vis.ShowImages) {
		return nil
	}
	imageSavePath := vis.ImageSavePath
	if imageSavePath == "" {
		imageSavePath = filepath.Join(conf.Project.Path, config.ImagesDirName)
	}
	return NewVisualizer(VisualizerOptions{
		Task:                conf.Dataset.Task,
		Mode:                vis.Mode,
		ImageSavePath:       imageSavePath,
		InputsAreNormalized: conf.Model.NormalizationMethod != "" && conf.Model.NormalizationMethod != config.NormalizationNone,
		ShowImages:          vis.ShowImages,
		LogImages:           vis.LogImages,
		SaveImages:          vis.SaveImages,
	})
}
