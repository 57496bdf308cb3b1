// Package config defines the configuration tree consumed by the datamodule
// and the callback assembler.
package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config 服务的全局配置树. Optional sections are pointers so that an absent
// key can be told apart from a zero value.
type Config struct {
	Project       ProjectConfig        `json:"project" yaml:"project"`
	Dataset       DatasetConfig        `json:"dataset" yaml:"dataset"`
	Model         ModelConfig          `json:"model" yaml:"model"`
	Metrics       MetricsConfig        `json:"metrics" yaml:"metrics"`
	Optimization  *OptimizationConfig  `json:"optimization" yaml:"optimization"`
	Logging       LoggingConfig        `json:"logging" yaml:"logging"`
	Visualization *VisualizationConfig `json:"visualization" yaml:"visualization"`
}

type ProjectConfig struct {
	Path string `json:"path" yaml:"path"`
	Seed int64  `json:"seed" yaml:"seed"`
	// Deprecated: replaced by visualization.save_images and
	// visualization.log_images.
	LogImagesTo []string `json:"logImagesTo" yaml:"log_images_to"`
}

type DatasetConfig struct {
	Name           string        `json:"name" yaml:"name"`
	Format         string        `json:"format" yaml:"format"`
	Path           string        `json:"path" yaml:"path"`
	URL            string        `json:"url" yaml:"url"`
	Category       string        `json:"category" yaml:"category"`
	Task           string        `json:"task" yaml:"task" enums:"classification,segmentation"`
	ImageSize      int           `json:"imageSize" yaml:"image_size"`
	TrainBatchSize int           `json:"trainBatchSize" yaml:"train_batch_size"`
	TestBatchSize  int           `json:"testBatchSize" yaml:"test_batch_size"`
	NumWorkers     int           `json:"numWorkers" yaml:"num_workers"`
	Download       bool          `json:"download" yaml:"download"`
	SplitRatio     float64       `json:"splitRatio" yaml:"split_ratio"`
	Tiling         *TilingConfig `json:"tiling" yaml:"tiling"`
}

type TilingConfig struct {
	Apply     bool `json:"apply" yaml:"apply"`
	TileSize  int  `json:"tileSize" yaml:"tile_size"`
	Stride    int  `json:"stride" yaml:"stride"`
	RemoveBGR bool `json:"removeBorderCount" yaml:"remove_border_count"`
}

type ModelConfig struct {
	Name                string             `json:"name" yaml:"name"`
	InputSize           int                `json:"inputSize" yaml:"input_size"`
	WeightFile          string             `json:"weightFile" yaml:"weight_file"`
	NormalizationMethod string             `json:"normalizationMethod" yaml:"normalization_method" enums:"none,cdf,min_max"`
	EarlyStopping       *EarlyStoppingConf `json:"earlyStopping" yaml:"early_stopping"`
}

type EarlyStoppingConf struct {
	Metric   string `json:"metric" yaml:"metric"`
	Mode     string `json:"mode" yaml:"mode" enums:"min,max"`
	Patience int    `json:"patience" yaml:"patience"`
}

type MetricsConfig struct {
	Image     []string        `json:"image" yaml:"image"`
	Pixel     []string        `json:"pixel" yaml:"pixel"`
	Threshold ThresholdConfig `json:"threshold" yaml:"threshold"`
}

type ThresholdConfig struct {
	Adaptive     bool     `json:"adaptive" yaml:"adaptive"`
	ImageDefault *float64 `json:"imageDefault" yaml:"image_default"`
	PixelDefault *float64 `json:"pixelDefault" yaml:"pixel_default"`
}

type OptimizationConfig struct {
	NNCF     *NNCFConfig     `json:"nncf" yaml:"nncf"`
	OpenVINO *OpenVINOConfig `json:"openvino" yaml:"openvino"`
}

type NNCFConfig struct {
	Apply       bool   `json:"apply" yaml:"apply"`
	InitMethod  string `json:"initMethod" yaml:"init_method"`
	Epochs      int    `json:"epochs" yaml:"epochs"`
	TargetScope string `json:"targetScope" yaml:"target_scope"`
}

type OpenVINOConfig struct {
	Apply bool `json:"apply" yaml:"apply"`
}

type LoggingConfig struct {
	Logger   string `json:"logger" yaml:"logger"`
	LogGraph bool   `json:"logGraph" yaml:"log_graph"`
	// Deprecated: replaced by visualization.save_images and
	// visualization.log_images.
	LogImagesTo []string `json:"logImagesTo" yaml:"log_images_to"`
}

type VisualizationConfig struct {
	LogImages     bool   `json:"logImages" yaml:"log_images"`
	SaveImages    bool   `json:"saveImages" yaml:"save_images"`
	ShowImages    bool   `json:"showImages" yaml:"show_images"`
	ImageSavePath string `json:"imageSavePath" yaml:"image_save_path"`
	Mode          string `json:"mode" yaml:"mode" enums:"full,simple"`
}

// LoadFromYAMLFile 从特定本地文件加载全局配置.
func LoadFromYAMLFile(filepath string, conf *Config) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filepath, err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return fmt.Errorf("unmarshal config file %s: %w", filepath, err)
	}
	conf.ApplyDefaults()
	return conf.Validate()
}

// ApplyDefaults fills the documented defaults for absent keys.
func (c *Config) ApplyDefaults() {
	if c.Project.Path == "" {
		c.Project.Path = "./results"
	}
	if c.Dataset.Task == "" {
		c.Dataset.Task = TaskSegmentation
	}
	if c.Dataset.ImageSize == 0 {
		c.Dataset.ImageSize = 256
	}
	if c.Dataset.TrainBatchSize == 0 {
		c.Dataset.TrainBatchSize = 32
	}
	if c.Dataset.TestBatchSize == 0 {
		c.Dataset.TestBatchSize = 32
	}
	if c.Dataset.NumWorkers == 0 {
		c.Dataset.NumWorkers = 8
	}
	if c.Dataset.SplitRatio == 0 {
		c.Dataset.SplitRatio = 0.1
	}
	if c.Dataset.URL == "" {
		c.Dataset.URL = DefaultDatasetURL
	}
	if c.Visualization == nil {
		c.Visualization = &VisualizationConfig{}
	}
	if c.Visualization.Mode == "" {
		c.Visualization.Mode = VisualizationModeFull
	}
}

// Validate rejects configuration values no component can act on.
func (c *Config) Validate() error {
	if c.Dataset.Task != TaskClassification && c.Dataset.Task != TaskSegmentation {
		return fmt.Errorf("dataset.task not recognized: %s", c.Dataset.Task)
	}
	if c.Dataset.SplitRatio < 0 || c.Dataset.SplitRatio > 1 {
		return fmt.Errorf("dataset.split_ratio out of range: %v", c.Dataset.SplitRatio)
	}
	if es := c.Model.EarlyStopping; es != nil && es.Mode != "" && es.Mode != "min" && es.Mode != "max" {
		return fmt.Errorf("model.early_stopping.mode not recognized: %s", es.Mode)
	}
	return nil
}

// NNCFApply reports whether quantization aware training is switched on.
func (c *Config) NNCFApply() bool {
	return c.Optimization != nil && c.Optimization.NNCF != nil && c.Optimization.NNCF.Apply
}

// OpenVINOApply reports whether hardware export is switched on.
func (c *Config) OpenVINOApply() bool {
	return c.Optimization != nil && c.Optimization.OpenVINO != nil && c.Optimization.OpenVINO.Apply
}

// DumpYAML logs the effective configuration at debug level.
func (c *Config) DumpYAML() {
	data, err := yaml.Marshal(c)
	if err != nil {
		log.WithError(err).Warn("failed to marshal effective config")
		return
	}
	log.Debugf("effective config:\n%s", string(data))
}
