package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
project:
  path: /tmp/results
  seed: 42
dataset:
  name: mvtec
  path: ./datasets/MVTec
  category: bottle
  task: segmentation
  image_size: 128
model:
  name: padim
  normalization_method: min_max
  early_stopping:
    metric: image_AUROC
    mode: max
metrics:
  image:
    - AUROC
  threshold:
    adaptive: true
optimization:
  nncf:
    apply: false
logging:
  log_graph: true
`

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	var conf Config
	if err := LoadFromYAMLFile(path, &conf); err != nil {
		t.Fatal(err)
	}

	if conf.Project.Seed != 42 {
		t.Errorf("project.seed = %d, want 42", conf.Project.Seed)
	}
	if conf.Dataset.ImageSize != 128 {
		t.Errorf("dataset.image_size = %d, want 128", conf.Dataset.ImageSize)
	}
	if conf.Model.EarlyStopping == nil || conf.Model.EarlyStopping.Metric != "image_AUROC" {
		t.Errorf("model.early_stopping not parsed: %+v", conf.Model.EarlyStopping)
	}
	if !conf.Metrics.Threshold.Adaptive {
		t.Error("metrics.threshold.adaptive not parsed")
	}
	if conf.NNCFApply() {
		t.Error("nncf apply is false but NNCFApply() reports true")
	}
	if !conf.Logging.LogGraph {
		t.Error("logging.log_graph not parsed")
	}
}

func TestApplyDefaults(t *testing.T) {
	var conf Config
	conf.ApplyDefaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"task", conf.Dataset.Task, TaskSegmentation},
		{"image size", conf.Dataset.ImageSize, 256},
		{"train batch size", conf.Dataset.TrainBatchSize, 32},
		{"test batch size", conf.Dataset.TestBatchSize, 32},
		{"num workers", conf.Dataset.NumWorkers, 8},
		{"split ratio", conf.Dataset.SplitRatio, 0.1},
		{"url", conf.Dataset.URL, DefaultDatasetURL},
		{"visualization mode", conf.Visualization.Mode, VisualizationModeFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("default %s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad task", func(c *Config) { c.Dataset.Task = "detection" }, true},
		{"bad ratio", func(c *Config) { c.Dataset.SplitRatio = 1.5 }, true},
		{"bad early stopping mode", func(c *Config) {
			c.Model.EarlyStopping = &EarlyStoppingConf{Mode: "median"}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var conf Config
			conf.ApplyDefaults()
			tt.mutate(&conf)
			if err := conf.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
