package mvtec

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/config"
)

// seedTree creates empty placeholder image files; the indexer never decodes
// them.
func seedTree(t *testing.T, fs afero.Fs, root string, counts map[string]int) {
	t.Helper()
	for dir, n := range counts {
		for i := 0; i < n; i++ {
			path := filepath.Join(root, dir, fmt.Sprintf("%03d.png", i))
			if err := afero.WriteFile(fs, path, []byte{0}, 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestMakeDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "datasets/MVTec/bottle"
	seedTree(t, fs, root, map[string]int{
		"train/good":               10,
		"test/good":                3,
		"test/broken_large":        4,
		"ground_truth/broken_large": 4,
	})

	tests := []struct {
		name  string
		split string
		want  int
	}{
		{"train", config.SplitTrain, 10},
		{"test", config.SplitTest, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := MakeDataset(fs, root, tt.split, 0.1, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(samples) != tt.want {
				t.Errorf("MakeDataset(%s) returned %d rows, want %d", tt.split, len(samples), tt.want)
			}
			for _, s := range samples {
				if s.Split != tt.split {
					t.Errorf("row %s has split %s, want %s", s.ImagePath, s.Split, tt.split)
				}
			}
		})
	}
}

func TestMakeDatasetLabelIndexProperty(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "datasets/MVTec/bottle"
	seedTree(t, fs, root, map[string]int{
		"train/good":         5,
		"test/good":          2,
		"test/contamination": 3,
	})

	for _, split := range []string{config.SplitTrain, config.SplitTest} {
		samples, err := MakeDataset(fs, root, split, 0.1, 0)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range samples {
			wantIdx := 1
			if s.Label == config.LabelGood {
				wantIdx = 0
			}
			if s.LabelIndex != wantIdx {
				t.Errorf("row %s: label %q with label index %d", s.ImagePath, s.Label, s.LabelIndex)
			}
		}
	}
}

func TestMakeDatasetMaskPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "datasets/MVTec/bottle"
	seedTree(t, fs, root, map[string]int{
		"train/good":        5,
		"test/good":         2,
		"test/broken_small": 3,
	})

	samples, err := MakeDataset(fs, root, config.SplitTest, 0.1, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range samples {
		if s.LabelIndex == 0 {
			if s.MaskPath != "" {
				t.Errorf("normal test row %s has mask path %q", s.ImagePath, s.MaskPath)
			}
			continue
		}
		want := filepath.Join(root, "ground_truth", s.Label, "000_mask.png")
		if filepath.Dir(s.MaskPath) != filepath.Dir(want) {
			t.Errorf("anomalous test row %s has mask path %q", s.ImagePath, s.MaskPath)
		}
		if s.MaskPath == "" {
			t.Errorf("anomalous test row %s has empty mask path", s.ImagePath)
		}
	}
}

func TestMakeDatasetNoImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "datasets/MVTec/empty"
	if err := fs.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := MakeDataset(fs, root, config.SplitTrain, 0.1, 0)
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("MakeDataset on empty dir returned %v, want ErrNoImages", err)
	}
}

func TestSplitNormalImagesInTrainSet(t *testing.T) {
	const normalTrain = 10
	buildFs := func() (afero.Fs, string) {
		fs := afero.NewMemMapFs()
		root := "datasets/MVTec/bottle"
		seedTree(t, fs, root, map[string]int{
			"train/good":   normalTrain,
			"test/crack":   4,
			"ground_truth/crack": 4,
		})
		return fs, root
	}

	tests := []struct {
		name  string
		ratio float64
		moved int
	}{
		{"default ratio", 0.1, int(math.Ceil(0.1 * normalTrain))},
		{"third", 0.3, 3},
		{"half", 0.5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, root := buildFs()
			test, err := MakeDataset(fs, root, config.SplitTest, tt.ratio, 0)
			if err != nil {
				t.Fatal(err)
			}
			train, err := MakeDataset(fs, root, config.SplitTrain, tt.ratio, 0)
			if err != nil {
				t.Fatal(err)
			}

			normalTest := test.Count(func(s Sample) bool { return s.LabelIndex == 0 })
			if normalTest != tt.moved {
				t.Errorf("test split has %d normal rows, want %d", normalTest, tt.moved)
			}
			if len(train) != normalTrain-tt.moved {
				t.Errorf("train split has %d rows, want %d", len(train), normalTrain-tt.moved)
			}
		})
	}
}

func TestSplitReassignmentDeterminism(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "datasets/MVTec/bottle"
	seedTree(t, fs, root, map[string]int{
		"train/good": 20,
		"test/hole":  2,
	})

	first, err := MakeDataset(fs, root, config.SplitTest, 0.25, 42)
	if err != nil {
		t.Fatal(err)
	}
	second, err := MakeDataset(fs, root, config.SplitTest, 0.25, 42)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("same seed produced %d and %d rows", len(first), len(second))
	}
	for i := range first {
		if first[i].ImagePath != second[i].ImagePath {
			t.Errorf("row %d differs between runs: %s vs %s", i, first[i].ImagePath, second[i].ImagePath)
		}
	}
}
