package mvtec

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/config"
)

// ErrNoImages is returned when the category directory scan yields no image
// files.
var ErrNoImages = errors.New("found 0 images")

const (
	imageExt       = ".png"
	maskSuffix     = "_mask.png"
	groundTruthDir = "ground_truth"
)

// MakeDataset scans a category directory and builds the sample index for the
// requested split.
//
// When the raw scan yields no normal test images, a splitRatio fraction of
// the normal training images is reassigned to the test split, so that
// image-level AUROC stays computable. The reassignment samples uniformly
// without replacement over the scan-order index list using a rand.Source
// seeded with seed; two calls with the same inputs select the same rows.
func MakeDataset(fs afero.Fs, root, split string, splitRatio float64, seed int64) (Samples, error) {
	samples, err := scan(fs, root)
	if err != nil {
		return nil, err
	}

	noNormalTest := samples.Count(func(s Sample) bool {
		return s.Split == config.SplitTest && s.Normal()
	}) == 0
	if noNormalTest {
		splitNormalImagesInTrainSet(samples, splitRatio, seed)
	}

	for i := range samples {
		// Normal test images have no ground-truth mask.
		if samples[i].Split == config.SplitTest && samples[i].Normal() {
			samples[i].MaskPath = ""
		}
		if samples[i].Normal() {
			samples[i].LabelIndex = 0
		} else {
			samples[i].LabelIndex = 1
		}
	}

	return samples.Filter(func(s Sample) bool { return s.Split == split }), nil
}

// scan walks the category root and derives split, label and mask path from
// the trailing path segments of every image file.
func scan(fs afero.Fs, root string) (Samples, error) {
	var samples Samples
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, imageExt) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 || parts[0] == groundTruthDir {
			return nil
		}
		split, label, filename := parts[0], parts[1], parts[2]

		stem := strings.TrimSuffix(filename, imageExt)
		samples = append(samples, Sample{
			Path:      root,
			Split:     split,
			Label:     label,
			ImagePath: filepath.Join(root, split, label, filename),
			MaskPath:  filepath.Join(root, groundTruthDir, label, stem+maskSuffix),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, root)
	}
	return samples, nil
}

// splitNormalImagesInTrainSet reassigns a seeded sample of normal training
// rows to the test split, in place.
func splitNormalImagesInTrainSet(samples Samples, splitRatio float64, seed int64) {
	var normalTrain []int
	for i, s := range samples {
		if s.Split == config.SplitTrain && s.Normal() {
			normalTrain = append(normalTrain, i)
		}
	}

	k := int(math.Ceil(splitRatio * float64(len(normalTrain))))
	if k > len(normalTrain) {
		k = len(normalTrain)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, pick := range rng.Perm(len(normalTrain))[:k] {
		samples[normalTrain[pick]].Split = config.SplitTest
	}
}
