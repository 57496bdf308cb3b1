package mvtec

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/tensor"
	"github.com/husmen/anomalib/pkg/transform"
)

// Item is one preprocessed sample. Image is always present; the remaining
// fields are populated for test-split items only, and Mask only for the
// segmentation task.
type Item struct {
	Image      *tensor.D3
	ImagePath  string
	Label      string
	LabelIndex int
	MaskPath   string
	Mask       *tensor.D2
}

// DatasetOptions configure a Dataset.
type DatasetOptions struct {
	Root       string
	Category   string
	Task       string
	Split      string
	SplitRatio float64
	Seed       int64
	Download   bool
	URL        string
}

// Dataset indexes one MVTec category and loads preprocessed items by row
// number. The index is built once at construction and immutable afterwards.
type Dataset struct {
	fs      afero.Fs
	opts    DatasetOptions
	process *transform.Processor
	samples Samples
}

// NewDataset builds the sample index for one category and split. With
// opts.Download set, the dataset archive is fetched and extracted first
// unless the category directory already exists.
func NewDataset(fs afero.Fs, opts DatasetOptions, process *transform.Processor) (*Dataset, error) {
	if opts.SplitRatio == 0 {
		opts.SplitRatio = 0.1
	}

	if opts.Download {
		if err := Download(fs, opts.Root, opts.Category, opts.URL); err != nil {
			return nil, fmt.Errorf("download dataset: %w", err)
		}
	}

	samples, err := MakeDataset(fs, filepath.Join(opts.Root, opts.Category), opts.Split, opts.SplitRatio, opts.Seed)
	if err != nil {
		return nil, err
	}
	return &Dataset{fs: fs, opts: opts, process: process, samples: samples}, nil
}

func (d *Dataset) Len() int { return len(d.samples) }

// Samples exposes the immutable index, used by the apiserver for browsing.
func (d *Dataset) Samples() Samples { return d.samples }

// Item loads and preprocesses the sample at row index.
//
// Training items and classification items carry the image only. Test items
// additionally carry path and label; for the segmentation task the mask is
// loaded from disk for anomalous rows or synthesized as all zeros matching
// the image's spatial shape for normal rows, and transformed jointly with
// the image.
func (d *Dataset) Item(index int) (*Item, error) {
	sample := d.samples[index]

	image, err := ReadImage(d.fs, sample.ImagePath)
	if err != nil {
		return nil, err
	}

	if sample.Split == config.SplitTrain || d.opts.Task == config.TaskClassification {
		item := &Item{Image: d.process.Apply(image)}
		if sample.Split == config.SplitTest {
			item.ImagePath = sample.ImagePath
			item.Label = sample.Label
			item.LabelIndex = sample.LabelIndex
		}
		return item, nil
	}

	var mask *tensor.D2
	if sample.LabelIndex == 0 {
		mask = tensor.NewD2(image.H, image.W)
	} else {
		if mask, err = ReadMask(d.fs, sample.MaskPath); err != nil {
			return nil, err
		}
	}
	processedImage, processedMask := d.process.ApplyWithMask(image, mask)

	return &Item{
		Image:      processedImage,
		ImagePath:  sample.ImagePath,
		Label:      sample.Label,
		LabelIndex: sample.LabelIndex,
		MaskPath:   sample.MaskPath,
		Mask:       processedMask,
	}, nil
}
