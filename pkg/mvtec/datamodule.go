package mvtec

import (
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/tensor"
	"github.com/husmen/anomalib/pkg/transform"
)

// Batch is the unit handed to the training framework. Images is always
// populated; the remaining slices are populated for validation and test
// batches.
type Batch struct {
	Images     []*tensor.D3
	ImagePaths []string
	Labels     []int
	MaskPaths  []string
	Masks      []*tensor.D2
}

func (b *Batch) Len() int { return len(b.Images) }

// DataModule owns the train and test datasets of one category and serves
// batches. Shuffling and epoch scheduling stay with the external training
// framework.
type DataModule struct {
	fs   afero.Fs
	conf *config.Config

	process *transform.Processor

	trainData *Dataset
	valData   *Dataset
}

func NewDataModule(fs afero.Fs, conf *config.Config) *DataModule {
	return &DataModule{
		fs:      fs,
		conf:    conf,
		process: transform.NewProcessor(conf.Dataset.ImageSize),
	}
}

func (dm *DataModule) options(split string) DatasetOptions {
	return DatasetOptions{
		Root:       dm.conf.Dataset.Path,
		Category:   dm.conf.Dataset.Category,
		Task:       dm.conf.Dataset.Task,
		Split:      split,
		SplitRatio: dm.conf.Dataset.SplitRatio,
		Seed:       dm.conf.Project.Seed,
		URL:        dm.conf.Dataset.URL,
	}
}

// PrepareData performs the one-time download when enabled.
func (dm *DataModule) PrepareData() error {
	if !dm.conf.Dataset.Download {
		return nil
	}
	return Download(dm.fs, dm.conf.Dataset.Path, dm.conf.Dataset.Category, dm.conf.Dataset.URL)
}

// Setup builds the sample indexes. The test index is always built; the
// train index only for the fit stage (or when stage is empty).
func (dm *DataModule) Setup(stage string) error {
	var err error
	dm.valData, err = NewDataset(dm.fs, dm.options(config.SplitTest), dm.process)
	if err != nil {
		return fmt.Errorf("setup test dataset: %w", err)
	}
	if stage == "" || stage == "fit" {
		dm.trainData, err = NewDataset(dm.fs, dm.options(config.SplitTrain), dm.process)
		if err != nil {
			return fmt.Errorf("setup train dataset: %w", err)
		}
	}
	return nil
}

func (dm *DataModule) TrainData() *Dataset { return dm.trainData }

func (dm *DataModule) ValData() *Dataset { return dm.valData }

// TrainBatches loads the training split in batches of the configured size.
func (dm *DataModule) TrainBatches() ([]*Batch, error) {
	return dm.batches(dm.trainData, dm.conf.Dataset.TrainBatchSize)
}

// ValBatches loads the test split in batches of the configured size.
func (dm *DataModule) ValBatches() ([]*Batch, error) {
	return dm.batches(dm.valData, dm.conf.Dataset.TestBatchSize)
}

// TestBatches is an alias of ValBatches, MVTec has no held-out third split.
func (dm *DataModule) TestBatches() ([]*Batch, error) {
	return dm.ValBatches()
}

// batches decodes items in parallel, bounded by dataset.num_workers, and
// groups them in index order.
func (dm *DataModule) batches(data *Dataset, batchSize int) ([]*Batch, error) {
	if data == nil {
		return nil, fmt.Errorf("dataset not set up")
	}
	if batchSize <= 0 {
		batchSize = 32
	}

	workers := dm.conf.Dataset.NumWorkers
	if workers <= 0 {
		workers = 8
	}

	items := make([]*Item, data.Len())
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < data.Len(); i++ {
		i := i
		g.Go(func() error {
			item, err := data.Item(i)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*Batch
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := &Batch{}
		for _, item := range items[start:end] {
			batch.Images = append(batch.Images, item.Image)
			if item.ImagePath != "" {
				batch.ImagePaths = append(batch.ImagePaths, item.ImagePath)
				batch.Labels = append(batch.Labels, item.LabelIndex)
			}
			if item.Mask != nil {
				batch.MaskPaths = append(batch.MaskPaths, item.MaskPath)
				batch.Masks = append(batch.Masks, item.Mask)
			}
		}
		out = append(out, batch)
	}
	return out, nil
}
