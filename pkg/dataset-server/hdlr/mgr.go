// Package hdlr implements the dataset apiserver request handlers.
package hdlr

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/dataset-server/ctx"
	"github.com/husmen/anomalib/pkg/dataset-server/ctx/errors"
	"github.com/husmen/anomalib/pkg/mvtec"
)

// Mgr serves dataset index queries over the configured dataset root.
type Mgr struct {
	fs   afero.Fs
	conf *config.Config
}

func NewMgr(fs afero.Fs, conf *config.Config) *Mgr {
	return &Mgr{fs: fs, conf: conf}
}

type categoryStats struct {
	Category  string `json:"category"`
	Train     int    `json:"train"`
	Test      int    `json:"test"`
	Normal    int    `json:"normal"`
	Anomalous int    `json:"anomalous"`
}

// ListCategories returns the category directories under the dataset root.
func (m *Mgr) ListCategories(c *gin.Context) {
	entries, err := afero.ReadDir(m.fs, m.conf.Dataset.Path)
	if err != nil {
		log.WithError(err).Error("failed to read dataset root")
		ctx.Error(c, errors.NewInternalError(err.Error()))
		return
	}

	var categories []string
	for _, entry := range entries {
		if entry.IsDir() {
			categories = append(categories, entry.Name())
		}
	}
	sort.Strings(categories)
	ctx.Success(c, categories)
}

// ListSamples returns the index rows of one category and split.
func (m *Mgr) ListSamples(c *gin.Context) {
	category := c.Param("category")
	split := c.DefaultQuery("split", config.SplitTrain)
	if split != config.SplitTrain && split != config.SplitTest {
		ctx.Error(c, errors.NewSplitInvalid(fmt.Sprintf("split not recognized: %s", split)))
		return
	}

	samples, err := m.index(category, split)
	if err != nil {
		ctx.Error(c, err)
		return
	}
	ctx.Success(c, samples)
}

// GetStats returns per-split and per-class row counts of one category.
func (m *Mgr) GetStats(c *gin.Context) {
	category := c.Param("category")

	stats := categoryStats{Category: category}
	for _, split := range []string{config.SplitTrain, config.SplitTest} {
		samples, err := m.index(category, split)
		if err != nil {
			ctx.Error(c, err)
			return
		}
		if split == config.SplitTrain {
			stats.Train = len(samples)
		} else {
			stats.Test = len(samples)
		}
		stats.Normal += samples.Count(func(s mvtec.Sample) bool { return s.LabelIndex == 0 })
		stats.Anomalous += samples.Count(func(s mvtec.Sample) bool { return s.LabelIndex == 1 })
	}
	ctx.Success(c, stats)
}

func (m *Mgr) index(category, split string) (mvtec.Samples, *errors.DatasetError) {
	root := filepath.Join(m.conf.Dataset.Path, category)
	exists, err := afero.DirExists(m.fs, root)
	if err != nil {
		return nil, errors.NewInternalError(err.Error())
	}
	if !exists {
		return nil, errors.NewCategoryNotFound(fmt.Sprintf("category not found: %s", category))
	}

	samples, err := mvtec.MakeDataset(m.fs, root, split, m.conf.Dataset.SplitRatio, m.conf.Project.Seed)
	if err != nil {
		log.WithError(err).Errorf("failed to index category %s", category)
		return nil, errors.NewDatasetEmpty(err.Error())
	}
	return samples, nil
}
