// Package mvtec parses the MVTec anomaly detection benchmark layout into
// sample tables and serves preprocessed items to the training framework.
//
// The on-disk contract is:
//
//	root/category/<split>/<label>/<file>.png
//	root/category/ground_truth/<label>/<file>_mask.png
package mvtec

import "github.com/husmen/anomalib/pkg/config"

// Sample is one row of the dataset index.
type Sample struct {
	Path       string
	Split      string
	Label      string
	ImagePath  string
	MaskPath   string
	LabelIndex int
}

// Samples is the ordered dataset index, one row per image file found.
type Samples []Sample

// Count returns the number of rows matching the predicate.
func (s Samples) Count(pred func(Sample) bool) int {
	var n int
	for _, sample := range s {
		if pred(sample) {
			n++
		}
	}
	return n
}

// Filter returns the rows matching the predicate, preserving order.
func (s Samples) Filter(pred func(Sample) bool) Samples {
	out := make(Samples, 0, len(s))
	for _, sample := range s {
		if pred(sample) {
			out = append(out, sample)
		}
	}
	return out
}

// Normal reports whether the sample belongs to the non-defective class.
func (s Sample) Normal() bool { return s.Label == config.LabelGood }
