// Package metrics implements the anomaly evaluation metrics and the
// construction of metric collections from configured names.
package metrics

import (
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/husmen/anomalib/pkg/config"
)

// Metric accumulates anomaly scores with their binary ground-truth labels
// and reduces them to a single value.
type Metric interface {
	Name() string
	Update(scores, labels []float64)
	Compute() float64
	Reset()
}

// factories maps configurable metric names to constructors.
var factories = map[string]func() Metric{
	"AUROC":                    func() Metric { return &AUROC{} },
	"OptimalF1":                func() Metric { return &OptimalF1{} },
	"AdaptiveThreshold":        func() Metric { return &AdaptiveThreshold{} },
	"MinMax":                   func() Metric { return &MinMax{} },
	"AnomalyScoreDistribution": func() Metric { return &AnomalyScoreDistribution{} },
}

// Collection groups metrics under a common prefix (image_ or pixel_).
type Collection struct {
	prefix  string
	metrics []Metric
}

func NewCollection(prefix string) *Collection {
	return &Collection{prefix: prefix}
}

// FromNames builds a collection from configured metric names. Unknown names
// are skipped with a warning, a typo in the config must not abort training.
func FromNames(names []string, prefix string) *Collection {
	collection := NewCollection(prefix)
	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			log.Warnf("no metric with name %s found, skipping", name)
			continue
		}
		collection.Add(factory())
	}
	return collection
}

// Build returns the image-level and pixel-level collections configured under
// metrics.image and metrics.pixel.
func Build(conf *config.Config) (image, pixel *Collection) {
	return FromNames(conf.Metrics.Image, "image_"), FromNames(conf.Metrics.Pixel, "pixel_")
}

func (c *Collection) Add(m Metric) {
	c.metrics = append(c.metrics, m)
}

func (c *Collection) Len() int { return len(c.metrics) }

func (c *Collection) Update(scores, labels []float64) {
	for _, m := range c.metrics {
		m.Update(scores, labels)
	}
}

// Compute reduces every metric, keyed by its prefixed name.
func (c *Collection) Compute() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[c.prefix+m.Name()] = m.Compute()
	}
	return out
}

func (c *Collection) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}

// Names returns the prefixed metric names in collection order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.metrics))
	for _, m := range c.metrics {
		names = append(names, c.prefix+m.Name())
	}
	return names
}

type accumulator struct {
	scores []float64
	labels []float64
}

func (a *accumulator) Update(scores, labels []float64) {
	a.scores = append(a.scores, scores...)
	a.labels = append(a.labels, labels...)
}

func (a *accumulator) Reset() {
	a.scores = a.scores[:0]
	a.labels = a.labels[:0]
}

// AUROC is the area under the ROC curve, computed with the rank statistic
// equivalent (Mann-Whitney U).
type AUROC struct {
	accumulator
}

func (m *AUROC) Name() string { return "AUROC" }

func (m *AUROC) Compute() float64 {
	var pos, neg int
	for _, l := range m.labels {
		if l > 0 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	type pair struct{ score, label float64 }
	pairs := make([]pair, len(m.scores))
	for i := range m.scores {
		pairs[i] = pair{m.scores[i], m.labels[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// Rank sum of the positive class with midranks for ties.
	var rankSum float64
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		midrank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			if pairs[k].label > 0 {
				rankSum += midrank
			}
		}
		i = j
	}
	u := rankSum - float64(pos)*float64(pos+1)/2.0
	return u / (float64(pos) * float64(neg))
}

// OptimalF1 is the best F1 score achievable over all score thresholds.
type OptimalF1 struct {
	accumulator
}

func (m *OptimalF1) Name() string { return "OptimalF1" }

func (m *OptimalF1) Compute() float64 {
	f1, _ := bestF1(m.scores, m.labels)
	return f1
}

// AdaptiveThreshold reduces to the threshold that maximizes F1 rather than
// the F1 value itself.
type AdaptiveThreshold struct {
	accumulator
}

func (m *AdaptiveThreshold) Name() string { return "AdaptiveThreshold" }

func (m *AdaptiveThreshold) Compute() float64 {
	_, threshold := bestF1(m.scores, m.labels)
	return threshold
}

// bestF1 sweeps the unique observed scores as candidate thresholds.
func bestF1(scores, labels []float64) (best, threshold float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	candidates := append([]float64(nil), scores...)
	sort.Float64s(candidates)
	candidates = dedup(candidates)

	for _, cand := range candidates {
		var tp, fp, fn float64
		for i, s := range scores {
			predicted := s >= cand
			actual := labels[i] > 0
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && actual:
				fn++
			}
		}
		if tp == 0 {
			continue
		}
		f1 := 2 * tp / (2*tp + fp + fn)
		if f1 > best {
			best, threshold = f1, cand
		}
	}
	return best, threshold
}

func dedup(sorted []float64) []float64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// MinMax tracks the observed score range, consumed by the min-max score
// normalization callback.
type MinMax struct {
	min, max float64
	seen     bool
}

func (m *MinMax) Name() string { return "MinMax" }

func (m *MinMax) Update(scores, _ []float64) {
	for _, s := range scores {
		if !m.seen {
			m.min, m.max, m.seen = s, s, true
			continue
		}
		if s < m.min {
			m.min = s
		}
		if s > m.max {
			m.max = s
		}
	}
}

func (m *MinMax) Compute() float64 { return m.max - m.min }

func (m *MinMax) Reset() { *m = MinMax{} }

func (m *MinMax) Range() (min, max float64) { return m.min, m.max }

// AnomalyScoreDistribution fits a Gaussian to the observed scores, consumed
// by the CDF score normalization callback.
type AnomalyScoreDistribution struct {
	accumulator
}

func (m *AnomalyScoreDistribution) Name() string { return "AnomalyScoreDistribution" }

func (m *AnomalyScoreDistribution) Compute() float64 {
	mean, _ := m.Fit()
	return mean
}

// Fit returns the Gaussian parameters of the accumulated scores.
func (m *AnomalyScoreDistribution) Fit() (mean, std float64) {
	if len(m.scores) == 0 {
		return 0, 1
	}
	mean, std = stat.MeanStdDev(m.scores, nil)
	if len(m.scores) < 2 || std == 0 {
		std = 1
	}
	return mean, std
}
