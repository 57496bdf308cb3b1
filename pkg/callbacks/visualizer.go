package callbacks

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/husmen/anomalib/pkg/mvtec"
	"github.com/husmen/anomalib/pkg/tensor"
	"github.com/husmen/anomalib/pkg/trainer"
)

type VisualizerOptions struct {
	Task                string
	Mode                string
	ImageSavePath       string
	InputsAreNormalized bool
	ShowImages          bool
	LogImages           bool
	SaveImages          bool
}

// Visualizer renders test samples with their ground-truth masks overlaid and
// writes them under the configured image directory.
type Visualizer struct {
	opts  VisualizerOptions
	saved int
}

func NewVisualizer(opts VisualizerOptions) *Visualizer {
	return &Visualizer{opts: opts}
}

func (v *Visualizer) Name() string { return "visualizer" }

func (v *Visualizer) Setup(run *trainer.Run) error {
	if !v.opts.SaveImages {
		return nil
	}
	if err := os.MkdirAll(v.opts.ImageSavePath, 0o755); err != nil {
		return fmt.Errorf("create image save dir %s: %w", v.opts.ImageSavePath, err)
	}
	return nil
}

// VisualizeItem renders one test item. The execution engine calls this for
// every test sample; show targets are not supported in headless runs and are
// logged only.
func (v *Visualizer) VisualizeItem(item *mvtec.Item) error {
	if v.opts.ShowImages {
		log.Debugf("show_images requested for %s, skipping in headless run", item.ImagePath)
	}
	if !v.opts.SaveImages || item.Image == nil {
		return nil
	}

	// Normalized masks carry scores in [0, 1]; raw masks are binary, so any
	// positive pixel counts as anomalous.
	threshold := float32(0)
	if v.opts.InputsAreNormalized {
		threshold = 0.5
	}
	rendered := renderOverlay(item.Image, item.Mask, threshold)
	name := fmt.Sprintf("%s_%s.png", item.Label, stem(item.ImagePath))
	path := filepath.Join(v.opts.ImageSavePath, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create visualization %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, rendered); err != nil {
		return fmt.Errorf("encode visualization %s: %w", path, err)
	}
	v.saved++
	return nil
}

func (v *Visualizer) OnTestEnd(run *trainer.Run) error {
	if v.opts.SaveImages {
		log.Infof("saved %d visualizations to %s", v.saved, v.opts.ImageSavePath)
	}
	return nil
}

// renderOverlay paints anomalous mask pixels red over the input image.
func renderOverlay(img *tensor.D3, mask *tensor.D2, threshold float32) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, img.W, img.H))
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			if mask != nil && mask.At(y, x) > threshold {
				out.Set(x, y, color.RGBA{R: 255, A: 255})
				continue
			}
			out.Set(x, y, color.RGBA{
				R: clampByte(img.At(0, y, x)),
				G: clampByte(img.At(1, y, x)),
				B: clampByte(img.At(2, y, x)),
				A: 255,
			})
		}
	}
	return out
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
