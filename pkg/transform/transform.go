// Package transform implements the preprocessing applied to every sample
// before it is handed to the training framework.
package transform

import (
	"github.com/husmen/anomalib/pkg/tensor"
)

// ImageNet statistics, the models consumed by the toolkit are pretrained on
// ImageNet and expect inputs standardized with these values.
var (
	DefaultMean = [3]float32{0.485, 0.456, 0.406}
	DefaultStd  = [3]float32{0.229, 0.224, 0.225}
)

// Processor resizes and normalizes images, and keeps segmentation masks
// geometrically in lockstep with the image they annotate.
type Processor struct {
	ImageSize int
	Mean      [3]float32
	Std       [3]float32
}

func NewProcessor(imageSize int) *Processor {
	return &Processor{
		ImageSize: imageSize,
		Mean:      DefaultMean,
		Std:       DefaultStd,
	}
}

// Apply resizes the image to ImageSize x ImageSize and standardizes each
// channel.
func (p *Processor) Apply(img *tensor.D3) *tensor.D3 {
	out := resizeBilinear(img, p.ImageSize, p.ImageSize)
	for c := 0; c < out.C; c++ {
		for h := 0; h < out.H; h++ {
			for w := 0; w < out.W; w++ {
				out.Set(c, h, w, (out.At(c, h, w)-p.Mean[c])/p.Std[c])
			}
		}
	}
	return out
}

// ApplyWithMask transforms image and mask jointly. The mask is resized with
// nearest-neighbor sampling and is not normalized, its values stay in [0, 1].
func (p *Processor) ApplyWithMask(img *tensor.D3, mask *tensor.D2) (*tensor.D3, *tensor.D2) {
	return p.Apply(img), resizeNearest(mask, p.ImageSize, p.ImageSize)
}

func resizeBilinear(src *tensor.D3, h, w int) *tensor.D3 {
	dst := tensor.NewD3(src.C, h, w)
	if src.H == h && src.W == w {
		copy(dst.Data, src.Data)
		return dst
	}
	scaleY := float32(src.H) / float32(h)
	scaleX := float32(src.W) / float32(w)
	for c := 0; c < src.C; c++ {
		for y := 0; y < h; y++ {
			sy := (float32(y)+0.5)*scaleY - 0.5
			y0 := clamp(int(sy), 0, src.H-1)
			y1 := clamp(y0+1, 0, src.H-1)
			fy := sy - float32(y0)
			if fy < 0 {
				fy = 0
			}
			for x := 0; x < w; x++ {
				sx := (float32(x)+0.5)*scaleX - 0.5
				x0 := clamp(int(sx), 0, src.W-1)
				x1 := clamp(x0+1, 0, src.W-1)
				fx := sx - float32(x0)
				if fx < 0 {
					fx = 0
				}
				top := src.At(c, y0, x0)*(1-fx) + src.At(c, y0, x1)*fx
				bottom := src.At(c, y1, x0)*(1-fx) + src.At(c, y1, x1)*fx
				dst.Set(c, y, x, top*(1-fy)+bottom*fy)
			}
		}
	}
	return dst
}

func resizeNearest(src *tensor.D2, h, w int) *tensor.D2 {
	dst := tensor.NewD2(h, w)
	if src.H == h && src.W == w {
		copy(dst.Data, src.Data)
		return dst
	}
	for y := 0; y < h; y++ {
		sy := clamp(y*src.H/h, 0, src.H-1)
		for x := 0; x < w; x++ {
			sx := clamp(x*src.W/w, 0, src.W-1)
			dst.Set(y, x, src.At(sy, sx))
		}
	}
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
