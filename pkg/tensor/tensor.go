// Package tensor provides the dense tensor containers exchanged between the
// data pipeline and the training framework.
package tensor

import (
	"fmt"
	"image"
)

// D3 is a rank-3 tensor in channel-first (CHW) layout.
type D3 struct {
	C, H, W int
	Data    []float32
}

// D2 is a rank-2 tensor in HW layout, used for segmentation masks.
type D2 struct {
	H, W int
	Data []float32
}

func NewD3(c, h, w int) *D3 {
	return &D3{C: c, H: h, W: w, Data: make([]float32, c*h*w)}
}

func NewD2(h, w int) *D2 {
	return &D2{H: h, W: w, Data: make([]float32, h*w)}
}

func (t *D3) At(c, h, w int) float32 {
	return t.Data[(c*t.H+h)*t.W+w]
}

func (t *D3) Set(c, h, w int, v float32) {
	t.Data[(c*t.H+h)*t.W+w] = v
}

func (t *D2) At(h, w int) float32 {
	return t.Data[h*t.W+w]
}

func (t *D2) Set(h, w int, v float32) {
	t.Data[h*t.W+w] = v
}

// Shape returns the dimensions as a slice, convenient for log messages.
func (t *D3) Shape() []int { return []int{t.C, t.H, t.W} }

func (t *D2) Shape() []int { return []int{t.H, t.W} }

func (t *D3) String() string { return fmt.Sprintf("tensor.D3%v", t.Shape()) }

func (t *D2) String() string { return fmt.Sprintf("tensor.D2%v", t.Shape()) }

// FromImage converts a decoded image into a CHW tensor with RGB channels
// scaled to [0, 1].
func FromImage(img image.Image) *D3 {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	t := NewD3(3, h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			t.Set(0, y, x, float32(r)/65535.0)
			t.Set(1, y, x, float32(g)/65535.0)
			t.Set(2, y, x, float32(b)/65535.0)
		}
	}
	return t
}

// MaskFromImage converts a decoded ground-truth image into an HW tensor with
// pixel values scaled to [0, 1]. Only the first channel is read, the MVTec
// masks are single channel.
func MaskFromImage(img image.Image) *D2 {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	t := NewD2(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			t.Set(y, x, float32(r)/65535.0)
		}
	}
	return t
}
