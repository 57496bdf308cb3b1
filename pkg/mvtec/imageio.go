package mvtec

import (
	"fmt"
	"image/png"

	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/tensor"
)

// ReadImage decodes an image file into a CHW tensor with values in [0, 1].
func ReadImage(fs afero.Fs, path string) (*tensor.D3, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return tensor.FromImage(img), nil
}

// ReadMask decodes a ground-truth mask into an HW tensor with pixel values
// scaled to [0, 1].
func ReadMask(fs afero.Fs, path string) (*tensor.D2, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode mask %s: %w", path, err)
	}
	return tensor.MaskFromImage(img), nil
}
