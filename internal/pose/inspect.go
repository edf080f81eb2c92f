package pose

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/imgformat"
)

// Inspect reads only the image header.
func Inspect(r io.Reader) (domain.ImageInfo, error) {
	cfg, format, err := imgformat.DecodeConfig(r)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.ImageInfo{}, domain.ErrInvalidDimensions
	}
	return domain.ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

func InspectBytes(b []byte) (domain.ImageInfo, error) {
	return Inspect(bytes.NewReader(b))
}
