package imaging

import (
	"fmt"

	"github.com/h2non/bimg"
)

// Processor prepares an uploaded photo for storage. It returns the bytes to
// store and their content type, or an error when data is not an image it can
// decode.
type Processor interface {
	Process(data []byte) ([]byte, string, error)
}

// BimgProcessor shrinks photos wider than MaxWidth and re-encodes them as
// JPEG without metadata.
type BimgProcessor struct {
	MaxWidth int
	Quality  int
}

func NewBimgProcessor(maxWidth int) *BimgProcessor {
	return &BimgProcessor{MaxWidth: maxWidth, Quality: 85}
}

func (p *BimgProcessor) Process(data []byte) ([]byte, string, error) {
	img := bimg.NewImage(data)
	size, err := img.Size()
	if err != nil {
		return nil, "", fmt.Errorf("read photo: %w", err)
	}

	options := bimg.Options{
		Type:          bimg.JPEG,
		Quality:       p.Quality,
		StripMetadata: true,
	}
	if p.MaxWidth > 0 && size.Width > p.MaxWidth {
		options.Width = p.MaxWidth
	}

	out, err := img.Process(options)
	if err != nil {
		return nil, "", fmt.Errorf("process photo: %w", err)
	}
	return out, "image/jpeg", nil
}
