// Package service contains the business logic layer.
//
// This file implements thumbnail generation for uploaded mockup images.
package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Mockups exported as WebP must still decode.
	_ "golang.org/x/image/webp"
)

// ThumbnailMaxWidth is the portal's mockup thumbnail width in pixels.
const ThumbnailMaxWidth = 400

const thumbnailJPEGQuality = 85

// ThumbnailProcessor handles thumbnail generation from mockup images.
type ThumbnailProcessor interface {
	// GenerateThumbnail resizes the image to maxWidth, preserving aspect
	// ratio. Returns JPEG bytes plus the original dimensions.
	GenerateThumbnail(data io.Reader, maxWidth int) ([]byte, int, int, error)
}

type imagingProcessor struct{}

// NewImagingProcessor creates a thumbnail processor backed by the
// imaging library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth int) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	if originalWidth > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), originalWidth, originalHeight, nil
}
