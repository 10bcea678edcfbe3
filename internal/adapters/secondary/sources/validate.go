package sources

import (
	"bytes"
	"fmt"
	"image"

	// Registered for image.DecodeConfig; fetchers accept these formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"model-trainer-service/internal/core/domain"
)

// MinImageDimension is the smallest usable edge length. Thumbnails and icons
// below it carry too little signal to train on.
const MinImageDimension = 100

// ValidateImage checks that payload decodes as an image large enough to be
// a usable training sample.
func ValidateImage(payload []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if cfg.Width < MinImageDimension || cfg.Height < MinImageDimension {
		return fmt.Errorf("%w: %dx%d below minimum", domain.ErrInvalidImage, cfg.Width, cfg.Height)
	}
	return nil
}
