package ports

import "image"

// ImageEncoder encodes images for debug output.
type ImageEncoder interface {
	EncodePNG(img image.Image) ([]byte, error)
}
