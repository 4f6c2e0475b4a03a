package ports

import "image"

// Transformer is a pure per-frame image transform applied before composition.
type Transformer interface {
	Transform(img image.Image) image.Image
}

// TransformFunc is a function adapter for Transformer.
type TransformFunc func(img image.Image) image.Image

// Transform implements Transformer.
func (f TransformFunc) Transform(img image.Image) image.Image {
	return f(img)
}

// Identity returns its input unchanged.
var Identity Transformer = TransformFunc(func(img image.Image) image.Image { return img })
