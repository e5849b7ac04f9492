package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// Resizer defines the struct used for scaling a source image down to
// the detector input size and mapping detection coordinates back to the
// source image
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the detector input width to scale to
	destWidth int
	// destHeight is the detector input height to scale to
	destHeight int
	// rescale ratios from detector input back to source image,
	// computed once per image
	scaleW float32
	scaleH float32
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for the detector input size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
	}

	// precalculate scaling ratios
	r.preCalc()

	return r
}

// preCalc the rescale ratios between source and destination dimensions
func (r *Resizer) preCalc() {
	r.scaleW = float32(r.srcWidth) / float32(r.destWidth)
	r.scaleH = float32(r.srcHeight) / float32(r.destHeight)
}

// Resize stretches the source image to the detector input dimensions.
// Aspect ratio is not preserved, the distortion is undone when boxes
// are rescaled with ScaleW/ScaleH.
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat) {
	gocv.Resize(src, dest, image.Pt(r.destWidth, r.destHeight),
		0, 0, gocv.InterpolationLinear)
}

// ScaleW returns the ratio of source image width to detector input
// width
func (r *Resizer) ScaleW() float32 {
	return r.scaleW
}

// ScaleH returns the ratio of source image height to detector input
// height
func (r *Resizer) ScaleH() float32 {
	return r.scaleH
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}
