package roi

import (
	"image"

	clipper "github.com/ctessum/go.clipper"
	"github.com/eastlite/go-eastlite/postprocess"
	"gocv.io/x/gocv"
)

// Extractor crops detected text regions out of the original image
type Extractor struct {
	// Params are the region extraction parameters
	Params Params
}

// Params defines the struct containing the Extractor parameters to use
// for region extraction
type Params struct {
	// Margin is the number of pixels to expand each box by in every
	// direction before cropping
	Margin int
	// UpscaleFactor is applied to each crop with cubic interpolation to
	// improve legibility for the downstream recogniser.  Values <= 0 or
	// 1 leave the crop at its clipped size.
	UpscaleFactor float64
}

// DefaultParams returns an instance of Params configured with a 5 pixel
// margin and 1.5x cubic upscale
func DefaultParams() Params {
	return Params{
		Margin:        5,
		UpscaleFactor: 1.5,
	}
}

// NewExtractor returns an instance of the region Extractor
func NewExtractor(p Params) *Extractor {
	return &Extractor{
		Params: p,
	}
}

// Region is a cropped area of the source image believed to contain text
type Region struct {
	// Rect is the clipped rectangle in source image coordinates
	Rect image.Rectangle
	// Crop is the upscaled image data for the region.  The caller owns
	// it and must Close it when finished.
	Crop gocv.Mat
	// Probability is the confidence score of the detection the region
	// was cropped from
	Probability float32
	// ID is the detection result ID the region was cropped from
	ID int64
}

// Close frees the region's crop data
func (r *Region) Close() error {
	return r.Crop.Close()
}

// Extract maps each surviving box from detector input coordinates back
// to source image coordinates and returns one cropped region per box,
// in the same order as the detection results.  Boxes whose clipped
// rectangle has no area are skipped, they are not an error.
func (e *Extractor) Extract(img gocv.Mat, results []postprocess.DetectResult,
	scaleW, scaleH float32) []Region {

	regions := make([]Region, 0, len(results))

	for _, res := range results {

		rect, ok := e.regionRect(res.Box, scaleW, scaleH, img.Cols(), img.Rows())

		if !ok {
			continue
		}

		crop := img.Region(rect)

		dest := gocv.NewMat()

		if e.Params.UpscaleFactor > 0 && e.Params.UpscaleFactor != 1 {
			gocv.Resize(crop, &dest, image.Pt(0, 0),
				e.Params.UpscaleFactor, e.Params.UpscaleFactor,
				gocv.InterpolationCubic)
		} else {
			crop.CopyTo(&dest)
		}

		// dest owns its own data, release the view into img
		crop.Close()

		regions = append(regions, Region{
			Rect:        rect,
			Crop:        dest,
			Probability: res.Probability,
			ID:          res.ID,
		})
	}

	return regions
}

// regionRect scales a detector-space box to source image coordinates,
// expands it by the configured margin and clamps it to the image
// bounds.  ok is false when the clipped rectangle has no area left.
func (e *Extractor) regionRect(box postprocess.BoxRect, scaleW, scaleH float32,
	width, height int) (image.Rectangle, bool) {

	startX := int(float32(box.Left) * scaleW)
	startY := int(float32(box.Top) * scaleH)
	endX := int(float32(box.Right) * scaleW)
	endY := int(float32(box.Bottom) * scaleH)

	startX, startY, endX, endY = expandBox(startX, startY, endX, endY, e.Params.Margin)

	startX = clamp(startX, 0, width-1)
	startY = clamp(startY, 0, height-1)
	endX = clamp(endX, 0, width-1)
	endY = clamp(endY, 0, height-1)

	if endX <= startX || endY <= startY {
		return image.Rectangle{}, false
	}

	return image.Rect(startX, startY, endX, endY), true
}

// expandBox grows the rectangle by margin pixels on every side by
// offsetting its polygon outline, the same operation used to unclip
// detected text quads
func expandBox(left, top, right, bottom, margin int) (int, int, int, int) {

	if margin == 0 {
		return left, top, right, bottom
	}

	path := clipper.Path{
		&clipper.IntPoint{X: clipper.CInt(left), Y: clipper.CInt(top)},
		&clipper.IntPoint{X: clipper.CInt(right), Y: clipper.CInt(top)},
		&clipper.IntPoint{X: clipper.CInt(right), Y: clipper.CInt(bottom)},
		&clipper.IntPoint{X: clipper.CInt(left), Y: clipper.CInt(bottom)},
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtMiter, clipper.EtClosedPolygon)

	solution := co.Execute(float64(margin))

	if len(solution) == 0 {
		// offsetting collapsed the polygon, fall back to arithmetic
		// expansion
		return left - margin, top - margin, right + margin, bottom + margin
	}

	// take the bounding rectangle of the offset polygon
	minX, minY := int(solution[0][0].X), int(solution[0][0].Y)
	maxX, maxY := minX, minY

	for _, sol := range solution {
		for _, pt := range sol {
			minX = min(minX, int(pt.X))
			minY = min(minY, int(pt.Y))
			maxX = max(maxX, int(pt.X))
			maxY = max(maxY, int(pt.Y))
		}
	}

	return minX, minY, maxX, maxY
}

// clamp restricts the value x to be within the range min and max
func clamp(x, min, max int) int {

	if x < min {
		return min
	}

	if x > max {
		return max
	}

	return x
}
