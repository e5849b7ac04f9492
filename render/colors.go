package render

import "image/color"

var (
	// BoxColor is used to outline detected text regions
	BoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)
