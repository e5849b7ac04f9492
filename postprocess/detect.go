package postprocess

// BoxRect are the dimensions of the bounding box of a detected text
// region.  Coordinates are in detector input pixels until rescaled by
// the roi package.
type BoxRect struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Width returns the pixel width of the box
func (b BoxRect) Width() int {
	return b.Right - b.Left
}

// Height returns the pixel height of the box
func (b BoxRect) Height() int {
	return b.Bottom - b.Top
}

// DetectResult defines the attributes of a single text region detected
type DetectResult struct {
	// Box are the bounding box dimensions of the region location
	Box BoxRect
	// Probability is the confidence score of the region detected
	Probability float32
	// ID is a unique ID assigned to the detection result
	ID int64
}
