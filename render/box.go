package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/eastlite/go-eastlite/postprocess"
	"gocv.io/x/gocv"
)

// boxLabel defines where a detection's score label should be rendered
// on the image
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TextBoxes renders the bounding boxes around the text regions detected
// along with their confidence scores
func TextBoxes(img *gocv.Mat, detectResults []postprocess.DetectResult,
	font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	// draw detection boxes
	for _, detResult := range detectResults {

		// draw rectangle around detected text region
		rect := image.Rect(detResult.Box.Left, detResult.Box.Top,
			detResult.Box.Right, detResult.Box.Bottom)
		gocv.Rectangle(img, rect, BoxColor, lineThickness)

		// create text for label
		text := fmt.Sprintf("%.2f", detResult.Probability)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (detResult.Box.Left + detResult.Box.Right) / 2

		case Right:
			centerX = detResult.Box.Right - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = detResult.Box.Left + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, detResult.Box.Top-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			detResult.Box.Top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, detResult.Box.Top)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     BoxColor,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels so they are the top most layer
	// on the image and don't get overlapped by the box outlines
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Regions renders the clipped region rectangles in source image
// coordinates, showing the exact areas handed to the recogniser after
// margin expansion
func Regions(img *gocv.Mat, rects []image.Rectangle, lineThickness int) {

	for _, rect := range rects {
		gocv.Rectangle(img, rect, BoxColor, lineThickness)
	}
}
