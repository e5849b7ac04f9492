package eastlite

import (
	"fmt"
)

const (
	// Stride is the fixed downsampling factor of the EAST detector.  The
	// score and geometry maps are reported on a grid 1/4 the size of the
	// network input image.
	Stride = 4

	// GeometryChannels is the number of planes in the geometry map, being
	// the four edge offset distances plus the rotation angle
	GeometryChannels = 5
)

// geometry map channel layout, fixed contract with the EAST graph
const (
	chanTop = iota
	chanRight
	chanBottom
	chanLeft
	chanAngle
)

// ScoreMap is the per-cell text confidence plane produced by the
// detector's feature_fusion/Conv_7/Sigmoid layer.  Each cell holds the
// probability that it anchors a region of text.  The map is an immutable
// read only input to post processing.
type ScoreMap struct {
	// Rows and Cols are the detector grid dimensions, being the network
	// input size divided by Stride
	Rows int
	Cols int
	// buf is the flattened (1,1,rows,cols) tensor data
	buf []float32
}

// NewScoreMap wraps a flattened score tensor of shape (1,1,rows,cols).
// The buffer length must match the grid dimensions.
func NewScoreMap(rows, cols int, buf []float32) (*ScoreMap, error) {

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid score map grid %dx%d", rows, cols)
	}

	if len(buf) != rows*cols {
		return nil, fmt.Errorf("score map buffer has %d values, grid %dx%d requires %d",
			len(buf), rows, cols, rows*cols)
	}

	return &ScoreMap{
		Rows: rows,
		Cols: cols,
		buf:  buf,
	}, nil
}

// Row returns the confidence scores for grid row y.  An out of range row
// index is a caller bug and panics.
func (m *ScoreMap) Row(y int) []float32 {
	return m.buf[y*m.Cols : (y+1)*m.Cols]
}

// At returns the confidence score of the grid cell at row y, column x
func (m *ScoreMap) At(y, x int) float32 {
	return m.Row(y)[x]
}

// GeometryMap is the five channel box geometry plane produced by the
// detector's feature_fusion/concat_3 layer.  Channels 0-3 are the top,
// right, bottom and left edge offset distances of the box relative to
// each grid cell, channel 4 is the rotation angle in radians.
type GeometryMap struct {
	// Rows and Cols are the detector grid dimensions and must match the
	// score map produced by the same forward pass
	Rows int
	Cols int
	// buf is the flattened (1,5,rows,cols) tensor data
	buf []float32
}

// NewGeometryMap wraps a flattened geometry tensor of shape
// (1,5,rows,cols).  The buffer length must match the grid dimensions.
func NewGeometryMap(rows, cols int, buf []float32) (*GeometryMap, error) {

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid geometry map grid %dx%d", rows, cols)
	}

	if len(buf) != GeometryChannels*rows*cols {
		return nil, fmt.Errorf("geometry map buffer has %d values, grid %dx%d requires %d",
			len(buf), rows, cols, GeometryChannels*rows*cols)
	}

	return &GeometryMap{
		Rows: rows,
		Cols: cols,
		buf:  buf,
	}, nil
}

// GeometryRow is the named per-column view of the geometry channels for
// a single grid row.  Naming the channels at extraction time keeps the
// channel-index to geometric-meaning mapping in one place.
type GeometryRow struct {
	// Top, Right, Bottom and Left are the per-column edge offset
	// distances in detector input pixel units
	Top    []float32
	Right  []float32
	Bottom []float32
	Left   []float32
	// Angle is the per-column box rotation in radians
	Angle []float32
}

// Row returns the geometry channels for grid row y.  An out of range row
// index is a caller bug and panics.
func (m *GeometryMap) Row(y int) GeometryRow {
	return GeometryRow{
		Top:    m.channelRow(chanTop, y),
		Right:  m.channelRow(chanRight, y),
		Bottom: m.channelRow(chanBottom, y),
		Left:   m.channelRow(chanLeft, y),
		Angle:  m.channelRow(chanAngle, y),
	}
}

// channelRow slices one row out of the given channel plane
func (m *GeometryMap) channelRow(c, y int) []float32 {
	plane := c * m.Rows * m.Cols
	return m.buf[plane+y*m.Cols : plane+(y+1)*m.Cols]
}

// CheckShapes verifies the score and geometry maps share the same grid
// dimensions.  Mismatched shapes mean the two tensors did not come from
// the same forward pass and decoding them together would be nonsense.
func CheckShapes(scores *ScoreMap, geometry *GeometryMap) error {

	if scores.Rows != geometry.Rows || scores.Cols != geometry.Cols {
		return fmt.Errorf("score map grid %dx%d does not match geometry map grid %dx%d",
			scores.Rows, scores.Cols, geometry.Rows, geometry.Cols)
	}

	return nil
}
