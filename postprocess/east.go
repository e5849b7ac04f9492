package postprocess

import (
	"math"

	"github.com/eastlite/go-eastlite"
)

// EASTDetect defines the struct for EAST model inference post
// processing.  It decodes the detector's score and geometry maps into
// axis aligned text bounding boxes and suppresses overlapping
// duplicates.
type EASTDetect struct {
	// Params are the decoding configuration parameters
	Params EASTParams
	idGen  *idGenerator
}

// EASTParams defines the struct containing the EASTDetect parameters to
// use for post processing operations
type EASTParams struct {
	// ConfidenceThreshold is the minimum score map value required for a
	// grid cell to produce a candidate box.  Cells scoring exactly the
	// threshold are retained.
	ConfidenceThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for
	// defining the maximum allowed Intersection Over Union (IoU) between
	// two bounding boxes for both to be kept
	NMSThreshold float32
}

// EASTDefaultParams returns an instance of EASTParams configured with
// the conventional values for fresh detections:
// - Confidence Threshold: 0.9
// - NMS Threshold: 0.3
//
// Lower the confidence threshold for lenient recall.
func EASTDefaultParams() EASTParams {
	return EASTParams{
		ConfidenceThreshold: 0.9,
		NMSThreshold:        0.3,
	}
}

// NewEASTDetect returns an instance of the EASTDetect post processor
func NewEASTDetect(p EASTParams) *EASTDetect {
	return &EASTDetect{
		Params: p,
		idGen:  newIDGenerator(),
	}
}

// candidateData holds the raw boxes collected during the grid scan,
// rebuilt from scratch for every image
type candidateData struct {
	// filterBoxes is a flat slice of candidate box parameters stored as
	// (left, top, width, height) quads
	filterBoxes []float32
	// probs is a slice of the candidate confidence scores, parallel to
	// filterBoxes in grid scan order
	probs []float32
}

// Detect takes the detector's score and geometry maps and returns the
// de-duplicated text bounding boxes in detector input pixel coordinates.
// An image with no cell clearing the confidence threshold returns an
// empty result, not an error.
func (e *EASTDetect) Detect(scores *eastlite.ScoreMap,
	geometry *eastlite.GeometryMap) ([]DetectResult, error) {

	if err := eastlite.CheckShapes(scores, geometry); err != nil {
		return nil, err
	}

	data := e.collectCandidates(scores, geometry)

	validCount := len(data.probs)

	if validCount == 0 {
		// no text region detected
		return nil, nil
	}

	return e.suppress(data), nil
}

// collectCandidates iterates every grid cell in row-major order and
// decodes a box for each cell clearing the confidence threshold
func (e *EASTDetect) collectCandidates(scores *eastlite.ScoreMap,
	geometry *eastlite.GeometryMap) *candidateData {

	data := &candidateData{
		filterBoxes: make([]float32, 0),
		probs:       make([]float32, 0),
	}

	for y := 0; y < scores.Rows; y++ {

		scoreRow := scores.Row(y)
		geoRow := geometry.Row(y)

		for x := 0; x < scores.Cols; x++ {

			if scoreRow[x] < e.Params.ConfidenceThreshold {
				continue
			}

			box := boxFromCell(geoRow, x, y)

			// degenerate boxes carry no croppable region and would
			// poison the overlap calculation, drop them before
			// suppression
			if box.Width() <= 0 || box.Height() <= 0 {
				continue
			}

			data.filterBoxes = append(data.filterBoxes,
				float32(box.Left), float32(box.Top),
				float32(box.Width()), float32(box.Height()))
			data.probs = append(data.probs, scoreRow[x])
		}
	}

	return data
}

// boxFromCell decodes one grid cell's edge offsets and rotation angle
// into the axis aligned extent of the oriented box.  The rotation is
// only used to compute the extent, the returned box itself is axis
// aligned.  Fractional coordinates are truncated toward zero, matching
// the detector's reference decoding.
func boxFromCell(row eastlite.GeometryRow, x, y int) BoxRect {

	offsetX := float64(x * eastlite.Stride)
	offsetY := float64(y * eastlite.Stride)

	angle := float64(row.Angle[x])
	cos := math.Cos(angle)
	sin := math.Sin(angle)

	// channels 0/2 are vertical extents, 1/3 horizontal, a fixed
	// contract with the detector's channel layout
	h := float64(row.Top[x]) + float64(row.Bottom[x])
	w := float64(row.Right[x]) + float64(row.Left[x])

	endX := int(offsetX + cos*float64(row.Right[x]) + sin*float64(row.Bottom[x]))
	endY := int(offsetY - sin*float64(row.Right[x]) + cos*float64(row.Bottom[x]))
	startX := int(float64(endX) - w)
	startY := int(float64(endY) - h)

	return BoxRect{
		Left:   startX,
		Top:    startY,
		Right:  endX,
		Bottom: endY,
	}
}

// suppress runs greedy NMS over the candidates and assembles the
// surviving detection results in descending score order
func (e *EASTDetect) suppress(data *candidateData) []DetectResult {

	validCount := len(data.probs)

	// quickSortIndiceInverse sorts probs in place, keep the scan order
	// copy intact for candidate lookup
	sortedProbs := make([]float32, validCount)
	copy(sortedProbs, data.probs)

	indexArray := make([]int, validCount)

	for i := 0; i < validCount; i++ {
		indexArray[i] = i
	}

	quickSortIndiceInverse(sortedProbs, 0, validCount-1, indexArray)

	nms(validCount, data.filterBoxes, indexArray, e.Params.NMSThreshold)

	results := make([]DetectResult, 0, validCount)

	for i := 0; i < validCount; i++ {

		if indexArray[i] == -1 {
			continue
		}

		n := indexArray[i]

		left := data.filterBoxes[n*4+0]
		top := data.filterBoxes[n*4+1]
		right := left + data.filterBoxes[n*4+2]
		bottom := top + data.filterBoxes[n*4+3]

		results = append(results, DetectResult{
			Box: BoxRect{
				Left:   int(left),
				Top:    int(top),
				Right:  int(right),
				Bottom: int(bottom),
			},
			Probability: sortedProbs[i],
			ID:          e.idGen.next(),
		})
	}

	return results
}
