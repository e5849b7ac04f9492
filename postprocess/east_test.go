package postprocess

import (
	"testing"

	"github.com/eastlite/go-eastlite"
)

// cell describes a single populated grid cell in a test fixture
type cell struct {
	y, x   int
	score  float32
	top    float32
	right  float32
	bottom float32
	left   float32
	angle  float32
}

// makeMaps builds score and geometry maps of the given grid size with
// the listed cells populated, all other cells are zero
func makeMaps(t *testing.T, rows, cols int, cells []cell) (*eastlite.ScoreMap,
	*eastlite.GeometryMap) {

	t.Helper()

	scoreBuf := make([]float32, rows*cols)
	geoBuf := make([]float32, eastlite.GeometryChannels*rows*cols)

	plane := rows * cols

	for _, c := range cells {
		idx := c.y*cols + c.x
		scoreBuf[idx] = c.score
		geoBuf[0*plane+idx] = c.top
		geoBuf[1*plane+idx] = c.right
		geoBuf[2*plane+idx] = c.bottom
		geoBuf[3*plane+idx] = c.left
		geoBuf[4*plane+idx] = c.angle
	}

	scores, err := eastlite.NewScoreMap(rows, cols, scoreBuf)

	if err != nil {
		t.Fatalf("error building score map: %v", err)
	}

	geometry, err := eastlite.NewGeometryMap(rows, cols, geoBuf)

	if err != nil {
		t.Fatalf("error building geometry map: %v", err)
	}

	return scores, geometry
}

func TestBoxFromCellZeroAngle(t *testing.T) {

	// with angle 0 the decode reduces to simple additive offsets
	row := eastlite.GeometryRow{
		Top:    []float32{3},
		Right:  []float32{6},
		Bottom: []float32{5},
		Left:   []float32{2},
		Angle:  []float32{0},
	}

	box := boxFromCell(row, 0, 0)

	expected := BoxRect{Left: -2, Top: -3, Right: 6, Bottom: 5}

	if box != expected {
		t.Errorf("zero angle decode: expected %+v, got %+v", expected, box)
	}
}

func TestBoxFromCellGridOffset(t *testing.T) {

	// cell (x=3, y=2) offsets the box by the stride scaled grid position
	row := eastlite.GeometryRow{
		Top:    []float32{0, 0, 0, 3},
		Right:  []float32{0, 0, 0, 6},
		Bottom: []float32{0, 0, 0, 5},
		Left:   []float32{0, 0, 0, 2},
		Angle:  []float32{0, 0, 0, 0},
	}

	box := boxFromCell(row, 3, 2)

	// offsetX = 3*4 = 12, offsetY = 2*4 = 8
	expected := BoxRect{Left: 10, Top: 5, Right: 18, Bottom: 13}

	if box != expected {
		t.Errorf("grid offset decode: expected %+v, got %+v", expected, box)
	}
}

func TestBoxFromCellRotated(t *testing.T) {

	// angle pi/2: cos=0, sin=1, so the extent comes from the swapped
	// distance channels
	row := eastlite.GeometryRow{
		Top:    []float32{0},
		Right:  []float32{4},
		Bottom: []float32{3.5},
		Left:   []float32{0},
		Angle:  []float32{1.5707964},
	}

	box := boxFromCell(row, 1, 1)

	// offset (4,4): endX = int(4 + 0*4 + 1*3.5) = 7
	// endY = int(4 - 1*4 + 0*3.5) = 0
	// w = 4 so startX = 3, h = 3.5 so startY = int(-3.5) = -3
	expected := BoxRect{Left: 3, Top: -3, Right: 7, Bottom: 0}

	if box != expected {
		t.Errorf("rotated decode: expected %+v, got %+v", expected, box)
	}
}

func TestDetectSingleCell(t *testing.T) {

	scores, geometry := makeMaps(t, 2, 2, []cell{
		{y: 0, x: 0, score: 0.95, top: 2, right: 8, bottom: 4, left: 2},
	})

	// threshold below the cell score produces exactly one box
	e := NewEASTDetect(EASTParams{ConfidenceThreshold: 0.9, NMSThreshold: 0.3})

	results, err := e.Detect(scores, geometry)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(results))
	}

	if results[0].Probability != 0.95 {
		t.Errorf("expected probability 0.95, got %f", results[0].Probability)
	}

	// threshold above the cell score reports no detections without
	// crashing
	strict := NewEASTDetect(EASTParams{ConfidenceThreshold: 0.96, NMSThreshold: 0.3})

	results, err = strict.Detect(scores, geometry)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected no detections, got %d", len(results))
	}
}

func TestDetectEqualThresholdRetained(t *testing.T) {

	scores, geometry := makeMaps(t, 1, 1, []cell{
		{y: 0, x: 0, score: 0.9, top: 2, right: 8, bottom: 4, left: 2},
	})

	// a score exactly equal to the threshold is kept, only strictly
	// lower scores are skipped
	e := NewEASTDetect(EASTParams{ConfidenceThreshold: 0.9, NMSThreshold: 0.3})

	results, err := e.Detect(scores, geometry)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Errorf("expected score equal to threshold to be retained, got %d results",
			len(results))
	}
}

func TestCollectCandidatesMonotonic(t *testing.T) {

	cells := []cell{
		{y: 0, x: 0, score: 0.55, top: 2, right: 8, bottom: 4, left: 2},
		{y: 0, x: 3, score: 0.65, top: 3, right: 6, bottom: 3, left: 3},
		{y: 1, x: 1, score: 0.85, top: 2, right: 5, bottom: 2, left: 5},
		{y: 2, x: 2, score: 0.95, top: 4, right: 9, bottom: 4, left: 1},
	}

	scores, geometry := makeMaps(t, 4, 4, cells)

	lenient := NewEASTDetect(EASTParams{ConfidenceThreshold: 0.5, NMSThreshold: 0.3})
	strict := NewEASTDetect(EASTParams{ConfidenceThreshold: 0.8, NMSThreshold: 0.3})

	lenientData := lenient.collectCandidates(scores, geometry)
	strictData := strict.collectCandidates(scores, geometry)

	if len(lenientData.probs) != 4 {
		t.Fatalf("expected 4 lenient candidates, got %d", len(lenientData.probs))
	}

	if len(strictData.probs) != 2 {
		t.Fatalf("expected 2 strict candidates, got %d", len(strictData.probs))
	}

	// every candidate surviving the stricter threshold must appear in
	// the lenient candidate set
	for i := range strictData.probs {
		found := false

		for j := range lenientData.probs {
			if strictData.probs[i] == lenientData.probs[j] &&
				strictData.filterBoxes[i*4] == lenientData.filterBoxes[j*4] &&
				strictData.filterBoxes[i*4+1] == lenientData.filterBoxes[j*4+1] {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("strict candidate %d missing from lenient candidate set", i)
		}
	}
}

func TestCollectCandidatesRejectsZeroArea(t *testing.T) {

	// a confident cell whose offsets decode to a zero height box must
	// be dropped before suppression
	scores, geometry := makeMaps(t, 1, 1, []cell{
		{y: 0, x: 0, score: 0.99, top: 0, right: 8, bottom: 0, left: 2},
	})

	e := NewEASTDetect(EASTDefaultParams())

	data := e.collectCandidates(scores, geometry)

	if len(data.probs) != 0 {
		t.Errorf("expected zero area candidate to be rejected, got %d candidates",
			len(data.probs))
	}
}

func TestDetectShapeMismatch(t *testing.T) {

	scores, _ := makeMaps(t, 2, 2, nil)
	_, geometry := makeMaps(t, 4, 4, nil)

	e := NewEASTDetect(EASTDefaultParams())

	if _, err := e.Detect(scores, geometry); err == nil {
		t.Error("expected error for mismatched grid shapes")
	}
}
