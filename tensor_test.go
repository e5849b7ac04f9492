package eastlite

import (
	"testing"
)

func TestNewScoreMapValidatesLength(t *testing.T) {

	if _, err := NewScoreMap(2, 3, make([]float32, 5)); err == nil {
		t.Error("expected error for buffer shorter than grid")
	}

	if _, err := NewScoreMap(0, 3, nil); err == nil {
		t.Error("expected error for zero row grid")
	}

	if _, err := NewScoreMap(2, 3, make([]float32, 6)); err != nil {
		t.Errorf("unexpected error for matching buffer: %v", err)
	}
}

func TestScoreMapRow(t *testing.T) {

	buf := []float32{
		0.1, 0.2, 0.3,
		0.4, 0.5, 0.6,
	}

	m, err := NewScoreMap(2, 3, buf)

	if err != nil {
		t.Fatalf("error building score map: %v", err)
	}

	row := m.Row(1)

	if len(row) != 3 || row[0] != 0.4 || row[2] != 0.6 {
		t.Errorf("row 1 extraction wrong: %v", row)
	}

	if m.At(0, 2) != 0.3 {
		t.Errorf("expected At(0,2) = 0.3, got %f", m.At(0, 2))
	}
}

func TestNewGeometryMapValidatesLength(t *testing.T) {

	// a 2x3 grid needs 5 channel planes of 6 values each
	if _, err := NewGeometryMap(2, 3, make([]float32, 6)); err == nil {
		t.Error("expected error for single plane buffer")
	}

	if _, err := NewGeometryMap(2, 3, make([]float32, 30)); err != nil {
		t.Errorf("unexpected error for matching buffer: %v", err)
	}
}

func TestGeometryMapRowChannelLayout(t *testing.T) {

	rows, cols := 2, 2
	plane := rows * cols

	buf := make([]float32, GeometryChannels*plane)

	// mark cell (y=1, x=0) of each channel with a distinct value
	idx := 1*cols + 0
	buf[0*plane+idx] = 10  // top
	buf[1*plane+idx] = 20  // right
	buf[2*plane+idx] = 30  // bottom
	buf[3*plane+idx] = 40  // left
	buf[4*plane+idx] = 0.5 // angle

	m, err := NewGeometryMap(rows, cols, buf)

	if err != nil {
		t.Fatalf("error building geometry map: %v", err)
	}

	row := m.Row(1)

	if row.Top[0] != 10 || row.Right[0] != 20 || row.Bottom[0] != 30 ||
		row.Left[0] != 40 || row.Angle[0] != 0.5 {
		t.Errorf("channel layout wrong: %+v", row)
	}

	// the untouched neighbour cell stays zero in every channel
	if row.Top[1] != 0 || row.Angle[1] != 0 {
		t.Errorf("expected untouched cell to be zero, got %+v", row)
	}
}

func TestCheckShapes(t *testing.T) {

	scores, _ := NewScoreMap(2, 2, make([]float32, 4))
	geometry, _ := NewGeometryMap(2, 2, make([]float32, 20))

	if err := CheckShapes(scores, geometry); err != nil {
		t.Errorf("unexpected error for matching grids: %v", err)
	}

	other, _ := NewGeometryMap(4, 4, make([]float32, 80))

	if err := CheckShapes(scores, other); err == nil {
		t.Error("expected error for mismatched grids")
	}
}

func TestConvertFloat16Buffer(t *testing.T) {

	// IEEE 754 half precision bit patterns with exact float32 values
	buf := []uint16{0x0000, 0x3C00, 0xC000, 0x3800}

	out := ConvertFloat16Buffer(buf)

	expected := []float32{0, 1, -2, 0.5}

	for i, want := range expected {
		if out[i] != want {
			t.Errorf("value %d: expected %f, got %f", i, want, out[i])
		}
	}
}
