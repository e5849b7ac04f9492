package eastlite

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// EAST network output layer names.  The sigmoid layer produces the
// confidence map, the concat layer the box geometry map.
const (
	scoreLayerName    = "feature_fusion/Conv_7/Sigmoid"
	geometryLayerName = "feature_fusion/concat_3"
)

// Detector wraps an OpenCV DNN instance of the frozen EAST text
// detection graph.  Forward passes are serialized, so a pass abandoned
// by an expired context keeps the network busy until it completes and
// the next caller simply waits.  Use a Pool for parallel throughput.
type Detector struct {
	net gocv.Net
	// mu serializes access to the network, which cannot run two forward
	// passes at once
	mu sync.Mutex
	// inputWidth and inputHeight are the dimensions images must be
	// resized to before the forward pass, multiples of 32 as required
	// by the EAST architecture
	inputWidth  int
	inputHeight int
}

// detectOut carries the forward pass result out of its goroutine
type detectOut struct {
	scores   *ScoreMap
	geometry *GeometryMap
	err      error
}

// NewDetector loads the frozen EAST graph from modelFile and prepares a
// runtime with the given input dimensions
func NewDetector(modelFile string, inputWidth, inputHeight int) (*Detector, error) {

	if inputWidth%32 != 0 || inputHeight%32 != 0 {
		return nil, fmt.Errorf("detector input size %dx%d must be multiples of 32",
			inputWidth, inputHeight)
	}

	if _, err := os.Stat(modelFile); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelFile)
	}

	net := gocv.ReadNet(modelFile, "")

	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelFile)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)

	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	return &Detector{
		net:         net,
		inputWidth:  inputWidth,
		inputHeight: inputHeight,
	}, nil
}

// InputWidth returns the width images must be resized to for inference
func (d *Detector) InputWidth() int {
	return d.inputWidth
}

// InputHeight returns the height images must be resized to for inference
func (d *Detector) InputHeight() int {
	return d.inputHeight
}

// Close releases the network resources, waiting for any in-flight
// forward pass to complete first
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Detect runs the EAST forward pass on img, which must already be
// resized to the detector input size, and returns the confidence and
// geometry maps
func (d *Detector) Detect(img gocv.Mat) (*ScoreMap, *GeometryMap, error) {
	return d.DetectContext(context.Background(), img)
}

// DetectContext runs the forward pass with cancellation at image
// granularity.  When the context expires only the result is abandoned,
// there are no partial results.  The pass itself runs to completion on
// a clone of img, so the caller may close img and reuse or pool the
// Detector immediately after an abandoned call.
func (d *Detector) DetectContext(ctx context.Context, img gocv.Mat) (*ScoreMap,
	*GeometryMap, error) {

	if img.Cols() != d.inputWidth || img.Rows() != d.inputHeight {
		return nil, nil, fmt.Errorf("input image is %dx%d, detector requires %dx%d",
			img.Cols(), img.Rows(), d.inputWidth, d.inputHeight)
	}

	// the forward goroutine owns the clone, the caller's Mat is free to
	// close as soon as this method returns
	input := img.Clone()

	return d.run(ctx, func() detectOut {
		defer input.Close()

		scores, geometry, err := d.forward(input)
		return detectOut{scores: scores, geometry: geometry, err: err}
	})
}

// run executes one forward pass under the network lock, abandoning the
// wait when the context expires.  An abandoned pass still runs to
// completion and releases the lock before the next pass can start.
func (d *Detector) run(ctx context.Context, fn func() detectOut) (*ScoreMap,
	*GeometryMap, error) {

	done := make(chan detectOut, 1)

	go func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("detection abandoned: %w", ctx.Err())

	case out := <-done:
		return out.scores, out.geometry, out.err
	}
}

// forward performs the blocking DNN forward pass and wraps the two raw
// output Mats as score and geometry maps
func (d *Detector) forward(img gocv.Mat) (*ScoreMap, *GeometryMap, error) {

	// mean subtraction is left to the trained graph, matching the
	// swapRB/no-crop blob the detector was exported for
	blob := gocv.BlobFromImage(img, 1.0,
		image.Pt(d.inputWidth, d.inputHeight),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	outputs := d.net.ForwardLayers([]string{scoreLayerName, geometryLayerName})

	if len(outputs) != 2 {
		for _, o := range outputs {
			o.Close()
		}
		return nil, nil, fmt.Errorf("expected 2 output tensors, network produced %d",
			len(outputs))
	}

	defer outputs[0].Close()
	defer outputs[1].Close()

	scores, err := scoreMapFromMat(outputs[0])

	if err != nil {
		return nil, nil, err
	}

	geometry, err := geometryMapFromMat(outputs[1])

	if err != nil {
		return nil, nil, err
	}

	if err := CheckShapes(scores, geometry); err != nil {
		return nil, nil, err
	}

	return scores, geometry, nil
}

// scoreMapFromMat copies a (1,1,rows,cols) output Mat into a ScoreMap
func scoreMapFromMat(m gocv.Mat) (*ScoreMap, error) {

	sizes := m.Size()

	if len(sizes) != 4 || sizes[0] != 1 || sizes[1] != 1 {
		return nil, fmt.Errorf("unexpected score tensor shape %v", sizes)
	}

	buf, err := matData(m)

	if err != nil {
		return nil, err
	}

	return NewScoreMap(sizes[2], sizes[3], buf)
}

// geometryMapFromMat copies a (1,5,rows,cols) output Mat into a
// GeometryMap
func geometryMapFromMat(m gocv.Mat) (*GeometryMap, error) {

	sizes := m.Size()

	if len(sizes) != 4 || sizes[0] != 1 || sizes[1] != GeometryChannels {
		return nil, fmt.Errorf("unexpected geometry tensor shape %v", sizes)
	}

	buf, err := matData(m)

	if err != nil {
		return nil, err
	}

	return NewGeometryMap(sizes[2], sizes[3], buf)
}

// matData copies the Mat's float32 contents into an owned slice.  The
// maps must outlive the network output Mats which get closed after the
// forward pass.
func matData(m gocv.Mat) ([]float32, error) {

	src, err := m.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error getting tensor data pointer: %w", err)
	}

	buf := make([]float32, len(src))
	copy(buf, src)

	return buf, nil
}
