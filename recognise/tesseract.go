package recognise

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Params defines the struct containing the recognition engine
// configuration
type Params struct {
	// Language is the Tesseract language code, eg "por" or "eng".  The
	// corresponding training data must be installed on the system.
	Language string
	// TessdataPrefix optionally points at the directory holding the
	// language training data, equivalent to --tessdata-dir
	TessdataPrefix string
}

// DefaultParams returns an instance of Params configured for English
// recognition with the system tessdata location
func DefaultParams() Params {
	return Params{
		Language: "eng",
	}
}

// Engine wraps a Tesseract client for running text recognition on
// cropped regions.  It is not safe for concurrent use, run one Engine
// per goroutine.
type Engine struct {
	// Params are the engine configuration parameters
	Params Params
	client *gosseract.Client
}

// NewEngine returns an instance of the recognition Engine.  Errors here
// mean the engine is misconfigured (missing training data, unknown
// language) and recognition would fail for every region.
func NewEngine(p Params) (*Engine, error) {

	client := gosseract.NewClient()

	if p.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(p.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("error setting tessdata prefix: %w", err)
		}
	}

	if p.Language != "" {
		if err := client.SetLanguage(p.Language); err != nil {
			client.Close()
			return nil, fmt.Errorf("error setting language %q: %w", p.Language, err)
		}
	}

	return &Engine{
		Params: p,
		client: client,
	}, nil
}

// Close releases the underlying Tesseract client
func (e *Engine) Close() error {
	return e.client.Close()
}

// Text runs recognition on a cropped region and returns the extracted
// text.  Engine failures are returned to the caller, which should log
// and continue with remaining regions rather than abort the batch.
func (e *Engine) Text(region gocv.Mat) (string, error) {

	buf, err := gocv.IMEncode(gocv.PNGFileExt, region)

	if err != nil {
		return "", fmt.Errorf("error encoding region: %w", err)
	}

	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("error setting region image: %w", err)
	}

	text, err := e.client.Text()

	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	return text, nil
}

// LayoutReport runs recognition with orientation and script detection
// enabled and returns the hOCR layout report for the region.  The
// report describes text orientation and placement independent of full
// extraction.
func (e *Engine) LayoutReport(region gocv.Mat) (report string, err error) {

	buf, err := gocv.IMEncode(gocv.PNGFileExt, region)

	if err != nil {
		return "", fmt.Errorf("error encoding region: %w", err)
	}

	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("error setting region image: %w", err)
	}

	if err := e.client.SetPageSegMode(gosseract.PSM_AUTO_OSD); err != nil {
		return "", fmt.Errorf("error setting OSD mode: %w", err)
	}

	// restore the default segmentation mode for subsequent Text calls.
	// a failed restore would leave OSD mode active for the rest of the
	// engine's life, so it is an error of this call.
	defer func() {
		if rerr := e.client.SetPageSegMode(gosseract.PSM_AUTO); rerr != nil && err == nil {
			report = ""
			err = fmt.Errorf("error restoring segmentation mode: %w", rerr)
		}
	}()

	report, err = e.client.HOCRText()

	if err != nil {
		return "", fmt.Errorf("layout detection failed: %w", err)
	}

	return report, nil
}

// TextFromImage crops a rectangle out of an image.Image, optionally
// upscales it with cubic resampling and runs recognition on the result.
// It serves callers working with Go native images instead of gocv Mats.
func (e *Engine) TextFromImage(img image.Image, rect image.Rectangle,
	upscale float64) (string, error) {

	cropped := imaging.Crop(img, rect)

	if cropped.Bounds().Dx() == 0 || cropped.Bounds().Dy() == 0 {
		return "", fmt.Errorf("region %v is outside the image bounds", rect)
	}

	if upscale > 0 && upscale != 1 {
		w := int(float64(cropped.Bounds().Dx()) * upscale)
		h := int(float64(cropped.Bounds().Dy()) * upscale)
		cropped = imaging.Resize(cropped, w, h, imaging.CatmullRom)
	}

	var buf bytes.Buffer

	if err := png.Encode(&buf, cropped); err != nil {
		return "", fmt.Errorf("error encoding region: %w", err)
	}

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("error setting region image: %w", err)
	}

	text, err := e.client.Text()

	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	return text, nil
}
