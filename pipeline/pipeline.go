// Package pipeline composes the detection, decoding, cropping and
// recognition stages into a single entry point for processing whole
// images.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"github.com/eastlite/go-eastlite"
	"github.com/eastlite/go-eastlite/postprocess"
	"github.com/eastlite/go-eastlite/preprocess"
	"github.com/eastlite/go-eastlite/recognise"
	"github.com/eastlite/go-eastlite/roi"
	"gocv.io/x/gocv"
)

// Pipeline runs the full text detection and recognition flow over
// images.  Detectors are pooled so independent images can be processed
// in parallel, no state is shared between images in flight.
type Pipeline struct {
	cfg       eastlite.Config
	pool      *eastlite.Pool
	processor *postprocess.EASTDetect
	extractor *roi.Extractor
}

// RegionText is the recognised text of one surviving region
type RegionText struct {
	// Rect is the cropped rectangle in source image coordinates
	Rect image.Rectangle
	// Probability is the detection confidence of the region
	Probability float32
	// Text is the recognised text content
	Text string
}

// New creates a Pipeline from the given configuration
func New(cfg eastlite.Config) (*Pipeline, error) {

	workers := cfg.Workers

	if workers < 1 {
		workers = 1
	}

	pool, err := eastlite.NewPool(workers, cfg.ModelFile, cfg.InputWidth,
		cfg.InputHeight)

	if err != nil {
		return nil, fmt.Errorf("error creating detector pool: %w", err)
	}

	return &Pipeline{
		cfg:  cfg,
		pool: pool,
		processor: postprocess.NewEASTDetect(postprocess.EASTParams{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			NMSThreshold:        cfg.NMSThreshold,
		}),
		extractor: roi.NewExtractor(roi.Params{
			Margin:        cfg.Margin,
			UpscaleFactor: cfg.UpscaleFactor,
		}),
	}, nil
}

// Close releases the pooled detectors
func (p *Pipeline) Close() {
	p.pool.Close()
}

// ProcessFile loads an image from file and processes it.  A missing or
// unreadable file is an error, an image with no detectable text returns
// an empty result.
func (p *Pipeline) ProcessFile(ctx context.Context, imgFile string) ([]RegionText, error) {

	img := gocv.IMRead(imgFile, gocv.IMReadColor)

	if img.Empty() {
		return nil, fmt.Errorf("error reading image from: %s", imgFile)
	}

	defer img.Close()

	return p.ProcessImage(ctx, img)
}

// ProcessImage runs detection, decoding, suppression, cropping and
// recognition over a single image.  Regions whose recognition fails are
// logged and skipped, the remaining regions are still returned.
func (p *Pipeline) ProcessImage(ctx context.Context, img gocv.Mat) ([]RegionText, error) {

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	resizer := preprocess.NewResizer(img.Cols(), img.Rows(),
		p.cfg.InputWidth, p.cfg.InputHeight)

	resized := gocv.NewMat()
	defer resized.Close()

	resizer.Resize(img, &resized)

	det := p.pool.Get()
	scores, geometry, err := det.DetectContext(ctx, resized)
	p.pool.Return(det)

	if err != nil {
		return nil, err
	}

	results, err := p.processor.Detect(scores, geometry)

	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		// no text region detected, an empty result is not an error
		return nil, nil
	}

	regions := p.extractor.Extract(img, results, resizer.ScaleW(), resizer.ScaleH())

	engine, err := recognise.NewEngine(recognise.Params{
		Language:       p.cfg.Language,
		TessdataPrefix: p.cfg.TessdataPrefix,
	})

	if err != nil {
		for i := range regions {
			regions[i].Close()
		}
		return nil, fmt.Errorf("error creating recognition engine: %w", err)
	}

	defer engine.Close()

	out := make([]RegionText, 0, len(regions))

	for i := range regions {
		region := &regions[i]

		text, err := engine.Text(region.Crop)
		region.Close()

		if err != nil {
			// recognition failure on one region does not abort the rest
			log.Printf("recognition failed for region %v: %v", region.Rect, err)
			continue
		}

		out = append(out, RegionText{
			Rect:        region.Rect,
			Probability: region.Probability,
			Text:        strings.TrimSpace(text),
		})
	}

	return out, nil
}

// ProcessBatch processes image files in parallel across the detector
// pool.  Images that fail are logged and skipped, the returned map
// holds the results of the images that succeeded.
func (p *Pipeline) ProcessBatch(ctx context.Context, imgFiles []string) map[string][]RegionText {

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	out := make(map[string][]RegionText, len(imgFiles))
	jobs := make(chan string)

	for w := 0; w < p.pool.Size(); w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for imgFile := range jobs {
				texts, err := p.ProcessFile(ctx, imgFile)

				if err != nil {
					// failure of one image is fatal for that image
					// only, continue with the rest of the batch
					log.Printf("skipping %s: %v", imgFile, err)
					continue
				}

				mu.Lock()
				out[imgFile] = texts
				mu.Unlock()
			}
		}()
	}

feed:
	for _, imgFile := range imgFiles {
		select {
		case jobs <- imgFile:
		case <-ctx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	return out
}
