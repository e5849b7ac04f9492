package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/eastlite/go-eastlite"
	"github.com/eastlite/go-eastlite/postprocess"
	"github.com/eastlite/go-eastlite/preprocess"
	"github.com/eastlite/go-eastlite/recognise"
	"github.com/eastlite/go-eastlite/render"
	"github.com/eastlite/go-eastlite/roi"
	"gocv.io/x/gocv"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// defaults come from the environment, cli flags override
	cfg := eastlite.ConfigFromEnv()

	modelFile := flag.String("m", cfg.ModelFile, "EAST frozen graph file")
	imgFile := flag.String("i", "../data/sign.jpg", "Image file to run OCR on")
	saveFile := flag.String("o", "", "Optional output image file marking the cropped regions")
	lang := flag.String("l", cfg.Language, "Tesseract language code")
	margin := flag.Int("g", cfg.Margin, "Pixels to expand each region by before cropping")
	layout := flag.Bool("osd", false, "Print the orientation/layout report of the first region")
	flag.Parse()

	// create detector instance
	det, err := eastlite.NewDetector(*modelFile, cfg.InputWidth, cfg.InputHeight)

	if err != nil {
		log.Fatal("Error initializing detector: ", err)
	}

	defer det.Close()

	// create EAST post processor
	eastProcessor := postprocess.NewEASTDetect(postprocess.EASTParams{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NMSThreshold:        cfg.NMSThreshold,
	})

	// create region extractor
	extractor := roi.NewExtractor(roi.Params{
		Margin:        *margin,
		UpscaleFactor: cfg.UpscaleFactor,
	})

	// load image
	img := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatal("Error reading image from: ", *imgFile)
	}

	defer img.Close()

	// stretch image to the detector input size
	resizer := preprocess.NewResizer(img.Cols(), img.Rows(),
		cfg.InputWidth, cfg.InputHeight)

	resizedImg := gocv.NewMat()
	defer resizedImg.Close()

	resizer.Resize(img, &resizedImg)

	// perform the forward pass on the image
	scores, geometry, err := det.Detect(resizedImg)

	if err != nil {
		log.Fatal("Detection failed with error: ", err)
	}

	// decode candidate boxes and suppress overlaps
	results, err := eastProcessor.Detect(scores, geometry)

	if err != nil {
		log.Fatal("Post processing failed with error: ", err)
	}

	if len(results) == 0 {
		log.Println("No text regions detected")
		return
	}

	// crop each surviving region out of the source image
	regions := extractor.Extract(img, results, resizer.ScaleW(), resizer.ScaleH())

	// create recognition engine
	engine, err := recognise.NewEngine(recognise.Params{
		Language:       *lang,
		TessdataPrefix: cfg.TessdataPrefix,
	})

	if err != nil {
		log.Fatal("Error initializing recognition engine: ", err)
	}

	defer engine.Close()

	rects := make([]image.Rectangle, 0, len(regions))

	for i := range regions {
		region := &regions[i]
		rects = append(rects, region.Rect)

		if *layout && i == 0 {
			report, err := engine.LayoutReport(region.Crop)

			if err != nil {
				log.Printf("Layout detection failed for region %v: %v\n",
					region.Rect, err)
			} else {
				fmt.Printf("layout report:\n%s\n", report)
			}
		}

		text, err := engine.Text(region.Crop)
		region.Close()

		if err != nil {
			// recognition failure on one region does not abort the rest
			log.Printf("Recognition failed for region %v: %v\n", region.Rect, err)
			continue
		}

		fmt.Printf("region %v score=%.2f: %s\n", region.Rect,
			region.Probability, strings.TrimSpace(text))
	}

	if *saveFile != "" {
		// mark the clipped crop rectangles handed to the recogniser
		render.Regions(&img, rects, 2)

		log.Printf("Saved image to %s\n", *saveFile)
		gocv.IMWrite(*saveFile, img)
	}

	log.Println("done")
}
