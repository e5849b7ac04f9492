package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/eastlite/go-eastlite"
	"github.com/eastlite/go-eastlite/postprocess"
	"github.com/eastlite/go-eastlite/preprocess"
	"github.com/eastlite/go-eastlite/render"
	"gocv.io/x/gocv"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	modelFile := flag.String("m", "../data/frozen_east_text_detection.pb", "EAST frozen graph file")
	imgFile := flag.String("i", "../data/sign.jpg", "Image file to run detection on")
	saveFile := flag.String("o", "../data/sign-out.jpg", "The output image file with text region markers")
	inputWidth := flag.Int("x", 320, "Detector input width, multiple of 32")
	inputHeight := flag.Int("y", 320, "Detector input height, multiple of 32")
	confThresh := flag.Float64("c", 0.9, "Confidence threshold for candidate regions")
	nmsThresh := flag.Float64("n", 0.3, "IoU threshold for non-max suppression")
	flag.Parse()

	// create detector instance
	det, err := eastlite.NewDetector(*modelFile, *inputWidth, *inputHeight)

	if err != nil {
		log.Fatal("Error initializing detector: ", err)
	}

	// create EAST post processor
	eastProcessor := postprocess.NewEASTDetect(postprocess.EASTParams{
		ConfidenceThreshold: float32(*confThresh),
		NMSThreshold:        float32(*nmsThresh),
	})

	// load image
	img := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatal("Error reading image from: ", *imgFile)
	}

	defer img.Close()

	// stretch image to the detector input size
	resizer := preprocess.NewResizer(img.Cols(), img.Rows(),
		*inputWidth, *inputHeight)

	resizedImg := gocv.NewMat()
	defer resizedImg.Close()

	resizer.Resize(img, &resizedImg)

	start := time.Now()

	// perform the forward pass on the image
	scores, geometry, err := det.Detect(resizedImg)

	if err != nil {
		log.Fatal("Detection failed with error: ", err)
	}

	endInference := time.Now()

	// decode candidate boxes and suppress overlaps
	results, err := eastProcessor.Detect(scores, geometry)

	if err != nil {
		log.Fatal("Post processing failed with error: ", err)
	}

	endDetect := time.Now()

	log.Printf("Model first run speed: inference=%s, post processing=%s, total time=%s\n",
		endInference.Sub(start).String(),
		endDetect.Sub(endInference).String(),
		endDetect.Sub(start).String(),
	)

	// rescale boxes from detector input coordinates back to the source
	// image for rendering
	scaled := make([]postprocess.DetectResult, len(results))

	for i, result := range results {
		scaled[i] = result
		scaled[i].Box.Left = int(float32(result.Box.Left) * resizer.ScaleW())
		scaled[i].Box.Right = int(float32(result.Box.Right) * resizer.ScaleW())
		scaled[i].Box.Top = int(float32(result.Box.Top) * resizer.ScaleH())
		scaled[i].Box.Bottom = int(float32(result.Box.Bottom) * resizer.ScaleH())
	}

	for _, result := range scaled {
		fmt.Printf("text region @ (%d %d %d %d) score=%f\n",
			result.Box.Left, result.Box.Top,
			result.Box.Right, result.Box.Bottom,
			result.Probability)
	}

	// summarise detection confidence
	summary := postprocess.Summarise(results)

	log.Printf("Detections=%d, score min=%.3f max=%.3f mean=%.3f stddev=%.3f\n",
		summary.Count, summary.Min, summary.Max, summary.Mean, summary.StdDev)

	render.TextBoxes(&img, scaled, render.DefaultFont(), 2)

	log.Printf("Saved image to %s\n", *saveFile)
	gocv.IMWrite(*saveFile, img)

	// close detector and release resources
	err = det.Close()

	if err != nil {
		log.Fatal("Error closing detector: ", err)
	}

	log.Println("done")
}
