package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/eastlite/go-eastlite"
	"github.com/eastlite/go-eastlite/pipeline"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// defaults come from the environment, cli flags override
	cfg := eastlite.ConfigFromEnv()

	modelFile := flag.String("m", cfg.ModelFile, "EAST frozen graph file")
	imgDir := flag.String("d", "../data", "Directory of image files to process")
	workers := flag.Int("w", cfg.Workers, "Number of detector instances to run in parallel")
	flag.Parse()

	cfg.ModelFile = *modelFile
	cfg.Workers = *workers

	imgFiles, err := imageFiles(*imgDir)

	if err != nil {
		log.Fatal("Error listing images: ", err)
	}

	if len(imgFiles) == 0 {
		log.Fatal("No image files found in: ", *imgDir)
	}

	p, err := pipeline.New(cfg)

	if err != nil {
		log.Fatal("Error creating pipeline: ", err)
	}

	defer p.Close()

	out := p.ProcessBatch(context.Background(), imgFiles)

	for _, imgFile := range imgFiles {
		texts, ok := out[imgFile]

		if !ok {
			// the failure was already logged by the pipeline
			continue
		}

		fmt.Printf("%s: %d regions\n", imgFile, len(texts))

		for _, rt := range texts {
			fmt.Printf("  %v score=%.2f: %s\n", rt.Rect, rt.Probability, rt.Text)
		}
	}

	log.Println("done")
}

// imageFiles lists the processable image files in a directory
func imageFiles(dir string) ([]string, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, err
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch filepath.Ext(entry.Name()) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	return files, nil
}
