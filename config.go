package eastlite

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the detection and recognition pipeline.
// All values are explicit, nothing is read from globals at run time.
type Config struct {
	// ModelFile is the path to the frozen EAST detection graph
	ModelFile string
	// InputWidth and InputHeight are the detector input dimensions,
	// must be multiples of 32
	InputWidth  int
	InputHeight int
	// ConfidenceThreshold is the minimum score map value for a grid
	// cell to produce a candidate box
	ConfidenceThreshold float32
	// NMSThreshold is the maximum IoU two surviving boxes may share
	NMSThreshold float32
	// Margin is the number of pixels each region is expanded by in
	// every direction before cropping
	Margin int
	// UpscaleFactor is applied to each crop with cubic interpolation
	// to improve legibility for the recogniser
	UpscaleFactor float64
	// Language is the Tesseract language code, eg "por" or "eng"
	Language string
	// TessdataPrefix optionally points at the directory holding the
	// Tesseract language training data
	TessdataPrefix string
	// Timeout bounds the detector forward pass per image, zero means
	// no timeout
	Timeout time.Duration
	// Workers is the number of detector instances used for batch
	// processing
	Workers int
}

// DefaultConfig returns a Config with the conventional EAST settings:
// 320x320 input, 0.9 confidence threshold for fresh detections, 0.3 NMS
// overlap threshold, 5 pixel crop margin and 1.5x crop upscale.
func DefaultConfig() Config {
	return Config{
		ModelFile:           "frozen_east_text_detection.pb",
		InputWidth:          320,
		InputHeight:         320,
		ConfidenceThreshold: 0.9,
		NMSThreshold:        0.3,
		Margin:              5,
		UpscaleFactor:       1.5,
		Language:            "eng",
		Workers:             1,
	}
}

// ConfigFromEnv builds a Config from environment variables, loading a
// .env file first when one exists.  Unset variables keep their defaults.
func ConfigFromEnv() Config {

	// missing .env file is fine, plain environment variables still apply
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.ModelFile = getEnv("EAST_MODEL", cfg.ModelFile)
	cfg.InputWidth = getEnvAsInt("EAST_INPUT_WIDTH", cfg.InputWidth)
	cfg.InputHeight = getEnvAsInt("EAST_INPUT_HEIGHT", cfg.InputHeight)
	cfg.ConfidenceThreshold = getEnvAsFloat32("EAST_CONFIDENCE_THRESHOLD", cfg.ConfidenceThreshold)
	cfg.NMSThreshold = getEnvAsFloat32("EAST_NMS_THRESHOLD", cfg.NMSThreshold)
	cfg.Margin = getEnvAsInt("EAST_CROP_MARGIN", cfg.Margin)
	cfg.UpscaleFactor = getEnvAsFloat64("EAST_CROP_UPSCALE", cfg.UpscaleFactor)
	cfg.Language = getEnv("OCR_LANGUAGE", cfg.Language)
	cfg.TessdataPrefix = getEnv("OCR_TESSDATA_PREFIX", cfg.TessdataPrefix)
	cfg.Workers = getEnvAsInt("EAST_WORKERS", cfg.Workers)

	if ms := getEnvAsInt("EAST_TIMEOUT_MS", 0); ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
