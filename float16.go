package eastlite

import "github.com/x448/float16"

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// ConvertFloat16Buffer converts a raw FP16 tensor buffer to float32.
// Detector backends exporting half precision output maps can be wrapped
// as ScoreMap/GeometryMap after conversion.
func ConvertFloat16Buffer(buf []uint16) []float32 {

	out := make([]float32, len(buf))

	for i, bits := range buf {
		out[i] = f16LookupTable[bits]
	}

	return out
}
