package miniaudio

import (
	"encoding/binary"
	"math"
)

const bytesPerSample = 4

// readSamples decodes little-endian float32 device bytes into dst and
// returns the filled prefix.
func readSamples(dst []float32, src []byte) []float32 {
	n := min(len(dst), len(src)/bytesPerSample)
	for i := range n {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*bytesPerSample:]))
	}
	return dst[:n]
}

func writeSamples(dst []byte, src []float32) {
	n := min(len(src), len(dst)/bytesPerSample)
	for i := range n {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(src[i]))
	}
}
