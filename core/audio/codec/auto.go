package codec

import (
	"fmt"

	"github.com/koscakluka/ema-live/core/audio"
)

type decoder interface {
	Decode(payload []byte, mimeType string) (audio.Buffer, error)
}

// Auto picks a decoder by the payload's media type. PCM is assumed when the
// type is missing.
type Auto struct {
	pcm  PCM16
	opus decoder
}

// NewAuto builds a decoder for the given output rate. Opus support is
// optional; without it opus payloads fail to decode.
func NewAuto(outputRate int, opus decoder) *Auto {
	return &Auto{pcm: NewPCM16(outputRate), opus: opus}
}

func (a *Auto) Decode(payload []byte, mimeType string) (audio.Buffer, error) {
	switch mediaType(mimeType) {
	case "", "audio/pcm", "audio/l16", "audio/x-l16":
		return a.pcm.Decode(payload, mimeType)
	case "audio/opus":
		if a.opus == nil {
			return audio.Buffer{}, fmt.Errorf("opus payloads are not supported by this decoder")
		}
		return a.opus.Decode(payload, mimeType)
	}
	return audio.Buffer{}, fmt.Errorf("unsupported audio mime type %q", mimeType)
}
