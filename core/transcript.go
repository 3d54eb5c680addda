package live

import (
	"strings"
	"sync"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerTutor Speaker = "tutor"
)

// Utterance is one speaker's finished contribution to a turn.
type Utterance struct {
	Speaker Speaker
	Text    string
	Turn    int
}

// TranscriptAggregator buffers transcription deltas per speaker and turns
// them into utterances at turn boundaries. Appends are only safe from a
// single goroutine; History may be called from anywhere.
type TranscriptAggregator struct {
	user  strings.Builder
	tutor strings.Builder

	history []Utterance
	mu      sync.RWMutex
}

func NewTranscriptAggregator() *TranscriptAggregator {
	return &TranscriptAggregator{}
}

// AppendInput adds a user delta verbatim.
func (a *TranscriptAggregator) AppendInput(delta string) {
	a.user.WriteString(delta)
}

// AppendOutput adds a tutor delta verbatim.
func (a *TranscriptAggregator) AppendOutput(delta string) {
	a.tutor.WriteString(delta)
}

// CompleteTurn emits the user utterance, then the tutor utterance, for
// whichever buffers hold non-blank text, and resets both buffers.
func (a *TranscriptAggregator) CompleteTurn(turn int) []Utterance {
	var emitted []Utterance
	if text := strings.TrimSpace(a.user.String()); text != "" {
		emitted = append(emitted, Utterance{Speaker: SpeakerUser, Text: text, Turn: turn})
	}
	if text := strings.TrimSpace(a.tutor.String()); text != "" {
		emitted = append(emitted, Utterance{Speaker: SpeakerTutor, Text: text, Turn: turn})
	}
	a.user.Reset()
	a.tutor.Reset()

	if len(emitted) > 0 {
		a.mu.Lock()
		a.history = append(a.history, emitted...)
		a.mu.Unlock()
	}
	return emitted
}

// History returns a copy of every utterance emitted so far.
func (a *TranscriptAggregator) History() []Utterance {
	a.mu.RLock()
	defer a.mu.RUnlock()

	history := make([]Utterance, len(a.history))
	copy(history, a.history)
	return history
}

// Pending reports the buffered, not yet emitted text per speaker.
func (a *TranscriptAggregator) Pending() (user, tutor string) {
	return a.user.String(), a.tutor.String()
}
