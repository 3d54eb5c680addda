package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/tutors"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const speakerIndent = 4

// transcriptPrinter writes status lines and newly completed utterances.
// The transcript callback hands over the full history each time; only the
// tail that has not been printed yet is written.
type transcriptPrinter struct {
	out       io.Writer
	tutorName string
	width     int

	printed int
	mu      sync.Mutex
}

func newTranscriptPrinter(out io.Writer, tutorName string, width int) *transcriptPrinter {
	if width <= speakerIndent {
		width = 80
	}
	return &transcriptPrinter{out: out, tutorName: tutorName, width: width}
}

func (p *transcriptPrinter) Status(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "* %s\n", message)
}

func (p *transcriptPrinter) Transcript(history []live.Utterance) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(history) < p.printed {
		p.printed = 0
	}
	for _, utterance := range history[p.printed:] {
		speaker := "You"
		if utterance.Speaker == live.SpeakerTutor {
			speaker = p.tutorName
		}
		fmt.Fprintf(p.out, "%s:\n%s\n", speaker, p.wrap(utterance.Text))
	}
	p.printed = len(history)
}

func (p *transcriptPrinter) Block(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, wordwrap.String(text, p.width))
}

func (p *transcriptPrinter) wrap(text string) string {
	return indent.String(wordwrap.String(text, p.width-speakerIndent), speakerIndent)
}

func printRoster(out io.Writer, roster tutors.Roster) {
	for _, id := range roster.IDs() {
		profile := roster[id]
		voice := profile.Voice
		fmt.Fprintf(out, "%-10s %s (%s, pitch %.2f, rate %.2f, volume %.2f)\n",
			id, profile.Name, voice.Name, voice.Pitch, voice.Rate, voice.Volume)
		if profile.Title != "" {
			fmt.Fprintln(out, indent.String(wordwrap.String(strings.TrimSpace(profile.Title), 76), speakerIndent))
		}
	}
}
