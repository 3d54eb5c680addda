package miniaudio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-live/core/audio"
)

// Client owns the miniaudio context shared by the capture and playback
// devices it opens.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	inputRate  int
	outputRate int

	mu     sync.Mutex
	closed bool
}

type ClientOption func(*Client)

func WithInputSampleRate(rate int) ClientOption {
	return func(c *Client) {
		if rate > 0 {
			c.inputRate = rate
		}
	}
}

func WithOutputSampleRate(rate int) ClientOption {
	return func(c *Client) {
		if rate > 0 {
			c.outputRate = rate
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		inputRate:  audio.DefaultInputSampleRate,
		outputRate: audio.DefaultOutputSampleRate,
	}
	for _, opt := range opts {
		opt(client)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", slog.String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	client.audioContext = audioCtx

	return client, nil
}

func (c *Client) Input() *Input {
	return &Input{client: c}
}

func (c *Client) Output() *Output {
	return &Output{client: c}
}

// Close releases the audio context. Devices opened from the client must be
// closed first.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.audioContext.Uninit()
	c.audioContext.Free()
	if err != nil {
		return fmt.Errorf("failed to uninitialize audio context: %w", err)
	}
	return nil
}

func (c *Client) context() (malgo.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return malgo.Context{}, fmt.Errorf("audio context closed")
	}
	return c.audioContext.Context, nil
}
