package portaudio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-live/core/audio"
)

// Client owns the PortAudio library lifetime. Streams opened from it use
// blocking reads and writes on their own goroutines.
type Client struct {
	bufferSize int
	inputRate  int
	outputRate int

	mu     sync.Mutex
	closed bool
}

// blockingStream is the part of *portaudio.Stream the devices drive.
type blockingStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
	Write() error
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

func NewClient(bufferSize int, opts ...ClientOption) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	client := &Client{
		bufferSize: bufferSize,
		inputRate:  audio.DefaultInputSampleRate,
		outputRate: audio.DefaultOutputSampleRate,
	}
	for _, opt := range opts {
		opt(client)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return client, nil
}

func (c *Client) Input() *Input {
	return &Input{client: c}
}

func (c *Client) Output() *Output {
	return &Output{client: c}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

func (c *Client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("portaudio client closed")
	}
	return nil
}
