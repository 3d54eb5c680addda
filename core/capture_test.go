package live

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
	"pgregory.net/rapid"
)

func newTestPipeline(frameSize, queueSize int) *capturePipeline {
	return newCapturePipeline(audio.GetDefaultEncodingInfo(), frameSize, queueSize, logger, nil)
}

func TestThreeFramesAreSentInOrder(t *testing.T) {
	pipeline := newTestPipeline(audio.DefaultFrameSize, 8)
	handle := &fakeHandle{}

	done := make(chan error, 1)
	go func() { done <- pipeline.run(context.Background(), handle) }()

	samples := make([]float32, 3*audio.DefaultFrameSize)
	for i := 0; i < len(samples); i += 1000 {
		pipeline.Write(samples[i:min(i+1000, len(samples))])
	}
	pipeline.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected sender error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for sender to drain")
	}

	sent := handle.sentFrames()
	if len(sent) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(sent))
	}
	for i, frame := range sent {
		if frame.Sequence != uint64(i+1) {
			t.Fatalf("frame %d: expected sequence %d, got %d", i, i+1, frame.Sequence)
		}
		if len(frame.Data) != 8192 {
			t.Fatalf("frame %d: expected 8192 bytes, got %d", i, len(frame.Data))
		}
	}
}

func TestFullQueueDropsNewestFrames(t *testing.T) {
	pipeline := newTestPipeline(4, 1)

	pipeline.Write(make([]float32, 12))

	if len(pipeline.queue) != 1 {
		t.Fatalf("expected 1 queued frame, got %d", len(pipeline.queue))
	}
	if frame := <-pipeline.queue; frame.Sequence != 1 {
		t.Fatalf("expected the first frame to survive, got sequence %d", frame.Sequence)
	}
}

func TestPartialFrameIsHeldUntilComplete(t *testing.T) {
	pipeline := newTestPipeline(4, 4)

	pipeline.Write([]float32{0.1, 0.2, 0.3})
	if len(pipeline.queue) != 0 {
		t.Fatalf("expected no frame before the frame is full")
	}

	pipeline.Write([]float32{0.4, 0.5})
	if len(pipeline.queue) != 1 {
		t.Fatalf("expected one complete frame, got %d", len(pipeline.queue))
	}

	frame := <-pipeline.queue
	expected := audio.EncodePCM16LE([]float32{0.1, 0.2, 0.3, 0.4})
	if !bytes.Equal(frame.Data, expected) {
		t.Fatalf("expected frame to hold the first four samples")
	}
}

func TestClosedPipelineIgnoresWrites(t *testing.T) {
	pipeline := newTestPipeline(4, 4)
	pipeline.Close()
	pipeline.Close()

	pipeline.Write(make([]float32, 8))

	if _, ok := <-pipeline.queue; ok {
		t.Fatalf("expected closed queue to stay empty")
	}
}

func TestSendFailureIsTransportError(t *testing.T) {
	pipeline := newTestPipeline(4, 4)
	handle := &fakeHandle{sendErr: errors.New("socket closed")}

	pipeline.Write(make([]float32, 4))

	err := pipeline.run(context.Background(), handle)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.Op != "send" {
		t.Fatalf("expected send transport error, got %v", err)
	}
}

func TestCancelledSenderReturnsCleanly(t *testing.T) {
	pipeline := newTestPipeline(4, 4)
	pipeline.Write(make([]float32, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pipeline.run(ctx, &fakeHandle{sendErr: errors.New("ignored")}); err != nil {
		t.Fatalf("expected nil error after cancel, got %v", err)
	}
}

func TestFramingPreservesSamplesAndOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frameSize := rapid.IntRange(1, 64).Draw(t, "frameSize")
		chunks := rapid.SliceOf(rapid.SliceOfN(rapid.Float32Range(-1, 1), 0, 100)).Draw(t, "chunks")

		var all []float32
		for _, chunk := range chunks {
			all = append(all, chunk...)
		}
		frames := len(all) / frameSize

		pipeline := newTestPipeline(frameSize, frames+1)
		for _, chunk := range chunks {
			pipeline.Write(chunk)
		}
		pipeline.Close()

		var got []audio.OutboundFrame
		for frame := range pipeline.queue {
			got = append(got, frame)
		}

		if len(got) != frames {
			t.Fatalf("expected %d frames, got %d", frames, len(got))
		}
		for i, frame := range got {
			if frame.Sequence != uint64(i+1) {
				t.Fatalf("frame %d has sequence %d", i, frame.Sequence)
			}
			expected := audio.EncodePCM16LE(all[i*frameSize : (i+1)*frameSize])
			if !bytes.Equal(frame.Data, expected) {
				t.Fatalf("frame %d payload does not match captured samples", i)
			}
		}
	})
}
