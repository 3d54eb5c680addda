package live

import (
	"errors"
	"fmt"
	"log/slog"
)

// releaseConnectResult frees resources from a connection nobody will adopt,
// microphone first.
func (c *Controller) releaseConnectResult(res connectResult) {
	var errs []error
	if res.mic != nil {
		if err := res.mic.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close microphone: %w", err))
		}
	}
	if res.output != nil {
		if err := res.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close output device: %w", err))
		}
	}
	if res.handle != nil {
		if err := res.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.Warn("failed to release superseded connection", slog.Any("error", err))
	}
}
