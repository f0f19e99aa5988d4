package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/field-survey/model"
)

const DefaultGeoTimeout = 10 * time.Second

type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// Accept a cached fix no older than this; zero asks for a fresh one.
	MaximumAge time.Duration
}

func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      DefaultGeoTimeout,
	}
}

type Locator interface {
	Locate(ctx context.Context, opts Options) (model.Location, error)
}

type LocatorFunc func(ctx context.Context, opts Options) (model.Location, error)

func (f LocatorFunc) Locate(ctx context.Context, opts Options) (model.Location, error) {
	return f(ctx, opts)
}

// NoLocator is used where the runtime has no positioning capability.
type NoLocator struct{}

func (NoLocator) Locate(context.Context, Options) (model.Location, error) {
	return model.Location{}, ErrUnsupported
}

// StaticLocator reports a fixed position, typically configured for a
// stationary field device. A nil position is unavailable.
type StaticLocator struct {
	Position *model.Location
}

func (l StaticLocator) Locate(ctx context.Context, _ Options) (model.Location, error) {
	if err := ctx.Err(); err != nil {
		return model.Location{}, err
	}
	if l.Position == nil {
		return model.Location{}, ErrPositionUnavailable
	}
	return *l.Position, nil
}

// Capture makes a single attempt to locate the device within opts.Timeout.
// Errors are always *Error values.
func Capture(ctx context.Context, locator Locator, opts Options) (model.Location, error) {
	if locator == nil {
		return model.Location{}, ErrUnsupported
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGeoTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	type result struct {
		loc model.Location
		err error
	}
	// buffered so a locator ignoring ctx cannot leak the goroutine blocked
	ch := make(chan result, 1)
	go func() {
		loc, err := locator.Locate(ctx, opts)
		ch <- result{loc, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return model.Location{}, classifyLocate(res.err)
		}
		return res.loc, nil
	case <-ctx.Done():
		return model.Location{}, classifyLocate(ctx.Err())
	}
}

func classifyLocate(err error) error {
	switch {
	case CodeOf(err) != CodeUnknown:
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return wrap(CodeTimeout, err)
	default:
		return wrap(CodePositionUnavailable, err)
	}
}

var locationMessages = map[Code]string{
	CodePermissionDenied:    "Permission denied. Please enable location access in device settings.",
	CodePositionUnavailable: "Position unavailable. Ensure location services are enabled on your device.",
	CodeTimeout:             "Request timeout. Location service took too long.",
}

// LocationMessage renders the operator message for a failed capture.
func LocationMessage(err error) string {
	code := CodeOf(err)
	if code == CodeUnsupported {
		return "Geolocation not supported. Survey will continue without GPS data."
	}
	detail, ok := locationMessages[code]
	if !ok {
		detail = "Unknown geolocation error."
	}
	return fmt.Sprintf("Location unavailable (%d): %s Survey will continue without GPS data.", code, detail)
}
