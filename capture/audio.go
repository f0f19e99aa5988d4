package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Stream is a live microphone stream. Close releases the device.
type Stream interface {
	io.Reader
	io.Closer
}

type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

// NoMicrophone is used where the runtime has no recording capability.
type NoMicrophone struct{}

func (NoMicrophone) Open(context.Context) (Stream, error) {
	return nil, ErrUnsupported
}

var ErrRecorderStopped = errors.New("capture: recorder stopped")

type recorderState int

const (
	recorderIdle recorderState = iota
	recorderAcquiring
	recorderReady
	recorderRecording
	recorderStopped
)

const chunkSize = 32 * 1024

// Recorder is a single-use audio capture: Acquire, Start, then Stop.
// The device is released on every path out of the recorder.
type Recorder struct {
	mic  Microphone
	mime string

	mu       sync.Mutex
	state    recorderState
	stream   Stream
	released bool
	chunks   [][]byte
	readErr  error
	done     chan struct{}
}

func NewRecorder(mic Microphone, mime string) *Recorder {
	return &Recorder{mic: mic, mime: mime}
}

// Acquire opens the microphone. If the recorder is stopped while the device
// is being opened, the late stream is closed right away.
func (r *Recorder) Acquire(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case recorderIdle:
	case recorderStopped:
		r.mu.Unlock()
		return ErrRecorderStopped
	default:
		r.mu.Unlock()
		return errors.New("capture: recorder already acquired")
	}
	r.state = recorderAcquiring
	r.mu.Unlock()

	stream, err := r.mic.Open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = recorderStopped
		if CodeOf(err) == CodeUnknown {
			err = wrap(CodeDeviceUnavailable, err)
		}
		return err
	}
	if r.state == recorderStopped {
		if cerr := stream.Close(); cerr != nil {
			return multierror.Append(ErrRecorderStopped, cerr)
		}
		return ErrRecorderStopped
	}
	r.stream = stream
	r.state = recorderReady
	return nil
}

// Start begins buffering audio chunks in memory.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case recorderReady:
	case recorderStopped:
		return ErrRecorderStopped
	default:
		return errors.New("capture: recorder not ready")
	}
	r.state = recorderRecording
	r.done = make(chan struct{})
	go r.read(r.stream, r.done)
	return nil
}

func (r *Recorder) read(stream Stream, done chan struct{}) {
	defer close(done)
	buf := make([]byte, chunkSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			r.mu.Lock()
			r.chunks = append(r.chunks, chunk)
			r.mu.Unlock()
		}
		if err != nil {
			r.mu.Lock()
			// errors after release are the stream shutting down
			if !errors.Is(err, io.EOF) && !r.released {
				r.readErr = err
			}
			r.mu.Unlock()
			return
		}
	}
}

// Stop releases the device and returns the recording as a base64 data URL.
// It returns nil audio when recording never started or nothing was read.
// Encoding runs asynchronously and Stop waits for it, bounded by ctx.
func (r *Recorder) Stop(ctx context.Context) (*string, error) {
	r.mu.Lock()
	state := r.state
	r.state = recorderStopped
	done := r.done
	r.mu.Unlock()

	switch state {
	case recorderIdle, recorderAcquiring, recorderStopped:
		return nil, nil
	case recorderReady:
		return nil, r.Release()
	}

	var result *multierror.Error
	if err := r.Release(); err != nil {
		result = multierror.Append(result, err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, multierror.Append(result, ctx.Err()).ErrorOrNil()
	}

	r.mu.Lock()
	chunks := r.chunks
	r.chunks = nil
	if r.readErr != nil {
		result = multierror.Append(result, r.readErr)
	}
	r.mu.Unlock()

	if len(chunks) == 0 {
		return nil, result.ErrorOrNil()
	}

	encoded := make(chan string, 1)
	go func() {
		encoded <- EncodeDataURL(r.mime, bytes.Join(chunks, nil))
	}()

	select {
	case s := <-encoded:
		return &s, result.ErrorOrNil()
	case <-ctx.Done():
		return nil, multierror.Append(result, ctx.Err()).ErrorOrNil()
	}
}

// Release closes the device stream. It is safe to call more than once and
// from any state; buffered audio is dropped if recording was in progress.
func (r *Recorder) Release() error {
	r.mu.Lock()
	r.state = recorderStopped
	if r.stream == nil || r.released {
		r.mu.Unlock()
		return nil
	}
	r.released = true
	stream := r.stream
	r.mu.Unlock()

	return stream.Close()
}

func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
