package capture

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	chunks chan []byte
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{chunks: make(chan []byte, 16), done: make(chan struct{})}
}

func (s *fakeStream) Read(p []byte) (int, error) {
	select {
	case c := <-s.chunks:
		return copy(p, c), nil
	case <-s.done:
		// drain what was written before the device was released
		select {
		case c := <-s.chunks:
			return copy(p, c), nil
		default:
			return 0, io.EOF
		}
	}
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeMic struct {
	stream *fakeStream
	err    error
	gate   chan struct{}
}

func (m *fakeMic) Open(ctx context.Context) (Stream, error) {
	if m.gate != nil {
		<-m.gate
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func TestRecorderRecordsAndEncodes(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorder(&fakeMic{stream: stream}, "audio/webm")

	require.NoError(t, rec.Acquire(context.Background()))
	require.NoError(t, rec.Start())

	stream.chunks <- []byte("hello ")
	stream.chunks <- []byte("world")

	audio, err := rec.Stop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, EncodeDataURL("audio/webm", []byte("hello world")), *audio)
	assert.True(t, strings.HasPrefix(*audio, "data:audio/webm;base64,"))
	assert.True(t, stream.isClosed(), "device must be released")
}

func TestRecorderStopTwice(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorder(&fakeMic{stream: stream}, "audio/webm")
	require.NoError(t, rec.Acquire(context.Background()))
	require.NoError(t, rec.Start())
	stream.chunks <- []byte("x")

	audio, err := rec.Stop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, audio)

	audio, err = rec.Stop(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, audio)
}

func TestRecorderAcquireFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission", ErrPermissionDenied, ErrPermissionDenied},
		{"unsupported", ErrUnsupported, ErrUnsupported},
		{"other", errors.New("busy"), ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder(&fakeMic{err: tt.err}, "audio/webm")

			err := rec.Acquire(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Error(t, rec.Start())

			audio, err := rec.Stop(context.Background())
			assert.NoError(t, err)
			assert.Nil(t, audio)
		})
	}
}

func TestRecorderStopBeforeStartReleases(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorder(&fakeMic{stream: stream}, "audio/webm")
	require.NoError(t, rec.Acquire(context.Background()))

	audio, err := rec.Stop(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, audio)
	assert.True(t, stream.isClosed())
}

func TestRecorderStartAfterStop(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorder(&fakeMic{stream: stream}, "audio/webm")
	require.NoError(t, rec.Acquire(context.Background()))

	_, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, rec.Start(), ErrRecorderStopped)
}

func TestRecorderStopDuringAcquireReleasesLateStream(t *testing.T) {
	stream := newFakeStream()
	mic := &fakeMic{stream: stream, gate: make(chan struct{})}
	rec := NewRecorder(mic, "audio/webm")

	acquired := make(chan error, 1)
	go func() { acquired <- rec.Acquire(context.Background()) }()

	// wait for Acquire to be blocked in Open
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.state == recorderAcquiring
	}, time.Second, time.Millisecond)

	audio, err := rec.Stop(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, audio)

	close(mic.gate)
	assert.ErrorIs(t, <-acquired, ErrRecorderStopped)
	assert.True(t, stream.isClosed())
}

func TestRecorderReleaseWhileRecording(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorder(&fakeMic{stream: stream}, "audio/webm")
	require.NoError(t, rec.Acquire(context.Background()))
	require.NoError(t, rec.Start())

	require.NoError(t, rec.Release())
	require.NoError(t, rec.Release())
	assert.True(t, stream.isClosed())

	audio, err := rec.Stop(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, audio)
}

func TestNoMicrophone(t *testing.T) {
	_, err := NoMicrophone{}.Open(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCommandMicrophone(t *testing.T) {
	mic := CommandMicrophone{Command: []string{"sh", "-c", "printf hello; exec sleep 5"}}
	stream, err := mic.Open(context.Background())
	if errors.Is(err, ErrUnsupported) {
		t.Skip("sh not available")
	}
	require.NoError(t, err)

	rec := &Recorder{mic: &fakeMic{}, mime: "audio/wav", state: recorderReady, stream: stream}
	require.NoError(t, rec.Start())

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.chunks) > 0
	}, 2*time.Second, 5*time.Millisecond)

	start := time.Now()
	audio, err := rec.Stop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, EncodeDataURL("audio/wav", []byte("hello")), *audio)
	assert.Less(t, time.Since(start), 4*time.Second, "recorder must be interrupted, not waited out")
}

func TestCommandMicrophoneMissing(t *testing.T) {
	_, err := CommandMicrophone{Command: []string{"no-such-recorder-binary"}}.Open(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = CommandMicrophone{}.Open(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}
