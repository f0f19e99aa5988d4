package capture

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
)

// drainTimeout bounds how long Close waits for a reader to consume what the
// recorder process wrote before it exited.
const drainTimeout = 2 * time.Second

// CommandMicrophone records by running an external recorder (arecord, sox,
// ffmpeg...) that writes the encoded audio to stdout.
type CommandMicrophone struct {
	Command []string
}

func (m CommandMicrophone) Open(ctx context.Context) (Stream, error) {
	if len(m.Command) == 0 {
		return nil, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap(CodeDeviceUnavailable, err)
	}

	path, err := exec.LookPath(m.Command[0])
	if err != nil {
		return nil, wrap(CodeUnsupported, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, wrap(CodeDeviceUnavailable, err)
	}

	// not CommandContext: the recording outlives the acquire context
	cmd := exec.Command(path, m.Command[1:]...)
	cmd.Stdout = w
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		if errors.Is(err, os.ErrPermission) {
			return nil, wrap(CodePermissionDenied, err)
		}
		return nil, wrap(CodeDeviceUnavailable, err)
	}
	// the child holds its own copy of the write end
	w.Close()

	return &commandStream{
		cmd:     cmd,
		out:     r,
		drained: make(chan struct{}),
	}, nil
}

type commandStream struct {
	cmd *exec.Cmd
	out *os.File

	reading   atomic.Bool
	drained   chan struct{}
	drainOnce sync.Once

	closeOnce sync.Once
	closeErr  error
}

func (s *commandStream) Read(p []byte) (int, error) {
	s.reading.Store(true)
	n, err := s.out.Read(p)
	if err != nil {
		s.drainOnce.Do(func() { close(s.drained) })
	}
	return n, err
}

// Close interrupts the recorder so it can finalize its output, waits for the
// process, then closes the pipe once the reader has drained it.
func (s *commandStream) Close() error {
	s.closeOnce.Do(func() {
		var result *multierror.Error

		if err := s.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			if kerr := s.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				result = multierror.Append(result, kerr)
			}
		}

		var exitErr *exec.ExitError
		if err := s.cmd.Wait(); err != nil && !errors.As(err, &exitErr) {
			result = multierror.Append(result, err)
		}

		if s.reading.Load() {
			select {
			case <-s.drained:
			case <-time.After(drainTimeout):
			}
		}
		if err := s.out.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		s.closeErr = result.ErrorOrNil()
	})
	return s.closeErr
}
