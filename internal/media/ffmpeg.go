// Package media provides ffmpeg-backed microphone and screen capture.
// Streams are acquired once per share session; each voice turn starts a
// fresh recorder process whose container output is accumulated chunk by
// chunk and assembled on drain.
package media

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Shayan12456/PromptLens/internal/ports"
)

const (
	// AudioMIMEType is the container produced by microphone recorders.
	AudioMIMEType = "audio/webm"
	// VideoMIMEType is the container produced by screen recorders.
	VideoMIMEType = "video/webm"
)

// MicrophoneConfig describes the microphone device.
type MicrophoneConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
}

func (c MicrophoneConfig) withDefaults() MicrophoneConfig {
	if c.Command == "" {
		c.Command = "ffmpeg"
	}
	if c.InputFormat == "" {
		c.InputFormat = "pulse"
	}
	if c.InputDevice == "" {
		c.InputDevice = "default"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	return c
}

// ScreenConfig describes the display grab.
type ScreenConfig struct {
	Command     string
	InputFormat string
	Display     string
	FrameRate   int
}

func (c ScreenConfig) withDefaults() ScreenConfig {
	if c.Command == "" {
		c.Command = "ffmpeg"
	}
	if c.InputFormat == "" {
		c.InputFormat = "x11grab"
	}
	if c.Display == "" {
		c.Display = ":0.0"
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 15
	}
	return c
}

// Microphone acquires microphone streams.
type Microphone struct {
	cfg MicrophoneConfig
}

func NewMicrophone(cfg MicrophoneConfig) *Microphone {
	return &Microphone{cfg: cfg.withDefaults()}
}

// Acquire probes the device and returns the live microphone stream. A
// probe failure means capture permission or the device is unavailable.
func (m *Microphone) Acquire(ctx context.Context) (ports.MediaStream, error) {
	cfg := m.cfg
	if err := probe(ctx, cfg.Command,
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-t", "0.1",
		"-f", "null", "-",
	); err != nil {
		return nil, errors.Wrap(err, "microphone unavailable")
	}
	return &stream{
		command: cfg.Command,
		recorderArgs: []string{
			"-f", cfg.InputFormat,
			"-i", cfg.InputDevice,
			"-ac", strconv.Itoa(cfg.Channels),
			"-ar", strconv.Itoa(cfg.SampleRate),
			"-c:a", "libopus",
			"-f", "webm",
			"-",
		},
	}, nil
}

// Screen acquires display streams.
type Screen struct {
	cfg ScreenConfig
}

func NewScreen(cfg ScreenConfig) *Screen {
	return &Screen{cfg: cfg.withDefaults()}
}

// Acquire probes the display grab and returns the live screen stream.
func (s *Screen) Acquire(ctx context.Context) (ports.MediaStream, error) {
	cfg := s.cfg
	if err := probe(ctx, cfg.Command,
		"-f", cfg.InputFormat,
		"-i", cfg.Display,
		"-frames:v", "1",
		"-f", "null", "-",
	); err != nil {
		return nil, errors.Wrap(err, "screen capture unavailable")
	}
	return &stream{
		command: cfg.Command,
		recorderArgs: []string{
			"-f", cfg.InputFormat,
			"-framerate", strconv.Itoa(cfg.FrameRate),
			"-i", cfg.Display,
			"-c:v", "libvpx",
			"-deadline", "realtime",
			"-cpu-used", "8",
			"-f", "webm",
			"-",
		},
	}, nil
}

// PCMTap starts a long-running raw PCM capture on the microphone, used by
// the speech detector. The returned reader yields s16le samples.
func PCMTap(ctx context.Context, cfg MicrophoneConfig) (io.ReadCloser, error) {
	cfg = cfg.withDefaults()
	args := append(baseArgs(),
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	)

	cmd := exec.CommandContext(ctx, cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tap stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start pcm tap")
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		return nil, errors.Errorf("pcm tap exited before capture started: %v: %s", err, strings.TrimSpace(stderr.String()))
	case <-time.After(250 * time.Millisecond):
	}

	return &tap{stdout: stdout, process: cmd.Process, waitErr: waitErr}, nil
}

type tap struct {
	stdout  io.ReadCloser
	process *os.Process
	waitErr <-chan error

	closeOnce sync.Once
	closeErr  error
}

func (t *tap) Read(p []byte) (int, error) {
	return t.stdout.Read(p)
}

func (t *tap) Close() error {
	t.closeOnce.Do(func() {
		if t.process != nil {
			_ = t.process.Signal(os.Interrupt)
		}
		select {
		case err := <-t.waitErr:
			t.closeErr = normalizeExitErr(err)
		case <-time.After(1200 * time.Millisecond):
			if t.process != nil {
				_ = t.process.Kill()
			}
			t.closeErr = normalizeExitErr(<-t.waitErr)
		}
		_ = t.stdout.Close()
	})
	return t.closeErr
}

// stream spawns one recorder process per voice turn.
type stream struct {
	command      string
	recorderArgs []string

	mu     sync.Mutex
	closed bool
}

func (s *stream) StartRecorder(ctx context.Context) (ports.MediaRecorder, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("stream is closed")
	}
	return startRecorder(ctx, s.command, s.recorderArgs)
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// recorder accumulates container chunks from the encoder's stdout. Chunks
// travel over a channel so accumulation never depends on caller timing.
type recorder struct {
	process *os.Process
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	waitErr <-chan error

	chunks    chan []byte
	assembled chan []byte

	haltOnce sync.Once
}

func startRecorder(ctx context.Context, command string, args []string) (*recorder, error) {
	cmd := exec.CommandContext(ctx, command, append(baseArgs(), args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create recorder stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start recorder")
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	r := &recorder{
		process:   cmd.Process,
		stdout:    stdout,
		stderr:    &stderr,
		waitErr:   waitErr,
		chunks:    make(chan []byte, 64),
		assembled: make(chan []byte, 1),
	}

	go r.readChunks(stdout)
	go r.accumulate()

	return r, nil
}

func (r *recorder) readChunks(stdout io.ReadCloser) {
	defer close(r.chunks)
	buf := make([]byte, 32*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			r.chunks <- chunk
		}
		if err != nil {
			return
		}
	}
}

func (r *recorder) accumulate() {
	var out []byte
	for chunk := range r.chunks {
		out = append(out, chunk...)
	}
	r.assembled <- out
}

// Halt asks the encoder to finalize its output. The remaining buffered
// chunks keep flowing until the process exits.
func (r *recorder) Halt() error {
	r.haltOnce.Do(func() {
		if r.process != nil {
			_ = r.process.Signal(os.Interrupt)
		}
	})
	return nil
}

// Drain waits for the flush to complete and returns the assembled capture.
func (r *recorder) Drain(ctx context.Context) ([]byte, error) {
	_ = r.Halt()

	select {
	case <-r.waitErr:
	case <-time.After(1200 * time.Millisecond):
		if r.process != nil {
			_ = r.process.Kill()
		}
		<-r.waitErr
	case <-ctx.Done():
		if r.process != nil {
			_ = r.process.Kill()
		}
		<-r.waitErr
	}

	// The encoder has exited; the reader normally hits EOF right away.
	// Force the pipe closed if something inherited the write end.
	select {
	case out := <-r.assembled:
		return out, nil
	case <-time.After(500 * time.Millisecond):
		_ = r.stdout.Close()
	case <-ctx.Done():
		_ = r.stdout.Close()
	}

	select {
	case out := <-r.assembled:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func probe(ctx context.Context, command string, args ...string) error {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, command, append(baseArgs(), args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return err
		}
		return errors.Errorf("%v: %s", err, detail)
	}
	return nil
}

func baseArgs() []string {
	return []string{"-nostdin", "-hide_banner", "-loglevel", "warning"}
}

func normalizeExitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
