// Package player plays synthesized audio through an ffplay subprocess.
package player

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Shayan12456/PromptLens/internal/ports"
)

// Config describes the playback command.
type Config struct {
	Command string
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = "ffplay"
	}
	return c
}

// FFPlay implements ports.AudioPlayer. Each Play spawns one ffplay
// process fed over stdin; the process exits on its own when the audio
// ends.
type FFPlay struct {
	cfg Config
	log zerolog.Logger
}

func NewFFPlay(cfg Config, log zerolog.Logger) *FFPlay {
	return &FFPlay{cfg: cfg.withDefaults(), log: log}
}

func (p *FFPlay) Play(ctx context.Context, audio []byte) (ports.PlaybackHandle, error) {
	cmd := exec.CommandContext(ctx, p.cfg.Command,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", "pipe:0",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open playback stdin")
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start playback")
	}

	h := &handle{process: cmd.Process, done: make(chan struct{})}

	go func() {
		if _, err := stdin.Write(audio); err != nil {
			p.log.Debug().Err(err).Msg("playback stdin write interrupted")
		}
		_ = stdin.Close()
	}()
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()

	return h, nil
}

type handle struct {
	process  *os.Process
	done     chan struct{}
	stopOnce sync.Once
}

// Stop interrupts the player, escalating to a kill when it does not exit
// promptly. Safe to call after the process has already finished.
func (h *handle) Stop() {
	h.stopOnce.Do(func() {
		_ = h.process.Signal(os.Interrupt)
		select {
		case <-h.done:
		case <-time.After(1200 * time.Millisecond):
			_ = h.process.Kill()
			<-h.done
		}
	})
}

func (h *handle) Done() <-chan struct{} {
	return h.done
}
