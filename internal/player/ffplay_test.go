package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestPlayCompletes(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "play.sh", "#!/usr/bin/env bash\ncat > /dev/null\n")
	p := NewFFPlay(Config{Command: script}, zerolog.Nop())

	handle, err := p.Play(context.Background(), []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case <-handle.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("playback did not finish")
	}
}

func TestStopInterruptsPlayback(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "slow.sh", "#!/usr/bin/env bash\nsleep 10\n")
	p := NewFFPlay(Config{Command: script}, zerolog.Nop())

	handle, err := p.Play(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	start := time.Now()
	handle.Stop()
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("stop took too long: %v", elapsed)
	}

	select {
	case <-handle.Done():
	case <-time.After(time.Second):
		t.Fatalf("process still running after stop")
	}
}

func TestStopAfterExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fast.sh", "#!/usr/bin/env bash\ncat > /dev/null\n")
	p := NewFFPlay(Config{Command: script}, zerolog.Nop())

	handle, err := p.Play(context.Background(), nil)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	<-handle.Done()
	handle.Stop()
	handle.Stop()
}

func TestPlayMissingCommand(t *testing.T) {
	t.Parallel()

	p := NewFFPlay(Config{Command: "/nonexistent/ffplay"}, zerolog.Nop())
	if _, err := p.Play(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected start failure")
	}
}
