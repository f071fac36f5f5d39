package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shayan12456/PromptLens/internal/domain"
	"github.com/Shayan12456/PromptLens/internal/ports"
)

type fakeRecorder struct {
	mu       sync.Mutex
	data     []byte
	drainErr error
	halted   bool
	haltedAt time.Time
}

func (r *fakeRecorder) Halt() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.halted {
		r.halted = true
		r.haltedAt = time.Now()
	}
	return nil
}

func (r *fakeRecorder) Drain(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data, r.drainErr
}

func (r *fakeRecorder) haltTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.haltedAt
}

type fakeStream struct {
	mu          sync.Mutex
	defaultData []byte
	startErr    error
	recorders   []*fakeRecorder
	closed      int
}

func (s *fakeStream) StartRecorder(ctx context.Context) (ports.MediaRecorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	rec := &fakeRecorder{data: s.defaultData}
	s.recorders = append(s.recorders, rec)
	return rec, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeStream) recorderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorders)
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeCapture struct {
	stream     *fakeStream
	acquireErr error
}

func (c *fakeCapture) Acquire(ctx context.Context) (ports.MediaStream, error) {
	if c.acquireErr != nil {
		return nil, c.acquireErr
	}
	return c.stream, nil
}

type fakeDetector struct {
	mu       sync.Mutex
	startErr error
	events   chan domain.SpeechEvent
}

func (d *fakeDetector) Start(ctx context.Context) (<-chan domain.SpeechEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return nil, d.startErr
	}
	d.events = make(chan domain.SpeechEvent, 16)
	return d.events, nil
}

func (d *fakeDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.events != nil {
		close(d.events)
		d.events = nil
	}
	return nil
}

func (d *fakeDetector) emit(kind domain.SpeechEventKind) {
	d.mu.Lock()
	events := d.events
	d.mu.Unlock()
	events <- domain.SpeechEvent{Kind: kind}
}

type voiceCall struct {
	audio   domain.MediaPayload
	video   domain.MediaPayload
	history []domain.Turn
}

type fakeResponder struct {
	mu         sync.Mutex
	reply      string
	err        error
	chatReply  string
	chatErr    error
	release    chan struct{}
	voiceCalls []voiceCall
	chatCalls  []string
}

func (r *fakeResponder) TranscribeAndRespond(ctx context.Context, audio, video domain.MediaPayload, history []domain.Turn) (string, error) {
	r.mu.Lock()
	r.voiceCalls = append(r.voiceCalls, voiceCall{audio: audio, video: video, history: history})
	release := r.release
	reply, err := r.reply, r.err
	r.mu.Unlock()
	if release != nil {
		<-release
	}
	return reply, err
}

func (r *fakeResponder) ChatRespond(ctx context.Context, text string, history []domain.Turn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatCalls = append(r.chatCalls, text)
	return r.chatReply, r.chatErr
}

func (r *fakeResponder) voiceCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voiceCalls)
}

type fakeSynth struct {
	mu    sync.Mutex
	audio []byte
	err   error
	texts []string
}

func (s *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	if s.audio == nil {
		return []byte("audio"), nil
	}
	return s.audio, nil
}

func (s *fakeSynth) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type fakeHandle struct {
	stopOnce sync.Once
	done     chan struct{}
	onStop   func()
}

func (h *fakeHandle) Stop() {
	h.stopOnce.Do(func() {
		h.onStop()
		close(h.done)
	})
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

type fakePlayer struct {
	mu        sync.Mutex
	playErr   error
	active    int
	maxActive int
	plays     int
}

func (p *fakePlayer) Play(ctx context.Context, audio []byte) (ports.PlaybackHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return nil, p.playErr
	}
	p.plays++
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	return &fakeHandle{
		done: make(chan struct{}),
		onStop: func() {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
		},
	}, nil
}

type fakeEventSink struct {
	mu     sync.Mutex
	views  []domain.TranscriptView
	shares []bool
	errs   []domain.ErrorCode
}

func (s *fakeEventSink) TranscriptChanged(view domain.TranscriptView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
}

func (s *fakeEventSink) ScreenShareChanged(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares = append(s.shares, active)
}

func (s *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, code)
}

func (s *fakeEventSink) snapshotViews() []domain.TranscriptView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TranscriptView(nil), s.views...)
}

func (s *fakeEventSink) errorCodes() []domain.ErrorCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ErrorCode(nil), s.errs...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
