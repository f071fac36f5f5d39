package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/rs/zerolog"

	"github.com/Shayan12456/PromptLens/internal/domain"
	"github.com/Shayan12456/PromptLens/internal/parser"
	"github.com/Shayan12456/PromptLens/internal/ports"
	"github.com/Shayan12456/PromptLens/internal/transcript"
)

var ErrAlreadyListening = errors.New("voice loop already running")

const (
	voiceErrorReply = "Sorry, I had trouble understanding that."
	chatErrorReply  = "Error reaching backend."
	malformedReply  = "Sorry, I couldn't understand that."
)

// Config controls exchange timing.
type Config struct {
	// Debounce coalesces flapping speech-end events.
	Debounce time.Duration
	// MinCapture delays finalization so very short turns still produce a
	// valid container.
	MinCapture time.Duration
	// Settle gives halted encoders time to flush their last chunks.
	Settle time.Duration

	AudioMIMEType string
	VideoMIMEType string
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = 400 * time.Millisecond
	}
	if c.MinCapture <= 0 {
		c.MinCapture = 600 * time.Millisecond
	}
	if c.Settle <= 0 {
		c.Settle = 300 * time.Millisecond
	}
	if c.AudioMIMEType == "" {
		c.AudioMIMEType = "audio/webm"
	}
	if c.VideoMIMEType == "" {
		c.VideoMIMEType = "video/webm"
	}
	return c
}

// voiceTurn is one in-flight recording cycle. Recorders and the
// placeholder id are owned by the turn, so a superseding turn can never
// touch a finalizing one's buffers.
type voiceTurn struct {
	gen           uint64
	placeholderID string
	audioRec      ports.MediaRecorder
	screenRec     ports.MediaRecorder
	startedAt     time.Time
}

// Orchestrator drives voice exchanges from speech boundaries: record
// between start and debounced end, assemble payloads, round-trip the
// backend, resolve the transcript, speak the result.
type Orchestrator struct {
	capture   *CaptureManager
	detector  ports.SpeechDetector
	responder ports.Responder
	conv      *transcript.Conversation
	playback  *PlaybackController
	events    ports.EventSink
	cfg       Config
	log       zerolog.Logger
	debounced func(func())

	mu       sync.Mutex
	turn     *voiceTurn
	endSeq   uint64
	loopDone chan struct{}
}

func NewOrchestrator(
	capture *CaptureManager,
	detector ports.SpeechDetector,
	responder ports.Responder,
	conv *transcript.Conversation,
	playback *PlaybackController,
	events ports.EventSink,
	cfg Config,
	log zerolog.Logger,
) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		capture:   capture,
		detector:  detector,
		responder: responder,
		conv:      conv,
		playback:  playback,
		events:    events,
		cfg:       cfg,
		log:       log,
		debounced: debounce.New(cfg.Debounce),
	}
}

// StartListening starts the speech detector and the event loop that turns
// its boundaries into exchanges.
func (o *Orchestrator) StartListening(ctx context.Context) error {
	o.mu.Lock()
	if o.loopDone != nil {
		o.mu.Unlock()
		return ErrAlreadyListening
	}
	o.mu.Unlock()

	events, err := o.detector.Start(ctx)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	o.mu.Lock()
	o.loopDone = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Kind {
			case domain.SpeechStart:
				o.onSpeechStart(ctx)
			case domain.SpeechEnd:
				o.onSpeechEnd(ctx)
			}
		}
	}()
	return nil
}

// StopListening stops the detector, waits for the event loop, and discards
// any turn still recording. Safe to call when not listening.
func (o *Orchestrator) StopListening() {
	o.mu.Lock()
	done := o.loopDone
	o.loopDone = nil
	o.mu.Unlock()
	if done == nil {
		return
	}

	if err := o.detector.Stop(); err != nil {
		o.log.Warn().Err(err).Msg("speech detector stop failed")
	}
	<-done

	o.mu.Lock()
	turn := o.turn
	o.turn = nil
	o.endSeq++
	o.mu.Unlock()

	if turn != nil {
		_ = turn.audioRec.Halt()
		if turn.screenRec != nil {
			_ = turn.screenRec.Halt()
		}
		o.conv.RemovePlaceholder(turn.placeholderID)
		o.conv.SetPhase(turn.gen, domain.PhaseIdle)
	}
	o.playback.Cancel()
}

// onSpeechStart preempts playback and begins a new recording turn, or
// resumes the current one when speech restarts inside the debounce window.
func (o *Orchestrator) onSpeechStart(ctx context.Context) {
	o.playback.Cancel()

	o.mu.Lock()
	if o.turn != nil {
		// Still inside the debounce window; invalidate the pending end
		// and keep recording the same turn.
		o.endSeq++
		gen := o.turn.gen
		o.mu.Unlock()
		o.conv.SetPhase(gen, domain.PhaseListening)
		return
	}
	o.mu.Unlock()

	micStream, screenStream, ok := o.capture.Streams()
	if !ok {
		return
	}

	gen := o.conv.BeginExchange()
	audioRec, err := micStream.StartRecorder(ctx)
	if err != nil {
		o.log.Error().Err(err).Msg("audio recorder start failed")
		o.events.SessionError(domain.ErrorCodeCapture, err.Error())
		return
	}
	var screenRec ports.MediaRecorder
	if screenStream != nil {
		screenRec, err = screenStream.StartRecorder(ctx)
		if err != nil {
			// Screen trouble must not block the voice turn.
			o.log.Warn().Err(err).Msg("screen recorder start failed")
			screenRec = nil
		}
	}

	turn := &voiceTurn{
		gen:       gen,
		audioRec:  audioRec,
		screenRec: screenRec,
		startedAt: time.Now(),
	}
	turn.placeholderID = o.conv.BeginUserPlaceholder()
	o.conv.SetPhase(gen, domain.PhaseListening)

	o.mu.Lock()
	o.endSeq++
	o.turn = turn
	o.mu.Unlock()
}

// onSpeechEnd schedules finalization behind the debounce window. The
// sequence snapshot makes a fire that lost to a newer speech-start a
// no-op.
func (o *Orchestrator) onSpeechEnd(ctx context.Context) {
	o.mu.Lock()
	turn := o.turn
	seq := o.endSeq
	o.mu.Unlock()
	if turn == nil {
		return
	}
	o.debounced(func() { o.finalize(ctx, turn, seq) })
}

func (o *Orchestrator) finalize(ctx context.Context, turn *voiceTurn, seq uint64) {
	o.mu.Lock()
	if o.turn != turn || o.endSeq != seq {
		o.mu.Unlock()
		return
	}
	o.turn = nil
	o.mu.Unlock()

	if elapsed := time.Since(turn.startedAt); elapsed < o.cfg.MinCapture {
		sleepCtx(ctx, o.cfg.MinCapture-elapsed)
	}
	o.conv.SetPhase(turn.gen, domain.PhaseProcessing)

	_ = turn.audioRec.Halt()
	if turn.screenRec != nil {
		_ = turn.screenRec.Halt()
	}
	sleepCtx(ctx, o.cfg.Settle)

	audioBytes, err := turn.audioRec.Drain(ctx)
	if err != nil {
		o.log.Error().Err(err).Msg("audio drain failed")
	}
	var videoBytes []byte
	if turn.screenRec != nil {
		videoBytes, err = turn.screenRec.Drain(ctx)
		if err != nil {
			o.log.Error().Err(err).Msg("screen drain failed")
		}
	}

	audio := domain.NewMediaPayload(o.cfg.AudioMIMEType, audioBytes)
	video := domain.NewMediaPayload(o.cfg.VideoMIMEType, videoBytes)
	if audio.Empty() || (turn.screenRec != nil && video.Empty()) {
		o.log.Debug().Msg("empty capture, turn discarded")
		o.conv.RemovePlaceholder(turn.placeholderID)
		o.conv.SetPhase(turn.gen, domain.PhaseIdle)
		return
	}

	o.respond(ctx, turn, audio, video)
}

func (o *Orchestrator) respond(ctx context.Context, turn *voiceTurn, audio, video domain.MediaPayload) {
	history := o.conv.History()
	raw, err := o.responder.TranscribeAndRespond(ctx, audio, video, history)

	if !o.conv.Current(turn.gen) {
		// A newer exchange owns the transcript now; drop the response.
		o.conv.RemovePlaceholder(turn.placeholderID)
		return
	}
	if err != nil {
		o.log.Error().Err(err).Msg("transcribe and respond failed")
		o.events.SessionError(domain.ErrorCodeBackend, err.Error())
		o.conv.RemovePlaceholder(turn.placeholderID)
		o.conv.AppendMessage(domain.SenderAI, voiceErrorReply)
		o.conv.SetPhase(turn.gen, domain.PhaseIdle)
		return
	}

	outcome := parser.Parse(raw)
	switch outcome.Kind {
	case parser.Rejected:
		o.conv.RemovePlaceholder(turn.placeholderID)
		o.conv.SetPhase(turn.gen, domain.PhaseIdle)
	case parser.Malformed:
		fallback := outcome.Result
		if fallback == "" {
			fallback = malformedReply
		}
		o.conv.RemovePlaceholder(turn.placeholderID)
		o.conv.AppendMessage(domain.SenderAI, fallback)
		o.conv.SetPhase(turn.gen, domain.PhaseIdle)
		o.speak(ctx, turn.gen, fallback)
	case parser.Ok:
		videoURI := ""
		if turn.screenRec != nil {
			videoURI = video.URI
		}
		o.conv.ResolveUserAndAppendAI(turn.gen, turn.placeholderID, outcome.Transcript, videoURI, outcome.Result)
		o.speak(ctx, turn.gen, outcome.Result)
	}
}

// speak voices the response when the exchange is still current.
func (o *Orchestrator) speak(ctx context.Context, gen uint64, text string) {
	if !o.conv.Current(gen) {
		return
	}
	o.conv.SetPhase(gen, domain.PhaseGenerating)
	o.playback.Speak(ctx, text)
	o.conv.SetPhase(gen, domain.PhaseIdle)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
