package usecase

import (
	"context"
	"strings"

	"github.com/Shayan12456/PromptLens/internal/domain"
)

// Send runs one typed exchange: the user message appears immediately, an
// AI placeholder tracks the backend call, and the resolved reply is
// spoken. Backend failures replace the placeholder with an error bubble
// instead of propagating.
func (o *Orchestrator) Send(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	o.playback.Cancel()

	gen := o.conv.BeginExchange()
	history := o.conv.History()
	o.conv.AppendMessage(domain.SenderUser, trimmed)
	aiID := o.conv.BeginAIPlaceholder()
	o.conv.SetPhase(gen, domain.PhaseThinking)

	reply, err := o.responder.ChatRespond(ctx, trimmed, history)

	if !o.conv.Current(gen) {
		o.conv.RemovePlaceholder(aiID)
		return
	}
	if err != nil {
		o.log.Error().Err(err).Msg("chat respond failed")
		o.events.SessionError(domain.ErrorCodeBackend, err.Error())
		o.conv.ResolvePlaceholder(aiID, chatErrorReply, "")
		o.conv.SetPhase(gen, domain.PhaseIdle)
		return
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = chatErrorReply
	}
	o.conv.ResolvePlaceholder(aiID, reply, "")
	o.conv.SetPhase(gen, domain.PhaseIdle)
	o.speak(ctx, gen, reply)
}
