// Package transcript owns the ordered message list, placeholder lifecycle,
// and the in-flight exchange phase.
package transcript

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Shayan12456/PromptLens/internal/domain"
	"github.com/Shayan12456/PromptLens/internal/ports"
)

// Greeting is the seeded opening message.
const Greeting = "How may I help you?"

// Conversation is the single-session transcript state machine. Every
// mutation emits one TranscriptView, so paired mutations (resolve user +
// append AI) are observable only as a single transition.
//
// Exchanges are tagged with a generation token. Phase writes from a
// superseded generation are dropped, so a stale completing flow can never
// reset the phase under a newer one.
type Conversation struct {
	mu       sync.Mutex
	messages []domain.Message
	phase    domain.Phase
	gen      uint64
	sink     ports.EventSink
	newID    func() string
}

func New(sink ports.EventSink) *Conversation {
	c := &Conversation{sink: sink, newID: uuid.NewString}
	c.messages = []domain.Message{{
		ID:     c.newID(),
		Text:   Greeting,
		Sender: domain.SenderAI,
	}}
	return c
}

// BeginExchange supersedes any in-flight exchange and returns the new
// generation token.
func (c *Conversation) BeginExchange() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

// Current reports whether gen is still the live exchange.
func (c *Conversation) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// SetPhase updates the status indicator. Writes from superseded
// generations are dropped.
func (c *Conversation) SetPhase(gen uint64, phase domain.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.phase = phase
	c.emitLocked()
}

// BeginUserPlaceholder appends an empty user message and returns its id.
func (c *Conversation) BeginUserPlaceholder() string {
	return c.appendAndEmit(domain.SenderUser, "")
}

// BeginAIPlaceholder appends an empty AI message and returns its id.
func (c *Conversation) BeginAIPlaceholder() string {
	return c.appendAndEmit(domain.SenderAI, "")
}

// AppendMessage appends a fully formed message and returns its id.
func (c *Conversation) AppendMessage(sender domain.Sender, text string) string {
	return c.appendAndEmit(sender, text)
}

func (c *Conversation) appendAndEmit(sender domain.Sender, text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.newID()
	c.messages = append(c.messages, domain.Message{ID: id, Text: text, Sender: sender})
	c.emitLocked()
	return id
}

// ResolvePlaceholder replaces the placeholder's content in place,
// preserving its position. Returns false when no message has that id.
func (c *Conversation) ResolvePlaceholder(id, text, videoDataURI string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Text = text
			if videoDataURI != "" {
				c.messages[i].VideoDataURI = videoDataURI
			}
			c.emitLocked()
			return true
		}
	}
	return false
}

// RemovePlaceholder deletes the message with the given id.
func (c *Conversation) RemovePlaceholder(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := lo.Filter(c.messages, func(m domain.Message, _ int) bool {
		return m.ID != id
	})
	if len(kept) == len(c.messages) {
		return false
	}
	c.messages = kept
	c.emitLocked()
	return true
}

// ResolveUserAndAppendAI applies the voice exchange's terminal transition
// atomically: the user placeholder resolves to the spoken transcript (with
// its screen recording) and the AI response is appended, in one emitted
// view. When gen is still current the phase is cleared in the same
// transition.
func (c *Conversation) ResolveUserAndAppendAI(gen uint64, id, transcriptText, videoDataURI, aiText string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	resolved := false
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Text = transcriptText
			if videoDataURI != "" {
				c.messages[i].VideoDataURI = videoDataURI
			}
			resolved = true
			break
		}
	}
	if !resolved {
		return false
	}
	c.messages = append(c.messages, domain.Message{
		ID:     c.newID(),
		Text:   aiText,
		Sender: domain.SenderAI,
	})
	if gen == c.gen {
		c.phase = domain.PhaseIdle
	}
	c.emitLocked()
	return true
}

// History reconstructs the backend context from the transcript at call
// time. Placeholders carry no content and are skipped.
func (c *Conversation) History() []domain.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.FilterMap(c.messages, func(m domain.Message, _ int) (domain.Turn, bool) {
		if m.IsPlaceholder() {
			return domain.Turn{}, false
		}
		role := domain.RoleModel
		if m.Sender == domain.SenderUser {
			role = domain.RoleUser
		}
		return domain.Turn{Role: role, Text: m.Text}, true
	})
}

// View returns the current UI snapshot.
func (c *Conversation) View() domain.TranscriptView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Conversation) viewLocked() domain.TranscriptView {
	msgs := make([]domain.Message, len(c.messages))
	copy(msgs, c.messages)
	return domain.TranscriptView{
		Messages:    msgs,
		Phase:       c.phase,
		IndicatorID: indicatorFor(msgs, c.phase),
	}
}

func (c *Conversation) emitLocked() {
	if c.sink != nil {
		c.sink.TranscriptChanged(c.viewLocked())
	}
}

// indicatorFor picks the bubble that renders the transient phase
// indicator: only ever the last message, and only when its sender matches
// the phase class.
func indicatorFor(msgs []domain.Message, phase domain.Phase) string {
	if len(msgs) == 0 {
		return ""
	}
	last := msgs[len(msgs)-1]
	switch phase {
	case domain.PhaseListening, domain.PhaseProcessing:
		if last.Sender == domain.SenderUser {
			return last.ID
		}
	case domain.PhaseThinking, domain.PhaseGenerating:
		if last.Sender == domain.SenderAI {
			return last.ID
		}
	}
	return ""
}
