// Package chat keeps the mentor chat transcript and folds streamed reply
// fragments into a single growing model message.
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/logger"
)

const (
	WelcomeID   = "welcome"
	WelcomeText = "Hello! I'm your AI Career Mentor. How can I help you today? You can ask me about career paths, skill gaps, or resume tips."
	ApologyText = "I'm sorry, I encountered an error. Please try again."
)

var (
	ErrBusy         = errors.New("chat: a reply is already streaming")
	ErrEmptyMessage = errors.New("chat: message is empty")
)

// Streamer is the part of the gateway a chat session uses.
type Streamer interface {
	StreamChat(ctx context.Context, history []career.Message, message string) iter.Seq2[string, error]
}

// Log persists transcript messages.
type Log interface {
	Save(ctx context.Context, workspaceID string, msg career.Message)
	List(ctx context.Context, workspaceID string) []career.Message
}

// Session is one workspace's chat transcript.
type Session struct {
	workspaceID string
	gw          Streamer
	store       Log
	log         *slog.Logger

	mu       sync.Mutex
	messages []career.Message
	busy     bool
}

// NewSession starts a transcript with the welcome message followed by any
// messages previously logged for workspaceID. store may be nil.
func NewSession(ctx context.Context, workspaceID string, gw Streamer, store Log) *Session {
	s := &Session{
		workspaceID: workspaceID,
		gw:          gw,
		store:       store,
		log:         logger.For("chat").With("workspace", workspaceID),
		messages: []career.Message{{
			ID:        WelcomeID,
			Role:      career.RoleModel,
			Text:      WelcomeText,
			Timestamp: time.Now(),
		}},
	}
	if store != nil {
		s.messages = append(s.messages, store.List(ctx, workspaceID)...)
	}
	return s
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []career.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Busy reports whether a reply is streaming.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Send appends text as a user message plus an empty model placeholder, then
// streams the reply into the placeholder. onUpdate, if set, receives the
// placeholder after it is appended and after every change. A stream failure
// leaves ApologyText in the placeholder; it is logged, not returned.
func (s *Session) Send(ctx context.Context, text string, onUpdate func(career.Message)) (career.Message, error) {
	if strings.TrimSpace(text) == "" {
		return career.Message{}, ErrEmptyMessage
	}
	publish := func(m career.Message) {
		if onUpdate != nil {
			onUpdate(m)
		}
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return career.Message{}, ErrBusy
	}
	s.busy = true
	history := slices.Clone(s.messages)
	now := time.Now()
	user := career.Message{ID: uuid.NewString(), Role: career.RoleUser, Text: text, Timestamp: now}
	reply := career.Message{ID: uuid.NewString(), Role: career.RoleModel, Timestamp: now}
	s.messages = append(s.messages, user, reply)
	slot := len(s.messages) - 1
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	s.save(ctx, user)
	publish(reply)

	var (
		acc       strings.Builder
		streamErr error
	)
	for fragment, err := range s.gw.StreamChat(ctx, history, text) {
		if err != nil {
			streamErr = err
			break
		}
		acc.WriteString(fragment)
		reply = s.setText(slot, acc.String())
		publish(reply)
	}
	if streamErr != nil {
		s.log.Error("chat stream failed", "error", streamErr)
		reply = s.setText(slot, ApologyText)
		publish(reply)
	}

	// The request context may already be cancelled; the transcript still gets the final text.
	s.save(context.WithoutCancel(ctx), reply)
	return reply, nil
}

// setText replaces the text of the message at slot and returns a copy.
func (s *Session) setText(slot int, text string) career.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[slot].Text = text
	return s.messages[slot]
}

func (s *Session) save(ctx context.Context, m career.Message) {
	if s.store != nil {
		s.store.Save(ctx, s.workspaceID, m)
	}
}
