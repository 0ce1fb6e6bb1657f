package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bankena/internal/models"
	"bankena/internal/policy"
	"bankena/internal/tools"
)

// State is the session lifecycle phase.
type State string

const (
	// StateIdle has no model handle. The next turn allocates one.
	StateIdle State = "idle"
	// StateAwaitingInit is allocating the model handle.
	StateAwaitingInit State = "awaiting_init"
	// StateReady has a live handle and no request in flight.
	StateReady State = "ready"
	// StateSending has exactly one request in flight.
	StateSending State = "sending"
)

var (
	// ErrBusy reports a submission while a turn is already in flight. The
	// submission is ignored: no queueing, no transcript change.
	ErrBusy = errors.New("a message is already being processed")
	// ErrEmptyMessage reports a blank submission.
	ErrEmptyMessage = errors.New("message is empty")
)

// Greeting text seeded into fresh transcripts.
const LoggedOutGreeting = "Hello! I'm ENA, your PNC Assistant. Ask a question or tap the microphone to speak."

// NewChatGreeting is the transcript seed after an explicit "new chat".
func NewChatGreeting(loggedIn bool, username string) string {
	if loggedIn {
		return fmt.Sprintf("Hello %s, how can I help you with your finances today?", username)
	}
	return LoggedOutGreeting
}

// FirstLoginGreeting welcomes a user who has no stored history.
func FirstLoginGreeting(username string) string {
	return fmt.Sprintf("Hello %s, I'm ENA, your PNC Assistant. Now that you're logged in, I can provide an analysis of your financial snapshot or answer specific questions about your finances.", username)
}

// PersistFunc receives the full transcript after every change made while the
// session is authenticated.
type PersistFunc func(username string, transcript []models.Message)

// Session is the conversation state machine. It owns the transcript and the
// model handle; all mutation goes through its methods.
type Session struct {
	factory SessionFactory
	exec    *tools.Executor
	persist PersistFunc

	mu         sync.Mutex
	state      State
	epoch      uint64
	handle     ModelSession
	transcript []models.Message
	loggedIn   bool
	username   string
	snapshot   models.FinancialSnapshot
	insight    string
}

// NewSession builds an idle logged-out session seeded with the greeting.
func NewSession(factory SessionFactory, exec *tools.Executor, persist PersistFunc) *Session {
	return &Session{
		factory:    factory,
		exec:       exec,
		persist:    persist,
		state:      StateIdle,
		snapshot:   models.DefaultSnapshot(),
		transcript: []models.Message{{Sender: models.SenderBot, Text: LoggedOutGreeting}},
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the ordered message list.
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Insight returns the insight summary retained for this session, if any.
func (s *Session) Insight() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insight
}

// Login switches the session to authenticated mode for username. The
// transcript seed is chosen by the caller (insight rehydration) via Reset.
func (s *Session) Login(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = true
	s.username = username
	s.insight = ""
	s.teardownLocked()
}

// Logout drops authentication and reseeds the logged-out greeting.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.username = ""
	s.insight = ""
	s.teardownLocked()
	s.transcript = []models.Message{{Sender: models.SenderBot, Text: LoggedOutGreeting}}
}

// NewChat discards the handle and transcript and reseeds the greeting for the
// current auth state.
func (s *Session) NewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insight = ""
	s.teardownLocked()
	s.transcript = []models.Message{{Sender: models.SenderBot, Text: NewChatGreeting(s.loggedIn, s.username)}}
	s.persistLocked()
}

// Reset replaces the transcript wholesale and invalidates the handle. Used by
// insight rehydration to install the welcome-back or restored transcript.
func (s *Session) Reset(transcript []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.transcript = make([]models.Message, len(transcript))
	copy(s.transcript, transcript)
	s.persistLocked()
}

// SetSnapshot installs a new financial snapshot. The handle is invalidated so
// the next turn rebuilds the policy against the new figures.
func (s *Session) SetSnapshot(snapshot models.FinancialSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.teardownLocked()
}

// SetInsight installs the generated insight summary. It is retained for the
// session lifetime so the policy can keep referencing it.
func (s *Session) SetInsight(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insight = summary
	s.teardownLocked()
}

// teardownLocked invalidates the model handle. Any response still in flight
// observes the epoch change and is discarded.
func (s *Session) teardownLocked() {
	s.epoch++
	s.handle = nil
	s.state = StateIdle
}

func (s *Session) appendLocked(msg models.Message) {
	s.transcript = append(s.transcript, msg)
	s.persistLocked()
}

func (s *Session) persistLocked() {
	if s.loggedIn && s.persist != nil {
		out := make([]models.Message, len(s.transcript))
		copy(out, s.transcript)
		s.persist(s.username, out)
	}
}

// Submit runs one user turn: append the user message, send it with the page
// tag when logged out, and append the bot's narrative text or the executed
// tool confirmation. Exactly one turn runs at a time.
func (s *Session) Submit(ctx context.Context, text, currentPage string) ([]models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateSending || s.state == StateAwaitingInit {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	epoch := s.epoch

	// The user's turn enters the transcript before any model interaction,
	// including initialization failures.
	userMsg := models.Message{Sender: models.SenderUser, Text: text}
	s.appendLocked(userMsg)

	if s.handle == nil {
		s.state = StateAwaitingInit
		instruction := policy.LoggedOut()
		decls := tools.Declarations()
		if s.loggedIn {
			instruction = policy.LoggedIn(s.snapshot, s.insight)
			decls = nil
		}
		s.mu.Unlock()

		handle, err := s.factory.NewSession(ctx, instruction, decls)

		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return []models.Message{userMsg}, nil
		}
		if err != nil {
			// Stay retryable: the next turn attempts initialization again.
			s.state = StateIdle
			msg := models.Message{Sender: models.SenderBot, Text: initFailureText}
			s.appendLocked(msg)
			s.mu.Unlock()
			return []models.Message{userMsg, msg}, nil
		}
		s.handle = handle
		s.state = StateReady
	}

	handle := s.handle
	loggedIn := s.loggedIn
	s.state = StateSending
	s.mu.Unlock()

	// The page tag goes to the model only, never into the transcript.
	outbound := text
	if !loggedIn {
		outbound = fmt.Sprintf("[Current Page: %s] %s", currentPage, text)
	}

	reply, err := handle.Send(ctx, outbound)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Session was torn down while the request was in flight.
		return []models.Message{userMsg}, nil
	}
	s.state = StateReady

	var botText string
	switch {
	case err != nil:
		botText = failureText(err)
	case reply.Call != nil && !loggedIn:
		botText = s.exec.Execute(reply.Call).Reply
	case reply.Text != "":
		botText = reply.Text
	default:
		return []models.Message{userMsg}, nil
	}

	botMsg := models.Message{Sender: models.SenderBot, Text: botText}
	s.appendLocked(botMsg)
	return []models.Message{userMsg, botMsg}, nil
}
