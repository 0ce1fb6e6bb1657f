package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"bankena/internal/models"
	"bankena/internal/tools"
)

type fakeModelSession struct {
	mu      sync.Mutex
	sent    []string
	replies []*Reply
	errs    []error
	block   chan struct{}
}

func (f *fakeModelSession) Send(ctx context.Context, message string) (*Reply, error) {
	f.mu.Lock()
	f.sent = append(f.sent, message)
	var reply *Reply
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	if reply == nil {
		reply = &Reply{Text: "ok"}
	}
	return reply, nil
}

func (f *fakeModelSession) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeFactory struct {
	mu           sync.Mutex
	session      *fakeModelSession
	err          error
	created      int
	declarations [][]*genai.FunctionDeclaration
}

func (f *fakeFactory) NewSession(ctx context.Context, instruction string, decls []*genai.FunctionDeclaration) (ModelSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	f.declarations = append(f.declarations, decls)
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		f.session = &fakeModelSession{}
	}
	return f.session, nil
}

type nopNavigator struct{ pages []string }

func (n *nopNavigator) Navigate(page string) { n.pages = append(n.pages, page) }

type nopRateForm struct{}

func (nopRateForm) SetInputs(models.RateInputs) {}
func (nopRateForm) Rates() []models.RateQuote   { return nil }

func newTestSession(factory *fakeFactory, persist PersistFunc) (*Session, *nopNavigator) {
	nav := &nopNavigator{}
	exec := tools.NewExecutor(nav, nopRateForm{})
	return NewSession(factory, exec, persist), nav
}

func TestSubmitAppendsUserAndBotMessages(t *testing.T) {
	factory := &fakeFactory{session: &fakeModelSession{replies: []*Reply{{Text: "Hi there."}}}}
	s, _ := newTestSession(factory, nil)

	delta, err := s.Submit(context.Background(), "hello", "home")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(delta) != 2 {
		t.Fatalf("expected user+bot delta, got %d messages", len(delta))
	}
	if delta[0].Sender != models.SenderUser || delta[0].Text != "hello" {
		t.Fatalf("unexpected user message: %+v", delta[0])
	}
	if delta[1].Sender != models.SenderBot || delta[1].Text != "Hi there." {
		t.Fatalf("unexpected bot message: %+v", delta[1])
	}
	if got := s.State(); got != StateReady {
		t.Fatalf("expected ready state, got %s", got)
	}
}

func TestSubmitTagsPageOnlyWhenLoggedOut(t *testing.T) {
	fake := &fakeModelSession{replies: []*Reply{{Text: "a"}, {Text: "b"}}}
	factory := &fakeFactory{session: fake}
	s, _ := newTestSession(factory, nil)

	if _, err := s.Submit(context.Background(), "what are rates?", "mortgage"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	sent := fake.sentMessages()
	if sent[0] != "[Current Page: mortgage] what are rates?" {
		t.Fatalf("expected page tag on outbound message, got %q", sent[0])
	}
	// The tag must not leak into the stored transcript.
	for _, msg := range s.Transcript() {
		if strings.Contains(msg.Text, "[Current Page:") {
			t.Fatalf("page tag stored in transcript: %q", msg.Text)
		}
	}

	s.Login("alice")
	if _, err := s.Submit(context.Background(), "analyze my finances", "accounts"); err != nil {
		t.Fatalf("submit logged in: %v", err)
	}
	sent = fake.sentMessages()
	if sent[len(sent)-1] != "analyze my finances" {
		t.Fatalf("logged-in message must carry no page tag, got %q", sent[len(sent)-1])
	}
}

func TestSubmitBusyIsIgnored(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeModelSession{block: block}
	factory := &fakeFactory{session: fake}
	s, _ := newTestSession(factory, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Submit(context.Background(), "first", "home"); err != nil {
			t.Errorf("first submit: %v", err)
		}
	}()

	// Wait until the first turn is in flight.
	deadline := time.After(2 * time.Second)
	for s.State() != StateSending {
		select {
		case <-deadline:
			t.Fatalf("session never entered sending state")
		case <-time.After(time.Millisecond):
		}
	}

	before := len(s.Transcript())
	if _, err := s.Submit(context.Background(), "second", "home"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if got := len(s.Transcript()); got != before {
		t.Fatalf("busy submit must not touch the transcript: %d -> %d", before, got)
	}

	close(block)
	<-done
	if got := len(fake.sentMessages()); got != 1 {
		t.Fatalf("expected exactly one in-flight request, got %d", got)
	}
}

func TestSubmitDispatchesToolCallWhenLoggedOut(t *testing.T) {
	fake := &fakeModelSession{replies: []*Reply{{
		Call: &genai.FunctionCall{Name: "navigateToPage", Args: map[string]any{"page": "investments"}},
	}}}
	factory := &fakeFactory{session: fake}
	s, nav := newTestSession(factory, nil)

	delta, err := s.Submit(context.Background(), "yes please", "home")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(nav.pages) != 1 || nav.pages[0] != "investments" {
		t.Fatalf("expected navigation side effect, got %v", nav.pages)
	}
	if delta[1].Text != "Great, I'm taking you to the investments page now." {
		t.Fatalf("unexpected confirmation: %q", delta[1].Text)
	}
}

func TestSubmitNeverDispatchesToolsWhenLoggedIn(t *testing.T) {
	fake := &fakeModelSession{replies: []*Reply{{
		Call: &genai.FunctionCall{Name: "navigateToPage", Args: map[string]any{"page": "home"}},
	}}}
	factory := &fakeFactory{session: fake}
	s, nav := newTestSession(factory, nil)
	s.Login("alice")

	delta, err := s.Submit(context.Background(), "go home", "accounts")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(nav.pages) != 0 {
		t.Fatalf("tool call must not execute while logged in, got %v", nav.pages)
	}
	if len(delta) != 1 {
		t.Fatalf("expected only the user message appended, got %d", len(delta))
	}
	// Logged-in sessions must get no declarations at all.
	if decls := factory.declarations[len(factory.declarations)-1]; decls != nil {
		t.Fatalf("logged-in session must carry no tool declarations")
	}
}

func TestSubmitFailureMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ModelError{Kind: ErrorCredential, Err: errors.New("x")}, credentialFailureText},
		{&ModelError{Kind: ErrorBadRequest, Err: errors.New("x")}, badRequestFailureText},
		{&ModelError{Kind: ErrorTransient, Err: errors.New("x")}, transientFailureText},
		{errors.New("boom"), genericFailureText},
	}
	for _, tc := range cases {
		fake := &fakeModelSession{errs: []error{tc.err}, replies: []*Reply{nil}}
		factory := &fakeFactory{session: fake}
		s, _ := newTestSession(factory, nil)

		delta, err := s.Submit(context.Background(), "hi", "home")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if delta[1].Text != tc.want {
			t.Fatalf("error %v: expected %q, got %q", tc.err, tc.want, delta[1].Text)
		}
		if got := s.State(); got != StateReady {
			t.Fatalf("turn failure must keep the session usable, state %s", got)
		}
	}
}

func TestSubmitInitFailureRetries(t *testing.T) {
	factory := &fakeFactory{err: errors.New("no network")}
	s, _ := newTestSession(factory, nil)

	delta, err := s.Submit(context.Background(), "what are your rates?", "home")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(delta) != 2 || delta[0].Text != "what are your rates?" || delta[1].Text != initFailureText {
		t.Fatalf("expected user turn plus init failure message, got %+v", delta)
	}
	if got := s.State(); got != StateIdle {
		t.Fatalf("init failure must return to idle, got %s", got)
	}
	transcript := s.Transcript()
	var sawUserTurn bool
	for _, msg := range transcript {
		if msg.Sender == models.SenderUser && msg.Text == "what are your rates?" {
			sawUserTurn = true
		}
	}
	if !sawUserTurn {
		t.Fatalf("user turn must survive an init failure, transcript: %+v", transcript)
	}

	// The next turn retries initialization.
	factory.mu.Lock()
	factory.err = nil
	factory.mu.Unlock()
	if _, err := s.Submit(context.Background(), "hi again", "home"); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if factory.created != 2 {
		t.Fatalf("expected a second initialization attempt, got %d", factory.created)
	}
}

func TestTeardownDiscardsInFlightReply(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeModelSession{block: block, replies: []*Reply{{Text: "stale"}}}
	factory := &fakeFactory{session: fake}
	s, _ := newTestSession(factory, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Submit(context.Background(), "hello", "home")
	}()
	deadline := time.After(2 * time.Second)
	for s.State() != StateSending {
		select {
		case <-deadline:
			t.Fatalf("session never entered sending state")
		case <-time.After(time.Millisecond):
		}
	}

	s.NewChat()
	close(block)
	<-done

	for _, msg := range s.Transcript() {
		if msg.Text == "stale" {
			t.Fatalf("stale reply applied after teardown")
		}
	}
	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle after new chat, got %s", got)
	}
}

func TestPersistOnlyWhileLoggedIn(t *testing.T) {
	var mu sync.Mutex
	saved := map[string]int{}
	persist := func(username string, _ []models.Message) {
		mu.Lock()
		saved[username]++
		mu.Unlock()
	}
	fake := &fakeModelSession{replies: []*Reply{{Text: "a"}, {Text: "b"}}}
	factory := &fakeFactory{session: fake}
	s, _ := newTestSession(factory, persist)

	if _, err := s.Submit(context.Background(), "logged out turn", "home"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("logged-out transcript must not persist, got %v", saved)
	}

	s.Login("Carol")
	if _, err := s.Submit(context.Background(), "logged in turn", "accounts"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if saved["Carol"] == 0 {
		t.Fatalf("expected persisted transcript for Carol")
	}
}

func TestNewChatGreetings(t *testing.T) {
	if got := NewChatGreeting(false, ""); got != LoggedOutGreeting {
		t.Fatalf("unexpected logged-out greeting: %q", got)
	}
	if got := NewChatGreeting(true, "Dana"); !strings.Contains(got, "Dana") {
		t.Fatalf("logged-in greeting should name the user: %q", got)
	}
}
