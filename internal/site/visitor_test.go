package site

import (
	"context"
	"sync"
	"testing"

	"google.golang.org/genai"

	"bankena/internal/chat"
	"bankena/internal/models"
)

type stubFactory struct{}

type stubSession struct{}

func (stubSession) Send(ctx context.Context, message string) (*chat.Reply, error) {
	return &chat.Reply{Text: "ok"}, nil
}

func (stubFactory) NewSession(ctx context.Context, instruction string, decls []*genai.FunctionDeclaration) (chat.ModelSession, error) {
	return stubSession{}, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(stubFactory{}, nil)
}

func TestEditRateInputsDerivesFigures(t *testing.T) {
	v := newTestRegistry().Visitor(NewVisitorID())

	got := v.EditRateInputs(models.RateInputs{
		HomeValue:   "400000",
		DownPayment: "80000",
		Percentage:  "99",     // ignored
		LoanAmount:  "123456", // ignored
		CreditScore: "740+",
		ZipCode:     "15222",
	})
	if got.Percentage != "20" {
		t.Fatalf("expected derived percentage 20, got %q", got.Percentage)
	}
	if got.LoanAmount != "320000" {
		t.Fatalf("expected derived loan amount 320000, got %q", got.LoanAmount)
	}
	if got.HomeValue != "$400,000" {
		t.Fatalf("expected formatted home value, got %q", got.HomeValue)
	}
}

func TestEditRateInputsClampsLoanAmount(t *testing.T) {
	v := newTestRegistry().Visitor(NewVisitorID())
	got := v.EditRateInputs(models.RateInputs{
		HomeValue:   "$100,000",
		DownPayment: "$150,000",
		CreditScore: "740+",
		ZipCode:     "15222",
	})
	if got.LoanAmount != "0" {
		t.Fatalf("expected clamped loan amount 0, got %q", got.LoanAmount)
	}
}

func TestRatesComputedFromCurrentForm(t *testing.T) {
	v := newTestRegistry().Visitor(NewVisitorID())
	quotes := v.Rates()
	if len(quotes) != 2 {
		t.Fatalf("expected two quotes, got %d", len(quotes))
	}
	if quotes[0].InterestRate != 6.875 {
		t.Fatalf("default form is top band, expected 6.875, got %v", quotes[0].InterestRate)
	}
	if stored := v.Quotes(); len(stored) != 2 {
		t.Fatalf("quotes should be retained for page display")
	}
}

func TestVisitorIsolation(t *testing.T) {
	r := newTestRegistry()
	a := r.Visitor("a")
	b := r.Visitor("b")
	if a == b {
		t.Fatalf("distinct ids must get distinct visitors")
	}
	a.Navigate("mortgage")
	if b.Page() != "home" {
		t.Fatalf("navigation must not leak across visitors")
	}
	if again := r.Visitor("a"); again != a {
		t.Fatalf("same id must return the same visitor")
	}
}

func TestRegistryDropResetsVisitor(t *testing.T) {
	r := newTestRegistry()
	v := r.Visitor("a")
	v.Navigate("mortgage")

	r.Drop("a")
	if fresh := r.Visitor("a"); fresh == v || fresh.Page() != "home" {
		t.Fatalf("dropped id must yield a fresh visitor with default state")
	}
}

func TestApplyRehydrationDiscardedAfterLogout(t *testing.T) {
	v := newTestRegistry().Visitor(NewVisitorID())
	epoch, ctx := v.Login("alice")

	v.Logout()
	if ctx.Err() == nil {
		t.Fatalf("logout must cancel the insight context")
	}
	applied := v.ApplyRehydration(epoch, []models.Message{{Sender: models.SenderBot, Text: "stale"}}, "stale summary")
	if applied {
		t.Fatalf("stale rehydration must be discarded")
	}
	for _, msg := range v.Chat.Transcript() {
		if msg.Text == "stale" {
			t.Fatalf("stale transcript applied after logout")
		}
	}
}

func TestApplyRehydrationCurrentEpoch(t *testing.T) {
	v := newTestRegistry().Visitor(NewVisitorID())
	epoch, _ := v.Login("alice")

	welcome := []models.Message{{Sender: models.SenderBot, Text: "Welcome back, alice!"}}
	if !v.ApplyRehydration(epoch, welcome, "a summary") {
		t.Fatalf("current-epoch rehydration must apply")
	}
	transcript := v.Chat.Transcript()
	if len(transcript) != 1 || transcript[0].Text != "Welcome back, alice!" {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	if v.Chat.Insight() != "a summary" {
		t.Fatalf("insight summary should be retained on the session")
	}
}

func TestRehydrationNeverLandsOnLoggedOutSession(t *testing.T) {
	v := newTestRegistry().Visitor(NewVisitorID())

	for i := 0; i < 200; i++ {
		epoch, _ := v.Login("alice")
		welcome := []models.Message{{Sender: models.SenderBot, Text: "Welcome back, alice!"}}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			v.ApplyRehydration(epoch, welcome, "a summary")
		}()
		go func() {
			defer wg.Done()
			v.Logout()
		}()
		wg.Wait()

		// Whichever order won, logout ran and the logged-out session must
		// not carry the welcome-back transcript or the insight.
		for _, msg := range v.Chat.Transcript() {
			if msg.Text == "Welcome back, alice!" {
				t.Fatalf("stale welcome-back transcript on a logged-out session (iteration %d)", i)
			}
		}
		if v.Chat.Insight() != "" {
			t.Fatalf("stale insight retained after logout (iteration %d)", i)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"$400,000": 400000,
		"400000":   400000,
		"":         0,
		"abc":      0,
		"$1,234.5": 1234.5,
	}
	for in, want := range cases {
		if got := parseAmount(in); got != want {
			t.Fatalf("parseAmount(%q) = %v, want %v", in, got, want)
		}
	}
}
