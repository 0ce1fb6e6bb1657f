// Package site holds the server-side page state for each browser session:
// current page, the mortgage rate form, the financial snapshot, and the
// conversation session. Visitors are the collaborators the tool executor
// writes into.
package site

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"bankena/internal/chat"
	"bankena/internal/models"
	"bankena/internal/rates"
	"bankena/internal/tools"
)

// Visitor is the state behind one visitor_id cookie.
type Visitor struct {
	ID   string
	Chat *chat.Session

	mu         sync.Mutex
	page       string
	rateInputs models.RateInputs
	quotes     []models.RateQuote
	snapshot   models.FinancialSnapshot
	username   string

	// lifecycle serializes login, logout, and rehydration so an epoch check
	// and the transcript apply it guards happen in one critical section.
	// Always acquired before v.mu or the chat session's lock, never while
	// holding either.
	lifecycle     sync.Mutex
	loginEpoch    uint64
	cancelInsight context.CancelFunc
}

func newVisitor(id string, factory chat.SessionFactory, persist chat.PersistFunc) *Visitor {
	v := &Visitor{
		ID:         id,
		page:       tools.PageHome,
		rateInputs: models.DefaultRateInputs(),
		snapshot:   models.DefaultSnapshot(),
	}
	exec := tools.NewExecutor(v, v)
	v.Chat = chat.NewSession(factory, exec, persist)
	return v
}

// Navigate moves the visitor to a page. Implements tools.Navigator; the
// executor validates the page before calling, direct API callers validate at
// the handler.
func (v *Visitor) Navigate(page string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
}

// Page returns the current page identifier.
func (v *Visitor) Page() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// SetInputs overwrites the rate form. Implements tools.RateForm.
func (v *Visitor) SetInputs(in models.RateInputs) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rateInputs = in
}

// Rates recomputes the quotes from the current form and retains them for
// page display. Implements tools.RateForm.
func (v *Visitor) Rates() []models.RateQuote {
	v.mu.Lock()
	defer v.mu.Unlock()
	loan := parseAmount(v.rateInputs.LoanAmount)
	v.quotes = rates.Compute(loan, v.rateInputs.CreditScore)
	return v.quotes
}

// EditRateInputs applies a user edit to the form. Percentage and loan amount
// are always rederived from home value and down payment; the submitted values
// for those two fields are ignored.
func (v *Visitor) EditRateInputs(in models.RateInputs) models.RateInputs {
	v.mu.Lock()
	defer v.mu.Unlock()

	homeValue := parseAmount(in.HomeValue)
	downPayment := parseAmount(in.DownPayment)
	percentage, loanAmount := rates.DeriveLoanFigures(homeValue, downPayment)

	v.rateInputs = models.RateInputs{
		HomeValue:   models.FormatUSD(homeValue),
		DownPayment: models.FormatUSD(downPayment),
		Percentage:  strconv.Itoa(percentage),
		LoanAmount:  strconv.FormatFloat(loanAmount, 'f', -1, 64),
		CreditScore: in.CreditScore,
		ZipCode:     in.ZipCode,
	}
	return v.rateInputs
}

// RateInputs returns the current form values.
func (v *Visitor) RateInputs() models.RateInputs {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rateInputs
}

// Quotes returns the most recently computed rate quotes, if any.
func (v *Visitor) Quotes() []models.RateQuote {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.RateQuote, len(v.quotes))
	copy(out, v.quotes)
	return out
}

// Snapshot returns the visitor's financial snapshot.
func (v *Visitor) Snapshot() models.FinancialSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

// SetSnapshot stores an advisor-page edit and invalidates the chat handle so
// the next turn sees the new figures.
func (v *Visitor) SetSnapshot(snapshot models.FinancialSnapshot) {
	v.mu.Lock()
	v.snapshot = snapshot
	v.mu.Unlock()
	v.Chat.SetSnapshot(snapshot)
}

// Username returns the authenticated username, or "" when logged out.
func (v *Visitor) Username() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.username
}

// Login marks the visitor authenticated and returns the login epoch and a
// context for the insight rehydration task. The context is cancelled by a
// later logout so a stale insight is never applied.
func (v *Visitor) Login(username string) (uint64, context.Context) {
	v.lifecycle.Lock()
	defer v.lifecycle.Unlock()

	v.mu.Lock()
	if v.cancelInsight != nil {
		v.cancelInsight()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancelInsight = cancel
	v.loginEpoch++
	epoch := v.loginEpoch
	v.username = username
	v.page = "accounts"
	v.mu.Unlock()

	v.Chat.Login(username)
	return epoch, ctx
}

// Logout drops authentication and cancels any pending insight generation.
func (v *Visitor) Logout() {
	v.lifecycle.Lock()
	defer v.lifecycle.Unlock()

	v.mu.Lock()
	if v.cancelInsight != nil {
		v.cancelInsight()
		v.cancelInsight = nil
	}
	v.loginEpoch++
	v.username = ""
	v.page = tools.PageHome
	v.mu.Unlock()

	v.Chat.Logout()
}

// ApplyRehydration installs the transcript (and insight summary, if one was
// generated) produced for the given login epoch. Results arriving after a
// logout or a newer login are discarded. The lifecycle lock keeps the epoch
// check and the transcript swap atomic with respect to Login and Logout.
func (v *Visitor) ApplyRehydration(epoch uint64, transcript []models.Message, summary string) bool {
	v.lifecycle.Lock()
	defer v.lifecycle.Unlock()

	v.mu.Lock()
	if epoch != v.loginEpoch {
		v.mu.Unlock()
		return false
	}
	v.mu.Unlock()

	v.Chat.Reset(transcript)
	if summary != "" {
		v.Chat.SetInsight(summary)
	}
	return true
}

// parseAmount extracts a number from a display string such as "$400,000".
func parseAmount(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}
