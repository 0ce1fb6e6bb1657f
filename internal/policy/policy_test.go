package policy

import (
	"strings"
	"testing"

	"bankena/internal/models"
)

func TestLoggedOutEmbedsCorpusAndRules(t *testing.T) {
	text := LoggedOut()
	for _, want := range []string{
		"Checking & Savings. Together.",
		"Home Insight® Planner",
		"navigateToPage",
		"fillMortgageRateForm",
		"[Current Page: home]",
		"Do not ask for percentage or loan amount",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("logged-out policy missing %q", want)
		}
	}
}

func TestLoggedInRendersSnapshotCurrency(t *testing.T) {
	snap := models.DefaultSnapshot()
	text := LoggedIn(snap, "")

	for _, want := range []string{
		"- Monthly Income: $5,500",
		"- Monthly Expenses: $3,200",
		"- Net Cash Flow: $2,300",
		"- Current Deposits (Savings, Checking): $25,000",
		"- Total Borrowings (Loans, Credit Cards): $8,000",
		"- Current Insurances: Auto Insurance, Health Insurance",
		"Do NOT offer to navigate pages or fill out forms.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("logged-in policy missing %q", want)
		}
	}
	if strings.Contains(text, "Welcome Back Flow") {
		t.Fatalf("welcome-back block should be absent without an insight summary")
	}
}

func TestLoggedInEmptyInsurancesFallback(t *testing.T) {
	snap := models.DefaultSnapshot()
	snap.Insurances = ""
	if !strings.Contains(LoggedIn(snap, ""), "- Current Insurances: Not specified") {
		t.Fatalf("expected insurance fallback line")
	}
}

func TestLoggedInIncludesInsightBlock(t *testing.T) {
	snap := models.DefaultSnapshot()
	insight := "Last time we spoke about retirement savings. Are you interested in exploring that further?"
	text := LoggedIn(snap, insight)

	if !strings.Contains(text, "Welcome Back Flow") {
		t.Fatalf("expected welcome-back block")
	}
	if !strings.Contains(text, insight) {
		t.Fatalf("expected pre-generated summary to appear verbatim")
	}
}
