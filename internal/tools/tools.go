// Package tools declares the two functions exposed to the model in logged-out
// mode and dispatches the calls the model emits. Each call parses into its own
// validated variant before anything side-effecting runs.
package tools

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"bankena/internal/models"
	"bankena/internal/rates"
)

// The closed set of navigable pages.
const (
	PageHome        = "home"
	PageMortgage    = "mortgage"
	PageInvestments = "investments"
)

// ValidPage reports whether page is one of the three navigable pages.
func ValidPage(page string) bool {
	switch page {
	case PageHome, PageMortgage, PageInvestments:
		return true
	}
	return false
}

// Navigator is the page-navigation collaborator.
type Navigator interface {
	Navigate(page string)
}

// RateForm is the mortgage-rate-form collaborator: the executor writes the
// inputs and triggers recomputation of the quotes.
type RateForm interface {
	SetInputs(models.RateInputs)
	Rates() []models.RateQuote
}

// Declarations returns the function declarations attached to logged-out model
// sessions. Logged-in sessions get none, which is what forbids tool use there.
func Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "navigateToPage",
			Description: "Navigates the user to a specific page within the application.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"page": {
						Type:        genai.TypeString,
						Description: `The name of the page to navigate to. Must be either "home", "mortgage", or "investments".`,
					},
				},
				Required: []string{"page"},
			},
		},
		{
			Name:        "fillMortgageRateForm",
			Description: "Fills the mortgage rate calculator on the page with user-provided details and calculates the rates.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"homeValue":   {Type: genai.TypeNumber, Description: "The total value of the home."},
					"downPayment": {Type: genai.TypeNumber, Description: "The initial down payment amount."},
					"creditScore": {Type: genai.TypeString, Description: `The user's credit score range, e.g., "720-739". Must be one of the available options.`},
					"zipCode":     {Type: genai.TypeString, Description: "The 5-digit zip code of the property."},
					"loanAmount":  {Type: genai.TypeNumber, Description: "Optional. The specific amount the user wants to borrow. If not provided, it will be calculated as home value minus down payment."},
				},
				Required: []string{"homeValue", "downPayment", "creditScore", "zipCode"},
			},
		},
	}
}

// toolCall is the closed variant set a model function call parses into.
type toolCall interface {
	isToolCall()
}

type navigateCall struct {
	Page string
}

type fillRateFormCall struct {
	HomeValue   float64
	DownPayment float64
	CreditScore string
	ZipCode     string
	LoanAmount  *float64
}

// unknownCall covers tool names outside the declared set. Unreachable given a
// closed declaration set, kept as a defensive branch.
type unknownCall struct {
	Name string
}

func (navigateCall) isToolCall()     {}
func (fillRateFormCall) isToolCall() {}
func (unknownCall) isToolCall()      {}

func parseCall(fc *genai.FunctionCall) toolCall {
	switch fc.Name {
	case "navigateToPage":
		return navigateCall{Page: stringArg(fc.Args, "page")}
	case "fillMortgageRateForm":
		call := fillRateFormCall{
			HomeValue:   numberArg(fc.Args, "homeValue"),
			DownPayment: numberArg(fc.Args, "downPayment"),
			CreditScore: stringArg(fc.Args, "creditScore"),
			ZipCode:     stringArg(fc.Args, "zipCode"),
		}
		if _, ok := fc.Args["loanAmount"]; ok {
			loan := numberArg(fc.Args, "loanAmount")
			call.LoanAmount = &loan
		}
		return call
	default:
		return unknownCall{Name: fc.Name}
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func numberArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n
	}
	return 0
}

// Result is what a dispatched call hands back to the conversation: the
// transcript confirmation text and, for a rate-form fill, the fresh quotes.
type Result struct {
	Reply  string
	Quotes []models.RateQuote
}

// Executor dispatches parsed calls to the page collaborators.
type Executor struct {
	nav  Navigator
	form RateForm
}

// NewExecutor wires the executor to its collaborators.
func NewExecutor(nav Navigator, form RateForm) *Executor {
	return &Executor{nav: nav, form: form}
}

// Execute runs exactly one model function call and returns the confirmation
// text for the transcript. Invalid arguments produce an apology without any
// side effect.
func (e *Executor) Execute(fc *genai.FunctionCall) Result {
	switch call := parseCall(fc).(type) {
	case navigateCall:
		return e.navigate(call)
	case fillRateFormCall:
		return e.fillRateForm(call)
	default:
		return Result{Reply: "Sorry, I encountered an unexpected tool request."}
	}
}

func (e *Executor) navigate(call navigateCall) Result {
	if !ValidPage(call.Page) {
		return Result{Reply: fmt.Sprintf("Sorry, I can't navigate to a page called '%s'.", call.Page)}
	}
	e.nav.Navigate(call.Page)
	return Result{Reply: fmt.Sprintf("Great, I'm taking you to the %s page now.", call.Page)}
}

func (e *Executor) fillRateForm(call fillRateFormCall) Result {
	if !rates.ValidBand(call.CreditScore) {
		return Result{Reply: fmt.Sprintf("Sorry, I can't use the credit score '%s'. Please pick one of the listed score ranges.", call.CreditScore)}
	}

	percentage, loanAmount := rates.DeriveLoanFigures(call.HomeValue, call.DownPayment)
	if call.LoanAmount != nil {
		loanAmount = *call.LoanAmount
	}

	e.form.SetInputs(models.RateInputs{
		HomeValue:   models.FormatUSD(call.HomeValue),
		DownPayment: models.FormatUSD(call.DownPayment),
		Percentage:  strconv.Itoa(percentage),
		LoanAmount:  strconv.FormatFloat(loanAmount, 'f', -1, 64),
		CreditScore: call.CreditScore,
		ZipCode:     call.ZipCode,
	})
	quotes := e.form.Rates()

	lines := make([]string, 0, len(quotes))
	for _, q := range quotes {
		lines = append(lines, fmt.Sprintf("- %s: %.3f%% Interest Rate, %s/month", q.Name, q.InterestRate, models.FormatUSD(q.MonthlyPayment)))
	}
	reply := "I've filled out the form with your details and calculated the rates, which you can see on the page under \"Current Rates\". Here's a quick summary:\n\n" + strings.Join(lines, "\n")
	return Result{Reply: reply, Quotes: quotes}
}
