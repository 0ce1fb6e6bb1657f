package models

// FinancialSnapshot holds the figures shown on the advisor page. It is edited
// by the user and read by the logged-in policy; the assistant never writes it.
type FinancialSnapshot struct {
	Income          float64 `json:"income"`
	Expenses        float64 `json:"expenses"`
	CurrentDeposits float64 `json:"current_deposits"`
	Investments     float64 `json:"investments"`
	Borrowings      float64 `json:"borrowings"`
	Insurances      string  `json:"insurances"`
}

// DefaultSnapshot returns the figures every new visitor starts with.
func DefaultSnapshot() FinancialSnapshot {
	return FinancialSnapshot{
		Income:          5500,
		Expenses:        3200,
		CurrentDeposits: 25000,
		Investments:     75000,
		Borrowings:      8000,
		Insurances:      "Auto Insurance, Health Insurance",
	}
}

// RateInputs mirrors the mortgage rate form. Percentage and LoanAmount are
// derived from HomeValue and DownPayment and are display-only.
type RateInputs struct {
	HomeValue   string `json:"home_value"`
	DownPayment string `json:"down_payment"`
	Percentage  string `json:"percentage"`
	LoanAmount  string `json:"loan_amount"`
	CreditScore string `json:"credit_score"`
	ZipCode     string `json:"zip_code"`
}

// DefaultRateInputs returns the form defaults.
func DefaultRateInputs() RateInputs {
	return RateInputs{
		HomeValue:   "400000",
		DownPayment: "80000",
		Percentage:  "20",
		LoanAmount:  "320000",
		CreditScore: "740+",
		ZipCode:     "15222",
	}
}

// RateQuote is one priced loan product. Quotes are recomputed from the form
// on demand; only the latest set is kept for page display.
type RateQuote struct {
	Name           string  `json:"name"`
	InterestRate   float64 `json:"interest_rate"`
	APR            float64 `json:"apr"`
	MonthlyPayment float64 `json:"monthly_payment"`
}
