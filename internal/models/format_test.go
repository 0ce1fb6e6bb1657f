package models

import "testing"

func TestFormatUSD(t *testing.T) {
	cases := map[float64]string{
		0:       "$0",
		5500:    "$5,500",
		320000:  "$320,000",
		1234567: "$1,234,567",
		999:     "$999",
		2300.4:  "$2,300",
		-8000:   "-$8,000",
	}
	for in, want := range cases {
		if got := FormatUSD(in); got != want {
			t.Fatalf("FormatUSD(%v) = %q, want %q", in, got, want)
		}
	}
}
