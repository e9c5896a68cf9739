package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)

	ERROR = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("9")).
			String()
	}
	// BENIGN styles a not-scam verdict
	BENIGN = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("10")).
			Bold().
			String()
	}
	// MALICIOUS styles a scam verdict
	MALICIOUS = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("9")).
			Bold().
			String()
	}
	HEADER = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			Bold().
			String()
	}
	// HINT styles secondary text with dimmed appearance (e.g., "(showing 20 of 57)")
	HINT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("244")).
			String()
	}
)

// Verdict picks BENIGN or MALICIOUS for a rendered result.
func Verdict(malicious bool, s string) string {
	if malicious {
		return MALICIOUS(s)
	}
	return BENIGN(s)
}
