package engine

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	dobRE   = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)
	emailRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	scoreRE = regexp.MustCompile(`(\d{1,2})`)
)

// isStop matches the opt-out token exactly; "stop ça" is not an opt-out.
func isStop(low string) bool {
	return low == "stop"
}

func isCancelIntent(low string) bool {
	return strings.Contains(low, "annuler") || strings.Contains(low, "annulation")
}

func isRescheduleIntent(low string) bool {
	for _, k := range []string{"décaler", "decaler", "replanifier", "changer"} {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

func isAffirmative(low string) bool {
	return strings.TrimSpace(low) == "oui"
}

// identityFields is a partial extraction from one identity-stage turn.
// Absent fields stay empty; the engine accumulates across turns.
type identityFields struct {
	Name  string
	DOB   string
	Email string
}

// extractIdentity pulls DOB and email by pattern, then treats whatever
// text remains as the name.
func extractIdentity(text string) identityFields {
	var f identityFields
	if m := dobRE.FindString(text); m != "" {
		f.DOB = m
	}
	if m := emailRE.FindString(text); m != "" {
		f.Email = m
	}
	rest := text
	if f.DOB != "" {
		rest = strings.Replace(rest, f.DOB, " ", 1)
	}
	if f.Email != "" {
		rest = strings.Replace(rest, f.Email, " ", 1)
	}
	f.Name = strings.TrimSpace(rest)
	return f
}

// parseService maps a menu digit or keyword to a service category.
// Empty string means unrecognized.
func parseService(text, low string) string {
	switch strings.TrimSpace(text) {
	case "1":
		return "controle"
	case "2":
		return "detartrage"
	case "3":
		return "urgence"
	case "4":
		return "autre"
	}
	switch {
	case strings.Contains(low, "contrôle") || strings.Contains(low, "controle"):
		return "controle"
	case strings.Contains(low, "détartrage") || strings.Contains(low, "detartrage"):
		return "detartrage"
	case strings.Contains(low, "douleur") || strings.Contains(low, "urgence"):
		return "urgence"
	case strings.Contains(low, "autre"):
		return "autre"
	}
	return ""
}

// parseTriage extracts a 0-10 pain score (first number in the text) and
// red-flag keywords. A nil score means no number was found.
func parseTriage(low string) (score *int, redFlags bool) {
	if m := scoreRE.FindString(low); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			score = &n
		}
	}
	for _, k := range []string{"gonflement", "fièvre", "fievre", "traumatisme"} {
		if strings.Contains(low, k) {
			redFlags = true
			break
		}
	}
	return score, redFlags
}

// parseSlotChoice returns the zero-based index for a "1"/"2"/"3"
// selection, or -1. Matching on the first rune keeps "1)" and "1."
// working, same as button payloads that echo the label.
func parseSlotChoice(low string) int {
	switch {
	case strings.HasPrefix(low, "1"):
		return 0
	case strings.HasPrefix(low, "2"):
		return 1
	case strings.HasPrefix(low, "3"):
		return 2
	}
	return -1
}
