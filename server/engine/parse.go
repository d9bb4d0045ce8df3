package engine

import "strings"

// Models are invited to reason inside <think>...</think> tags before giving
// their decision. The parsers below strip that segment and scan whatever is
// left with deliberately forgiving rules, since replies rarely follow the
// requested grammar exactly.

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// StripThinking splits a complete <think>...</think> segment from the body.
// If the pair is absent the original text is returned with empty thinking.
func StripThinking(s string) (thinking, rest string) {
	start := strings.Index(s, thinkOpen)
	end := strings.Index(s, thinkClose)
	if start < 0 || end < 0 || end < start {
		return "", s
	}
	thinking = strings.TrimSpace(s[start+len(thinkOpen) : end])
	rest = strings.TrimSpace(s[:start] + s[end+len(thinkClose):])
	return thinking, rest
}

// afterThinking drops everything up to and including the closing tag. Some
// models emit the closing tag without the opening one, so only the closer is
// required.
func afterThinking(s string) string {
	if i := strings.Index(s, thinkClose); i >= 0 {
		return strings.TrimSpace(s[i+len(thinkClose):])
	}
	return s
}

// ParseColumn extracts a Connect 4 column from free-form response text: the
// first character in [0-6] after the reasoning segment is removed.
func ParseColumn(response string) (int, error) {
	_, clean := StripThinking(response)
	for _, r := range clean {
		if r >= '0' && r <= '6' {
			return int(r - '0'), nil
		}
	}
	return 0, &UnparseableError{Raw: response}
}

// ParseHitStand resolves a blackjack decision with the following precedence:
// exact HIT/STAND match, then the last whitespace-delimited token containing
// HIT or STAND, then a whole-text scan checking STAND before HIT (stand is
// the safer read of an ambiguous reply).
func ParseHitStand(response string) (BlackjackAction, error) {
	clean := strings.ToUpper(strings.TrimSpace(afterThinking(response)))

	switch clean {
	case "HIT":
		return Hit, nil
	case "STAND":
		return Stand, nil
	}

	if words := strings.Fields(clean); len(words) > 0 {
		last := words[len(words)-1]
		if strings.Contains(last, "HIT") {
			return Hit, nil
		}
		if strings.Contains(last, "STAND") {
			return Stand, nil
		}
	}

	if strings.Contains(clean, "STAND") {
		return Stand, nil
	}
	if strings.Contains(clean, "HIT") {
		return Hit, nil
	}

	return "", &UnparseableError{Raw: response}
}
