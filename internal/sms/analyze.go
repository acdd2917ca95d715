package sms

import "fmt"

// Analysis is the character-counter view of a text.
type Analysis struct {
	Encoding Encoding `json:"encoding"`
	Parts    []Part   `json:"parts"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Analyze segments text and validates it against maxParts. A maxParts of zero
// disables the limit.
func Analyze(text string, maxParts int) Analysis {
	enc, parts := Segment(text)
	a := Analysis{Encoding: enc, Parts: parts}

	if maxParts > 0 && len(parts) > maxParts {
		a.Errors = append(a.Errors, fmt.Sprintf("message exceeds the limit of %d SMS parts (currently %d parts)", maxParts, len(parts)))
	}
	for _, p := range parts {
		if p.CharacterCount == 0 {
			a.Errors = append(a.Errors, fmt.Sprintf("part %d is empty", p.Number))
		}
	}

	if enc.Type == Unicode && enc.Parts > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("message contains non GSM-7 characters; capacity drops to %d per part", UnicodeSingleCapacity))
	}
	if len(parts) > 1 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("message will be sent as %d concatenated parts and billed %d credits", len(parts), len(parts)))
	}
	if unresolved := UnresolvedTokens(text); len(unresolved) > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("unresolved personalization tokens: %v", unresolved))
	}

	a.Valid = len(a.Errors) == 0
	return a
}
