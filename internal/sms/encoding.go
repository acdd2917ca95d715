// Package sms implements GSM-7/UCS-2 detection, segmentation and
// per-recipient rendering of SMS text.
package sms

import "unicode/utf16"

type EncodingType string

const (
	GSM7    EncodingType = "GSM7"
	Unicode EncodingType = "UNICODE"
)

// Segment capacities in budget units. GSM-7 units are septets, UCS-2 units
// are UTF-16 code units. Concatenated segments lose room to the UDH.
const (
	GSM7SingleCapacity    = 160
	GSM7MultiCapacity     = 153
	UnicodeSingleCapacity = 70
	UnicodeMultiCapacity  = 67
)

const gsm7Basic = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// Extended characters are sent as ESC + char and cost two septets.
const gsm7Extended = "\f^{}\\[~]|€"

var gsm7Units = func() map[rune]int {
	m := make(map[rune]int, len(gsm7Basic)+len(gsm7Extended))
	for _, r := range gsm7Basic {
		m[r] = 1
	}
	for _, r := range gsm7Extended {
		m[r] = 2
	}
	return m
}()

// Encoding is the result of classifying a text.
type Encoding struct {
	Type           EncodingType `json:"type"`
	CharacterCount int          `json:"character_count"`
	Parts          int          `json:"parts"`
	Remaining      int          `json:"remaining"`
}

// SingleCapacity returns the capacity of a message that fits one segment.
func (t EncodingType) SingleCapacity() int {
	if t == Unicode {
		return UnicodeSingleCapacity
	}
	return GSM7SingleCapacity
}

// MultiCapacity returns the capacity of each segment of a concatenated message.
func (t EncodingType) MultiCapacity() int {
	if t == Unicode {
		return UnicodeMultiCapacity
	}
	return GSM7MultiCapacity
}

// IsGSM7 reports whether r can be sent in the GSM-7 alphabet (basic or extended).
func IsGSM7(r rune) bool {
	_, ok := gsm7Units[r]
	return ok
}

// Detect classifies text and computes its segment count and leftover budget.
// A single non GSM-7 character switches the whole message to UCS-2.
func Detect(text string) Encoding {
	typ := detectType(text)
	usage := Usage(text, typ)

	enc := Encoding{
		Type:           typ,
		CharacterCount: utf16Len(text),
	}

	switch {
	case usage == 0:
		enc.Parts = 0
		enc.Remaining = typ.SingleCapacity()
	case usage <= typ.SingleCapacity():
		enc.Parts = 1
		enc.Remaining = typ.SingleCapacity() - usage
	default:
		multi := typ.MultiCapacity()
		enc.Parts = (usage + multi - 1) / multi
		enc.Remaining = enc.Parts*multi - usage
	}

	return enc
}

// Usage returns the budget units text consumes when sent as typ.
func Usage(text string, typ EncodingType) int {
	total := 0
	for _, r := range text {
		total += unitsOf(r, typ)
	}
	return total
}

func detectType(text string) EncodingType {
	for _, r := range text {
		if !IsGSM7(r) {
			return Unicode
		}
	}
	return GSM7
}

func unitsOf(r rune, typ EncodingType) int {
	if typ == Unicode {
		return runeUTF16Len(r)
	}
	if n, ok := gsm7Units[r]; ok {
		return n
	}
	// Only reachable when a caller forces GSM7 on non-GSM text; the carrier
	// substitutes such characters one for one.
	return 1
}

func runeUTF16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += runeUTF16Len(r)
	}
	return n
}
