package sms

import (
	"strings"
	"unicode/utf8"
)

// Part is one physical SMS segment.
type Part struct {
	Number         int    `json:"part_number"`
	Content        string `json:"content"`
	CharacterCount int    `json:"character_count"`
	Units          int    `json:"units"`
}

// Split cuts text into ordered segments for the given encoding. Segments are
// filled greedily; a multi-unit character (GSM-7 escape sequence or UTF-16
// surrogate pair) always stays within one segment. Joining the Content of
// all parts yields text unchanged.
func Split(text string, typ EncodingType) []Part {
	if text == "" {
		return nil
	}

	usage := Usage(text, typ)
	if usage <= typ.SingleCapacity() {
		return []Part{{
			Number:         1,
			Content:        text,
			CharacterCount: utf16Len(text),
			Units:          usage,
		}}
	}

	capacity := typ.MultiCapacity()
	parts := make([]Part, 0, (usage+capacity-1)/capacity)

	var (
		b     strings.Builder
		units int
		chars int
	)
	flush := func() {
		parts = append(parts, Part{
			Number:         len(parts) + 1,
			Content:        b.String(),
			CharacterCount: chars,
			Units:          units,
		})
		b.Reset()
		units, chars = 0, 0
	}

	// Copy source bytes rather than re-encoding runes so an invalid UTF-8
	// byte survives the round trip; it decodes as RuneError and costs one unit.
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		u := unitsOf(r, typ)
		if units+u > capacity {
			flush()
		}
		b.WriteString(text[i : i+size])
		units += u
		chars += runeUTF16Len(r)
		i += size
	}
	if units > 0 {
		flush()
	}

	return parts
}

// Segment detects the encoding of text and splits it accordingly.
func Segment(text string) (Encoding, []Part) {
	enc := Detect(text)
	return enc, Split(text, enc.Type)
}

// Join concatenates part contents in order.
func Join(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Content)
	}
	return b.String()
}
