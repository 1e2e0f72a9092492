package timeline

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultTruncate is the summary length shown on the timeline.
const DefaultTruncate = 158

var german = message.NewPrinter(language.German)

// FormatYear renders a year for display, e.g. "753 v. Chr." or
// "12.000 n. Chr.". Digits are grouped from five digits on and millions and
// billions are abbreviated with one decimal. Year 0 renders as "".
func FormatYear(year int) string {
	if year == 0 {
		return ""
	}
	era := "n. Chr."
	if year < 0 {
		era = "v. Chr."
	}
	abs := year
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return strconv.FormatFloat(float64(abs)/1e9, 'f', 1, 64) + " Mrd. " + era
	case abs >= 1_000_000:
		return strconv.FormatFloat(float64(abs)/1e6, 'f', 1, 64) + " Mio. " + era
	case abs >= 10_000:
		return german.Sprintf("%d", abs) + " " + era
	default:
		return strconv.Itoa(abs) + " " + era
	}
}

// FormatSpan renders "start – end", or only the start when end is absent.
func FormatSpan(start int, end *int) string {
	s := FormatYear(start)
	if end != nil && *end != 0 {
		s += " – " + FormatYear(*end)
	}
	return s
}

// Truncate shortens text to max runes and marks the cut with an ellipsis.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
