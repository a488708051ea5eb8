package commands

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// fixed3 formats v with three decimals. Non-finite values get a word or
// symbol instead of Go's NaN/Inf spelling.
func fixed3(v float64) string {
	switch {
	case math.IsNaN(v):
		return "undefined"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}

	s := strconv.FormatFloat(v, 'f', 3, 64)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}

// shortest formats v with the fewest digits that round-trip.
func shortest(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinShortest(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = shortest(x)
	}
	return strings.Join(parts, ", ")
}

// listOrNone renders xs as a comma list, or "None" when empty.
func listOrNone(xs []float64) string {
	if len(xs) == 0 {
		return "None"
	}
	return joinShortest(xs)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// clampResponse enforces the platform length limits on a reply.
func clampResponse(resp Response) Response {
	resp.Content = truncate(resp.Content, MaxContentLength)
	for i := range resp.Embeds {
		for j := range resp.Embeds[i].Fields {
			field := &resp.Embeds[i].Fields[j]
			field.Value = truncate(field.Value, MaxEmbedFieldLength)
		}
	}
	return resp
}
