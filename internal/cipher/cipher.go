// Package cipher implements the classical ciphers offered by the bot.
package cipher

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidBinary is returned when a binary group is not an 8-bit number.
var ErrInvalidBinary = errors.New("invalid binary group")

// ErrUnknownVariant is returned for a Baconian variant other than 24 or 26.
var ErrUnknownVariant = errors.New("unknown baconian variant")

// shiftLetter rotates an ASCII letter by shift places, keeping case.
func shiftLetter(r rune, shift int) rune {
	var base rune
	switch {
	case r >= 'a' && r <= 'z':
		base = 'a'
	case r >= 'A' && r <= 'Z':
		base = 'A'
	default:
		return r
	}
	idx := (int(r-base) + shift%26 + 26) % 26
	return base + rune(idx)
}

// Atbash mirrors every ASCII letter (a↔z, b↔y, ...). It is its own inverse.
func Atbash(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'z' - (r - 'a')
		case r >= 'A' && r <= 'Z':
			return 'Z' - (r - 'A')
		default:
			return r
		}
	}, s)
}

// Caesar shifts every ASCII letter by shift places. A negative shift decodes.
func Caesar(s string, shift int) string {
	return strings.Map(func(r rune) rune {
		return shiftLetter(r, shift)
	}, s)
}

// Shifted is one line of a Caesar brute force.
type Shifted struct {
	Shift int    `json:"shift"`
	Text  string `json:"text"`
}

// CaesarAll returns the text under every shift from 0 to 25. With decode set
// each shift is applied backwards.
func CaesarAll(s string, decode bool) []Shifted {
	out := make([]Shifted, 26)
	for i := range out {
		shift := i
		if decode {
			shift = -i
		}
		out[i] = Shifted{Shift: i, Text: Caesar(s, shift)}
	}
	return out
}

var baconGroup = regexp.MustCompile(`[ab]{5}`)

// baconAlphabet returns the alphabet for the 24- or 26-letter variant.
func baconAlphabet(variant int) (string, error) {
	switch variant {
	case 24:
		return "ABCDEFGHIKLMNOPQRSTVWXYZ", nil
	case 26:
		return "ABCDEFGHIJKLMNOPQRSTUVWXYZ", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownVariant, variant)
	}
}

func baconCode(i int) string {
	code := []byte(fmt.Sprintf("%05b", i))
	for j, c := range code {
		if c == '0' {
			code[j] = 'a'
		} else {
			code[j] = 'b'
		}
	}
	return string(code)
}

// Baconian encodes or decodes s with Bacon's cipher. Variant 24 merges
// I/J and U/V; variant 26 gives every letter its own code.
//
// Encoding upper-cases s and replaces each letter with five a/b symbols,
// leaving other characters alone. Decoding reads 0/1 as a/b, takes every
// run of five a/b symbols, and maps unknown codes to '?'.
func Baconian(s string, variant int, encode bool) (string, error) {
	alphabet, err := baconAlphabet(variant)
	if err != nil {
		return "", err
	}

	codes := make(map[rune]string, len(alphabet))
	letters := make(map[string]rune, len(alphabet))
	for i, r := range alphabet {
		code := baconCode(i)
		codes[r] = code
		letters[code] = r
	}

	if encode {
		var b strings.Builder
		for _, r := range strings.ToUpper(s) {
			if variant == 24 {
				switch r {
				case 'J':
					r = 'I'
				case 'U':
					r = 'V'
				}
			}
			if code, ok := codes[r]; ok {
				b.WriteString(code)
				continue
			}
			b.WriteRune(r)
		}
		return b.String(), nil
	}

	normalized := strings.NewReplacer("0", "a", "1", "b").Replace(strings.ToLower(s))
	var b strings.Builder
	for _, group := range baconGroup.FindAllString(normalized, -1) {
		if r, ok := letters[group]; ok {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String(), nil
}

// Binary converts text to space-separated 8-bit groups (one per UTF-8 byte)
// or back.
func Binary(s string, encode bool) (string, error) {
	if encode {
		groups := make([]string, 0, len(s))
		for i := 0; i < len(s); i++ {
			groups = append(groups, fmt.Sprintf("%08b", s[i]))
		}
		return strings.Join(groups, " "), nil
	}

	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 2, 8)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidBinary, f)
		}
		out = append(out, byte(v))
	}
	return string(out), nil
}

// Count is the number of occurrences of one character.
type Count struct {
	Char  string `json:"char"`
	Count int    `json:"count"`
}

// Frequency counts the characters of s, ignoring whitespace and case.
// The result is ordered by descending count, ties by first appearance.
func Frequency(s string) []Count {
	index := make(map[rune]int)
	var counts []Count
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		if i, ok := index[r]; ok {
			counts[i].Count++
			continue
		}
		index[r] = len(counts)
		counts = append(counts, Count{Char: string(r), Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}
