package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/calcbot/internal/cipher"
)

const baconianNote = "\n\nNote: I = I/J, U = U/V because both pairs of characters encode to the same value."

func handleCryptanalysis(_ context.Context, opts Options) (Response, error) {
	counts := cipher.Frequency(opts.String("input"))

	lines := make([]string, len(counts))
	for i, c := range counts {
		lines[i] = fmt.Sprintf("%s: %d", c.Char, c.Count)
	}

	return Response{Content: "Character Frequency:\n```\n" + strings.Join(lines, "\n") + "\n```"}, nil
}

func handleAtbash(_ context.Context, opts Options) (Response, error) {
	return Response{Content: "Result: " + cipher.Atbash(opts.String("input"))}, nil
}

func handleCaesar(_ context.Context, opts Options) (Response, error) {
	input := opts.String("input")
	decode := opts.String("operation") == "decode"

	shift, ok := opts.Int("shift")
	if !ok {
		heading := "**All Caesar Shift Encodings:**"
		if decode {
			heading = "**All Caesar Shift Decodings:**"
		}

		lines := []string{heading}
		for _, s := range cipher.CaesarAll(input, decode) {
			lines = append(lines, fmt.Sprintf("+%d: `%s`", s.Shift, s.Text))
		}
		return Response{Content: strings.Join(lines, "\n")}, nil
	}

	applied := shift
	if decode {
		applied = -shift
	}
	return Response{Content: fmt.Sprintf("Shift +%d: `%s`", shift, cipher.Caesar(input, applied))}, nil
}

func baconianHandler(variant int) Handler {
	return func(_ context.Context, opts Options) (Response, error) {
		encode := opts.String("operation") == "encode"
		result, err := cipher.Baconian(opts.String("input"), variant, encode)
		if err != nil {
			return Response{}, err
		}

		content := "Result: " + result
		// The 24-letter alphabet decodes merged pairs to I and V only.
		if variant == 24 && !encode && strings.ContainsAny(result, "IV") {
			content += baconianNote
		}
		return Response{Content: content}, nil
	}
}

func handleBinary(_ context.Context, opts Options) (Response, error) {
	result, err := cipher.Binary(opts.String("input"), opts.String("operation") == "encode")
	if err != nil {
		return Response{}, err
	}
	return Response{Content: "Result: " + result}, nil
}
