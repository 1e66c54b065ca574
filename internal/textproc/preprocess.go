// Package textproc implements text preprocessing and chunking: HTML/
// whitespace/URL/email sanitation, and paragraph/sentence/char-window
// chunking with overlap. Grounded on the goquery-based cleaning in
// internal/fetch, generalized into a standalone, idempotent pipeline.
package textproc

import (
	"html"
	"regexp"
	"strings"

	"contentproc/internal/apperrors"
)

const defaultMinLength = 10

var (
	tagRegex       = regexp.MustCompile(`<[^>]*>`)
	urlRegex       = regexp.MustCompile(`https?://[^\s]+`)
	emailRegex     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	whitespaceRgx  = regexp.MustCompile(`\s+`)
	specialCharRgx = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?'"\-]`)
)

// PreprocessOptions controls the special-character policy.
type PreprocessOptions struct {
	MinLength       int  // reject shorter input; default 10
	RetainPunct     bool // keep punctuation when stripping special characters
	StripSpecial    bool // apply the special-character policy at all
}

// DefaultPreprocessOptions matches the spec's stated defaults.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{MinLength: defaultMinLength, RetainPunct: true, StripSpecial: false}
}

// Preprocess strips tags, unescapes HTML entities, replaces URLs and
// emails with placeholder tokens, and normalizes whitespace. It is
// idempotent: Preprocess(Preprocess(x)) == Preprocess(x).
func Preprocess(input string, opts PreprocessOptions) (string, error) {
	if opts.MinLength == 0 {
		opts.MinLength = defaultMinLength
	}
	if len(strings.TrimSpace(input)) < opts.MinLength {
		return "", apperrors.New(apperrors.CodeValidation, "input shorter than minimum length")
	}

	out := html.UnescapeString(input)
	out = tagRegex.ReplaceAllString(out, " ")
	out = urlRegex.ReplaceAllString(out, "[URL]")
	out = emailRegex.ReplaceAllString(out, "[EMAIL]")

	if opts.StripSpecial {
		if opts.RetainPunct {
			out = specialCharRgx.ReplaceAllString(out, "")
		} else {
			out = regexp.MustCompile(`[^a-zA-Z0-9\s]`).ReplaceAllString(out, "")
		}
	}

	out = whitespaceRgx.ReplaceAllString(out, " ")
	return strings.TrimSpace(out), nil
}
