package textproc

import (
	"regexp"
	"strings"

	"contentproc/internal/apperrors"
)

// ChunkOptions parameterizes the chunker.
type ChunkOptions struct {
	ChunkSize    int // max chars per chunk before overlap is added
	ChunkOverlap int // trailing chars of the previous chunk repeated at the front of the next
	MinChunkSize int
	MaxChunkSize int
}

// DefaultChunkOptions are reasonable defaults for article-length text.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{ChunkSize: 1000, ChunkOverlap: 100, MinChunkSize: 50, MaxChunkSize: 2000}
}

var sentenceBoundary = regexp.MustCompile(`(?s)([.!?])\s+`)

func splitParagraphs(text string) []string {
	raw := regexp.MustCompile(`\n\s*\n`).Split(text, -1)
	paras := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 && strings.TrimSpace(text) != "" {
		paras = []string{strings.TrimSpace(text)}
	}
	return paras
}

func splitSentences(text string) []string {
	marked := sentenceBoundary.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// charWindow splits a unit (sentence or longer) into fixed-size
// character windows, used as the last-resort strategy when a unit
// alone exceeds chunkSize.
func charWindow(text string, size int) []string {
	var out []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, strings.TrimSpace(string(runes[start:end])))
	}
	return out
}

// units breaks text into the sequence of reading-order pieces the
// packer will assemble into chunks: whole paragraphs when they fit,
// otherwise their sentences, otherwise fixed character windows of the
// oversized sentence. Paragraph order and sentence order within a
// paragraph are always preserved.
func units(text string, chunkSize int) []string {
	var out []string
	for _, para := range splitParagraphs(text) {
		if len([]rune(para)) <= chunkSize {
			out = append(out, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if len([]rune(sent)) <= chunkSize {
				out = append(out, sent)
			} else {
				out = append(out, charWindow(sent, chunkSize)...)
			}
		}
	}
	return out
}

// pack greedily assembles units into base chunks (no overlap yet), each
// within [minSize, maxSize] where possible; a single oversized unit is
// emitted as its own chunk rather than split mid-word.
func pack(pieces []string, chunkSize, minSize, maxSize int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, piece := range pieces {
		candidateLen := current.Len()
		if candidateLen > 0 {
			candidateLen++ // joining space
		}
		candidateLen += len(piece)

		if current.Len() > 0 && candidateLen > chunkSize && current.Len() >= minSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)

		if current.Len() >= maxSize {
			flush()
		}
	}
	flush()
	return chunks
}

// Chunk splits text into chunks honoring the paragraph → sentence →
// char-window preference order, then applies overlap. Input no longer
// than ChunkSize is returned as a single chunk as-is. Otherwise chunks
// are packed toward [MinChunkSize, MaxChunkSize], but the last chunk
// is never merged into its predecessor: when the text left after the
// previous chunk is short, the last chunk (plus any overlap) can be
// shorter than MinChunkSize.
func Chunk(text string, opts ChunkOptions) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot chunk empty text")
	}
	if opts.ChunkSize <= 0 {
		opts = DefaultChunkOptions()
	}

	if len([]rune(text)) <= opts.ChunkSize {
		return []string{strings.TrimSpace(text)}, nil
	}

	base := pack(units(text, opts.ChunkSize), opts.ChunkSize, opts.MinChunkSize, opts.MaxChunkSize)
	if opts.ChunkOverlap <= 0 || len(base) < 2 {
		return base, nil
	}

	out := make([]string, len(base))
	out[0] = base[0]
	for i := 1; i < len(base); i++ {
		prev := []rune(base[i-1])
		overlapLen := opts.ChunkOverlap
		if overlapLen > len(prev) {
			overlapLen = len(prev)
		}
		overlap := string(prev[len(prev)-overlapLen:])
		out[i] = strings.TrimSpace(overlap + " " + base[i])
	}
	return out, nil
}

// BaseChunks is like Chunk but skips the overlap step, exposing the
// non-overlapping partition used for the round-trip reconstruction
// property: strings.Join(BaseChunks(...), " ") reconstructs the
// (whitespace-normalized) input.
func BaseChunks(text string, opts ChunkOptions) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot chunk empty text")
	}
	if opts.ChunkSize <= 0 {
		opts = DefaultChunkOptions()
	}
	if len([]rune(text)) <= opts.ChunkSize {
		return []string{strings.TrimSpace(text)}, nil
	}
	return pack(units(text, opts.ChunkSize), opts.ChunkSize, opts.MinChunkSize, opts.MaxChunkSize), nil
}
