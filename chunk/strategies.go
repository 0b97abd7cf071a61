package chunk

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	sentenceRE  = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*|[^.!?]+$`)
	paragraphRE = regexp.MustCompile(`\n[ \t]*\n`)
)

// splitSentences splits text on sentence terminators, trimming whitespace
// and dropping empty matches.
func splitSentences(text string) []string {
	matches := sentenceRE.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m != "" {
			sentences = append(sentences, m)
		}
	}
	return sentences
}

// splitParagraphs splits text on blank-line boundaries, trimming
// whitespace and dropping empty paragraphs.
func splitParagraphs(text string) []string {
	parts := paragraphRE.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// lastWords returns the trailing n words of text, or "" when the text has
// no more than n words (a seed equal to the whole chunk would just
// duplicate it).
func lastWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}

// lastSentences returns the trailing n sentences of text, backing off to
// one and then to none so the overlap never equals the whole chunk.
func lastSentences(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) > n {
		return strings.Join(sentences[len(sentences)-n:], " ")
	}
	if len(sentences) > 1 {
		return sentences[len(sentences)-1]
	}
	return ""
}

// chunkSentences packs sentences greedily into chunks of at most
// MaxChunkSize characters, carrying the trailing ~Overlap/10 words of each
// emitted chunk forward as the seed of the next. The seed preserves local
// context across chunk boundaries.
func chunkSentences(text string, opts Options) []string {
	sentences := splitSentences(text)
	seedWords := opts.Overlap / 10

	var chunks []string
	var current string

	for _, sentence := range sentences {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}

		if len(candidate) > opts.MaxChunkSize && current != "" {
			chunks = append(chunks, current)

			if seed := lastWords(current, seedWords); seed != "" {
				current = seed + " " + sentence
			} else {
				current = sentence
			}
			continue
		}

		current = candidate
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// chunkParagraphs treats blank-line boundaries as chunk boundaries. A
// paragraph that fits within MaxChunkSize becomes one chunk; an oversized
// paragraph is split by greedy sentence packing, with the last one or two
// sentences of each split carried forward as overlap.
func chunkParagraphs(text string, opts Options) []string {
	paragraphs := splitParagraphs(text)

	var chunks []string
	for _, paragraph := range paragraphs {
		if len(paragraph) <= opts.MaxChunkSize {
			chunks = append(chunks, paragraph)
			continue
		}
		chunks = append(chunks, splitOversizedParagraph(paragraph, opts)...)
	}
	return chunks
}

// splitOversizedParagraph packs a too-large paragraph's sentences greedily,
// carrying the last one-two sentences of the previous chunk as overlap.
func splitOversizedParagraph(paragraph string, opts Options) []string {
	sentences := splitSentences(paragraph)

	var chunks []string
	var current string

	for _, sentence := range sentences {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}

		if len(candidate) > opts.MaxChunkSize && current != "" {
			chunks = append(chunks, current)

			if carry := lastSentences(current, 2); carry != "" && len(carry)+len(sentence)+1 <= opts.MaxChunkSize {
				current = carry + " " + sentence
			} else {
				current = sentence
			}
			continue
		}

		current = candidate
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// chunkFixed slides a window of MaxChunkSize characters over the text,
// advancing by MaxChunkSize - Overlap. The window end snaps back to the
// nearest preceding whitespace unless that would discard more than 20% of
// the window; content past a snapped end that the next window does not
// reach is a bounded, deliberate loss.
func chunkFixed(text string, opts Options) []string {
	max := opts.MaxChunkSize
	step := max - opts.Overlap
	if step < 1 {
		step = max
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + max
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := end
		if ws := strings.LastIndexFunc(text[start:end], unicode.IsSpace); ws > 0 {
			snapped := start + ws
			if end-snapped <= max/5 {
				cut = snapped
			}
		}
		chunks = append(chunks, text[start:cut])
	}

	return chunks
}

// chunkSemantic passes paragraphs that already fit within MaxChunkSize
// through unchanged and recursively degrades oversized paragraphs to the
// sentence strategy.
func chunkSemantic(text string, opts Options) []string {
	paragraphs := splitParagraphs(text)

	var chunks []string
	for _, paragraph := range paragraphs {
		if len(paragraph) <= opts.MaxChunkSize {
			chunks = append(chunks, paragraph)
			continue
		}
		chunks = append(chunks, chunkSentences(paragraph, opts)...)
	}
	return chunks
}
