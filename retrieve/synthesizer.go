package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quarrydocs/quarry/ai"
	"github.com/quarrydocs/quarry/core"
)

// ResponseStyle controls the register of the synthesized answer.
type ResponseStyle int

const (
	// StyleBalanced answers in a few grounded sentences.
	StyleBalanced ResponseStyle = iota
	// StyleConcise answers in one or two sentences.
	StyleConcise
	// StyleDetailed answers thoroughly, quoting the context where helpful.
	StyleDetailed
)

// String returns the style's wire name.
func (s ResponseStyle) String() string {
	switch s {
	case StyleConcise:
		return "concise"
	case StyleDetailed:
		return "detailed"
	default:
		return "balanced"
	}
}

// ParseResponseStyle parses a style wire name. Empty input takes the
// balanced default.
func ParseResponseStyle(s string) (ResponseStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "balanced":
		return StyleBalanced, nil
	case "concise":
		return StyleConcise, nil
	case "detailed":
		return StyleDetailed, nil
	default:
		return 0, fmt.Errorf("unknown response style: %q", s)
	}
}

const synthesizerSystemPrompt = `You answer questions using only the numbered context passages provided.
Rules:
- Use only information present in the context. If the context does not contain the answer, say so plainly.
- Never invent facts, names, numbers, or sources that are not in the context.
- When citations are requested, reference passages by their bracketed numbers, e.g. [1] or [2][3].`

// Synthesizer produces a grounded natural-language answer from retrieved
// chunks. It is a layer on top of retrieval, never a gatekeeper: callers
// must treat a synthesis failure as degradation, not as request failure.
type Synthesizer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithSynthesizerLogger sets a custom logger.
// Default is slog.Default().
func WithSynthesizerLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSynthesizer creates an answer synthesizer.
func NewSynthesizer(generator ai.Generator, opts ...SynthesizerOption) (*Synthesizer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	s := &Synthesizer{
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Synthesize generates an answer to the query from the given hits.
// A failure is returned as a *core.GenerationError so callers can
// degrade to the raw chunks.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, hits []*Hit, style ResponseStyle, includeCitations bool) (string, error) {
	prompt := buildPrompt(query, hits, style, includeCitations)

	answer, err := s.generator.Generate(ctx, synthesizerSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn("answer generation failed", "err", err)
		return "", &core.GenerationError{Err: err}
	}
	return strings.TrimSpace(answer), nil
}

func buildPrompt(query string, hits []*Hit, style ResponseStyle, includeCitations bool) string {
	var b strings.Builder

	b.WriteString("Context passages:\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "[%d]", i+1)
		if hit.Filename != "" {
			fmt.Fprintf(&b, " (from %s)", hit.Filename)
		}
		b.WriteString("\n")
		b.WriteString(hit.Chunk.Content)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", query)

	switch style {
	case StyleConcise:
		b.WriteString("Answer in one or two sentences.")
	case StyleDetailed:
		b.WriteString("Answer thoroughly, quoting the context where it helps.")
	default:
		b.WriteString("Answer in a few sentences.")
	}
	if includeCitations {
		b.WriteString(" Cite the passages you used by their bracketed numbers.")
	}

	return b.String()
}
