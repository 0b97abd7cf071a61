package chunk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/quarrydocs/quarry/core"
)

// ErrUnknownStrategy is returned for a Strategy value outside the enum.
var ErrUnknownStrategy = errors.New("unknown chunking strategy")

// Strategy selects how text is split into chunks.
type Strategy int

const (
	// StrategySentence packs sentences greedily and seeds each chunk with
	// the trailing words of its predecessor.
	StrategySentence Strategy = iota + 1

	// StrategyParagraph uses blank-line boundaries as chunk boundaries;
	// oversized paragraphs are split with a sentence-carry overlap.
	StrategyParagraph

	// StrategyFixedSize slides a fixed character window, snapping window
	// ends back to whitespace within a bounded loss budget.
	StrategyFixedSize

	// StrategySemantic passes fitting paragraphs through unchanged and
	// degrades oversized ones to the sentence strategy.
	StrategySemantic
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategySentence:
		return "sentence"
	case StrategyParagraph:
		return "paragraph"
	case StrategyFixedSize:
		return "fixed_size"
	case StrategySemantic:
		return "semantic"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseStrategy parses a strategy wire name.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "sentence":
		return StrategySentence, nil
	case "paragraph":
		return StrategyParagraph, nil
	case "fixed_size":
		return StrategyFixedSize, nil
	case "semantic":
		return StrategySemantic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Default chunking parameters, in characters.
const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 100
	DefaultMinChunkSize = 10
)

// Options control chunk sizing. Zero values take the package defaults.
type Options struct {
	// MaxChunkSize is the greedy packing limit in characters. A single
	// sentence longer than the limit is kept whole rather than cut.
	MaxChunkSize int

	// Overlap is the engineered overlap budget in characters. The
	// sentence strategy carries forward roughly Overlap/10 trailing words;
	// the fixed-size strategy advances by MaxChunkSize - Overlap.
	// Zero takes the default; a negative value disables overlap.
	Overlap int

	// MinChunkSize discards shorter chunks after splitting. This is a
	// deliberately lossy trade-off: boundary content below the limit
	// vanishes.
	MinChunkSize int

	// TokenCounter, when set, records a token count on each piece.
	TokenCounter TokenCounter
}

func (o Options) withDefaults() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.Overlap == 0 {
		o.Overlap = DefaultOverlap
	} else if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxChunkSize {
		o.Overlap = o.MaxChunkSize / 2
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = DefaultMinChunkSize
	}
	return o
}

// Piece is one ordered chunk of a document's text, before embedding.
type Piece struct {
	Id         core.ID
	Content    string
	Index      int
	CharCount  int
	WordCount  int
	TokenCount int // 0 when no TokenCounter is configured
}

// Split divides text into ordered pieces using the given strategy.
//
// Splitting is deterministic: identical text and options always produce
// byte-identical pieces. Ties are broken by greedy left-to-right packing,
// never rebalanced. Empty or whitespace-only input yields zero pieces;
// callers must treat that as a pipeline failure, not an empty success.
func Split(text string, strategy Strategy, opts Options) ([]Piece, error) {
	opts = opts.withDefaults()

	if strings.TrimSpace(text) == "" {
		return []Piece{}, nil
	}

	var parts []string
	switch strategy {
	case StrategySentence:
		parts = chunkSentences(text, opts)
	case StrategyParagraph:
		parts = chunkParagraphs(text, opts)
	case StrategyFixedSize:
		parts = chunkFixed(text, opts)
	case StrategySemantic:
		parts = chunkSemantic(text, opts)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(strategy))
	}

	pieces := make([]Piece, 0, len(parts))
	for _, part := range parts {
		content := strings.TrimSpace(part)
		if len(content) < opts.MinChunkSize {
			continue
		}

		index := len(pieces)
		piece := Piece{
			Id:        core.IDFromContent(strconv.Itoa(index) + ":" + content),
			Content:   content,
			Index:     index,
			CharCount: len(content),
			WordCount: len(strings.Fields(content)),
		}
		if opts.TokenCounter != nil {
			if n, err := opts.TokenCounter.Count(content); err == nil {
				piece.TokenCount = n
			}
		}
		pieces = append(pieces, piece)
	}

	return pieces, nil
}
