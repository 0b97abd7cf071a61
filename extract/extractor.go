package extract

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/quarrydocs/quarry/core"
)

// pdfSignature is the literal 4-byte header every valid PDF starts with.
var pdfSignature = []byte("%PDF")

// minUsableText is the minimum trimmed length of extracted text.
// Anything shorter is treated as "no usable content".
const minUsableText = 10

// Result holds the normalized text extracted from a document.
type Result struct {
	Text      string
	PageCount int
}

// Extractor turns validated binary PDF content into normalized plain text.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// New creates a new Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasPDFSignature reports whether data begins with the PDF signature.
// The ingestion coordinator uses this for pre-row validation; Extract
// re-checks it as a guard.
func HasPDFSignature(data []byte) bool {
	return len(data) >= len(pdfSignature) && bytes.HasPrefix(data, pdfSignature)
}

// Extract parses PDF content and returns its normalized text and page count.
//
// It fails with *core.ExtractionError when the signature is missing, the
// content is password-protected, or the extracted text is too short to be
// usable.
func (e *Extractor) Extract(data []byte) (*Result, error) {
	if !HasPDFSignature(data) {
		return nil, &core.ExtractionError{Reason: "missing PDF signature"}
	}

	// MuPDF cannot decrypt without a password and none is carried through
	// the upload contract.
	if bytes.Contains(data, []byte("/Encrypt")) {
		return nil, &core.ExtractionError{Reason: "document is password-protected"}
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &core.ExtractionError{Reason: "unreadable PDF", Err: err}
	}
	defer doc.Close()

	pageCount := doc.NumPage()

	var parts []string
	for i := 0; i < pageCount; i++ {
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("failed to extract page text", "page", i, "err", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	text := NormalizeText(strings.Join(parts, "\n\n"))
	if len(strings.TrimSpace(text)) < minUsableText {
		return nil, &core.ExtractionError{Reason: "no usable content"}
	}

	e.logger.Debug("extracted document text", "pages", pageCount, "chars", len(text))

	return &Result{
		Text:      text,
		PageCount: pageCount,
	}, nil
}

// NormalizeText canonicalizes extracted text: CRLF to LF, trailing
// whitespace stripped per line, runs of 3+ newlines collapsed to a single
// blank line, and the whole string trimmed.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}
