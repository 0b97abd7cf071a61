package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quarrydocs/quarry/chunk"
	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/extract"
)

// DefaultMaxUploadBytes caps how large a decoded upload may be.
const DefaultMaxUploadBytes = 50 << 20 // 50 MiB

// Upload is one document to ingest. Exactly one input source is used,
// checked in order: FilePath, Data, Base64Data.
type Upload struct {
	TenantID core.TenantID
	Filename string
	MimeType string

	// FilePath reads the document from local disk.
	FilePath string
	// Data is the raw document content.
	Data []byte
	// Base64Data is standard-encoded document content.
	Base64Data string
	// Compressed marks the decoded payload as gzip-compressed.
	Compressed bool

	// Strategy selects the chunking strategy; zero value means paragraph.
	Strategy chunk.Strategy
	// Chunking overrides chunk sizing; zero values take package defaults.
	Chunking chunk.Options
}

// read resolves the upload's input source to raw bytes, decompressing
// when asked. Filename falls back to the file path's base name.
func (u *Upload) read() ([]byte, error) {
	var data []byte

	switch {
	case u.FilePath != "":
		fileData, err := os.ReadFile(u.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload file: %w", err)
		}
		data = fileData
		if u.Filename == "" {
			u.Filename = filepath.Base(u.FilePath)
		}
	case len(u.Data) > 0:
		data = u.Data
	case u.Base64Data != "":
		decoded, err := base64.StdEncoding.DecodeString(u.Base64Data)
		if err != nil {
			return nil, &core.ValidationError{Reason: "malformed base64 payload: " + err.Error()}
		}
		data = decoded
	default:
		return nil, ErrNoInput
	}

	if u.Compressed {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &core.ValidationError{Reason: "malformed gzip payload: " + err.Error()}
		}
		defer zr.Close()

		decompressed, err := io.ReadAll(zr)
		if err != nil {
			return nil, &core.ValidationError{Reason: "truncated gzip payload: " + err.Error()}
		}
		data = decompressed
	}

	return data, nil
}

// validate rejects an upload before any document row is created.
func validate(upload *Upload, data []byte, maxBytes int64) error {
	if err := core.ValidateTenantID(upload.TenantID); err != nil {
		return &core.ValidationError{Reason: err.Error()}
	}
	if upload.Filename == "" {
		return &core.ValidationError{Reason: "filename required"}
	}
	if len(data) == 0 {
		return &core.ValidationError{Reason: "empty upload"}
	}
	if int64(len(data)) > maxBytes {
		return &core.ValidationError{Reason: fmt.Sprintf("upload of %d bytes exceeds limit of %d", len(data), maxBytes)}
	}
	if !extract.HasPDFSignature(data) {
		return &core.ValidationError{Reason: "content does not start with the PDF signature"}
	}
	return nil
}
