package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *Document {
	return &Document{
		Id:       uuid.New(),
		TenantID: "tenant-a",
		Filename: "report.pdf",
		MimeType: "application/pdf",
		Status:   UploadStatusPending,
	}
}

func TestValidateDocument(t *testing.T) {
	require.NoError(t, ValidateDocument(validDocument()))
}

func TestValidateDocument_Nil(t *testing.T) {
	err := ValidateDocument(nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestValidateDocument_MissingTenant(t *testing.T) {
	doc := validDocument()
	doc.TenantID = ""
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestValidateDocument_MissingFilename(t *testing.T) {
	doc := validDocument()
	doc.Filename = ""
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrEmptyFilename)
}

func TestValidateDocument_BadStatus(t *testing.T) {
	doc := validDocument()
	doc.Status = UploadStatus(42)
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrInvalidUploadStatus)
}

func TestValidateChunk(t *testing.T) {
	chunk := &Chunk{
		Id:         IDFromContent("some content"),
		DocumentID: uuid.New(),
		TenantID:   "tenant-a",
		Content:    "some content",
		Index:      0,
	}
	require.NoError(t, ValidateChunk(chunk))
}

func TestValidateChunk_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		chunk *Chunk
		want  error
	}{
		{"nil chunk", nil, ErrInvalidChunk},
		{"missing tenant", &Chunk{Content: "x", Index: 0}, ErrTenantRequired},
		{"empty content", &Chunk{TenantID: "t", Index: 0}, ErrEmptyContent},
		{"negative index", &Chunk{TenantID: "t", Content: "x", Index: -1}, ErrNegativeIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateTenantID(t *testing.T) {
	tests := []struct {
		name   string
		tenant TenantID
		want   error
	}{
		{"valid", "acme", nil},
		{"valid with dash", "acme-eu-west", nil},
		{"empty", "", ErrTenantRequired},
		{"key delimiter", "acme:eu", ErrInvalidTenantID},
		{"leading delimiter", ":acme", ErrInvalidTenantID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTenantID(tt.tenant)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateDocument_DelimiterInTenant(t *testing.T) {
	doc := validDocument()
	doc.TenantID = "acme:eu"
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, ErrInvalidTenantID)
}

func TestValidateChunk_DelimiterInTenant(t *testing.T) {
	chunk := &Chunk{TenantID: "acme:eu", Content: "x", Index: 0}
	err := ValidateChunk(chunk)
	assert.ErrorIs(t, err, ErrInvalidChunk)
	assert.ErrorIs(t, err, ErrInvalidTenantID)
}
