package chunk

import "github.com/pkoukk/tiktoken-go"

// TokenCounter counts model tokens in text. Counts are recorded as chunk
// metadata only; they never influence chunk boundaries.
type TokenCounter interface {
	Count(text string) (int, error)
}

type tiktokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTiktokenCounter returns a TokenCounter backed by the named tiktoken
// encoding (e.g. "cl100k_base").
func NewTiktokenCounter(encoding string) (TokenCounter, error) {
	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &tiktokenCounter{encoder: encoder}, nil
}

func (c *tiktokenCounter) Count(text string) (int, error) {
	return len(c.encoder.Encode(text, nil, nil)), nil
}
