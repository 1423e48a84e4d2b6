package knowledge

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Chunker splits document text into token-bounded windows so each chunk
// fits an embedding call and stays retrievable on its own.
type Chunker struct {
	encoding *tiktoken.Tiktoken
	size     int
	overlap  int
}

// NewChunker creates a chunker with the given token window and overlap.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size)")
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Chunker{encoding: enc, size: size, overlap: overlap}, nil
}

// Split returns the text as overlapping token windows, decoded back to
// strings. Short texts come back as a single chunk.
func (c *Chunker) Split(text string) []string {
	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(tokens)+step-1)/step)
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.encoding.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
