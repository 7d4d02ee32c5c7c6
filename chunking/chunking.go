package chunking

import (
	"context"
	"strings"

	"github.com/sweetpotato0/docsum/document"
)

// DefaultChunkSize is the number of words per chunk when none is configured.
const DefaultChunkSize = 200

// Split groups the words of text into consecutive chunks of at most size words.
// Any run of whitespace separates words; chunk text is rejoined with single
// spaces. A size below 1 falls back to DefaultChunkSize.
func Split(text string, size int) []document.Chunk {
	if size < 1 {
		size = DefaultChunkSize
	}
	words := document.Words(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]document.Chunk, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, document.Chunk{
			Index: start / size,
			Text:  strings.Join(words[start:end], " "),
		})
	}
	return chunks
}

// Chunker splits documents into chunks that can be summarized independently.
type Chunker interface {
	Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error)
}

// WordChunker is a Chunker with a fixed word budget per chunk.
type WordChunker struct {
	size int
}

// Option customizes the word chunker.
type Option func(*WordChunker)

// WithChunkSize overrides the default chunk size (words).
func WithChunkSize(size int) Option {
	return func(c *WordChunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// NewWordChunker constructs a chunker using DefaultChunkSize unless overridden.
func NewWordChunker(opts ...Option) *WordChunker {
	c := &WordChunker{size: DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the configured words per chunk.
func (c *WordChunker) Size() int {
	return c.size
}

// Chunk implements Chunker.
func (c *WordChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Split(doc.Content, c.size), nil
}
