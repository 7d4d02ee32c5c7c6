package document

import (
	"strings"
)

// Document is a named plain-text source submitted for summarization.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Chunk is a bounded, ordered slice of a document's words.
type Chunk struct {
	Index int    `json:"chunk_index"`
	Text  string `json:"text"`
}

// ChunkSummary is the summarizer's answer for one chunk. Index is the join key
// back to the originating Chunk.
type ChunkSummary struct {
	Index     int    `json:"chunk_index"`
	Summary   string `json:"summary"`
	WordCount int    `json:"word_count"`
}

// Report aggregates the summaries of every chunk of one document, ordered by
// chunk index.
type Report struct {
	SourceName  string         `json:"file_name"`
	TotalChunks int            `json:"total_chunks"`
	Summaries   []ChunkSummary `json:"summaries"`
}

// NewReport builds a report from summaries that are already in index order.
func NewReport(source string, summaries []ChunkSummary) *Report {
	out := make([]ChunkSummary, len(summaries))
	copy(out, summaries)
	return &Report{
		SourceName:  source,
		TotalChunks: len(out),
		Summaries:   out,
	}
}

// Words splits text on any run of whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

// CountWords returns the number of whitespace separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
