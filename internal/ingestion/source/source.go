// Package source adapts the on-disk corpus to the engine: documents,
// topics (queries), relevance judgments, and the result file sink.
package source

import "context"

// Document is one (DocID, text) pair. Sources that read several indexed
// fields join them into a single Text; Builder.Add also accepts repeated
// IDs, so a source may instead deliver one Document per field.
type Document struct {
	ID   string `json:"doc_id"`
	Text string `json:"text"`
}

// Query is one topic to be executed against the index.
type Query struct {
	ID    string `json:"query_id"`
	Query string `json:"query"`
}

// DocumentSource streams clean documents to fn, stopping at the first
// error fn returns.
type DocumentSource interface {
	Documents(ctx context.Context, fn func(Document) error) error
}

// SliceSource serves documents from memory.
type SliceSource []Document

func (s SliceSource) Documents(ctx context.Context, fn func(Document) error) error {
	for _, doc := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}
