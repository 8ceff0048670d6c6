package documents

import "context"

// Extractor turns a binary document into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Store archives uploaded documents and returns a retrievable URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
