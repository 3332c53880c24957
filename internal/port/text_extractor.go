package port

import "context"

// TextExtractor turns a document byte buffer into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}
