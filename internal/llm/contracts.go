package llm

import "context"

// GenerateRequest is one extraction prompt plus the document it refers to.
// Document is optional; Text is the already-extracted text, when there is any.
type GenerateRequest struct {
	Prompt   string
	Text     string
	Document []byte
	MIMEType string
	Filename string
}

// Generator is the external extraction service: prompt and document in, raw text out.
// Implementations do not interpret the reply; Normalize does.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
}
