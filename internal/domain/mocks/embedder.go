package mocks

import "context"

// Embedder is a mock implementation of ports.Embedder returning fixed-size
// zero vectors.
type Embedder struct {
	Dim int
	Err error
}

// NewEmbedder creates a mock embedder producing vectors of the given size.
func NewEmbedder(dim int) *Embedder {
	return &Embedder{Dim: dim}
}

// Embed generates an embedding for a single text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts.
func (m *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, m.Dim)
	}
	return vectors, nil
}
