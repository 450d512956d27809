package worker

import "context"

// Chunk is one knowledge-base index entry: a bounded slice of a source
// document together with its embedding and provenance. The id, vector, text
// and provenance are committed to the store as one record.
type Chunk struct {
	ID         string
	Content    string
	Vector     []float32
	Source     string
	ChunkIndex int
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	StoreChunk(ctx context.Context, chunk Chunk) error
	DeleteBySource(ctx context.Context, source string) error
}
