package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"tsguard/internal/retrieval"
	"tsguard/internal/vector"
	"tsguard/internal/worker"
)

// Store persists knowledge chunks in a Weaviate class and serves
// nearest-neighbor queries over their vectors.
type Store struct {
	client *weaviate.Client
	schema vector.SchemaClient
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client, schema: vector.NewWeaviateClientAdapter(client)}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, s.schema)
}

// Reset drops and recreates the knowledge-chunk class: a full collection
// replace. Callers must hold exclusive access to the collection for the
// duration of the rebuild.
func (s *Store) Reset(ctx context.Context) error {
	return vector.ResetSchema(ctx, s.schema)
}

// StoreChunk writes one index entry. The id, vector, text and provenance go
// in as a single object, so an entry is never partially written.
func (s *Store) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithID(chunk.ID).
		WithProperties(map[string]interface{}{
			"content":    chunk.Content,
			"source":     chunk.Source,
			"chunkIndex": chunk.ChunkIndex,
		}).
		WithVector(chunk.Vector).
		Do(ctx)
	return err
}

func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"source"}).
			WithOperator(filters.Equal).
			WithValueString(source)).
		Do(ctx)
	return err
}

// Query returns the k nearest chunks to the given vector, nearest first.
func (s *Store) Query(ctx context.Context, queryVector []float32, k int) ([]retrieval.Snippet, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var snippets []retrieval.Snippet
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if chunks, ok := data[vector.ClassName].([]interface{}); ok {
			for _, c := range chunks {
				props, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				var snippet retrieval.Snippet
				if content, ok := props["content"].(string); ok {
					snippet.Content = content
				}
				if source, ok := props["source"].(string); ok {
					snippet.Source = source
				}
				snippets = append(snippets, snippet)
			}
		}
	}

	return snippets, nil
}
