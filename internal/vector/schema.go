package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class backing the "kb" collection.
const ClassName = "KnowledgeChunk"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	DeleteClass(ctx context.Context, className string) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

func classDefinition() *models.Class {
	return &models.Class{
		Class:       ClassName,
		Description: "A chunk of a knowledge-base document",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:     "content",
				DataType: []string{"text"},
			},
			{
				Name:     "source",
				DataType: []string{"string"}, // provenance label (exact match)
			},
			{
				Name:     "chunkIndex",
				DataType: []string{"int"},
			},
		},
	}
}

// EnsureSchema checks that the knowledge-chunk class exists and creates it if
// not. An existing class is patched with any missing properties.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	def := classDefinition()
	if !exists {
		return client.CreateClass(ctx, def)
	}

	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range def.Properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// ResetSchema drops the knowledge-chunk class (and with it every stored
// chunk) and recreates it empty. Used by the full-replace index rebuild; not
// safe to run concurrently with queries against the class.
func ResetSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}
	if exists {
		if err := client.DeleteClass(ctx, ClassName); err != nil {
			return err
		}
	}
	return client.CreateClass(ctx, classDefinition())
}
