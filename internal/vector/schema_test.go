package vector

import (
	"context"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
	DeletedClasses  []string
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	return m.ExistingClass != nil, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) DeleteClass(ctx context.Context, className string) error {
	m.DeletedClasses = append(m.DeletedClasses, className)
	m.ExistingClass = nil
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func TestEnsureSchema_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass == nil {
		t.Fatal("Class not created")
	}
	if client.CreatedClass.Class != ClassName {
		t.Errorf("Wrong class name: %s", client.CreatedClass.Class)
	}
	if client.CreatedClass.Vectorizer != "none" {
		t.Errorf("Vectors are supplied by the application, vectorizer must be none, got %q", client.CreatedClass.Vectorizer)
	}

	expectedProps := map[string]string{
		"content":    "text",
		"source":     "string",
		"chunkIndex": "int",
	}
	for _, prop := range client.CreatedClass.Properties {
		if expectedType, ok := expectedProps[prop.Name]; ok {
			if len(prop.DataType) == 0 || prop.DataType[0] != expectedType {
				t.Errorf("Property %s has wrong DataType: %v (expected %s)", prop.Name, prop.DataType, expectedType)
			}
		}
	}
}

func TestEnsureSchema_AddsMissingProperties(t *testing.T) {
	existingClass := &models.Class{
		Class: ClassName,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
		},
	}

	client := &MockSchemaClient{ExistingClass: existingClass}

	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass != nil {
		t.Fatal("Should not recreate class if it exists")
	}

	addedNames := make(map[string]bool)
	for _, p := range client.AddedProperties {
		addedNames[p.Name] = true
	}

	if !addedNames["source"] {
		t.Error("Missing 'source' property")
	}
	if !addedNames["chunkIndex"] {
		t.Error("Missing 'chunkIndex' property")
	}
	if addedNames["content"] {
		t.Error("Should not re-add existing 'content' property")
	}
}

func TestResetSchema_DropsAndRecreates(t *testing.T) {
	client := &MockSchemaClient{
		ExistingClass: &models.Class{Class: ClassName},
	}

	if err := ResetSchema(context.Background(), client); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	if len(client.DeletedClasses) != 1 || client.DeletedClasses[0] != ClassName {
		t.Fatalf("Expected class %s to be deleted, got %v", ClassName, client.DeletedClasses)
	}
	if client.CreatedClass == nil {
		t.Fatal("Class not recreated after delete")
	}
}

func TestResetSchema_MissingClassIsCreated(t *testing.T) {
	client := &MockSchemaClient{}

	if err := ResetSchema(context.Background(), client); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	if len(client.DeletedClasses) != 0 {
		t.Error("Nothing to delete when the class does not exist")
	}
	if client.CreatedClass == nil {
		t.Fatal("Class not created")
	}
}
