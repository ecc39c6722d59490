package transform

import (
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

func TestTemplateRegistry_RegisterAndGet(t *testing.T) {
	registry := NewTemplateRegistry()

	template := Template{
		Name:        "test_template",
		Description: "A test template",
		Transforms:  []AnswerTransform{},
	}

	registry.Register(template)

	retrieved, ok := registry.Get("test_template")
	if !ok {
		t.Fatal("Expected to find template")
	}
	if retrieved.Name != template.Name {
		t.Errorf("Expected name %s, got %s", template.Name, retrieved.Name)
	}

	// Test case-insensitive
	if _, ok = registry.Get("TEST_TEMPLATE"); !ok {
		t.Fatal("Expected case-insensitive lookup to work")
	}

	if _, ok = registry.Get("nonexistent"); ok {
		t.Error("Expected not to find nonexistent template")
	}
}

func TestCreateBuiltInTemplates(t *testing.T) {
	registry := CreateBuiltInTemplates()

	for _, name := range []string{"alternance", "boursier", "colocation", "parcoursup"} {
		template, ok := registry.Get(name)
		if !ok {
			t.Errorf("Expected to find template: %s", name)
			continue
		}
		if len(template.Transforms) == 0 {
			t.Errorf("Template %s has no transforms", name)
		}
		if template.Description == "" {
			t.Errorf("Template %s has no description", name)
		}
	}

	if got := registry.List(); len(got) != 4 || got[0] != "alternance" {
		t.Errorf("Expected 4 sorted templates, got %v", got)
	}
}

func TestBuiltInTemplates_Apply(t *testing.T) {
	registry := CreateBuiltInTemplates()
	base := domain.Answers{"situation-logement": domain.StringAnswer("proprietaire")}

	for _, name := range registry.List() {
		template, _ := registry.Get(name)
		result, err := ApplyTransforms(base, template.Transforms)
		if err != nil {
			t.Errorf("Template %s failed: %v", name, err)
			continue
		}
		if len(result) <= len(base) {
			t.Errorf("Template %s added no answer", name)
		}
	}

	colocation, _ := registry.Get("colocation")
	result, err := ApplyTransforms(base, colocation.Transforms)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if s, _ := result["situation-logement"].AsString(); s != "locataire" {
		t.Errorf("Expected situation-logement locataire, got %s", s)
	}
}
