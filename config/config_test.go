package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "llm.yaml", `
provider: anthropic
model: claude-sonnet-4
vertex:
  project_id: my-project
  location: us-east5
`)

	loader, err := Load[Settings](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := loader.Get()
	if s.Provider != "anthropic" {
		t.Fatalf("Provider = %q", s.Provider)
	}
	if s.Model != "claude-sonnet-4" {
		t.Fatalf("Model = %q", s.Model)
	}
	if s.Vertex.ProjectID != "my-project" || s.Vertex.Location != "us-east5" {
		t.Fatalf("Vertex = %+v", s.Vertex)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "llm.yaml", `
provider: google
`)

	loader, err := Load[Settings](path, WithDefaults[Settings](map[string]any{
		"vertex.location": "us-central1",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := loader.Get()
	if s.Vertex.Location != "us-central1" {
		t.Fatalf("Location = %q", s.Vertex.Location)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("LLM_OPENAI_API_KEY", "sk-test")

	path := writeFile(t, t.TempDir(), "llm.yaml", `
provider: openai
model: gpt-4o
openai:
  api_key: ""
`)

	loader, err := Load[Settings](path, WithEnv[Settings]("LLM"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loader.Get().OpenAI.APIKey; got != "sk-test" {
		t.Fatalf("APIKey = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load[Settings](filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "llm.yaml", "provider: openai\n")
	loader, err := Load[Settings](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := loader.Get()
	a.Provider = "mutated"
	if loader.Get().Provider != "openai" {
		t.Fatal("Get returned shared state")
	}
}
