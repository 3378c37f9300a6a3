package registry

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newTestLoader() *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadRegistry(t *testing.T) {
	path := writeFile(t, "registry.json", `{
  "cerave_foaming_cleanser": {
    "product_id": "cerave_foaming_cleanser",
    "canonical_name": "cerave foaming facial cleanser",
    "brand": "cerave",
    "category": "skincare",
    "type": "cleanser",
    "aliases": ["cerave cleanser"],
    "identifiers": {"upc": "301871239012"}
  }
}`)

	reg := newTestLoader().LoadRegistry(path)
	if len(reg) != 1 {
		t.Fatalf("expected 1 product, got %d", len(reg))
	}
	product := reg["cerave_foaming_cleanser"]
	if product.CanonicalName != "cerave foaming facial cleanser" || product.Brand != "cerave" {
		t.Fatalf("unexpected product: %+v", product)
	}
	if product.Identifiers["upc"] != "301871239012" {
		t.Fatalf("expected identifier parsed, got %+v", product.Identifiers)
	}
}

func TestLoadRegistryMissingFileDegradesToEmpty(t *testing.T) {
	reg := newTestLoader().LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	if len(reg) != 0 {
		t.Fatalf("expected empty registry, got %d entries", len(reg))
	}
}

func TestLoadSchema(t *testing.T) {
	path := writeFile(t, "schema.json", `{"required": ["atom_id", "product_id", "source"]}`)

	fields := newTestLoader().LoadSchema(path)
	want := []string{"atom_id", "product_id", "source"}
	if !reflect.DeepEqual(fields, want) {
		t.Fatalf("expected required fields %v, got %v", want, fields)
	}
}

func TestLoadSchemaMissingFileSkipsValidation(t *testing.T) {
	fields := newTestLoader().LoadSchema(filepath.Join(t.TempDir(), "missing.json"))
	if fields != nil {
		t.Fatalf("expected nil fields, got %v", fields)
	}
}

func TestLoadEmbeddings(t *testing.T) {
	path := writeFile(t, "embeddings.json", `{"p1": [0.1, 0.2], "p2": [0.3, 0.4]}`)

	embeddings := newTestLoader().LoadEmbeddings(path)
	if len(embeddings) != 2 || len(embeddings["p1"]) != 2 {
		t.Fatalf("unexpected embeddings: %v", embeddings)
	}
}

func TestLoadLexiconOverrides(t *testing.T) {
	path := writeFile(t, "lexicon.yaml", `positive:
  - brilliant
  - superb
`)

	lexicon := newTestLoader().LoadLexicon(path)
	if !reflect.DeepEqual(lexicon.Positive, []string{"brilliant", "superb"}) {
		t.Fatalf("expected yaml positives, got %v", lexicon.Positive)
	}
}

func TestLoadLexiconMissingFileUsesDefaults(t *testing.T) {
	lexicon := newTestLoader().LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml"))
	if len(lexicon.Positive) == 0 || len(lexicon.Tags) == 0 {
		t.Fatalf("expected default lexicon, got %+v", lexicon)
	}
}
