package jsonfs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// Store fans each atom out into three independent append-only JSON-array
// collections: by derived category, by source tag, and by product ID. Each
// collection is one flat file keyed by its value.
//
// Writes are read-modify-write and NOT safe under concurrent access; callers
// must serialize all writes to a given collection.
type Store struct {
	categoriesPath string
	sourcesPath    string
	productsPath   string
	logger         *slog.Logger
}

func New(basePath string, logger *slog.Logger) (*Store, error) {
	if basePath == "" {
		basePath = "./data"
	}
	store := &Store{
		categoriesPath: filepath.Join(basePath, "categories"),
		sourcesPath:    filepath.Join(basePath, "sources"),
		productsPath:   filepath.Join(basePath, "trust_atoms"),
		logger:         logger,
	}
	for _, dir := range []string{store.categoriesPath, store.sourcesPath, store.productsPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create collection dir: %w", err)
		}
	}
	return store, nil
}

// StoreAll appends the atom to every applicable collection. Per-destination
// failures are logged and reported in the receipt; a partial fan-out is
// observable, never fatal.
func (s *Store) StoreAll(_ context.Context, atom domain.TrustAtom) domain.StoreReceipt {
	return domain.StoreReceipt{
		Category: s.appendLogged(s.categoryFile(atom), atom),
		Source:   s.appendLogged(s.sourceFile(atom), atom),
		Product:  s.appendLogged(s.productFile(atom.ProductID), atom),
	}
}

// Append writes the atom to one flat collection file, creating parent
// directories as needed.
func (s *Store) Append(_ context.Context, atom domain.TrustAtom, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return s.appendAtom(path, atom)
}

// AtomsByProduct reads the product-specific collection; when that collection
// is absent it falls back to a linear scan over every category collection.
func (s *Store) AtomsByProduct(_ context.Context, productID string) ([]domain.TrustAtom, error) {
	atoms, err := s.readCollection(s.productFile(productID))
	if err == nil && atoms != nil {
		return atoms, nil
	}
	if err != nil {
		s.logger.Warn("read product collection", "product_id", productID, "error", err)
	}

	entries, err := os.ReadDir(s.categoriesPath)
	if err != nil {
		return nil, fmt.Errorf("scan category collections: %w", err)
	}

	matched := make([]domain.TrustAtom, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		candidates, err := s.readCollection(filepath.Join(s.categoriesPath, entry.Name()))
		if err != nil {
			s.logger.Warn("read category collection", "file", entry.Name(), "error", err)
			continue
		}
		for _, atom := range candidates {
			if atom.ProductID == productID {
				matched = append(matched, atom)
			}
		}
	}
	return matched, nil
}

func (s *Store) AtomsBySource(_ context.Context, source domain.Source) ([]domain.TrustAtom, error) {
	atoms, err := s.readCollection(filepath.Join(s.sourcesPath, string(source)+".json"))
	if err != nil {
		return nil, err
	}
	if atoms == nil {
		return []domain.TrustAtom{}, nil
	}
	return atoms, nil
}

func (s *Store) AtomsByCategory(_ context.Context, category string) ([]domain.TrustAtom, error) {
	atoms, err := s.readCollection(filepath.Join(s.categoriesPath, category+".json"))
	if err != nil {
		return nil, err
	}
	if atoms == nil {
		return []domain.TrustAtom{}, nil
	}
	return atoms, nil
}

func (s *Store) categoryFile(atom domain.TrustAtom) string {
	return filepath.Join(s.categoriesPath, domain.CategoryFor(atom.ProductID)+".json")
}

func (s *Store) sourceFile(atom domain.TrustAtom) string {
	source := string(atom.Source)
	if source == "" {
		source = string(domain.SourceUnknown)
	}
	return filepath.Join(s.sourcesPath, source+".json")
}

func (s *Store) productFile(productID string) string {
	if productID == "" {
		productID = domain.UnknownProduct
	}
	return filepath.Join(s.productsPath, productID+".json")
}

func (s *Store) appendLogged(path string, atom domain.TrustAtom) bool {
	if err := s.appendAtom(path, atom); err != nil {
		s.logger.Error("store atom", "atom_id", atom.AtomID, "path", path, "error", err)
		return false
	}
	return true
}

func (s *Store) appendAtom(path string, atom domain.TrustAtom) error {
	atoms, err := s.readCollection(path)
	if err != nil {
		return err
	}
	atoms = append(atoms, atom)

	raw, err := json.MarshalIndent(atoms, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	return nil
}

// readCollection returns nil with no error when the collection file does not
// exist yet.
func (s *Store) readCollection(path string) ([]domain.TrustAtom, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}

	var atoms []domain.TrustAtom
	if err := json.Unmarshal(raw, &atoms); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return atoms, nil
}
