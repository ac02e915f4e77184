// Package loam stores blueprints as JSON documents in a loam repository.
package loam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/adapters/fs"

	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/domain"
)

const ext = ".json"

// Store implements ports.BlueprintStore over a loam typed repository.
// Each blueprint is one <name>.json document whose data is the blueprint.
type Store struct {
	Dir  string
	Repo *loam.TypedRepository[blueprint.Blueprint]
}

// Open initializes an unversioned loam repository at dir.
// Numbers are decoded strictly so config values keep their type.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(".flume", "blueprints")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve loam directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure loam directory: %w", err)
	}
	repo, err := loam.Init(abs,
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
		loam.WithSerializer(ext, fs.NewJSONSerializer(true)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repository: %w", err)
	}
	return &Store{Dir: abs, Repo: loam.NewTypedRepository[blueprint.Blueprint](repo)}, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("blueprint name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid blueprint name %q", name)
	}
	return filepath.Join(s.Dir, name+ext), nil
}

// Save writes bp as the data of document <name>.json.
func (s *Store) Save(ctx context.Context, name string, bp *blueprint.Blueprint) error {
	if _, err := s.path(name); err != nil {
		return err
	}
	if bp == nil {
		return fmt.Errorf("%w: nil blueprint", blueprint.ErrInvalid)
	}
	err := s.Repo.Save(ctx, &loam.DocumentModel[blueprint.Blueprint]{
		ID:   name + ext,
		Data: *bp,
	})
	if err != nil {
		return fmt.Errorf("loam save failed: %w", err)
	}
	return nil
}

// Load decodes the document for name. Every call decodes afresh, so
// callers own the result.
func (s *Store) Load(ctx context.Context, name string) (*blueprint.Blueprint, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	// Missing documents are detected on disk.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, domain.ErrBlueprintNotFound
	}
	doc, err := s.Repo.Get(ctx, name+ext)
	if err != nil {
		return nil, fmt.Errorf("loam get failed: %w", err)
	}
	bp := doc.Data
	return &bp, nil
}

// Delete removes the document file. Missing names are ignored.
func (s *Store) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blueprint document: %w", err)
	}
	return nil
}

// List returns the IDs of every document with their extension trimmed, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := filepath.Base(doc.ID)
		if e := filepath.Ext(id); e != "" && e != ext {
			continue
		}
		names = append(names, strings.TrimSuffix(id, ext))
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
