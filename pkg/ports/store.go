package ports

import (
	"context"

	"github.com/aretw0/flume/pkg/blueprint"
)

// BlueprintStore persists pipeline blueprints by name.
type BlueprintStore interface {
	// Save stores bp under name, replacing any previous version.
	Save(ctx context.Context, name string, bp *blueprint.Blueprint) error

	// Load retrieves a blueprint.
	// Returns domain.ErrBlueprintNotFound if there is none under name.
	Load(ctx context.Context, name string) (*blueprint.Blueprint, error)

	// Delete removes a blueprint. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of every stored blueprint, sorted.
	List(ctx context.Context) ([]string, error)
}
