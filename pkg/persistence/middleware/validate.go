package middleware

import (
	"context"

	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/ports"
)

type validateMiddleware struct {
	ports.BlueprintStore
}

// NewValidateMiddleware rejects structurally invalid blueprints on save.
func NewValidateMiddleware() Middleware {
	return func(next ports.BlueprintStore) ports.BlueprintStore {
		return &validateMiddleware{BlueprintStore: next}
	}
}

func (m *validateMiddleware) Save(ctx context.Context, name string, bp *blueprint.Blueprint) error {
	if err := bp.Validate(); err != nil {
		return err
	}
	return m.BlueprintStore.Save(ctx, name, bp)
}
