package ports

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/domain"
)

func contractBlueprint(name string) *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Name:   name,
		Config: map[string]string{"_edge:capacity": "8"},
		Processes: []blueprint.ProcessDef{
			{Name: "src", Type: "numbers", Config: map[string]string{"end": "3"}},
			{Name: "print", Type: "print_number"},
		},
		Clusters: []blueprint.ClusterDef{{
			Name:      "wrap",
			Processes: []blueprint.ProcessDef{{Name: "drop", Type: "sink"}},
			Inputs:    []blueprint.PortMapping{{Port: "in", To: "drop.sink"}},
		}},
		Connections: []blueprint.ConnectionDef{
			{From: "src.number", To: "print.number"},
			{From: "src.number", To: "wrap.in"},
		},
	}
}

// RunBlueprintStoreContract runs a suite of tests to verify that a
// BlueprintStore implementation adheres to the defined interface contract.
func RunBlueprintStoreContract(t *testing.T, store BlueprintStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		bp := contractBlueprint(name)
		require.NoError(t, store.Save(ctx, name, bp), "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, bp, loaded)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, contractBlueprint(name)))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		loaded.Processes[0].Config["end"] = "99"

		again, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "3", again.Processes[0].Config["end"])
	})

	t.Run("Save overwrites", func(t *testing.T) {
		bp := contractBlueprint(name)
		bp.Description = "second version"
		require.NoError(t, store.Save(ctx, name, bp))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "second version", loaded.Description)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrBlueprintNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, contractBlueprint(name)))
		require.NoError(t, store.Delete(ctx, name), "Delete should not return error")

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrBlueprintNotFound, "Load after Delete should return ErrBlueprintNotFound")

		assert.NoError(t, store.Delete(ctx, name), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-b"
		id2 := name + "-a"
		require.NoError(t, store.Save(ctx, id1, contractBlueprint(id1)))
		require.NoError(t, store.Save(ctx, id2, contractBlueprint(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
		assert.True(t, slices.IsSorted(names), "List should be sorted: %v", names)
	})
}
