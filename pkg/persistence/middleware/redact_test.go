package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/flume/pkg/adapters/memory"
	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/persistence/middleware"
)

func TestRedactMiddleware(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewRedactMiddleware(`(?i)token|password`)
	if err != nil {
		t.Fatal(err)
	}
	store := mw(underlyingStore)
	ctx := context.Background()

	bp := secretBlueprint()
	bp.Clusters = []blueprint.ClusterDef{{
		Name:      "inner",
		Config:    map[string]string{"db_password": "hunter2"},
		Processes: []blueprint.ProcessDef{{Name: "p", Type: "sink", Config: map[string]string{"Token": "x", "keep": "y"}}},
	}}

	if err := store.Save(ctx, "secret", bp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if bp.Config["api_token"] != "my-secret-sauce" {
		t.Error("Caller blueprint must not be modified")
	}

	stored, err := store.Load(ctx, "secret")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored.Config["api_token"] != middleware.Masked {
		t.Errorf("api_token = %q, want masked", stored.Config["api_token"])
	}
	if stored.Clusters[0].Config["db_password"] != middleware.Masked {
		t.Errorf("cluster password = %q, want masked", stored.Clusters[0].Config["db_password"])
	}
	cfg := stored.Clusters[0].Processes[0].Config
	if cfg["Token"] != middleware.Masked || cfg["keep"] != "y" {
		t.Errorf("member config = %v", cfg)
	}
	if stored.Processes[0].Config["end"] != "3" {
		t.Errorf("unmatched keys must survive, got %v", stored.Processes[0].Config)
	}
}

func TestRedactMiddleware_BadPattern(t *testing.T) {
	if _, err := middleware.NewRedactMiddleware("("); err == nil {
		t.Error("Expected invalid pattern to be rejected")
	}
}

func TestValidateMiddleware(t *testing.T) {
	store := middleware.NewValidateMiddleware()(memory.NewStore())
	ctx := context.Background()

	bad := &blueprint.Blueprint{Processes: []blueprint.ProcessDef{{Name: "x"}}}
	if err := store.Save(ctx, "bad", bad); !errors.Is(err, blueprint.ErrInvalid) {
		t.Errorf("Save(bad) error = %v, want ErrInvalid", err)
	}
	if err := store.Save(ctx, "good", secretBlueprint()); err != nil {
		t.Errorf("Save(good) error = %v", err)
	}
	names, err := store.List(ctx)
	if err != nil || len(names) != 1 || names[0] != "good" {
		t.Errorf("List() = %v, %v", names, err)
	}
}

func TestChain_Order(t *testing.T) {
	underlyingStore := memory.NewStore()
	redact, err := middleware.NewRedactMiddleware("token")
	if err != nil {
		t.Fatal(err)
	}
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}

	// Redact runs before encryption, so the decrypted copy is masked too.
	store := middleware.Chain(underlyingStore, middleware.NewValidateMiddleware(), redact, encrypt)
	ctx := context.Background()
	if err := store.Save(ctx, "s", secretBlueprint()); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Config["api_token"] != middleware.Masked {
		t.Errorf("api_token = %q, want masked", loaded.Config["api_token"])
	}
	raw, _ := underlyingStore.Load(ctx, "s")
	if _, ok := raw.Config["__encrypted__"]; !ok {
		t.Error("innermost store should hold the encrypted envelope")
	}
}
