package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/flume/pkg/config"
)

func numbersSchema() Schema {
	return Schema{
		{Name: "start", Type: Int(), Default: "0", Description: "first number"},
		{Name: "end", Type: Int(), Default: "100", Description: "one past the last number"},
		{Name: "label", Type: String(), Required: true},
	}
}

func TestValidate_Success(t *testing.T) {
	cfg := config.FromMap(map[string]string{
		"start": "1",
		"end":   "10",
		"label": "n",
	})

	if err := Validate(numbersSchema(), cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := config.FromMap(map[string]string{"start": "1"})

	err := Validate(numbersSchema(), cfg)
	if err == nil {
		t.Fatal("Validate() should return error for missing required key")
	}

	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(errs))
	}

	var validErr *ValidationError
	if !errors.As(errs[0], &validErr) {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if validErr.Key != "label" || validErr.Reason != "required" {
		t.Errorf("ValidationError = %+v, want label/required", validErr)
	}
	if validErr.Error() != `key "label": required` {
		t.Errorf("Error() = %q", validErr.Error())
	}
}

func TestValidate_AggregatesBadValues(t *testing.T) {
	cfg := config.FromMap(map[string]string{
		"start": "one",
		"end":   "ten",
		"label": "n",
	})

	err := Validate(numbersSchema(), cfg)
	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Validate() = %d errors, want 2: %v", len(errs), err)
	}

	var validErr *ValidationError
	if !errors.As(errs[0], &validErr) || validErr.Value != "one" {
		t.Errorf("first error = %v, want value %q", errs[0], "one")
	}

	var aggr *AggregateError
	if !errors.As(err, &aggr) {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if aggr.Error() == errs[0].Error() {
		t.Errorf("aggregate message should list every failure, got %q", aggr.Error())
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	cfg := config.FromMap(map[string]string{"anything": "goes"})
	if err := Validate(nil, cfg); err != nil {
		t.Errorf("Validate(nil) error = %v", err)
	}
}

func TestValidate_IgnoresUndeclared(t *testing.T) {
	cfg := config.FromMap(map[string]string{"label": "n", "extra": "x"})
	if err := Validate(numbersSchema(), cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidateStrict(t *testing.T) {
	cfg := config.FromMap(map[string]string{
		"label":       "n",
		"extra":       "x",
		"_type":       "numbers",
		"_edge:limit": "3",
	})

	errs := ValidationErrors(ValidateStrict(numbersSchema(), cfg))
	if len(errs) != 1 {
		t.Fatalf("ValidateStrict() = %d errors, want 1", len(errs))
	}
	var validErr *ValidationError
	if !errors.As(errs[0], &validErr) || validErr.Key != "extra" {
		t.Errorf("error = %v, want undeclared key extra", errs[0])
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := config.FromMap(map[string]string{"end": "5"})

	if err := numbersSchema().ApplyDefaults(cfg); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}
	if got := cfg.ValueOr("start", ""); got != "0" {
		t.Errorf("start = %q, want default %q", got, "0")
	}
	if got := cfg.ValueOr("end", ""); got != "5" {
		t.Errorf("end = %q, want explicit %q", got, "5")
	}
	if cfg.Has("label") {
		t.Error("label has no default and should stay unset")
	}
}

func TestSchema_Lookup(t *testing.T) {
	s := numbersSchema()
	if k, ok := s.Lookup("end"); !ok || k.Default != "100" {
		t.Errorf("Lookup(end) = %+v, %v", k, ok)
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestKey_JSON(t *testing.T) {
	in := Key{Name: "tags", Type: Slice(String()), Required: true, Description: "labels"}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"name":"tags","type":"[string]","required":true,"description":"labels"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var out Key
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Name != "tags" || out.Type.Name() != "[string]" || !out.Required {
		t.Errorf("Unmarshal() = %+v", out)
	}

	if err := json.Unmarshal([]byte(`{"name":"x","type":"matrix"}`), &out); err == nil {
		t.Error("Unmarshal() should reject unknown types")
	}
}
