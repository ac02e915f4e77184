package schema

import (
	"strings"

	"github.com/aretw0/flume/pkg/config"
)

// Key declares one config key a process type understands.
type Key struct {
	Name        string
	Type        Type
	Default     string
	Required    bool
	Description string
}

// Schema is the ordered list of keys a process type declares.
type Schema []Key

// Lookup returns the key declaration with the given name.
func (s Schema) Lookup(name string) (Key, bool) {
	for _, k := range s {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// ApplyDefaults writes the default of every declared key missing from cfg.
func (s Schema) ApplyDefaults(cfg *config.Config) error {
	for _, k := range s {
		if k.Default == "" || cfg.Has(k.Name) {
			continue
		}
		if err := cfg.SetValue(k.Name, k.Default); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks cfg against the schema. Missing required keys and values
// that do not parse are all reported together. Keys the schema does not
// declare are ignored, as are engine keys starting with "_".
func Validate(s Schema, cfg *config.Config) error {
	if len(s) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error
	for _, k := range s {
		value, exists := cfg.Value(k.Name)
		if !exists {
			if k.Required {
				errs = append(errs, &ValidationError{Key: k.Name, Reason: "required"})
			}
			continue
		}
		if k.Type == nil {
			continue
		}
		if err := k.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: k.Name, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateStrict is Validate plus a failure for every undeclared key that is
// not an engine key and not inside a block.
func ValidateStrict(s Schema, cfg *config.Config) error {
	var errs []error
	if err := Validate(s, cfg); err != nil {
		errs = append(errs, ValidationErrors(err)...)
	}
	for _, name := range cfg.Keys() {
		if strings.HasPrefix(name, "_") || strings.Contains(name, config.BlockSep) {
			continue
		}
		if _, ok := s.Lookup(name); !ok {
			errs = append(errs, &ValidationError{Key: name, Reason: "not declared", Value: cfg.ValueOr(name, "")})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
