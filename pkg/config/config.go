package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// BlockSep separates the segments of a block key ("_edge:capacity").
const BlockSep = ":"

// ErrReadOnly is returned when writing a key that has been marked read-only.
var ErrReadOnly = errors.New("config key is read-only")

// Config is a snapshot of string key/value pairs.
// Read methods are safe on a nil *Config and behave as if it were empty.
type Config struct {
	values   map[string]string
	readOnly map[string]struct{}
}

// Empty returns a config with no keys.
func Empty() *Config {
	return &Config{
		values:   make(map[string]string),
		readOnly: make(map[string]struct{}),
	}
}

// FromMap builds a config from plain pairs.
func FromMap(m map[string]string) *Config {
	c := Empty()
	maps.Copy(c.values, m)
	return c
}

// SetValue sets key to value.
func (c *Config) SetValue(key, value string) error {
	if _, ro := c.readOnly[key]; ro {
		return fmt.Errorf("%w: %s", ErrReadOnly, key)
	}
	c.values[key] = value
	return nil
}

// Unset removes key.
func (c *Config) Unset(key string) error {
	if _, ro := c.readOnly[key]; ro {
		return fmt.Errorf("%w: %s", ErrReadOnly, key)
	}
	delete(c.values, key)
	return nil
}

// Value returns the value stored at key.
func (c *Config) Value(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.values[key]
	return v, ok
}

// ValueOr returns the value stored at key, or def when absent.
func (c *Config) ValueOr(key, def string) string {
	if v, ok := c.Value(key); ok {
		return v
	}
	return def
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	_, ok := c.Value(key)
	return ok
}

// Len returns the number of keys.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// Keys returns every key in sorted order.
func (c *Config) Keys() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.values))
}

// Subblock returns the keys under block with the "block:" prefix stripped.
func (c *Config) Subblock(block string) *Config {
	sub := Empty()
	if c == nil {
		return sub
	}
	prefix := block + BlockSep
	for k, v := range c.values {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" {
			sub.values[rest] = v
		}
	}
	return sub
}

// SetSubblock writes every key of sub under "block:".
func (c *Config) SetSubblock(block string, sub *Config) error {
	for _, k := range sub.Keys() {
		v, _ := sub.Value(k)
		if err := c.SetValue(block+BlockSep+k, v); err != nil {
			return err
		}
	}
	return nil
}

// Merge copies every key of other into c, overwriting existing values.
// Read-only keys in c are never overwritten; the first conflict aborts the merge
// before any write happens.
func (c *Config) Merge(other *Config) error {
	for _, k := range other.Keys() {
		if _, ro := c.readOnly[k]; ro {
			if v, _ := other.Value(k); v != c.values[k] {
				return fmt.Errorf("%w: %s", ErrReadOnly, k)
			}
		}
	}
	for _, k := range other.Keys() {
		c.values[k], _ = other.Value(k)
	}
	return nil
}

// MarkReadOnly prevents further writes to key.
func (c *Config) MarkReadOnly(key string) {
	c.readOnly[key] = struct{}{}
}

// IsReadOnly reports whether key has been marked read-only.
func (c *Config) IsReadOnly(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.readOnly[key]
	return ok
}

// Clone returns a deep copy, read-only marks included.
func (c *Config) Clone() *Config {
	out := Empty()
	if c == nil {
		return out
	}
	maps.Copy(out.values, c.values)
	maps.Copy(out.readOnly, c.readOnly)
	return out
}

// ToMap returns a copy of the pairs.
func (c *Config) ToMap() map[string]string {
	out := make(map[string]string, c.Len())
	if c != nil {
		maps.Copy(out, c.values)
	}
	return out
}

// Decode fills out (a pointer to a struct) from the top-level keys, using
// `config` struct tags. String values are converted to the field types.
func (c *Config) Decode(out any) error {
	input := make(map[string]any, c.Len())
	for _, k := range c.Keys() {
		input[k], _ = c.Value(k)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "config",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}
