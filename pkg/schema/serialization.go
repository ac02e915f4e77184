package schema

import (
	"encoding/json"
	"fmt"
)

type keyJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// MarshalJSON serializes the key with its type as a type string.
func (k Key) MarshalJSON() ([]byte, error) {
	typ := "string"
	if k.Type != nil {
		typ = k.Type.Name()
	}
	return json.Marshal(keyJSON{
		Name:        k.Name,
		Type:        typ,
		Default:     k.Default,
		Required:    k.Required,
		Description: k.Description,
	})
}

// UnmarshalJSON deserializes a key, parsing its type string.
func (k *Key) UnmarshalJSON(data []byte) error {
	var raw keyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "" {
		raw.Type = "string"
	}
	typ, err := ParseType(raw.Type)
	if err != nil {
		return fmt.Errorf("key %s: %w", raw.Name, err)
	}
	*k = Key{
		Name:        raw.Name,
		Type:        typ,
		Default:     raw.Default,
		Required:    raw.Required,
		Description: raw.Description,
	}
	return nil
}
