// Package schema declares and validates the config keys of process types.
//
// Config values are strings, so a Type checks that a value parses: int,
// float, bool, duration, comma-separated lists and custom validators.
// A Schema is the ordered list of keys a process type understands.
//
// Basic usage:
//
//	keys := schema.Schema{
//	    {Name: "start", Type: schema.Int(), Default: "0"},
//	    {Name: "end", Type: schema.Int(), Default: "100"},
//	    {Name: "output", Type: schema.String(), Required: true},
//	}
//
//	if err := keys.ApplyDefaults(cfg); err != nil {
//	    // read-only key collision
//	}
//	if err := schema.Validate(keys, cfg); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // one *ValidationError per bad key
//	    }
//	}
//
// Types can also be parsed from their names ("int", "[string]"), which is how
// keys round-trip through JSON.
package schema
