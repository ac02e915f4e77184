// Package middleware decorates a ports.BlueprintStore with validation,
// redaction of sensitive config values and encryption at rest.
package middleware
