// Package meta provides functionality for managing request metadata through context.
package meta

import (
	"context"

	"github.com/code19m/errx"
)

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID represents a unique identifier for tracing requests across services.
	TraceID ContextKey = "trace_id"

	// ActorID identifies the authenticated actor making the request.
	ActorID ContextKey = "actor_id"

	// ActorType indicates the kind of actor (user, service).
	ActorType ContextKey = "actor_type"

	// ActorRole is the already-authenticated role of the actor ("admin" or "owner").
	ActorRole ContextKey = "actor_role"

	// RecordID is the record store id of the project the request operates on.
	RecordID ContextKey = "record_id"

	// IPAddress contains the client's IP address.
	IPAddress ContextKey = "ip_address"

	// UserAgent contains the user agent string from the request.
	UserAgent ContextKey = "user_agent"

	// ServiceName identifies the name of current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"
)

// allKeys lists the keys extracted by ExtractMetaFromContext.
//
//nolint:gochecknoglobals // static lookup list
var allKeys = []ContextKey{
	TraceID,
	ActorID,
	ActorType,
	ActorRole,
	RecordID,
	IPAddress,
	UserAgent,
	ServiceName,
	ServiceVersion,
}

// InjectMetaToContext adds metadata from the provided map to the context.
// It only adds values that are not empty strings and returns a new context
// with the added values.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext extracts all metadata from the provided context.
// Only non-empty string values of the predefined keys are included in the returned map.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range allKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// Find returns the string value stored under key, or an empty string.
func Find(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// ShouldGetMeta returns the string value stored under key.
// It fails when the key is missing or holds a non-string value.
func ShouldGetMeta(ctx context.Context, key ContextKey) (string, error) {
	raw := ctx.Value(key)
	if raw == nil {
		return "", errx.New("meta key not found", errx.WithDetails(errx.D{"key": string(key)}))
	}
	v, ok := raw.(string)
	if !ok {
		return "", errx.New("meta value type mismatch", errx.WithDetails(errx.D{"key": string(key)}))
	}
	return v, nil
}
