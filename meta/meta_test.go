package meta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/meta"
)

func TestInjectAndExtract(t *testing.T) {
	tests := []struct {
		name     string
		data     map[meta.ContextKey]string
		expected map[meta.ContextKey]string
	}{
		{
			name:     "empty map",
			data:     map[meta.ContextKey]string{},
			expected: map[meta.ContextKey]string{},
		},
		{
			name: "actor and record",
			data: map[meta.ContextKey]string{
				meta.ActorID:   "usr_1",
				meta.ActorRole: "owner",
				meta.RecordID:  "rec123",
			},
			expected: map[meta.ContextKey]string{
				meta.ActorID:   "usr_1",
				meta.ActorRole: "owner",
				meta.RecordID:  "rec123",
			},
		},
		{
			name: "empty values are skipped",
			data: map[meta.ContextKey]string{
				meta.TraceID: "trace-1",
				meta.ActorID: "",
			},
			expected: map[meta.ContextKey]string{
				meta.TraceID: "trace-1",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := meta.InjectMetaToContext(t.Context(), tc.data)
			assert.Equal(t, tc.expected, meta.ExtractMetaFromContext(ctx))
		})
	}
}

func TestExtractIgnoresUnknownAndNonString(t *testing.T) {
	ctx := context.WithValue(t.Context(), meta.ContextKey("custom_key"), "custom")
	ctx = context.WithValue(ctx, meta.TraceID, 42)
	ctx = context.WithValue(ctx, meta.ServiceName, "projectdocs")

	assert.Equal(t, map[meta.ContextKey]string{meta.ServiceName: "projectdocs"}, meta.ExtractMetaFromContext(ctx))
}

func TestFind(t *testing.T) {
	ctx := context.WithValue(t.Context(), meta.ActorRole, "admin")

	assert.Equal(t, "admin", meta.Find(ctx, meta.ActorRole))
	assert.Empty(t, meta.Find(ctx, meta.ActorID))
}

func TestShouldGetMeta(t *testing.T) {
	tests := []struct {
		name          string
		ctx           func() context.Context
		key           meta.ContextKey
		expectedValue string
		errorContains string
	}{
		{
			name: "valid string value",
			ctx: func() context.Context {
				return context.WithValue(t.Context(), meta.TraceID, "trace-xyz")
			},
			key:           meta.TraceID,
			expectedValue: "trace-xyz",
		},
		{
			name:          "key not found",
			ctx:           t.Context,
			key:           meta.ActorID,
			errorContains: "key not found",
		},
		{
			name: "type mismatch",
			ctx: func() context.Context {
				return context.WithValue(t.Context(), meta.ActorID, 12345)
			},
			key:           meta.ActorID,
			errorContains: "type mismatch",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, err := meta.ShouldGetMeta(tc.ctx(), tc.key)
			if tc.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorContains)
				assert.Empty(t, value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, value)
		})
	}
}
