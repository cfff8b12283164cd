package val_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/val"
)

type uploadRequest struct {
	Filename string `json:"filename" validate:"required,safe_filename"`
	Season   string `json:"season" validate:"omitempty,season_name"`
	Index    int    `json:"index" validate:"gte=0"`
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name       string
		req        uploadRequest
		wantFields map[string]string
	}{
		{
			name: "valid",
			req:  uploadRequest{Filename: "map.pdf", Season: "24-25"},
		},
		{
			name: "path in filename",
			req:  uploadRequest{Filename: "../etc/passwd"},
			wantFields: map[string]string{
				"filename": "Must be a plain file name without directories",
			},
		},
		{
			name: "missing filename and bad season",
			req:  uploadRequest{Season: "!!", Index: -1},
			wantFields: map[string]string{
				"filename": "This field is required",
				"season":   "Must be a season name such as 24-25",
				"index":    "Must be greater than or equal to 0",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := val.ValidateSchema(tc.req)
			if tc.wantFields == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errx.IsCodeIn(err, docerr.CodeValidationFailed))
			assert.Equal(t, errx.T_Validation, errx.GetType(err))
			assert.Equal(t, tc.wantFields, map[string]string(errx.AsErrorX(err).Fields()))
		})
	}
}

func TestIsSeasonName(t *testing.T) {
	for _, name := range []string{"24-25", "24 - 25", "24 –25", "Spring 2025"} {
		assert.True(t, val.IsSeasonName(name), name)
	}
	for _, name := range []string{"", "  ", "-24", "'; DROP"} {
		assert.False(t, val.IsSeasonName(name), name)
	}
}
