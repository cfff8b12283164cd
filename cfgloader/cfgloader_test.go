package cfgloader_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/cfgloader"
	"github.com/rise-and-shine/projectdocs/schemaopt"
)

type testConfig struct {
	Bucket  string        `yaml:"bucket" validate:"required"`
	Token   string        `yaml:"token" mask:"true"`
	Delay   time.Duration `yaml:"delay" default:"2m"`
	Retries int           `yaml:"retries" default:"3"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_BUCKET_NAME", "docs")

	tests := []struct {
		name    string
		body    string
		want    testConfig
		wantErr string
	}{
		{
			name: "defaults and env expansion",
			body: "bucket: ${TEST_BUCKET_NAME}\ntoken: secret\n",
			want: testConfig{Bucket: "docs", Token: "secret", Delay: 2 * time.Minute, Retries: 3},
		},
		{
			name: "explicit values win over defaults",
			body: "bucket: b\ndelay: 5s\nretries: 1\n",
			want: testConfig{Bucket: "b", Delay: 5 * time.Second, Retries: 1},
		},
		{
			name:    "validation failure",
			body:    "token: x\n",
			wantErr: "Bucket: required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := cfgloader.LoadFile[testConfig](writeConfig(t, tc.body))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := cfgloader.LoadFile[testConfig](filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadFileSeasonVerification(t *testing.T) {
	type appConfig struct {
		Seasons schemaopt.Config `yaml:"seasons"`
	}

	tests := []struct {
		name     string
		body     string
		wantSkip bool
	}{
		{name: "verification on by default", body: "seasons:\n  field: Season\n"},
		{name: "explicit false kept", body: "seasons:\n  skip_verify_after_add: false\n"},
		{name: "explicit true kept", body: "seasons:\n  skip_verify_after_add: true\n", wantSkip: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := cfgloader.LoadFile[appConfig](writeConfig(t, tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.wantSkip, cfg.Seasons.SkipVerifyAfterAdd)
			assert.Equal(t, "Projects", cfg.Seasons.Table)
		})
	}
}

func TestLoadFileRejectsBracedSeasonFields(t *testing.T) {
	type appConfig struct {
		Seasons schemaopt.Config `yaml:"seasons"`
	}

	for _, body := range []string{
		"seasons:\n  field: \"Season}\"\n",
		"seasons:\n  sentinel_field: \"{Notes\"\n",
	} {
		_, err := cfgloader.LoadFile[appConfig](writeConfig(t, body))
		require.Error(t, err, body)
		assert.Contains(t, err.Error(), "excludesall={}", body)
	}
}
