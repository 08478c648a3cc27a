package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/script"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexpure.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	langs, err := cfg.LanguageList()
	require.NoError(t, err)
	assert.Equal(t, []script.Language{"fr", "ar", "en"}, langs)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "mymemory", cfg.Providers[0].Name)
	assert.Equal(t, 90.0, cfg.Thresholds.ChatMessage)
	assert.Equal(t, 85.0, cfg.Thresholds.LegalDocument)
	assert.Equal(t, 98.0, cfg.Thresholds.UILabel)
	assert.Equal(t, 4*time.Second, cfg.Timeouts.InteractiveCall)
	assert.Equal(t, 12, cfg.Sanitizer.MaxRun)
	assert.Equal(t, CacheSQLite, cfg.Cache.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
languages: [fr, ar]
providers:
  - name: ollama
    base_url: http://localhost:11434
    models: [aya:35b]
    rate_per_second: 2
  - name: google
    credentials: /etc/gcp.json
thresholds:
  chat_message: 92
  legal_document: 80
  ui_label: 99
timeouts:
  interactive_call: 2s
  interactive_request: 6s
  batch_call: 20s
  batch_request: 1m
max_attempts: 3
sanitizer:
  max_run: 8
cache:
  backend: redis
  ttl: 24h
  redis_addr: cache:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"fr", "ar"}, cfg.Languages)
	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, Provider{Name: "ollama", BaseURL: "http://localhost:11434", Models: []string{"aya:35b"}, RatePerSecond: 2}, cfg.Providers[0])
	assert.Equal(t, "/etc/gcp.json", cfg.Providers[1].Credentials)

	th := cfg.GateThresholds()
	assert.Equal(t, 92.0, th[internal.ChatMessage])
	assert.Equal(t, 80.0, th[internal.LegalDocument])
	assert.Equal(t, 99.0, th[internal.UILabel])

	oc := cfg.OrchestratorConfig()
	assert.Equal(t, 2*time.Second, oc.InteractiveCallTimeout)
	assert.Equal(t, time.Minute, oc.BatchRequestTimeout)
	assert.Equal(t, 3, oc.MaxAttempts)
	assert.Equal(t, 4000, oc.ChunkChars)

	assert.Equal(t, 8, cfg.Sanitizer.MaxRun)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEXPURE_CACHE_BACKEND", "memory")
	t.Setenv("LEXPURE_THRESHOLDS_UI_LABEL", "95")
	t.Setenv("LEXPURE_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "cache:\n  backend: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 95.0, cfg.Thresholds.UILabel)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown language family": "languages: [fr, am]\n",
		"bad language code":       "languages: [\"!!\"]\n",
		"no languages":            "languages: []\n",
		"zero threshold":          "thresholds:\n  chat_message: 0\n",
		"threshold above 100":     "thresholds:\n  ui_label: 101\n",
		"provider without name":   "providers:\n  - api_key: x\n",
		"duplicate provider":      "providers:\n  - name: google\n  - name: google\n",
		"negative rate":           "providers:\n  - name: google\n    rate_per_second: -1\n",
		"call exceeds request":    "timeouts:\n  interactive_call: 20s\n  interactive_request: 10s\n",
		"zero attempts":           "max_attempts: 0\n",
		"zero max run":            "sanitizer:\n  max_run: 0\n",
		"unknown cache backend":   "cache:\n  backend: memcached\n",
		"negative ttl":            "cache:\n  ttl: -1h\n",
		"zero audit interval":     "audit:\n  interval: 0s\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
