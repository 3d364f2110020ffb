package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

var backends = []string{"gini", "fake"}

func TestParse(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(`
backend: fake
logic: QF_BV
options:
  produce-models: "true"
timeout: 1500ms
log:
  level: debug
  json: true
metrics: true
intWidth: 16
`))
	require.NoError(t, err)
	want := Config{
		Backend:  "fake",
		Logic:    "QF_BV",
		Options:  map[string]string{"produce-models": "true"},
		Timeout:  Duration{1500 * time.Millisecond},
		Log:      Log{Level: "debug", JSON: true},
		Metrics:  true,
		IntWidth: 16,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, cfg.Validate(backends))
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte("logic: QF_UF\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBackend, cfg.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.Timeout.Duration)

	cfg, err = Parse([]byte("backend: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBackend, cfg.Backend)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	for _, data := range []string{
		"timeout: soon\n",
		"timeout: 5\n",
		"colour: blue\n",
		"options: [a]\n",
	} {
		_, err := Parse([]byte(data))
		assert.True(t, verr.IsUsage(err), "%q: %v", data, err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", Default(), true},
		{"unknown backend", Config{Backend: "z3"}, false},
		{"negative timeout", Config{Backend: "gini", Timeout: Duration{-time.Second}}, false},
		{"wide integers", Config{Backend: "gini", IntWidth: 128}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate(backends)
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.True(t, verr.IsUsage(err), tt.name)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "smtswitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 2s\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout.Duration)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDurationRoundTrip(t *testing.T) {
	t.Parallel()
	b, err := Duration{90 * time.Second}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}
