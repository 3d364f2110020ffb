package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--no-color"}, args...))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const bvPolicy = `package limits

hit if {
	input.parameters.n + 3 == 10
}

miss if {
	input.parameters.n > 5
	input.parameters.n < 3
}
`

func fixture(t *testing.T) (cfg, spec, policy string) {
	t.Helper()
	dir := t.TempDir()
	cfg = writeFile(t, dir, "smtswitch.yaml", "backend: gini\nintWidth: 8\ntimeout: 10s\n")
	spec = writeFile(t, dir, "params.yaml", "spec:\n  parameters:\n    - name: n\n      type: int\n")
	policy = writeFile(t, dir, "limits.rego", bvPolicy)
	return cfg, spec, policy
}

func TestBackends(t *testing.T) {
	out, _, err := run(t, "backends")
	require.NoError(t, err)
	assert.Equal(t, "gini\n", out)
}

func TestSort(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"bvadd", "(_ BitVec 4)", "(_ BitVec 4)"}, "(_ BitVec 4)\n"},
		{[]string{"(_ extract 7 4)", "(_ BitVec 8)"}, "(_ BitVec 4)\n"},
		{[]string{"select", "(Array Int Bool)", "Int"}, "Bool\n"},
		{[]string{"concat", "(_ BitVec 3)", "(_ BitVec 5)"}, "(_ BitVec 8)\n"},
	}
	for _, tt := range tests {
		out, _, err := run(t, append([]string{"sort"}, tt.args...)...)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, out, tt.args)
	}

	_, _, err := run(t, "sort", "bvadd", "(_ BitVec 4)", "(_ BitVec 5)")
	assert.True(t, verr.IsUsage(err))
	_, _, err = run(t, "sort", "frob")
	assert.True(t, verr.IsUsage(err))
}

func TestCheck(t *testing.T) {
	cfg, spec, policy := fixture(t)
	want := "hit: sat\n  n = 7\nmiss: unsat\n"

	out, _, err := run(t, "--config", cfg, "check", "--spec", spec, policy)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	out, _, err = run(t, "--config", cfg, "check", "--per-rule", "--spec", spec, policy)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestCheckMetricsAndLogging(t *testing.T) {
	cfg, spec, policy := fixture(t)
	_, stderr, err := run(t, "--config", cfg, "--metrics", "--log-level", "debug", "check", "--spec", spec, policy)
	require.NoError(t, err)
	assert.Contains(t, stderr, `smtswitch_check_sat_total{backend="gini",result="sat"} 1`)
	assert.Contains(t, stderr, `smtswitch_check_sat_total{backend="gini",result="unsat"} 1`)
	assert.Contains(t, stderr, "module=data.limits")
}

func TestCheckErrors(t *testing.T) {
	_, spec, policy := fixture(t)
	dir := t.TempDir()

	_, _, err := run(t, "check", filepath.Join(dir, "missing.rego"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.rego", "package p\n\nallow if {\n")
	_, _, err = run(t, "check", bad)
	assert.True(t, verr.IsUsage(err))

	// Integers are unsupported by the Boolean engine without a bit width.
	_, _, err = run(t, "check", "--spec", spec, policy)
	assert.True(t, verr.IsUnsupported(err), "%v", err)

	badCfg := writeFile(t, dir, "bad.yaml", "backend: nope\n")
	_, _, err = run(t, "--config", badCfg, "check", "--spec", spec, policy)
	assert.True(t, verr.IsUsage(err))
}

func TestCheckInputExample(t *testing.T) {
	cfg, _, _ := fixture(t)
	dir := t.TempDir()
	example := writeFile(t, dir, "input.yaml", "replicas: 3\nenabled: true\n")
	policy := writeFile(t, dir, "input.rego", "package p\n\nscale if {\n\tinput.replicas + 1 == 5\n\tinput.enabled\n}\n")

	out, _, err := run(t, "--config", cfg, "check", "--input-schema", example, "--input-example", policy)
	require.NoError(t, err)
	assert.Equal(t, "scale: sat\n  input.replicas = 4\n  input.enabled = true\n", out)
}
