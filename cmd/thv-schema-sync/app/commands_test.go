package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-schema-sync/internal/inventory"
	"github.com/stacklok/toolhive-schema-sync/internal/versions"
)

const testModel = `modules:
  - name: A
    revision: "2020-01-01"
    namespace: urn:a
  - name: B
    revision: "2021-02-02"
    namespace: urn:b
`

// writeConfig writes a model and a config using a SQLite store under a temp dir
func writeConfig(t *testing.T, storeType string) string {
	t.Helper()
	dir := t.TempDir()

	modelPath := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(modelPath, []byte(testModel), 0600))

	cfg := fmt.Sprintf(`nodeName: node-a
source:
  path: %s
store:
  type: %s
  path: %s
`, modelPath, storeType, filepath.Join(dir, "records.db"))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	return cfgPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	assert.Equal(t, "thv-schema-sync", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"serve", "publish", "inspect", "migrate", "version"})
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "version", "--format", "json")
	require.NoError(t, err)

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, versions.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	out, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "thv-schema-sync "+versions.Version))
}

func TestPublishAndInspect(t *testing.T) {
	t.Parallel()
	cfgPath := writeConfig(t, "sqlite")

	out, err := execute(t, "", "publish", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Complete", gjson.Get(out, "phase").String())
	assert.Equal(t, int64(1), gjson.Get(out, "generation").Int())
	assert.Equal(t, "committed", gjson.Get(out, "library.classification").String())
	assert.Empty(t, gjson.Get(out, "capabilities.error").String())

	out, err = execute(t, "", "inspect", "--config", cfgPath,
		"--query", "ietf-yang-library:modules-state.module-set-id")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	out, err = execute(t, "", "inspect", "--config", cfgPath,
		"--query", "ietf-yang-library:modules-state.module.#.name")
	require.NoError(t, err)
	assert.JSONEq(t, `["A","B"]`, strings.TrimSpace(out))

	out, err = execute(t, "", "inspect", "--config", cfgPath,
		"--kind", inventory.CapabilitiesKind.String())
	require.NoError(t, err)
	assert.True(t, gjson.Valid(out))

	_, err = execute(t, "", "inspect", "--config", cfgPath, "--query", "missing.path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched nothing")
}

func TestInspectCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		storeType     string
		args          []string
		errorContains string
	}{
		{
			name:          "memory store",
			storeType:     "memory",
			errorContains: "memory store cannot be inspected",
		},
		{
			name:          "malformed kind",
			storeType:     "sqlite",
			args:          []string{"--kind", "modules-state"},
			errorContains: "module:name",
		},
		{
			name:          "nothing published",
			storeType:     "sqlite",
			errorContains: "no record published",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args := append([]string{"inspect", "--config", writeConfig(t, tt.storeType)}, tt.args...)
			_, err := execute(t, "", args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestSelectPayload(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"a":{"b":"text","n":3,"list":[1,2]}}`)

	tests := []struct {
		name    string
		payload []byte
		query   string
		want    string
		wantErr bool
	}{
		{name: "whole payload", payload: payload, want: string(payload)},
		{name: "string is unquoted", payload: payload, query: "a.b", want: "text"},
		{name: "number", payload: payload, query: "a.n", want: "3"},
		{name: "array is raw", payload: payload, query: "a.list", want: "[1,2]"},
		{name: "no match", payload: payload, query: "a.c", wantErr: true},
		{name: "invalid json", payload: []byte(`{"a":`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := selectPayload(tt.payload, tt.query)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrateCmd_SQLite(t *testing.T) {
	t.Parallel()
	cfgPath := writeConfig(t, "sqlite")

	_, err := execute(t, "", "migrate", "up", "--config", cfgPath, "--yes")
	require.NoError(t, err)

	// an up-to-date database is not an error
	_, err = execute(t, "", "migrate", "up", "--config", cfgPath, "--yes")
	require.NoError(t, err)

	_, err = execute(t, "", "publish", "--config", cfgPath)
	require.NoError(t, err)

	// declined at the prompt: nothing is reverted
	out, err := execute(t, "no\n", "migrate", "down", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Continue?")

	_, err = execute(t, "", "inspect", "--config", cfgPath)
	require.NoError(t, err)
}

func TestMigrateCmd_Errors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "migrate", "up", "--config", writeConfig(t, "memory"), "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema to migrate")

	_, err = execute(t, "", "migrate", "down", "--config", writeConfig(t, "sqlite"), "--yes", "--num-steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1")
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "Y\n", want: true},
		{input: "no\n", want: false},
		{input: "\n", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()
			cmd := newMigrateCmd()
			// --yes is persistent and only reaches Flags() once parsed
			require.NoError(t, cmd.ParseFlags(nil))
			cmd.SetIn(strings.NewReader(tt.input))
			cmd.SetOut(&bytes.Buffer{})
			got, err := confirm(cmd, "Proceed.")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		t.Parallel()
		cmd := newMigrateCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--yes"}))
		cmd.SetIn(strings.NewReader(""))
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		got, err := confirm(cmd, "Proceed.")
		require.NoError(t, err)
		assert.True(t, got)
		assert.Empty(t, out.String())
	})
}

func TestLoadConfig_Missing(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "publish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file is required")
}
