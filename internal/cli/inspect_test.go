package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInspectCommand(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewInspectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestInspectAllContainers(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "text", dir)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Endpoint (struct)  fingerprint ")
	assert.Contains(t, output, "A dialable endpoint.")
	assert.Contains(t, output, "Scheme (enum)  fingerprint ")

	// v1 carries the original names, v3 the deprecated ones
	assert.Contains(t, output, "v1:")
	assert.Contains(t, output, "host")
	assert.Contains(t, output, "v3:")
	assert.Contains(t, output, "deprecated_log_target  string  (deprecated: use sinks)")
	assert.Contains(t, output, "DeprecatedPlain  (deprecated: always encrypt)")
	assert.Contains(t, output, "Wss")
}

func TestInspectContainerFilter(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "text", dir, "--container", "Scheme")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Scheme (enum)")
	assert.NotContains(t, output, "Endpoint (struct)")
}

func TestInspectUnknownContainer(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "text", dir, "--container", "Widget")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, buf.String(), "have: Endpoint, Scheme")
}

func TestInspectVersionFilter(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "text", dir, "--version", "v1")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Endpoint (struct)")
	assert.Contains(t, output, "v1:")
	assert.Contains(t, output, "host")
	assert.Contains(t, output, "log_target")
	assert.NotContains(t, output, "tls", "members added later are absent")
	assert.NotContains(t, output, "Wss")
	assert.NotContains(t, output, "v2:")
}

func TestInspectUnknownVersion(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	_, err := runInspectCommand(t, "text", dir, "--version", "v9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not declared")
}

func TestInspectContainerAndVersion(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "text", dir, "--container", "Scheme", "--version", "v2")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Scheme (enum)")
	assert.Contains(t, output, "Https")
	assert.Contains(t, output, "Plain")
	assert.Contains(t, output, "Wss")
	assert.NotContains(t, output, "DeprecatedPlain")
	assert.NotContains(t, output, "Endpoint")
}

func TestInspectDump(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "text", dir, "--dump")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "ir.CombinedDescriptor")
	assert.Contains(t, output, "Endpoint")
}

func TestInspectJSON(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "json", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	descs, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, descs, 2)

	first, ok := descs[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Endpoint", first["container"])
	versions, ok := first["versions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, versions, 3)
}

func TestInspectVersionJSON(t *testing.T) {
	dir := writeDefs(t, endpointDefs)

	buf, err := runInspectCommand(t, "json", dir, "--container", "Endpoint", "--version", "v2")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	defs, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, defs, 1)

	def, ok := defs[0].(map[string]interface{})
	require.True(t, ok)
	members, ok := def["members"].([]interface{})
	require.True(t, ok)
	assert.Len(t, members, 5)
}
