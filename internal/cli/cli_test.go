package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pratik-mahalle/soar/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadIncident(t *testing.T) {
	jsonPath := writeFile(t, "incident.json", `{
		"severity": "CRITICAL",
		"source_system": "scada_monitor",
		"affected_assets": ["plc-01"],
		"indicators": {"alert_type": "malware_detected"}
	}`)
	yamlPath := writeFile(t, "incident.yaml", `
severity: HIGH
affected_assets: [gw-01, gw-02]
indicators:
  event: iot_botnet
  ports: [23, 2323]
automated_response: false
`)

	t.Run("json", func(t *testing.T) {
		req, err := readIncident(jsonPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "CRITICAL", req.Severity)
		assert.Equal(t, "scada_monitor", req.SourceSystem)
		assert.Equal(t, []string{"plc-01"}, req.AffectedAssets)
		assert.Equal(t, "malware_detected", req.Indicators["alert_type"])
	})

	t.Run("yaml", func(t *testing.T) {
		req, err := readIncident(yamlPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "HIGH", req.Severity)
		assert.Len(t, req.AffectedAssets, 2)
		assert.Equal(t, "iot_botnet", req.Indicators["event"])
		require.NotNil(t, req.AutomatedResponse)
		assert.False(t, *req.AutomatedResponse)
	})

	t.Run("stdin", func(t *testing.T) {
		req, err := readIncident("-", strings.NewReader(`{"severity":"LOW"}`))
		require.NoError(t, err)
		assert.Equal(t, "LOW", req.Severity)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := readIncident("", nil)
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := readIncident(writeFile(t, "bad.json", `{"severity":`), nil)
		assert.Error(t, err)
	})
}

func TestIsRemote(t *testing.T) {
	incidents := newIncidentsCmd()
	list, _, err := incidents.Find([]string{"list"})
	require.NoError(t, err)

	assert.True(t, isRemote(incidents))
	assert.True(t, isRemote(list), "subcommands inherit the remote annotation")
	assert.False(t, isRemote(newRunCmd()))
	assert.False(t, isRemote(newPlaybooksCmd()))
}

func TestTokenCmd(t *testing.T) {
	cmd := newTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--secret", "s3cret", "--subject", "oncall", "--role", "admin", "--ttl", "1h"})

	require.NoError(t, cmd.Execute())

	claims, err := auth.ParseClaims(strings.TrimSpace(out.String()), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "oncall", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCmd_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cmd := newTokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}
