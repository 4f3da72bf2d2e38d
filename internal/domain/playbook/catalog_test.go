package playbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{
		"apt_campaign_response",
		"critical_malware_advanced",
		"data_exfiltration_response",
		"iot_botnet_response",
		"iot_device_compromise",
		"network_intrusion_response",
	}, c.Names())

	p, ok := c.Get("critical_malware_advanced")
	require.True(t, ok)
	assert.Equal(t, incident.SeverityCritical, p.Severity)
	assert.Equal(t, AutomationFull, p.AutomationLevel)
	assert.Equal(t, 300*time.Second, p.MaxExecutionTime)
	assert.Equal(t, 15*time.Minute, p.MTTRTarget)
	require.Len(t, p.Actions, 5)
	assert.Equal(t, "immediate_isolation", p.Actions[0].Name)
	assert.True(t, p.Actions[0].CriticalPath)
	assert.Equal(t, 10*time.Second, p.Actions[0].Timeout)

	dx, ok := c.Get("data_exfiltration_response")
	require.True(t, ok)
	assert.True(t, dx.AutomationLevel.HaltsOnFailure())
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p, ok := c.Get("iot_botnet_response")
	require.True(t, ok)
	p.Actions[0].Name = "mutated"
	p.TriggerKeywords[0] = "mutated"

	again, _ := c.Get("iot_botnet_response")
	assert.Equal(t, "iot_device_isolation_bulk", again.Actions[0].Name)
	assert.Equal(t, "iot_botnet", again.TriggerKeywords[0])

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestNewCatalog_Rejects(t *testing.T) {
	base := func() Playbook {
		return testPlaybook("pb", incident.SeverityHigh, "kw")
	}

	tests := []struct {
		name   string
		mutate func(p *Playbook)
	}{
		{"no keywords", func(p *Playbook) { p.TriggerKeywords = nil }},
		{"blank keyword", func(p *Playbook) { p.TriggerKeywords = []string{" "} }},
		{"bad severity", func(p *Playbook) { p.Severity = "SEVERE" }},
		{"bad automation", func(p *Playbook) { p.AutomationLevel = "auto" }},
		{"no actions", func(p *Playbook) { p.Actions = nil }},
		{"zero step", func(p *Playbook) { p.Actions[0].Step = 0 }},
		{"zero timeout", func(p *Playbook) { p.Actions[0].Timeout = 0 }},
		{"duplicate step", func(p *Playbook) {
			p.Actions = append(p.Actions, Action{Step: 1, Name: "again", Timeout: time.Second})
		}},
		{"bad condition", func(p *Playbook) { p.Actions[0].Condition = "threat_level > high" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			_, err := NewCatalog(p)
			assert.Error(t, err)
		})
	}

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewCatalog(base(), base())
		assert.ErrorContains(t, err, "duplicate playbook")
	})

	t.Run("automation defaults to full", func(t *testing.T) {
		p := base()
		p.AutomationLevel = ""
		c, err := NewCatalog(p)
		require.NoError(t, err)
		got, _ := c.Get("pb")
		assert.Equal(t, AutomationFull, got.AutomationLevel)
	})
}

func TestParse(t *testing.T) {
	valid := `
playbooks:
  - name: custom
    severity: high
    trigger_keywords: [beacon]
    actions:
      - step: 1
        action: block_beacon
        timeout: 5
        condition: if asset_count >= 1
`
	c, err := Parse([]byte(valid))
	require.NoError(t, err)
	p, ok := c.Get("custom")
	require.True(t, ok)
	assert.Equal(t, incident.SeverityHigh, p.Severity)
	assert.Equal(t, AutomationFull, p.AutomationLevel)
	assert.Equal(t, 5*time.Second, p.Actions[0].Timeout)

	invalid := map[string]string{
		"malformed yaml": "playbooks: [",
		"empty catalog":  "playbooks: []",
		"missing timeout": `
playbooks:
  - name: custom
    severity: HIGH
    trigger_keywords: [beacon]
    actions:
      - step: 1
        action: block_beacon
`,
		"unknown automation": `
playbooks:
  - name: custom
    severity: HIGH
    automation_level: sometimes
    trigger_keywords: [beacon]
    actions:
      - step: 1
        action: block_beacon
        timeout: 5
`,
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := []byte("playbooks:\n  - name: one\n    severity: LOW\n    trigger_keywords: [x]\n    actions:\n      - {step: 1, action: a, timeout: 1}\n")
	require.NoError(t, os.WriteFile(path, doc, 0o600))

	c, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, c.Names())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
