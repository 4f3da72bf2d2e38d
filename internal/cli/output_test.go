package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("NAME", "SCORE")
	table.writer = &buf
	table.AddRow("critical_malware_advanced", "1.00")
	table.AddRow("iot_botnet_response", "0.30")
	table.Render()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 4)
	assert.Contains(t, string(lines[0]), "NAME")
	assert.Contains(t, string(lines[1]), "----")
	assert.Contains(t, string(lines[2]), "critical_malware_advanced")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"network_segmentation_emergency", 12, "network_s..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.max))
	}
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "[+] COMPLETED", formatStatus("COMPLETED"))
	assert.Equal(t, "[-] FAILED", formatStatus("FAILED"))
	assert.Equal(t, "[~] skipped", formatStatus("skipped"))
	assert.Equal(t, "pending", formatStatus("pending"))
}

func TestFormatSeverity(t *testing.T) {
	assert.Equal(t, "[!] CRITICAL", formatSeverity("CRITICAL"))
	assert.Equal(t, "[L] LOW", formatSeverity("low"))
	assert.Equal(t, "UNKNOWN", formatSeverity("UNKNOWN"))
}
