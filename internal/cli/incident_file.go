package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"gopkg.in/yaml.v3"
)

// readIncident decodes an incident payload. YAML is used for .yaml and .yml
// files, JSON otherwise. A path of "-" reads stdin.
func readIncident(path string, stdin io.Reader) (incident.NewIncident, error) {
	var req incident.NewIncident
	if path == "" {
		return req, fmt.Errorf("an incident file is required (--file)")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read incident: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return req, fmt.Errorf("failed to parse incident %s: %w", path, err)
	}
	return req, nil
}

// cliLogger writes engine logs to stderr so stdout stays machine readable
func cliLogger(level string) *logger.Logger {
	return logger.New(logger.Config{
		Level:  level,
		Format: "console",
		Output: os.Stderr,
	})
}
