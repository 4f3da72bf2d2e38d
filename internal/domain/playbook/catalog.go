package playbook

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/validator"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is an immutable set of playbooks keyed by name. Iteration order is
// lexicographic by name.
type Catalog struct {
	playbooks map[string]*Playbook
	names     []string
}

type catalogFile struct {
	Playbooks []playbookSpec `yaml:"playbooks" json:"playbooks" validate:"required,min=1,dive"`
}

type playbookSpec struct {
	Name             string       `yaml:"name" json:"name" validate:"required,max=128"`
	Description      string       `yaml:"description" json:"description"`
	Severity         string       `yaml:"severity" json:"severity" validate:"required"`
	AutomationLevel  string       `yaml:"automation_level" json:"automation_level" validate:"omitempty,oneof=full partial manual_approval"`
	TriggerKeywords  []string     `yaml:"trigger_keywords" json:"trigger_keywords" validate:"required,min=1,dive,required"`
	MaxExecutionTime int          `yaml:"max_execution_time" json:"max_execution_time" validate:"gte=0"`
	MTTRTarget       int          `yaml:"mttr_target" json:"mttr_target" validate:"gte=0"`
	Actions          []actionSpec `yaml:"actions" json:"actions" validate:"required,min=1,dive"`
}

type actionSpec struct {
	Step              int    `yaml:"step" json:"step" validate:"gte=1"`
	Action            string `yaml:"action" json:"action" validate:"required"`
	Timeout           int    `yaml:"timeout" json:"timeout" validate:"gt=0"`
	CriticalPath      bool   `yaml:"critical_path" json:"critical_path"`
	ParallelExecution bool   `yaml:"parallel_execution" json:"parallel_execution"`
	AIOptimized       bool   `yaml:"ai_optimized" json:"ai_optimized"`
	Condition         string `yaml:"condition" json:"condition"`
}

// NewCatalog validates the playbooks and builds a catalog
func NewCatalog(playbooks ...Playbook) (*Catalog, error) {
	c := &Catalog{playbooks: make(map[string]*Playbook, len(playbooks))}
	for i := range playbooks {
		p := playbooks[i].Clone()
		if p.AutomationLevel == "" {
			p.AutomationLevel = AutomationFull
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.playbooks[p.Name]; dup {
			return nil, fmt.Errorf("duplicate playbook %s", p.Name)
		}
		c.playbooks[p.Name] = p
		c.names = append(c.names, p.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse playbook catalog: %w", err)
	}

	if errs := validator.Validate(file); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("invalid playbook catalog: %s", strings.Join(msgs, "; "))
	}

	playbooks := make([]Playbook, 0, len(file.Playbooks))
	for _, entry := range file.Playbooks {
		p, err := entry.toPlaybook()
		if err != nil {
			return nil, err
		}
		playbooks = append(playbooks, p)
	}
	return NewCatalog(playbooks...)
}

// Load reads a YAML catalog from disk
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// LoadOrDefault loads path, or the built-in catalog when path is empty
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func (s playbookSpec) toPlaybook() (Playbook, error) {
	sev, err := incident.ParseSeverity(s.Severity)
	if err != nil {
		return Playbook{}, fmt.Errorf("playbook %s: %w", s.Name, err)
	}

	actions := make([]Action, len(s.Actions))
	for i, a := range s.Actions {
		actions[i] = Action{
			Step:              a.Step,
			Name:              a.Action,
			Timeout:           time.Duration(a.Timeout) * time.Second,
			CriticalPath:      a.CriticalPath,
			ParallelExecution: a.ParallelExecution,
			AIOptimized:       a.AIOptimized,
			Condition:         strings.TrimSpace(a.Condition),
		}
	}

	return Playbook{
		Name:             s.Name,
		Description:      s.Description,
		TriggerKeywords:  s.TriggerKeywords,
		Severity:         sev,
		AutomationLevel:  AutomationLevel(s.AutomationLevel),
		MaxExecutionTime: time.Duration(s.MaxExecutionTime) * time.Second,
		MTTRTarget:       time.Duration(s.MTTRTarget) * time.Minute,
		Actions:          actions,
	}, nil
}

// All returns copies of every playbook in name order
func (c *Catalog) All() []*Playbook {
	out := make([]*Playbook, len(c.names))
	for i, name := range c.names {
		out[i] = c.playbooks[name].Clone()
	}
	return out
}

// Get returns a copy of the named playbook
func (c *Catalog) Get(name string) (*Playbook, bool) {
	p, ok := c.playbooks[name]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Names returns playbook names in iteration order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of playbooks
func (c *Catalog) Len() int {
	return len(c.names)
}
