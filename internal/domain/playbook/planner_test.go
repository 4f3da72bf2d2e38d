package playbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanner_Plan(t *testing.T) {
	p := Playbook{
		Name: "ordered",
		Actions: []Action{
			{Step: 1, Name: "a", Timeout: 10 * time.Second},
			{Step: 2, Name: "b", Timeout: 15 * time.Second, CriticalPath: true},
			{Step: 3, Name: "c", Timeout: time.Second},
			{Step: 4, Name: "d", Timeout: 60 * time.Second, CriticalPath: true},
		},
	}

	t.Run("critical incident scales timeouts", func(t *testing.T) {
		inc := testIncident(t, "CRITICAL", nil, nil)
		got := NewPlanner(0).Plan(&p, inc)

		require.Len(t, got, 4)
		names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
		assert.Equal(t, []string{"b", "d", "a", "c"}, names)

		assert.Equal(t, 10*time.Second, got[0].Timeout)
		assert.Equal(t, 42*time.Second, got[1].Timeout)
		assert.Equal(t, 7*time.Second, got[2].Timeout)
		assert.Equal(t, MinActionTimeout, got[3].Timeout)
	})

	t.Run("other severities keep timeouts", func(t *testing.T) {
		inc := testIncident(t, "HIGH", nil, nil)
		got := NewPlanner(0.5).Plan(&p, inc)
		assert.Equal(t, []string{"b", "d", "a", "c"}, []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name})
		assert.Equal(t, 15*time.Second, got[0].Timeout)
		assert.Equal(t, time.Second, got[3].Timeout)
	})

	t.Run("does not touch the template", func(t *testing.T) {
		inc := testIncident(t, "CRITICAL", nil, nil)
		_ = NewPlanner(0).Plan(&p, inc)
		assert.Equal(t, "a", p.Actions[0].Name)
		assert.Equal(t, 10*time.Second, p.Actions[0].Timeout)
	})
}

func TestNewPlanner_Factor(t *testing.T) {
	assert.Equal(t, DefaultUrgencyFactor, NewPlanner(0).UrgencyFactor)
	assert.Equal(t, DefaultUrgencyFactor, NewPlanner(1.5).UrgencyFactor)
	assert.Equal(t, 0.5, NewPlanner(0.5).UrgencyFactor)
}
